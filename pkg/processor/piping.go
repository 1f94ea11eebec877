package processor

import "strings"

// Piping filters the output of one command line ("show run | include vlan").
type Piping interface {
	// Start parses the filter expression; false means the filter was refused
	// and the command must not run.
	Start(filter string) bool
	IsListening() bool
	Write(s string)
	// Stop flushes any partial line and ends filtering.
	Stop()
}

// LinePiping is the include / exclude / begin filter most vendors share.
type LinePiping struct {
	out Terminal

	listening bool
	mode      string
	pattern   string
	begun     bool
	buf       strings.Builder
}

// NewLinePiping creates a filter writing matched lines to out.
func NewLinePiping(out Terminal) *LinePiping {
	return &LinePiping{out: out}
}

// Start implements Piping.
func (p *LinePiping) Start(filter string) bool {
	tokens := strings.Fields(filter)
	if len(tokens) < 2 {
		return false
	}
	switch {
	case Matches(tokens[0], "include"):
		p.mode = "include"
	case Matches(tokens[0], "exclude"):
		p.mode = "exclude"
	case Matches(tokens[0], "begin"):
		p.mode = "begin"
	default:
		return false
	}
	p.pattern = strings.Join(tokens[1:], " ")
	p.begun = false
	p.listening = true
	return true
}

// IsListening implements Piping.
func (p *LinePiping) IsListening() bool { return p.listening }

// Write implements Piping. Lines are filtered once complete.
func (p *LinePiping) Write(s string) {
	p.buf.WriteString(s)
	pending := p.buf.String()
	idx := strings.LastIndexByte(pending, '\n')
	if idx < 0 {
		return
	}
	p.buf.Reset()
	p.buf.WriteString(pending[idx+1:])
	for _, line := range strings.SplitAfter(pending[:idx+1], "\n") {
		if line != "" {
			p.emit(line)
		}
	}
}

// Stop implements Piping.
func (p *LinePiping) Stop() {
	if p.buf.Len() > 0 {
		p.emit(p.buf.String())
		p.buf.Reset()
	}
	p.listening = false
}

func (p *LinePiping) emit(line string) {
	text := strings.TrimRight(line, "\r\n")
	switch p.mode {
	case "include":
		if !strings.Contains(text, p.pattern) {
			return
		}
	case "exclude":
		if strings.Contains(text, p.pattern) {
			return
		}
	case "begin":
		if !p.begun && !strings.Contains(text, p.pattern) {
			return
		}
		p.begun = true
	}
	p.out.Write(line)
}
