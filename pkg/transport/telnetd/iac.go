package telnetd

import "io"

type iacState int

const (
	stateData iacState = iota
	stateIAC
	stateOption
	stateSub
	stateSubIAC
	stateCR
)

// iacFilter strips telnet negotiation from a stream. "IAC IAC" is a
// literal 255 and the NUL a client may send after CR is dropped.
type iacFilter struct {
	r     io.Reader
	state iacState
}

func (f *iacFilter) Read(p []byte) (int, error) {
	for {
		n, err := f.r.Read(p)
		if n == 0 {
			return 0, err
		}
		out := f.filter(p[:n])
		if out > 0 || err != nil {
			return out, err
		}
	}
}

// filter compacts p in place and returns the number of data bytes kept.
func (f *iacFilter) filter(p []byte) int {
	kept := 0
	for _, c := range p {
		switch f.state {
		case stateCR:
			f.state = stateData
			if c == 0 {
				continue
			}
			fallthrough
		case stateData:
			switch c {
			case iac:
				f.state = stateIAC
				continue
			case '\r':
				f.state = stateCR
			}
			p[kept] = c
			kept++
		case stateIAC:
			switch c {
			case iac:
				p[kept] = c
				kept++
				f.state = stateData
			case will, wont, do, dont:
				f.state = stateOption
			case sb:
				f.state = stateSub
			default:
				f.state = stateData
			}
		case stateOption:
			f.state = stateData
		case stateSub:
			if c == iac {
				f.state = stateSubIAC
			}
		case stateSubIAC:
			if c == se {
				f.state = stateData
			} else {
				f.state = stateSub
			}
		}
	}
	return kept
}
