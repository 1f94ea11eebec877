package session

import (
	"io"
	"strings"
)

// controller is the terminal controller handed to processors. It tracks
// the text written since the last newline so unknown-command reports can
// align their caret under the prompt.
type controller struct {
	out     io.Writer
	handler func(key string)
	hidden  bool
	tail    string
}

// Write implements processor.Terminal.
func (c *controller) Write(s string) {
	if s == "" {
		return
	}
	c.out.Write([]byte(s))
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		c.tail = s[idx+1:]
	} else {
		c.tail += s
	}
}

// writeRaw echoes input without touching the tracked line.
func (c *controller) writeRaw(s string) {
	c.out.Write([]byte(s))
}

// AddAnyKeyHandler implements processor.Terminal.
func (c *controller) AddAnyKeyHandler(fn func(key string)) { c.handler = fn }

// RemoveAnyKeyHandler implements processor.Terminal.
func (c *controller) RemoveAnyKeyHandler() { c.handler = nil }

// HideNextInput implements processor.InputHider.
func (c *controller) HideNextInput() { c.hidden = true }

func (c *controller) keyHandler() func(key string) { return c.handler }

func (c *controller) currentLine() string { return c.tail }
