package processor

import "strings"

// BufferTerminal collects output in memory. It backs request/response
// transports and configuration replay, where nobody types keystrokes.
type BufferTerminal struct {
	buf        strings.Builder
	keyHandler func(key string)
}

// Write implements Terminal.
func (t *BufferTerminal) Write(s string) { t.buf.WriteString(s) }

// AddAnyKeyHandler implements Terminal.
func (t *BufferTerminal) AddAnyKeyHandler(fn func(key string)) { t.keyHandler = fn }

// RemoveAnyKeyHandler implements Terminal.
func (t *BufferTerminal) RemoveAnyKeyHandler() { t.keyHandler = nil }

// PressKey delivers key to the pending keystroke handler, if any.
func (t *BufferTerminal) PressKey(key string) bool {
	if t.keyHandler == nil {
		return false
	}
	t.keyHandler(key)
	return true
}

// AwaitingKey reports whether a keystroke handler is registered.
func (t *BufferTerminal) AwaitingKey() bool { return t.keyHandler != nil }

// String returns everything written so far.
func (t *BufferTerminal) String() string { return t.buf.String() }

// Reset discards the collected output.
func (t *BufferTerminal) Reset() { t.buf.Reset() }
