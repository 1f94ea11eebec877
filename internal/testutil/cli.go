// Package testutil provides test helpers shared by the package tests:
// an in-memory CLI driver for switch cores, and Redis helpers for the
// integration tests.
package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

// syncBuffer is a bytes.Buffer safe for a session writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

// CLI drives one terminal session of a switch core in memory.
type CLI struct {
	t       *testing.T
	Session *session.Session
	out     *syncBuffer
	banner  string
}

// NewCLI opens and starts a session on c. Banner() returns what the
// session wrote before the first command.
func NewCLI(t *testing.T, c core.Core) *CLI {
	t.Helper()
	return NewCLIWithOptions(t, c, session.Options{})
}

// NewCLIWithOptions is NewCLI with explicit session options.
func NewCLIWithOptions(t *testing.T, c core.Core, opts session.Options) *CLI {
	t.Helper()
	out := &syncBuffer{}
	s, err := c.NewSession(out, opts)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	s.Start()
	cli := &CLI{t: t, Session: s, out: out}
	cli.banner = out.take()
	return cli
}

// Banner returns the output written by Start.
func (c *CLI) Banner() string { return c.banner }

// Run sends one line and returns everything it wrote, prompt included.
func (c *CLI) Run(line string) string {
	c.t.Helper()
	c.Session.Receive(line)
	return c.out.take()
}

// RunAll sends lines in order and returns the output of the last one.
func (c *CLI) RunAll(lines ...string) string {
	c.t.Helper()
	out := ""
	for _, l := range lines {
		out = c.Run(l)
	}
	return out
}

// Key sends raw bytes, as a keystroke.
func (c *CLI) Key(key string) string {
	c.t.Helper()
	c.Session.ReceiveBytes([]byte(key))
	return c.out.take()
}

// Closed reports whether the session ended.
func (c *CLI) Closed() bool { return c.Session.Closed() }
