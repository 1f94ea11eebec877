// Package processor implements the command-processor engine shared by every
// vendor CLI: per-mode verb tables, prefix dispatch, the processor stack,
// continuations, keystroke handlers and output piping.
package processor

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Terminal is the output side of a terminal controller.
type Terminal interface {
	Write(s string)
	AddAnyKeyHandler(fn func(key string))
	RemoveAnyKeyHandler()
}

// InputHider is implemented by terminals that can suppress the echo of the
// next input line, for password prompts.
type InputHider interface {
	HideNextInput()
}

// Context is shared by every processor of one session.
type Context struct {
	Conf     *model.SwitchConfiguration
	Terminal Terminal
	Piping   Piping
	Logger   *logrus.Entry
}

// Write sends command output through the active pipe filter, if any.
func (c *Context) Write(s string) {
	if c.Piping != nil && c.Piping.IsListening() {
		c.Piping.Write(s)
		return
	}
	c.Terminal.Write(s)
}

// FinishPiping flushes and stops the active pipe filter.
func (c *Context) FinishPiping() {
	if c.Piping != nil && c.Piping.IsListening() {
		c.Piping.Stop()
	}
}

func (c *Context) logger() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger
	}
	return util.WithSwitch(c.Conf.Name)
}

// Processor is one CLI mode.
type Processor interface {
	Init(ctx *Context)
	Prompt() string
	ProcessCommand(line string) bool
	IsDone() bool
	ShowPrompt()
}

// Handler runs a verb with the remaining tokens.
type Handler func(args []string)

// Base carries the state every processor shares. Vendor processors embed
// it and register their verbs with Handle.
type Base struct {
	ctx      *Context
	prompt   func() string
	handlers map[string]Handler

	sub               Processor
	continuation      func(line string)
	awaitingKeystroke bool
	done              bool
}

// NewBase creates an empty verb table whose prompt is computed by prompt.
func NewBase(prompt func() string) *Base {
	return &Base{prompt: prompt, handlers: make(map[string]Handler)}
}

// Init attaches the session context.
func (b *Base) Init(ctx *Context) {
	b.ctx = ctx
}

// Context returns the session context.
func (b *Base) Context() *Context { return b.ctx }

// Conf returns the switch configuration.
func (b *Base) Conf() *model.SwitchConfiguration { return b.ctx.Conf }

// Logger returns the session logger.
func (b *Base) Logger() *logrus.Entry { return b.ctx.logger() }

// Prompt returns the mode prompt.
func (b *Base) Prompt() string { return b.prompt() }

// IsDone reports whether the processor asked to be popped.
func (b *Base) IsDone() bool { return b.done }

// Done marks the processor finished; its parent pops it.
func (b *Base) Done() { b.done = true }

// Sub returns the active child processor.
func (b *Base) Sub() Processor { return b.sub }

// ClearSub drops the active child, returning to this mode.
func (b *Base) ClearSub() { b.sub = nil }

// SetSub makes child the active mode without showing its prompt, for
// sessions that start past the top mode.
func (b *Base) SetSub(child Processor) {
	child.Init(b.ctx)
	b.sub = child
}

// Handle registers or overrides a verb. Verb names use underscores between
// words and a "no_" prefix for negated forms: "show", "no_shutdown".
func (b *Base) Handle(verb string, h Handler) {
	b.handlers[verb] = h
}

// Unhandle removes a verb inherited from a parent table.
func (b *Base) Unhandle(verb string) {
	delete(b.handlers, verb)
}

// Verbs returns the registered verb names.
func (b *Base) Verbs() []string {
	return util.SortedKeys(b.handlers)
}

// Write sends command output.
func (b *Base) Write(s string) { b.ctx.Write(s) }

// WriteLine sends one line of command output.
func (b *Base) WriteLine(s string) { b.ctx.Write(s + "\n") }

// ShowPrompt writes the prompt of the innermost active mode.
func (b *Base) ShowPrompt() {
	if b.sub != nil {
		b.sub.ShowPrompt()
		return
	}
	b.ctx.FinishPiping()
	b.ctx.Terminal.Write(b.Prompt())
}

// MoveTo enters child mode and shows its prompt.
func (b *Base) MoveTo(child Processor) {
	child.Init(b.ctx)
	b.sub = child
	child.ShowPrompt()
}

// ContinueTo feeds the next input line to fn instead of the dispatcher.
func (b *Base) ContinueTo(fn func(line string)) {
	b.continuation = fn
}

// OnKeystroke feeds the next key to fn, bypassing line buffering.
func (b *Base) OnKeystroke(fn func(key string)) {
	b.awaitingKeystroke = true
	b.ctx.Terminal.AddAnyKeyHandler(func(key string) {
		b.awaitingKeystroke = false
		b.ctx.Terminal.RemoveAnyKeyHandler()
		fn(key)
		if !b.awaitingKeystroke && b.continuation == nil && !b.done {
			b.ShowPrompt()
		}
	})
}

// Continuing reports whether a continuation is pending in this mode or
// any active child.
func (b *Base) Continuing() bool {
	if b.continuation != nil {
		return true
	}
	if c, ok := b.sub.(interface{ Continuing() bool }); ok {
		return c.Continuing()
	}
	return false
}

// HideInput suppresses the echo of the next input line.
func (b *Base) HideInput() {
	if h, ok := b.ctx.Terminal.(InputHider); ok {
		h.HideNextInput()
	}
}

// ProcessCommand runs one input line and reports whether anything
// handled it.
func (b *Base) ProcessCommand(line string) bool {
	if b.ctx.Piping != nil && !b.ctx.Piping.IsListening() {
		if idx := strings.Index(line, " | "); idx >= 0 {
			if !b.ctx.Piping.Start(line[idx+3:]) {
				return false
			}
			line = line[:idx]
		}
	}

	if b.sub != nil && b.delegate(line) {
		return true
	}

	before := b.sub
	processed := true
	if b.continuation != nil {
		fn := b.continuation
		b.continuation = nil
		fn(line)
	} else {
		processed = b.dispatch(line)
	}

	if processed && b.continuation == nil && !b.awaitingKeystroke && !b.done {
		if b.sub == nil || b.sub == before {
			b.ShowPrompt()
		}
	}
	return processed
}

func (b *Base) delegate(line string) bool {
	processed := b.sub.ProcessCommand(line)
	if b.sub.IsDone() {
		b.sub = nil
		if !b.done {
			b.ShowPrompt()
		}
	}
	return processed
}

func (b *Base) dispatch(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "!") {
		return true
	}

	tokens := strings.Fields(line)
	verb := strings.ToLower(tokens[0])
	args := tokens[1:]
	if verb == "no" && len(args) > 0 {
		verb = "no_" + strings.ToLower(args[0])
		args = args[1:]
	}
	verb = strings.ReplaceAll(verb, "-", "_")

	name, h := b.lookup(verb)
	if h == nil {
		b.Logger().Debugf("no handler for %q", line)
		return false
	}
	b.Logger().Debugf("dispatching %q to %s", line, name)
	h(args)
	return true
}

// lookup returns the lexicographically smallest verb starting with prefix.
func (b *Base) lookup(prefix string) (string, Handler) {
	best := ""
	for name := range b.handlers {
		if strings.HasPrefix(name, prefix) && (best == "" || name < best) {
			best = name
		}
	}
	if best == "" {
		return "", nil
	}
	return best, b.handlers[best]
}
