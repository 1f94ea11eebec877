// Package session drives one client connection: it buffers input bytes into
// lines, feeds them to the processor stack under the configuration lock and
// reports unknown commands in the vendor's words.
package session

import (
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/fakeswitches/pkg/audit"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// InputMode tells how the next received bytes are consumed.
type InputMode int

const (
	// InputLine buffers bytes until a line terminator.
	InputLine InputMode = iota
	// InputKeystroke hands the next byte to a keystroke handler.
	InputKeystroke
	// InputContinuation buffers a line that goes to a pending continuation.
	InputContinuation
)

func (m InputMode) String() string {
	switch m {
	case InputKeystroke:
		return "keystroke"
	case InputContinuation:
		return "continuation"
	default:
		return "line"
	}
}

// Continuing is implemented by processors that can report a pending
// continuation anywhere in their stack.
type Continuing interface {
	Continuing() bool
}

// UnknownCommandFunc writes the vendor error for a line nothing handled.
// prompt is the prompt the line was typed at.
type UnknownCommandFunc func(w processor.Terminal, prompt, line string)

// Options tune a session.
type Options struct {
	// Echo writes received characters back, as a character-mode terminal does.
	Echo bool
	// Header is written before the first prompt.
	Header string
	// UnknownCommand reports unprocessed lines; nil writes nothing.
	UnknownCommand UnknownCommandFunc
	// Piping builds the pipe filter; nil uses processor.LinePiping.
	Piping func(out processor.Terminal) processor.Piping

	User      string
	Transport string
	ClientIP  string
	Audit     audit.Logger
}

var sessionCounter atomic.Uint64

// Session is one client connection to a switch.
type Session struct {
	id   string
	conf *model.SwitchConfiguration
	root processor.Processor
	ctrl *controller
	ctx  *processor.Context
	opts Options
	log  *logrus.Entry

	mu     sync.Mutex
	buf    []byte
	lastCR bool
	closed bool
}

// New creates a session running root and writing to out.
func New(conf *model.SwitchConfiguration, root processor.Processor, out io.Writer, opts Options) *Session {
	id := nextID()
	s := &Session{
		id:   id,
		conf: conf,
		root: root,
		ctrl: &controller{out: out},
		opts: opts,
		log:  util.WithSession(conf.Name, id),
	}
	var piping processor.Piping
	if opts.Piping != nil {
		piping = opts.Piping(s.ctrl)
	} else {
		piping = processor.NewLinePiping(s.ctrl)
	}
	s.ctx = &processor.Context{
		Conf:     conf,
		Terminal: s.ctrl,
		Piping:   piping,
		Logger:   s.log,
	}
	return s
}

func nextID() string {
	return strconv.FormatUint(sessionCounter.Add(1), 10)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Context returns the processor context shared by the session's stack.
func (s *Session) Context() *processor.Context { return s.ctx }

// Start writes the header and the first prompt.
func (s *Session) Start() {
	s.conf.Lock()
	defer s.conf.Unlock()

	s.log.Info("session started")
	s.record(audit.NewEvent(audit.EventTypeConnect, s.conf.Name, s.id).WithSuccess())
	s.root.Init(s.ctx)
	if s.opts.Header != "" {
		s.ctrl.Write(s.opts.Header)
	}
	s.root.ShowPrompt()
}

// Mode returns how the next input will be consumed.
func (s *Session) Mode() InputMode {
	if s.ctrl.keyHandler() != nil {
		return InputKeystroke
	}
	if c, ok := s.root.(Continuing); ok && c.Continuing() {
		return InputContinuation
	}
	return InputLine
}

// Receive processes one complete line. It returns false once the session
// is closed.
func (s *Session) Receive(line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receive(line, s.ctrl.currentLine())
}

func (s *Session) receive(line, prompt string) bool {
	if s.closed {
		return false
	}

	s.conf.Lock()
	defer s.conf.Unlock()

	start := time.Now()
	s.ctrl.tail = ""
	processed := s.root.ProcessCommand(line)

	event := audit.NewEvent(audit.EventTypeCommand, s.conf.Name, s.id).
		WithCommand(prompt, line).
		WithDuration(time.Since(start))
	if processed {
		event.WithSuccess()
	} else {
		s.log.Infof("command not supported: %s", line)
		s.ctx.FinishPiping()
		if s.opts.UnknownCommand != nil {
			s.opts.UnknownCommand(s.ctrl, prompt, line)
		}
		s.root.ShowPrompt()
	}
	s.record(event)

	if s.root.IsDone() {
		s.closeLocked()
		return false
	}
	return true
}

// ReceiveBytes feeds raw terminal input. "\r", "\n" and "\r\n" end a line;
// backspace and DEL erase. While a keystroke handler is registered, each
// byte goes to it directly.
func (s *Session) ReceiveBytes(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range data {
		if s.closed {
			return false
		}
		if handler := s.ctrl.keyHandler(); handler != nil {
			s.lastCR = false
			s.conf.Lock()
			handler(string(c))
			s.conf.Unlock()
			continue
		}
		switch c {
		case '\n':
			if s.lastCR {
				s.lastCR = false
				continue
			}
			s.completeLine()
		case '\r':
			s.lastCR = true
			s.completeLine()
		case 0x08, 0x7f:
			s.lastCR = false
			if len(s.buf) > 0 {
				s.buf = s.buf[:len(s.buf)-1]
				if s.opts.Echo && !s.ctrl.hidden {
					s.ctrl.writeRaw("\b \b")
				}
			}
		default:
			s.lastCR = false
			s.buf = append(s.buf, c)
			if s.opts.Echo && !s.ctrl.hidden {
				s.ctrl.writeRaw(string(c))
			}
		}
	}
	return !s.closed
}

func (s *Session) completeLine() {
	line := string(s.buf)
	s.buf = s.buf[:0]
	prompt := s.ctrl.currentLine()
	if s.opts.Echo {
		s.ctrl.writeRaw("\r\n")
	}
	s.ctrl.hidden = false
	s.receive(line, prompt)
}

// Close ends the session, dropping any pending continuation or keystroke
// handler.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.ctrl.RemoveAnyKeyHandler()
	s.buf = nil
	s.log.Info("session closed")
	s.record(audit.NewEvent(audit.EventTypeDisconnect, s.conf.Name, s.id).WithSuccess())
}

// Closed reports whether the session ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) record(event *audit.Event) {
	event.WithUser(s.opts.User).WithTransport(s.opts.Transport, s.opts.ClientIP)
	var err error
	if s.opts.Audit != nil {
		err = s.opts.Audit.Log(event)
	} else {
		err = audit.Log(event)
	}
	if err != nil {
		s.log.Warnf("audit: %v", err)
	}
}
