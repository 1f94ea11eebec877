// Package telnetd serves a switch CLI over telnet.
package telnetd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/fakeswitches/pkg/audit"
	"github.com/newtron-network/fakeswitches/pkg/auth"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/transport"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Transport is the name sessions and audit events carry.
const Transport = "telnet"

// Telnet protocol bytes
const (
	iac  = 255
	dont = 254
	do   = 253
	wont = 252
	will = 251
	sb   = 250
	se   = 240

	optEcho = 1
	optSGA  = 3
)

const maxLoginAttempts = 3

var errLoginFailed = errors.New("login failed")

// Server is a telnet server for one switch.
type Server struct {
	core    core.Core
	name    string
	checker *auth.Checker
	audit   audit.Logger
	log     *logrus.Entry

	srv *transport.Server
}

// New creates a server for c. name is the switch name the access policy is
// checked against.
func New(name string, c core.Core, checker *auth.Checker, logger audit.Logger) *Server {
	if checker == nil {
		checker = auth.NewChecker(nil)
	}
	return &Server{
		core:    c,
		name:    name,
		checker: checker,
		audit:   logger,
		log:     util.WithSwitch(name).WithField("transport", Transport),
	}
}

// Listen starts serving on addr.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("telnet listen %s: %w", addr, err)
	}
	s.Serve(ln)
	return nil
}

// Serve accepts connections on ln in the background.
func (s *Server) Serve(ln net.Listener) {
	s.srv = transport.Serve(ln, s.log, s.handleConn)
	s.log.Infof("listening on %s", ln.Addr())
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	if s.srv == nil {
		return nil
	}
	return s.srv.Addr()
}

// Close stops the server and drops every connection.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	out := transport.NewCRLFWriter(conn)
	// The server echoes and runs in character mode.
	if _, err := conn.Write([]byte{iac, will, optEcho, iac, will, optSGA}); err != nil {
		return
	}
	in := bufio.NewReader(&iacFilter{r: conn})
	clientIP := hostOf(conn.RemoteAddr())

	lines := &lineReader{in: in, out: out}
	user, err := s.login(lines)
	if err != nil {
		if errors.Is(err, errLoginFailed) {
			s.log.Infof("login failed from %s", clientIP)
		}
		return
	}

	sess, err := s.core.NewSession(out, session.Options{
		Echo:      true,
		User:      user,
		Transport: Transport,
		ClientIP:  clientIP,
		Audit:     s.audit,
	})
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}
	sess.Start()
	defer sess.Close()

	buf := make([]byte, 1024)
	for {
		n, err := in.Read(buf)
		if data := lines.rest(buf[:n]); len(data) > 0 && !sess.ReceiveBytes(data) {
			return
		}
		if err != nil {
			if err != io.EOF {
				s.log.Debugf("read: %v", err)
			}
			return
		}
	}
}

// login prompts for credentials unless the access policy is anonymous.
func (s *Server) login(l *lineReader) (string, error) {
	if s.checker.Anonymous() {
		return "", nil
	}
	ctx := auth.NewContext().WithSwitch(s.name).WithTransport(Transport)
	for i := 0; i < maxLoginAttempts; i++ {
		io.WriteString(l.out, "Username: ")
		user, err := l.readLine(true)
		if err != nil {
			return "", err
		}
		io.WriteString(l.out, "Password: ")
		password, err := l.readLine(false)
		if err != nil {
			return "", err
		}
		err = s.checker.Login(user, password, ctx)
		if err == nil {
			return user, nil
		}
		var permErr *auth.PermissionError
		if errors.As(err, &permErr) {
			io.WriteString(l.out, "% Authorization failed.\n")
			return "", errLoginFailed
		}
		io.WriteString(l.out, "% Authentication failed.\n\n")
	}
	return "", errLoginFailed
}

// lineReader reads login input. A "\n" right after the "\r" that ended
// a line is dropped, including at the start of the session that follows.
type lineReader struct {
	in     *bufio.Reader
	out    io.Writer
	skipLF bool
}

// readLine reads one line, echoing it when asked.
func (l *lineReader) readLine(echo bool) (string, error) {
	var line []byte
	for {
		c, err := l.in.ReadByte()
		if err != nil {
			return "", err
		}
		skip := l.skipLF
		l.skipLF = false
		switch c {
		case '\n':
			if skip {
				continue
			}
			io.WriteString(l.out, "\n")
			return strings.TrimSpace(string(line)), nil
		case '\r':
			l.skipLF = true
			io.WriteString(l.out, "\n")
			return strings.TrimSpace(string(line)), nil
		case 0x08, 0x7f:
			if len(line) > 0 {
				line = line[:len(line)-1]
				if echo {
					io.WriteString(l.out, "\b \b")
				}
			}
		default:
			line = append(line, c)
			if echo {
				l.out.Write([]byte{c})
			}
		}
	}
}

// rest strips the pending "\n" from the first chunk the session receives.
func (l *lineReader) rest(data []byte) []byte {
	if l.skipLF && len(data) > 0 {
		l.skipLF = false
		if data[0] == '\n' {
			return data[1:]
		}
	}
	return data
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
