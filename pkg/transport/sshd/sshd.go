// Package sshd serves a switch over SSH: interactive shells run a CLI
// session, the "netconf" subsystem runs a NETCONF session.
package sshd

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/fakeswitches/pkg/audit"
	"github.com/newtron-network/fakeswitches/pkg/auth"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/transport"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

const (
	// Transport is the name sessions and audit events carry.
	Transport = "ssh"
	// NetconfSubsystem is the subsystem a NETCONF client requests.
	NetconfSubsystem = "netconf"
)

// netconfIDs numbers NETCONF sessions across all switches.
var netconfIDs atomic.Uint64

// Server is an SSH server for one switch.
type Server struct {
	core    core.Core
	name    string
	checker *auth.Checker
	config  *ssh.ServerConfig
	audit   audit.Logger
	log     *logrus.Entry

	srv *transport.Server
}

// GenerateHostKey returns a fresh ed25519 host key.
func GenerateHostKey() (ssh.Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	return ssh.NewSignerFromKey(key)
}

// New creates a server for c. name is the switch name the access policy is
// checked against; logger may be nil to use the package default.
func New(name string, c core.Core, checker *auth.Checker, hostKey ssh.Signer, logger audit.Logger) *Server {
	if checker == nil {
		checker = auth.NewChecker(nil)
	}
	s := &Server{
		core:    c,
		name:    name,
		checker: checker,
		audit:   logger,
		log:     util.WithSwitch(name).WithField("transport", Transport),
	}
	s.config = &ssh.ServerConfig{
		PasswordCallback: s.password,
		ServerVersion:    "SSH-2.0-fakeswitch",
	}
	if checker.Anonymous() {
		s.config.NoClientAuth = true
	}
	s.config.AddHostKey(hostKey)
	return s
}

func (s *Server) password(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
	if err := s.checker.Authenticate(meta.User(), string(password)); err != nil {
		s.log.Infof("login failed for %s from %s", meta.User(), meta.RemoteAddr())
		return nil, err
	}
	return &ssh.Permissions{}, nil
}

// Listen starts serving on addr, for example "127.0.0.1:2222".
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ssh listen %s: %w", addr, err)
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

func (s *Server) handleConn(nc net.Conn) {
	conn, chans, reqs, err := ssh.NewServerConn(nc, s.config)
	if err != nil {
		s.log.Debugf("handshake with %s: %v", nc.RemoteAddr(), err)
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientIP := hostOf(nc.RemoteAddr())
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			s.log.Debugf("accept channel: %v", err)
			continue
		}
		go s.handleChannel(ctx, ch, requests, conn.User(), clientIP)
	}
}

func (s *Server) handleChannel(ctx context.Context, ch ssh.Channel, requests <-chan *ssh.Request, user, clientIP string) {
	defer ch.Close()
	for req := range requests {
		switch req.Type {
		case "pty-req", "window-change", "env":
			req.Reply(true, nil)
		case "shell":
			if !s.allowed(user, auth.PermShell) {
				req.Reply(false, nil)
				return
			}
			req.Reply(true, nil)
			s.runShell(ch, requests, user, clientIP)
			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != NetconfSubsystem {
				req.Reply(false, nil)
				continue
			}
			responder := s.core.NetconfResponder(strconv.FormatUint(netconfIDs.Add(1), 10))
			if responder == nil || !s.allowed(user, auth.PermNetconf) {
				req.Reply(false, nil)
				return
			}
			req.Reply(true, nil)
			go ssh.DiscardRequests(requests)
			s.runNetconf(ctx, ch, responder, user, clientIP)
			return
		default:
			req.Reply(false, nil)
		}
	}
}

func (s *Server) allowed(user string, perm auth.Permission) bool {
	err := s.checker.CheckUser(user, perm, auth.NewContext().WithSwitch(s.name).WithTransport(Transport))
	if err != nil {
		s.log.Infof("%s denied %s: %v", user, perm, err)
		return false
	}
	return true
}

func (s *Server) runShell(ch ssh.Channel, requests <-chan *ssh.Request, user, clientIP string) {
	sess, err := s.core.NewSession(transport.NewCRLFWriter(ch), session.Options{
		Echo:      true,
		User:      user,
		Transport: Transport,
		ClientIP:  clientIP,
		Audit:     s.audit,
	})
	if err != nil {
		fmt.Fprintf(ch, "%v\r\n", err)
		return
	}
	go func() {
		for req := range requests {
			req.Reply(req.Type == "window-change", nil)
		}
	}()
	sess.Start()
	defer func() {
		sess.Close()
		ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
	}()

	buf := make([]byte, 1024)
	for {
		n, err := ch.Read(buf)
		if n > 0 && !sess.ReceiveBytes(buf[:n]) {
			return
		}
		if err != nil {
			if err != io.EOF {
				s.log.Debugf("shell read: %v", err)
			}
			return
		}
	}
}

func (s *Server) runNetconf(ctx context.Context, ch ssh.Channel, r *netconf.Responder, user, clientIP string) {
	conf := s.core.Configuration()
	s.record(audit.NewEvent(audit.EventTypeConnect, s.name, r.SessionID()).
		WithUser(user).WithTransport("netconf", clientIP).WithSuccess())
	err := netconf.Serve(ctx, ch, r, conf)
	event := audit.NewEvent(audit.EventTypeDisconnect, s.name, r.SessionID()).
		WithUser(user).WithTransport("netconf", clientIP)
	if err != nil {
		s.log.Debugf("netconf session %s: %v", r.SessionID(), err)
		event.WithError(err)
	} else {
		event.WithSuccess()
	}
	s.record(event)
}

func (s *Server) record(event *audit.Event) {
	var err error
	if s.audit != nil {
		err = s.audit.Log(event)
	} else {
		err = audit.Log(event)
	}
	if err != nil {
		s.log.Warnf("audit: %v", err)
	}
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
