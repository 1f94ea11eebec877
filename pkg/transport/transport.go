// Package transport holds what the terminal servers share: newline
// translation and the accept loop.
package transport

import (
	"bytes"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// CRLFWriter turns "\n" into "\r\n", as a network terminal expects.
// Existing "\r\n" pairs are left alone.
type CRLFWriter struct {
	w      io.Writer
	lastCR bool
}

// NewCRLFWriter wraps w.
func NewCRLFWriter(w io.Writer) *CRLFWriter {
	return &CRLFWriter{w: w}
}

func (c *CRLFWriter) Write(p []byte) (int, error) {
	var out bytes.Buffer
	for _, b := range p {
		if b == '\n' && !c.lastCR {
			out.WriteByte('\r')
		}
		out.WriteByte(b)
		c.lastCR = b == '\r'
	}
	if _, err := c.w.Write(out.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Server runs a handler for every connection accepted on a listener and
// closes them all on Close.
type Server struct {
	listener net.Listener
	handle   func(net.Conn)
	log      *logrus.Entry
	done     chan struct{}
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Serve starts accepting on ln in the background.
func Serve(ln net.Listener, log *logrus.Entry, handle func(net.Conn)) *Server {
	s := &Server{
		listener: ln,
		handle:   handle,
		log:      log,
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the listener, closes open connections, and waits for all
// handlers to return.
func (s *Server) Close() error {
	close(s.done)
	err := s.listener.Close()
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.Warnf("accept: %v", err)
				continue
			}
		}
		if !s.track(conn, true) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

// track registers or forgets c. It refuses new connections once Close
// started.
func (s *Server) track(c net.Conn, open bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !open {
		delete(s.conns, c)
		return true
	}
	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[c] = struct{}{}
	return true
}
