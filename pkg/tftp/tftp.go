// Package tftp fetches configuration files for "copy tftp" commands.
package tftp

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pin/tftp/v3"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Reader fetches filename from a TFTP server at host.
type Reader interface {
	Read(ctx context.Context, host, filename string) ([]byte, error)
}

// DefaultPort is the TFTP port used when host has none.
const DefaultPort = "69"

// Client reads files over TFTP.
type Client struct {
	Timeout time.Duration
	Retries int
}

// NewClient creates a client with the given per-packet timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{Timeout: timeout, Retries: 3}
}

// Read implements Reader.
func (c *Client) Read(ctx context.Context, host, filename string) ([]byte, error) {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, DefaultPort)
	}
	client, err := tftp.NewClient(addr)
	if err != nil {
		return nil, fmt.Errorf("tftp client for %s: %w", addr, err)
	}
	if c.Timeout > 0 {
		client.SetTimeout(c.Timeout)
	}
	if c.Retries > 0 {
		client.SetRetries(c.Retries)
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		wt, err := client.Receive(filename, "octet")
		if err != nil {
			done <- result{err: err}
			return
		}
		var buf bytes.Buffer
		if _, err := wt.WriteTo(&buf); err != nil {
			done <- result{err: err}
			return
		}
		done <- result{data: buf.Bytes()}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("tftp get %s from %s: %w", filename, addr, r.err)
		}
		util.Debugf("tftp: read %d bytes of %s from %s", len(r.data), filename, addr)
		return r.data, nil
	}
}

// StaticReader serves files from memory, keyed by "host/filename".
type StaticReader struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

// NewStaticReader creates an empty reader.
func NewStaticReader() *StaticReader {
	return &StaticReader{files: make(map[string][]byte)}
}

// Add registers the content of host/filename.
func (s *StaticReader) Add(host, filename string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[host+"/"+filename] = data
}

// Fail makes every read return err.
func (s *StaticReader) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Read implements Reader.
func (s *StaticReader) Read(_ context.Context, host, filename string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.files[host+"/"+filename]
	if !ok {
		return nil, fmt.Errorf("%w: tftp://%s/%s", util.ErrNotFound, host, filename)
	}
	return data, nil
}
