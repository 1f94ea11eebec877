package testutil

import "context"

// GatedReader serves one file and holds every transfer until Release.
type GatedReader struct {
	Data    []byte
	started chan struct{}
	release chan struct{}
}

// NewGatedReader returns a reader answering every request with data.
func NewGatedReader(data []byte) *GatedReader {
	return &GatedReader{
		Data:    data,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

// Read signals Started and blocks until Release or ctx ends.
func (r *GatedReader) Read(ctx context.Context, host, filename string) ([]byte, error) {
	select {
	case r.started <- struct{}{}:
	default:
	}
	select {
	case <-r.release:
		return r.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Started is signalled when a transfer begins.
func (r *GatedReader) Started() <-chan struct{} { return r.started }

// Release lets pending and future transfers complete.
func (r *GatedReader) Release() { close(r.release) }
