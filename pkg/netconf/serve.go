package netconf

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Serve runs one NETCONF session over rw until the client closes it, the
// stream ends or ctx is cancelled. Each rpc is handled while holding lock,
// the configuration lock of the switch. The responder's per-session state
// is released on return.
func Serve(ctx context.Context, rw io.ReadWriter, r *Responder, lock sync.Locker) error {
	defer func() {
		lock.Lock()
		r.Close()
		lock.Unlock()
	}()

	framer := NewFramer(rw)
	if err := framer.WriteMessage(r.Hello()); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := framer.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		lock.Lock()
		reply, closeSession := r.Handle(msg)
		lock.Unlock()

		if reply != nil {
			if err := framer.WriteMessage(reply); err != nil {
				return err
			}
		}
		if closeSession {
			return nil
		}
	}
}
