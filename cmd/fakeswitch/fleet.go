package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/fakeswitches/pkg/auth"
	"github.com/newtron-network/fakeswitches/pkg/cli"
	"github.com/newtron-network/fakeswitches/pkg/config"
	"github.com/newtron-network/fakeswitches/pkg/store"
	"github.com/newtron-network/fakeswitches/pkg/switches"
	"github.com/newtron-network/fakeswitches/pkg/tftp"
	"github.com/newtron-network/fakeswitches/pkg/transport/eapi"
	"github.com/newtron-network/fakeswitches/pkg/transport/sshd"
	"github.com/newtron-network/fakeswitches/pkg/transport/telnetd"
	"github.com/newtron-network/fakeswitches/pkg/util"
	"github.com/newtron-network/fakeswitches/pkg/version"
)

// listener is one running transport of one switch.
type listener struct {
	Switch    string
	Model     string
	Transport string
	Addr      string
	closer    io.Closer
}

// fleet is every switch of a definition file with its listeners.
type fleet struct {
	listeners []listener
}

// httpServer adapts http.Server to io.Closer with a bounded shutdown.
type httpServer struct {
	srv *http.Server
}

func (h httpServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.srv.Shutdown(ctx)
}

// startFleet builds each switch, replays its saved startup configuration
// and starts its listeners. On error everything started so far is closed.
func startFleet(ctx context.Context, cfg *config.Config, st store.Store) (*fleet, error) {
	f := &fleet{}
	checker := auth.NewChecker(&cfg.Access)
	reader := tftp.NewClient(cfg.TFTP.TimeoutOrDefault())

	var hostKey ssh.Signer
	for _, def := range cfg.Switches {
		info, ok := switches.Lookup(def.Model)
		if !ok {
			f.Close()
			return nil, fmt.Errorf("switch %s: %w: model %q", def.Name, util.ErrNotFound, def.Model)
		}
		c, err := switches.New(def.Model, switches.Options{
			Name:                def.DisplayName(),
			PrivilegedPasswords: def.PrivilegedPasswords,
			AutoEnabled:         def.AutoEnabled,
			CommitDelay:         def.Delay(),
			TFTP:                reader,
		})
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := switches.Attach(ctx, def.Name, c, st); err != nil {
			f.Close()
			return nil, fmt.Errorf("switch %s: %w", def.Name, err)
		}

		for _, l := range []struct{ kind, value string }{{"ssh", def.SSH}, {"telnet", def.Telnet}, {"http", def.HTTP}} {
			if l.value == "" {
				continue
			}
			if !supports(info, l.kind) {
				f.Close()
				return nil, fmt.Errorf("switch %s: model %s does not serve %s", def.Name, def.Model, l.kind)
			}
			addr, err := config.ListenAddr(cfg.ListenHost, l.value)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("switch %s: %s: %w", def.Name, l.kind, err)
			}

			var closer io.Closer
			switch l.kind {
			case "ssh":
				if hostKey == nil {
					if hostKey, err = sshd.GenerateHostKey(); err != nil {
						f.Close()
						return nil, err
					}
				}
				s := sshd.New(def.Name, c, checker, hostKey, nil)
				err = s.Listen(addr)
				closer = s
			case "telnet":
				s := telnetd.New(def.Name, c, checker, nil)
				err = s.Listen(addr)
				closer = s
			case "http":
				closer, err = serveHTTP(addr, eapi.RequireLogin(c.HTTPHandler(), checker, def.Name))
			}
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("switch %s: %w", def.Name, err)
			}
			f.listeners = append(f.listeners, listener{
				Switch:    def.Name,
				Model:     def.Model,
				Transport: l.kind,
				Addr:      addr,
				closer:    closer,
			})
		}
	}
	return f, nil
}

func supports(info switches.ModelInfo, transport string) bool {
	for _, t := range info.Transports {
		if t == transport {
			return true
		}
	}
	return false
}

func serveHTTP(addr string, h http.Handler) (io.Closer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("http listen %s: %w", addr, err)
	}
	server := version.UserAgent()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", server)
		h.ServeHTTP(w, r)
	})
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Errorf("http %s: %v", addr, err)
		}
	}()
	return httpServer{srv: srv}, nil
}

// Close stops every listener.
func (f *fleet) Close() error {
	return f.Shutdown(io.Discard)
}

// Shutdown stops every listener, reporting each one on out.
func (f *fleet) Shutdown(out io.Writer) error {
	var errs util.MultiError
	for _, l := range f.listeners {
		state := "ok"
		if err := l.closer.Close(); err != nil {
			errs.Append(fmt.Errorf("%s %s: %w", l.Switch, l.Transport, err))
			state = "failed"
		}
		fmt.Fprintf(out, "Stopping %s %s\n", cli.DotPad(l.Switch+" "+l.Transport, 32), cli.State(state))
	}
	f.listeners = nil
	return errs.ErrorOrNil()
}
