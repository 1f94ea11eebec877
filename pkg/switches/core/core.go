// Package core holds what every switch core shares: the Core contract the
// transports consume, construction options, configuration replay and the
// vendor-neutral CLI helpers.
package core

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/fakeswitches/pkg/datastore"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/tftp"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Options configure a switch core.
type Options struct {
	// Name is the hostname shown in prompts.
	Name                string
	PrivilegedPasswords []string
	// AutoEnabled starts CLI sessions in privileged mode.
	AutoEnabled bool
	CommitDelay time.Duration
	// TFTP serves "copy tftp" commands; nil fails every transfer.
	TFTP tftp.Reader
}

// Core is one emulated switch.
type Core interface {
	// Model returns the registered model name.
	Model() string
	Configuration() *model.SwitchConfiguration
	// NewSession builds a fresh processor tree for one terminal connection.
	// The caller starts it.
	NewSession(out io.Writer, opts session.Options) (*session.Session, error)
	// NetconfResponder returns nil for CLI-only switches.
	NetconfResponder(sessionID string) *netconf.Responder
	// HTTPHandler returns nil unless the switch exposes an HTTP API.
	HTTPHandler() http.Handler
	// ApplyConfig replays a saved or downloaded configuration.
	ApplyConfig(ctx context.Context, data []byte) error
	// RenderStartupConfig returns what "write memory" persists. The caller
	// holds the configuration lock.
	RenderStartupConfig() []byte
}

// Base implements the parts of Core that do not depend on the vendor.
type Base struct {
	ModelName string
	Conf      *model.SwitchConfiguration
	Store     *datastore.Simple
	Opts      Options
	Log       *logrus.Entry
}

// NewBase creates a configuration for opts with the vendor factory and
// wraps it.
func NewBase(modelName string, opts Options, factory model.Factory) *Base {
	conf := model.New(opts.Name, factory)
	conf.AutoEnabled = opts.AutoEnabled
	conf.PrivilegedPasswords = opts.PrivilegedPasswords
	conf.CommitDelay = opts.CommitDelay
	return &Base{
		ModelName: modelName,
		Conf:      conf,
		Store:     datastore.NewSimple(conf),
		Opts:      opts,
		Log:       util.WithSwitch(opts.Name).WithField("model", modelName),
	}
}

// Model implements Core.
func (b *Base) Model() string { return b.ModelName }

// Configuration implements Core.
func (b *Base) Configuration() *model.SwitchConfiguration { return b.Conf }

// NetconfResponder implements Core for CLI-only switches.
func (b *Base) NetconfResponder(string) *netconf.Responder { return nil }

// HTTPHandler implements Core for switches without an HTTP API.
func (b *Base) HTTPHandler() http.Handler { return nil }

// AddPorts adds physical ports named in order.
func (b *Base) AddPorts(names ...string) {
	for _, n := range names {
		b.Conf.AddPort(b.Conf.NewPort(n))
	}
}

// CheckPassword reports whether password opens privileged mode. A switch
// without configured passwords accepts anything.
func CheckPassword(conf *model.SwitchConfiguration, password string) bool {
	if len(conf.PrivilegedPasswords) == 0 {
		return true
	}
	for _, p := range conf.PrivilegedPasswords {
		if p == password {
			return true
		}
	}
	return false
}

// ReplayOptions tune Replay.
type ReplayOptions struct {
	// IndentedBlocks makes every unindented line return to the top mode,
	// as in Cisco, Arista and Brocade configuration files.
	IndentedBlocks bool
	// Skip reports lines that must not be replayed, such as "end".
	Skip func(line string) bool
}

type subClearer interface {
	ClearSub()
}

// Replay feeds a configuration file to root, a configuration-mode
// processor, with output discarded. Lines nothing handles are skipped.
// The caller holds the configuration lock.
func Replay(conf *model.SwitchConfiguration, root processor.Processor, data []byte, opts ReplayOptions) int {
	term := &processor.BufferTerminal{}
	root.Init(&processor.Context{
		Conf:     conf,
		Terminal: term,
		Logger:   util.WithSwitch(conf.Name).WithField("component", "replay"),
	})

	applied := 0
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if opts.Skip != nil && opts.Skip(strings.TrimSpace(line)) {
			continue
		}
		if opts.IndentedBlocks && !strings.HasPrefix(line, " ") {
			if c, ok := root.(subClearer); ok {
				c.ClearSub()
			}
		}
		if root.ProcessCommand(line) {
			applied++
		}
		if root.IsDone() {
			break
		}
		term.Reset()
	}
	return applied
}

// ShortName abbreviates an interface name to its first two letters and
// number: "GigabitEthernet0/1" -> "Gi0/1", "Port-channel1" -> "Po1".
func ShortName(name string) string {
	idx := strings.IndexAny(name, "0123456789")
	if idx < 0 {
		return name
	}
	prefix := strings.TrimSpace(name[:idx])
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return prefix + name[idx:]
}

// CaretError writes the Cisco-style syntax error: a caret under the start
// of the offending input, then the marker message.
func CaretError(w processor.Terminal, prompt, line string) {
	CaretAt(w, len(prompt)+len(line)-len(strings.TrimLeft(line, " ")))
}

// CaretAt writes the marker message with the caret in column col.
func CaretAt(w processor.Terminal, col int) {
	w.Write(strings.Repeat(" ", col) + "^\n")
	w.Write("% Invalid input detected at '^' marker.\n")
	w.Write("\n")
}
