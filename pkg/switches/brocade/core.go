// Package brocade emulates Brocade ICX/FastIron switches over the CLI.
package brocade

import (
	"context"
	"io"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

// Generic is the model name.
const Generic = "brocade_generic"

// maxVlan is the highest VLAN FastIron accepts.
const maxVlan = 4090

// Core is a Brocade switch.
type Core struct {
	*core.Base
}

var _ core.Core = (*Core)(nil)

// New creates a Brocade switch with ethernet 1/1-4 and the two 10G ports
// of module 2.
func New(opts core.Options) *Core {
	c := &Core{Base: core.NewBase(Generic, opts, factory())}
	c.Conf.MaxVlan = maxVlan
	c.AddPorts(
		"ethernet 1/1", "ethernet 1/2", "ethernet 1/3", "ethernet 1/4",
		"ethernet 2/1", "ethernet 2/2",
	)
	return c
}

// factory gives physical ports an empty tagged list: a FastIron port
// carries no tagged VLAN until one is configured.
func factory() model.Factory {
	return model.Factory{
		NewPort: func(name string) *model.Port {
			return &model.Port{Name: name, Kind: model.PhysicalPort, TrunkVlans: model.VlanList{}}
		},
	}
}

// UnknownCommand writes the FastIron parse error.
func UnknownCommand(w processor.Terminal, _, line string) {
	w.Write("Invalid input -> " + strings.TrimSpace(line) + "\nType ? for a list\n")
}

// NewSession implements core.Core.
func (c *Core) NewSession(out io.Writer, opts session.Options) (*session.Session, error) {
	if opts.UnknownCommand == nil {
		opts.UnknownCommand = UnknownCommand
	}
	return session.New(c.Conf, newDefault(c), out, opts), nil
}

// ApplyConfig implements core.Core.
func (c *Core) ApplyConfig(_ context.Context, data []byte) error {
	c.Conf.Lock()
	defer c.Conf.Unlock()
	c.apply(data)
	return nil
}

// apply replays a configuration file. The caller holds the lock.
func (c *Core) apply(data []byte) int {
	n := core.Replay(c.Conf, newConfig(c), data, core.ReplayOptions{
		IndentedBlocks: true,
		Skip: func(line string) bool {
			return line == "end" || strings.HasPrefix(line, "Current configuration") ||
				strings.HasPrefix(line, "ver ") || strings.HasPrefix(line, "module ")
		},
	})
	c.Log.Debugf("replayed %d configuration lines", n)
	return n
}

// RenderStartupConfig implements core.Core.
func (c *Core) RenderStartupConfig() []byte {
	return []byte(runningConfig(c.Conf))
}
