// Package cisco emulates Cisco IOS switches (generic, Catalyst 2960 and
// Catalyst 6500 inventories).
package cisco

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

// Model names.
const (
	Generic          = "cisco_generic"
	Model2960_24TT_L = "cisco_2960_24TT_L"
	Model2960_48TT_L = "cisco_2960_48TT_L"
	Model6500        = "cisco_6500"
)

// Core is a Cisco switch.
type Core struct {
	*core.Base
}

var _ core.Core = (*Core)(nil)

// New creates a switch of the given Cisco model with its default ports.
func New(modelName string, opts core.Options) *Core {
	c := &Core{Base: core.NewBase(modelName, opts, model.DefaultFactory())}
	c.AddPorts(portNames(modelName)...)
	return c
}

func portNames(modelName string) []string {
	var names []string
	add := func(prefix string, from, to int) {
		for i := from; i <= to; i++ {
			names = append(names, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	switch modelName {
	case Model2960_24TT_L:
		add("FastEthernet0/", 1, 24)
		add("GigabitEthernet0/", 1, 2)
	case Model2960_48TT_L:
		add("FastEthernet0/", 1, 48)
		add("GigabitEthernet0/", 1, 2)
	case Model6500:
		add("GigabitEthernet1/", 1, 4)
		add("TenGigabitEthernet1/", 1, 2)
	default:
		add("FastEthernet0/", 1, 4)
		add("GigabitEthernet0/", 1, 4)
	}
	return names
}

// NewSession implements core.Core.
func (c *Core) NewSession(out io.Writer, opts session.Options) (*session.Session, error) {
	if opts.UnknownCommand == nil {
		opts.UnknownCommand = core.CaretError
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
			return line == "end" || strings.HasPrefix(line, "Building configuration") ||
				strings.HasPrefix(line, "Current configuration") || strings.HasPrefix(line, "version ")
		},
	})
	c.Log.Debugf("replayed %d configuration lines", n)
	return n
}

// RenderStartupConfig implements core.Core.
func (c *Core) RenderStartupConfig() []byte {
	return []byte(runningConfig(c.Conf))
}
