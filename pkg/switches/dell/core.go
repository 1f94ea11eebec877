// Package dell emulates Dell PowerConnect switches. The N-series
// (dell10g) shares this engine through a Dialect.
package dell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

// Generic is the model name.
const Generic = "dell_generic"

// MaxVlan is the highest VLAN Dell firmware accepts.
const MaxVlan = 4093

// Dialect captures what differs between the Dell families.
type Dialect struct {
	Model string
	Ports []string
	// Label is the short interface form of prompts and tables: "1/g1", "Te0/0/1".
	Label func(portName string) string
	// Header names the interface in "interface X" lines.
	Header func(portName string) string
	// VlanDatabase creates VLANs in the "vlan database" mode instead of a
	// mode per VLAN.
	VlanDatabase bool
	// TrunkAll starts trunk ports carrying every VLAN.
	TrunkAll bool

	Description string
	Version     string
}

// PowerConnect is the dialect of the PowerConnect 6224.
func PowerConnect() Dialect {
	return Dialect{
		Model: Generic,
		Ports: []string{
			"ethernet 1/g1", "ethernet 1/g2", "ethernet 2/g1", "ethernet 2/g2",
			"ethernet 1/xg1", "ethernet 2/xg1",
		},
		Label:        func(name string) string { return strings.TrimPrefix(name, "ethernet ") },
		Header:       func(name string) string { return name },
		VlanDatabase: true,
		Description:  "PowerConnect 6224P, 3.3.7.3, VxWorks 6.5",
		Version:      "3.3.7.3",
	}
}

// Core is a Dell switch.
type Core struct {
	*core.Base
	dialect Dialect
}

var _ core.Core = (*Core)(nil)

// New creates a PowerConnect switch.
func New(opts core.Options) *Core {
	return NewWithDialect(PowerConnect(), opts)
}

// NewWithDialect creates a Dell switch of any family.
func NewWithDialect(d Dialect, opts core.Options) *Core {
	c := &Core{Base: core.NewBase(d.Model, opts, factory(d)), dialect: d}
	c.Conf.MaxVlan = MaxVlan
	c.AddPorts(d.Ports...)
	return c
}

func factory(d Dialect) model.Factory {
	return model.Factory{
		NewPort: func(name string) *model.Port {
			port := &model.Port{Name: name, Kind: model.PhysicalPort}
			if !d.TrunkAll {
				port.TrunkVlans = model.VlanList{}
			}
			return port
		},
		NewVlanPort: func(vlanID int, _ string) *model.Port {
			return &model.Port{
				Name: fmt.Sprintf("vlan %d", vlanID),
				Kind: model.VlanInterface,
				Vlan: &model.VlanPortAttrs{VlanID: vlanID},
			}
		},
	}
}

// Dialect returns the family of the switch.
func (c *Core) Dialect() Dialect { return c.dialect }

// NewSession implements core.Core.
func (c *Core) NewSession(out io.Writer, opts session.Options) (*session.Session, error) {
	if opts.UnknownCommand == nil {
		opts.UnknownCommand = core.CaretError
	}
	return session.New(c.Conf, newDefault(c), out, opts), nil
}

// ApplyConfig implements core.Core. Dell files close every block with
// "exit", so lines replay in order.
func (c *Core) ApplyConfig(_ context.Context, data []byte) error {
	c.Conf.Lock()
	defer c.Conf.Unlock()
	n := core.Replay(c.Conf, newConfig(c), data, core.ReplayOptions{})
	c.Log.Debugf("replayed %d configuration lines", n)
	return nil
}

// RenderStartupConfig implements core.Core.
func (c *Core) RenderStartupConfig() []byte {
	return []byte(runningConfig(c))
}
