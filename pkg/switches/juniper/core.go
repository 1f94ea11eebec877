// Package juniper emulates JunOS switches. They have no CLI: everything
// goes through NETCONF against a candidate datastore.
package juniper

import (
	"context"
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/datastore"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Model names
const (
	Generic          = "juniper_generic"
	QFXCopperGeneric = "juniper_qfx_copper_generic"
)

// Capability URIs advertised on top of the base ones.
const (
	JunosURI     = "http://xml.juniper.net/netconf/junos/1.0"
	DMISystemURI = "http://xml.juniper.net/dmi/system/1.0"
)

// maxRollbacks is how many committed configurations are kept for
// compare="rollback".
const maxRollbacks = 50

// Core is a Juniper switch.
type Core struct {
	*core.Base
	Datastore *datastore.Datastore
	codec     *Codec

	// history holds the text of every committed configuration, newest
	// first; history[0] is the active one.
	history []string
}

var _ core.Core = (*Core)(nil)

// New creates a Juniper switch of the given model. Unknown models get the
// EX style.
func New(modelName string, opts core.Options) *Core {
	style := EX
	if modelName == QFXCopperGeneric {
		style = QFX
	} else {
		modelName = Generic
	}

	c := &Core{Base: core.NewBase(modelName, opts, factory())}
	c.Conf.RemoveVlan(c.Conf.GetVlan(1))
	c.AddPorts("ge-0/0/1", "ge-0/0/2", "ge-0/0/3", "ge-0/0/4")

	c.codec = NewCodec(style)
	c.Datastore = datastore.New(c.Conf, c.codec)
	c.resetHistory()
	c.Conf.OnCommit(func(conf *model.SwitchConfiguration) {
		c.history = append([]string{ConfigText(c.codec.ToEtree(conf))}, c.history...)
		if len(c.history) > maxRollbacks {
			c.history = c.history[:maxRollbacks]
		}
	})
	return c
}

func factory() model.Factory {
	return model.Factory{
		NewPort: func(name string) *model.Port {
			return &model.Port{Name: name, Kind: model.PhysicalPort, TrunkVlans: model.VlanList{}}
		},
		NewAggregatedPort: func(name string) *model.Port {
			return &model.Port{
				Name:       name,
				Kind:       model.AggregatedInterface,
				TrunkVlans: model.VlanList{},
				Aggregate:  &model.AggregatedAttrs{},
			}
		},
	}
}

func (c *Core) resetHistory() {
	c.history = []string{ConfigText(c.codec.ToEtree(c.Conf))}
}

// Style returns the configuration dialect of the switch.
func (c *Core) Style() Style { return c.codec.style }

// NewSession implements core.Core. JunOS switches only speak NETCONF.
func (c *Core) NewSession(io.Writer, session.Options) (*session.Session, error) {
	return nil, fmt.Errorf("%w: %s has no command line, use the netconf subsystem", util.ErrNotSupported, c.ModelName)
}

// NetconfResponder implements core.Core.
func (c *Core) NetconfResponder(sessionID string) *netconf.Responder {
	return netconf.NewResponder(c.Conf.Name, sessionID,
		netconf.NewBaseCapability(c.Datastore),
		netconf.Advertise(netconf.CandidateURI),
		netconf.Advertise(netconf.ValidateURI),
		&junosCapability{core: c},
		netconf.Advertise(DMISystemURI),
	)
}

// ApplyConfig implements core.Core. data is a <configuration> document; it
// is merged into running and the candidate is reset.
func (c *Core) ApplyConfig(_ context.Context, data []byte) error {
	c.Conf.Lock()
	defer c.Conf.Unlock()

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "configuration" {
		return fmt.Errorf("%w: expected a <configuration> document", util.ErrInvalidConfig)
	}
	if err := c.Datastore.Edit(datastore.Running, root); err != nil {
		return fmt.Errorf("applying configuration: %w", err)
	}
	c.Datastore.Reset()
	c.resetHistory()
	c.Log.Debug("configuration applied")
	return nil
}

// RenderStartupConfig implements core.Core.
func (c *Core) RenderStartupConfig() []byte {
	doc := etree.NewDocument()
	doc.SetRoot(c.codec.ToEtree(c.Conf))
	doc.Indent(2)
	out, _ := doc.WriteToBytes()
	return out
}
