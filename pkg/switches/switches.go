// Package switches is the model registry: it maps model names to the vendor
// cores that emulate them.
package switches

import (
	"fmt"
	"sort"

	"github.com/newtron-network/fakeswitches/pkg/switches/arista"
	"github.com/newtron-network/fakeswitches/pkg/switches/brocade"
	"github.com/newtron-network/fakeswitches/pkg/switches/cisco"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/switches/dell"
	"github.com/newtron-network/fakeswitches/pkg/switches/dell10g"
	"github.com/newtron-network/fakeswitches/pkg/switches/juniper"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Core is one emulated switch.
type Core = core.Core

// Options configure a switch.
type Options = core.Options

// Constructor builds a core for one model.
type Constructor func(opts Options) Core

// ModelInfo describes a registered model.
type ModelInfo struct {
	Name        string
	Vendor      string
	Description string
	Transports  []string
	New         Constructor
}

var registry = map[string]ModelInfo{}

// Register adds a model. It panics on duplicates, as registration happens
// at init time.
func Register(info ModelInfo) {
	if _, ok := registry[info.Name]; ok {
		panic(fmt.Sprintf("switch model %q registered twice", info.Name))
	}
	registry[info.Name] = info
}

func init() {
	cli := []string{"ssh", "telnet"}
	for _, m := range []ModelInfo{
		{Name: cisco.Generic, Vendor: "cisco", Description: "4 FastEthernet, 4 GigabitEthernet", Transports: cli},
		{Name: cisco.Model2960_24TT_L, Vendor: "cisco", Description: "24 FastEthernet, 2 GigabitEthernet", Transports: cli},
		{Name: cisco.Model2960_48TT_L, Vendor: "cisco", Description: "48 FastEthernet, 2 GigabitEthernet", Transports: cli},
		{Name: cisco.Model6500, Vendor: "cisco", Description: "4 GigabitEthernet, 2 TenGigabitEthernet", Transports: cli},
		{Name: arista.Generic, Vendor: "arista", Description: "8 Ethernet, eAPI", Transports: []string{"ssh", "telnet", "http"}},
		{Name: brocade.Generic, Vendor: "brocade", Description: "6 ethernet, VLANs up to 4090", Transports: cli},
		{Name: dell.Generic, Vendor: "dell", Description: "4 gigabit, 2 ten-gigabit, VLANs up to 4093", Transports: cli},
		{Name: dell10g.Generic, Vendor: "dell", Description: "4 tengigabitethernet, VLANs up to 4093", Transports: cli},
		{Name: juniper.Generic, Vendor: "juniper", Description: "EX style, NETCONF", Transports: []string{"ssh"}},
		{Name: juniper.QFXCopperGeneric, Vendor: "juniper", Description: "QFX style, NETCONF", Transports: []string{"ssh"}},
	} {
		m.New = constructorFor(m.Name)
		Register(m)
	}
}

func constructorFor(model string) Constructor {
	switch model {
	case cisco.Generic, cisco.Model2960_24TT_L, cisco.Model2960_48TT_L, cisco.Model6500:
		return func(opts Options) Core { return cisco.New(model, opts) }
	case arista.Generic:
		return func(opts Options) Core { return arista.New(opts) }
	case brocade.Generic:
		return func(opts Options) Core { return brocade.New(opts) }
	case dell.Generic:
		return func(opts Options) Core { return dell.New(opts) }
	case dell10g.Generic:
		return func(opts Options) Core { return dell10g.New(opts) }
	default:
		return func(opts Options) Core { return juniper.New(model, opts) }
	}
}

// New builds a switch of the given model.
func New(model string, opts Options) (Core, error) {
	info, ok := registry[model]
	if !ok {
		return nil, fmt.Errorf("%w: switch model %q", util.ErrNotFound, model)
	}
	if opts.Name == "" {
		opts.Name = "switch"
	}
	return info.New(opts), nil
}

// Lookup returns the registered model.
func Lookup(model string) (ModelInfo, bool) {
	info, ok := registry[model]
	return info, ok
}

// Models lists every registered model sorted by name.
func Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
