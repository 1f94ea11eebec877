package dell

import (
	"fmt"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

const (
	minMTU = 1518
	maxMTU = 9216
)

type configInterfaceMode struct {
	mode
	port *model.Port
}

func newConfigInterface(parent *configMode, port *model.Port) *configInterfaceMode {
	p := &configInterfaceMode{mode: mode{core: parent.core}, port: port}
	label := parent.core.dialect.Label(port.Name)
	p.Base = processor.NewBase(func() string { return fmt.Sprintf("%s(config-if-%s)#", p.Conf().Name, label) })

	p.Handle("description", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		port.Description = processor.FreeText(args)
	})
	p.Handle("no_description", func([]string) { port.Description = "" })
	p.Handle("shutdown", func([]string) { port.Shutdown = model.Bool(true) })
	p.Handle("no_shutdown", func([]string) { port.Shutdown = nil })
	p.Handle("switchport", p.switchport)
	p.Handle("no_switchport", p.noSwitchport)
	p.Handle("mtu", func(args []string) {
		if len(args) != 1 {
			p.incomplete()
			return
		}
		n, ok := util.ParseInt(args[0])
		if !ok {
			p.caret("mtu", args, 0)
			return
		}
		if n < minMTU || n > maxMTU {
			p.WriteLine(fmt.Sprintf("Value is out of range. The valid range is %d to %d.", minMTU, maxMTU))
			return
		}
		port.MTU = n
	})
	p.Handle("no_mtu", func([]string) { port.MTU = 0 })
	p.Handle("lldp", func(args []string) { p.lldp("lldp", args, true) })
	p.Handle("no_lldp", func(args []string) { p.lldp("no lldp", args, false) })
	p.Handle("spanning_tree", func(args []string) { p.spanningTree("spanning-tree", args, true) })
	p.Handle("no_spanning_tree", func(args []string) { p.spanningTree("no spanning-tree", args, false) })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

// resetTrunk restores the trunk membership a mode change starts from.
func (p *configInterfaceMode) resetTrunk() {
	if p.core.dialect.TrunkAll {
		p.port.TrunkVlans = nil
	} else {
		p.port.TrunkVlans = model.VlanList{}
	}
}

func (p *configInterfaceMode) switchport(args []string) {
	port := p.port
	switch {
	case processor.MatchesAll(args, "mode") && len(args) == 2:
		var want string
		switch {
		case processor.Matches(args[1], model.ModeAccess):
			want = model.ModeAccess
		case processor.Matches(args[1], model.ModeTrunk):
			want = model.ModeTrunk
		case processor.Matches(args[1], model.ModeGeneral):
			want = model.ModeGeneral
		default:
			p.caret("switchport", args, 1)
			return
		}
		if port.Mode != want {
			port.SetMode(want)
			port.TrunkNativeVlan = 0
			p.resetTrunk()
		}
	case processor.MatchesAll(args, "access", "vlan") && len(args) == 3:
		n, ok := util.ParseInt(args[2])
		if !ok {
			p.caret("switchport", args, 2)
			return
		}
		if p.Conf().GetVlan(n) == nil {
			p.WriteLine("VLAN ID not found.")
			return
		}
		port.AccessVlan = n
	case processor.MatchesAll(args, "trunk", "allowed", "vlan") && len(args) >= 4:
		p.trunkAllowed(args, 3)
	case processor.MatchesAll(args, "general", "pvid") && len(args) == 3:
		n, ok := util.ParseInt(args[2])
		if !ok {
			p.caret("switchport", args, 2)
			return
		}
		if p.Conf().GetVlan(n) == nil {
			p.WriteLine("VLAN ID not found.")
			return
		}
		port.TrunkNativeVlan = n
	case processor.MatchesAll(args, "general", "allowed", "vlan") && len(args) >= 5:
		p.generalAllowed(args)
	default:
		p.caret("switchport", args, 0)
	}
}

func (p *configInterfaceMode) noSwitchport(args []string) {
	port := p.port
	switch {
	case processor.MatchesExactly(args, "mode"):
		port.SetMode("")
		port.TrunkNativeVlan = 0
		p.resetTrunk()
	case processor.MatchesExactly(args, "access", "vlan"):
		port.AccessVlan = 0
	case processor.MatchesExactly(args, "trunk", "allowed", "vlan"):
		p.resetTrunk()
	case processor.MatchesExactly(args, "general", "pvid"):
		port.TrunkNativeVlan = 0
	default:
		p.caret("no switchport", args, 0)
	}
}

// expand parses the VLAN list at args[i] and splits it into the VLANs that
// exist and those that do not.
func (p *configInterfaceMode) expand(args []string, i int) (existing, missing []int, ok bool) {
	vlans, err := util.ExpandVLANRange(args[i], p.Conf().MaxVlan)
	if err != nil {
		p.caret("switchport", args, i)
		return nil, nil, false
	}
	for _, n := range vlans {
		if p.Conf().GetVlan(n) == nil {
			missing = append(missing, n)
		} else {
			existing = append(existing, n)
		}
	}
	return existing, missing, true
}

// failures prints the table Dell firmware uses for VLANs it could not
// attach.
func (p *configInterfaceMode) failures(missing []int) {
	if len(missing) == 0 {
		return
	}
	rule := strings.Repeat("-", 39)
	p.WriteLine("")
	p.WriteLine("          Failure Information")
	p.WriteLine(rule)
	p.WriteLine(fmt.Sprintf("   VLANs failed to be configured : %d", len(missing)))
	p.WriteLine(rule)
	p.WriteLine("   VLAN             Error")
	p.WriteLine(rule)
	for _, n := range missing {
		p.WriteLine(fmt.Sprintf("VLAN %6d ERROR: This VLAN does not exist.", n))
	}
}

func (p *configInterfaceMode) trunkAllowed(args []string, i int) {
	port := p.port
	max := p.Conf().MaxVlan
	rest := args[i:]
	switch {
	case len(rest) == 1 && processor.Matches(rest[0], "all"):
		port.TrunkVlans = nil
	case len(rest) == 1 && processor.Matches(rest[0], "none"):
		port.TrunkVlans = model.VlanList{}
	case len(rest) == 2 && processor.Matches(rest[0], "add"):
		existing, missing, ok := p.expand(args, i+1)
		if !ok {
			return
		}
		port.TrunkVlans = port.TrunkVlans.Add(existing...)
		p.failures(missing)
	case len(rest) == 2 && processor.Matches(rest[0], "remove"):
		vlans, err := util.ExpandVLANRange(rest[1], max)
		if err != nil {
			p.caret("switchport", args, i+1)
			return
		}
		current := port.TrunkVlans
		if current == nil {
			current = model.Except(max)
		}
		port.TrunkVlans = current.Remove(vlans...)
	case len(rest) == 1:
		existing, missing, ok := p.expand(args, i)
		if !ok {
			return
		}
		port.TrunkVlans = model.VlanList{}.Add(existing...)
		p.failures(missing)
	default:
		p.caret("switchport", args, i)
	}
}

// generalAllowed handles "general allowed vlan add|remove LIST [tagged|untagged]".
// Untagged membership beyond the PVID is not tracked.
func (p *configInterfaceMode) generalAllowed(args []string) {
	port := p.port
	if len(args) == 6 && !processor.Matches(args[5], "tagged") && !processor.Matches(args[5], "untagged") {
		p.caret("switchport", args, 5)
		return
	}
	if len(args) > 6 {
		p.caret("switchport", args, 6)
		return
	}
	current := port.TrunkVlans
	if current == nil {
		current = model.VlanList{}
	}
	switch {
	case processor.Matches(args[3], "add"):
		existing, missing, ok := p.expand(args, 4)
		if !ok {
			return
		}
		port.TrunkVlans = current.Add(existing...)
		p.failures(missing)
	case processor.Matches(args[3], "remove"):
		vlans, err := util.ExpandVLANRange(args[4], p.Conf().MaxVlan)
		if err != nil {
			p.caret("switchport", args, 4)
			return
		}
		port.TrunkVlans = current.Remove(vlans...)
	default:
		p.caret("switchport", args, 3)
	}
}

func (p *configInterfaceMode) lldp(verb string, args []string, value bool) {
	port := p.port
	switch {
	case processor.MatchesExactly(args, "transmit"):
		port.LLDPTransmit = model.Bool(value)
	case processor.MatchesExactly(args, "receive"):
		port.LLDPReceive = model.Bool(value)
	case processor.MatchesExactly(args, "med", "transmit-tlv", "capabilities"):
		port.LLDPMedTransmitCapabilities = model.Bool(value)
	case processor.MatchesExactly(args, "med", "transmit-tlv", "network-policy"):
		port.LLDPMedTransmitNetworkPolicy = model.Bool(value)
	default:
		p.caret(verb, args, 0)
	}
}

func (p *configInterfaceMode) spanningTree(verb string, args []string, value bool) {
	switch {
	case processor.MatchesExactly(args, "portfast"):
		if value {
			p.port.SpanningTreePortfast = model.Bool(true)
		} else {
			p.port.SpanningTreePortfast = nil
		}
	case processor.MatchesExactly(args, "disable"):
		p.port.SpanningTreeDisabled = value
	default:
		p.caret(verb, args, 0)
	}
}
