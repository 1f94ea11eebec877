package arista

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

func parseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 address: %s", s)
	}
	return addr, nil
}

type configInterfaceMode struct {
	mode
	port *model.Port
}

func newConfigInterface(c *Core, parent *configMode, port *model.Port) *configInterfaceMode {
	p := &configInterfaceMode{mode: mode{core: c}, port: port}
	p.Base = processor.NewBase(func() string {
		return fmt.Sprintf("%s(config-if-%s)#", p.Conf().Name, core.ShortName(port.Name))
	})

	p.Handle("description", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		port.Description = strings.Join(args, " ")
	})
	p.Handle("no_description", func([]string) { port.Description = "" })
	p.Handle("shutdown", func([]string) { port.Shutdown = model.Bool(true) })
	p.Handle("no_shutdown", func([]string) { port.Shutdown = nil })
	p.Handle("switchport", p.switchport)
	p.Handle("no_switchport", p.noSwitchport)
	p.Handle("channel_group", p.channelGroup)
	p.Handle("no_channel_group", func([]string) { port.AggregationMembership = "" })
	p.Handle("ip", p.ip)
	p.Handle("no_ip", p.noIP)
	p.Handle("vrf", p.vrf)
	p.Handle("no_vrf", func(args []string) {
		if p.routed() && processor.MatchesAll(args, "forwarding") {
			port.ClearIPs()
			port.VRF = ""
		}
	})
	p.Handle("load_interval", func(args []string) {
		if !p.routed() {
			return
		}
		if len(args) != 1 {
			p.incomplete()
			return
		}
		if n, ok := util.ParseInt(args[0]); !ok || n < 5 || n > 600 {
			p.invalid()
			return
		}
		port.Vlan.LoadInterval = args[0]
	})
	p.Handle("no_load_interval", func([]string) {
		if p.routed() {
			port.Vlan.LoadInterval = ""
		}
	})
	p.Handle("mpls", func(args []string) {
		if p.routed() && processor.MatchesExactly(args, "ip") {
			port.Vlan.MPLSIP = nil
		}
	})
	p.Handle("no_mpls", func(args []string) {
		if p.routed() && processor.MatchesExactly(args, "ip") {
			port.Vlan.MPLSIP = model.Bool(false)
		}
	})
	p.Handle("vrrp", p.vrrp)
	p.Handle("no_vrrp", p.noVrrp)
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.endFrom(parent) })
	return p
}

// routed writes the parse error for layer 3 commands on switchports.
func (p *configInterfaceMode) routed() bool {
	if !p.port.IsVlanPort() {
		p.invalid()
		return false
	}
	return true
}

func (p *configInterfaceMode) vlanArg(token string) (int, bool) {
	n, ok := util.ParseInt(token)
	if !ok || util.ValidateVLANID(n, p.Conf().MaxVlan) != nil {
		p.invalid()
		return 0, false
	}
	return n, true
}

func (p *configInterfaceMode) switchport(args []string) {
	port := p.port
	if port.IsVlanPort() {
		p.invalid()
		return
	}
	switch {
	case len(args) == 0:
	case processor.MatchesAll(args, "mode") && len(args) == 2:
		switch {
		case processor.Matches(args[1], model.ModeAccess):
			port.SetMode(model.ModeAccess)
		case processor.Matches(args[1], model.ModeTrunk):
			port.SetMode(model.ModeTrunk)
		default:
			p.invalid()
		}
	case processor.MatchesAll(args, "access", "vlan") && len(args) == 3:
		if n, ok := p.vlanArg(args[2]); ok {
			port.AccessVlan = n
		}
	case processor.MatchesAll(args, "trunk", "native", "vlan") && len(args) == 4:
		if n, ok := p.vlanArg(args[3]); ok {
			port.TrunkNativeVlan = n
		}
	case processor.MatchesAll(args, "trunk", "allowed", "vlan") && len(args) >= 4:
		p.trunkAllowed(args[3:])
	default:
		p.invalid()
	}
}

func (p *configInterfaceMode) trunkAllowed(args []string) {
	port := p.port
	max := p.Conf().MaxVlan
	list := func(spec string) ([]int, bool) {
		vlans, err := util.ExpandVLANRange(spec, max)
		if err != nil {
			p.invalid()
			return nil, false
		}
		return vlans, true
	}

	switch {
	case len(args) == 1 && processor.Matches(args[0], "none"):
		port.TrunkVlans = model.VlanList{}
	case len(args) == 1 && processor.Matches(args[0], "all"):
		port.TrunkVlans = nil
	case len(args) == 2 && processor.Matches(args[0], "add"):
		if vlans, ok := list(args[1]); ok {
			port.TrunkVlans = port.TrunkVlans.Add(vlans...)
		}
	case len(args) == 2 && processor.Matches(args[0], "remove"):
		if vlans, ok := list(args[1]); ok {
			current := port.TrunkVlans
			if current == nil {
				current = model.Except(max)
			}
			port.TrunkVlans = current.Remove(vlans...)
		}
	case len(args) == 2 && processor.Matches(args[0], "except"):
		if vlans, ok := list(args[1]); ok {
			port.TrunkVlans = model.Except(max, vlans...)
		}
	case len(args) == 1:
		if vlans, ok := list(args[0]); ok {
			port.TrunkVlans = model.VlanList(vlans)
		}
	default:
		p.invalid()
	}
}

func (p *configInterfaceMode) noSwitchport(args []string) {
	port := p.port
	switch {
	case processor.MatchesExactly(args, "mode"):
		port.SetMode("")
	case processor.MatchesAll(args, "access", "vlan"):
		port.AccessVlan = 0
	case processor.MatchesAll(args, "trunk", "native", "vlan"):
		port.TrunkNativeVlan = 0
	case processor.MatchesAll(args, "trunk", "allowed", "vlan"):
		port.TrunkVlans = nil
	default:
		p.invalid()
	}
}

func (p *configInterfaceMode) channelGroup(args []string) {
	if len(args) != 3 || !processor.Matches(args[1], "mode") {
		p.invalid()
		return
	}
	n, ok := util.ParseInt(args[0])
	if !ok || n < 1 || !p.port.IsPhysical() {
		p.invalid()
		return
	}
	conf := p.Conf()
	name := "Port-Channel" + strconv.Itoa(n)
	agg := conf.GetPort(name)
	if agg == nil {
		agg = conf.NewAggregatedPort(name)
		conf.AddPort(agg)
	}
	agg.Aggregate.LACPActive = processor.Matches(args[2], "active")
	p.port.AggregationMembership = name
}

func (p *configInterfaceMode) vrf(args []string) {
	if !p.routed() {
		return
	}
	if len(args) != 2 || !processor.Matches(args[0], "forwarding") {
		p.invalid()
		return
	}
	if p.Conf().GetVRF(args[1]) == nil {
		p.WriteLine(fmt.Sprintf("%% VRF %s does not exist", args[1]))
		return
	}
	p.port.ClearIPs()
	p.port.VRF = args[1]
}

// ===== Layer 3 =====

func (p *configInterfaceMode) ip(args []string) {
	if !p.routed() {
		return
	}
	port := p.port
	switch {
	case processor.MatchesAll(args, "address") && (len(args) == 2 || len(args) == 3):
		p.ipAddress(args[1:])
	case processor.MatchesAll(args, "helper-address") && len(args) == 2:
		if _, err := parseAddr(args[1]); err != nil {
			p.invalid()
			return
		}
		if !containsString(port.IPHelpers, args[1]) {
			port.IPHelpers = append(port.IPHelpers, args[1])
		}
	case processor.MatchesAll(args, "virtual-router", "address") && len(args) == 3:
		addr, err := parseAddr(args[2])
		if err != nil {
			p.invalid()
			return
		}
		for _, existing := range port.Vlan.VarpAddresses {
			if existing == addr {
				return
			}
		}
		port.Vlan.VarpAddresses = append(port.Vlan.VarpAddresses, addr)
	case processor.MatchesExactly(args, "redirects"):
		port.Vlan.IPRedirect = nil
	default:
		p.invalid()
	}
}

func (p *configInterfaceMode) ipAddress(args []string) {
	conf := p.Conf()
	port := p.port
	ip, err := util.ParseIPWithMask(args[0])
	if err != nil {
		p.invalid()
		return
	}
	secondary := len(args) == 2
	if secondary && !processor.Matches(args[1], "secondary") {
		p.invalid()
		return
	}

	if other, existing, found := conf.FindOverlappingIP(ip, port.Name); found {
		if existing.Addr() == ip.Addr() {
			p.WriteLine(fmt.Sprintf("%% Address %s is already assigned to interface %s", ip.Addr(), other.Name))
		} else {
			p.WriteLine(fmt.Sprintf("%% Subnet %s overlaps with existing subnet on interface %s", ip.Masked(), other.Name))
		}
		return
	}
	if !secondary {
		port.SetPrimaryIP(ip)
		return
	}
	if _, ok := port.PrimaryIP(); !ok {
		p.WriteLine("% Primary address must be assigned before secondary")
		return
	}
	for _, existing := range port.Vlan.IPs {
		if util.PrefixesOverlap(existing, ip) {
			p.WriteLine(fmt.Sprintf("%% Subnet %s overlaps with existing subnet on interface %s", ip.Masked(), port.Name))
			return
		}
	}
	port.AddSecondaryIP(ip)
}

func (p *configInterfaceMode) noIP(args []string) {
	if !p.routed() {
		return
	}
	port := p.port
	switch {
	case processor.MatchesExactly(args, "address"):
		port.ClearIPs()
	case processor.MatchesAll(args, "address") && len(args) >= 2:
		ip, err := util.ParseIPWithMask(args[1])
		if err != nil {
			p.invalid()
			return
		}
		if !port.HasIP(ip) {
			p.WriteLine(fmt.Sprintf("%% Address %s not found on %s", ip, port.Name))
			return
		}
		if err := port.RemoveIP(ip); err != nil {
			p.WriteLine("% Primary address cannot be deleted before secondary")
		}
	case processor.MatchesAll(args, "helper-address"):
		if len(args) == 1 {
			port.IPHelpers = nil
			return
		}
		port.IPHelpers = removeString(port.IPHelpers, args[1])
	case processor.MatchesAll(args, "virtual-router", "address"):
		if len(args) == 2 {
			port.Vlan.VarpAddresses = nil
			return
		}
		var kept []netip.Addr
		for _, addr := range port.Vlan.VarpAddresses {
			if addr.String() != args[2] {
				kept = append(kept, addr)
			}
		}
		port.Vlan.VarpAddresses = kept
	case processor.MatchesExactly(args, "redirects"):
		port.Vlan.IPRedirect = model.Bool(false)
	default:
		p.invalid()
	}
}

// ===== VRRP =====

func (p *configInterfaceMode) vrrp(args []string) {
	if !p.routed() {
		return
	}
	if len(args) < 2 {
		p.incomplete()
		return
	}
	if n, ok := util.ParseInt(args[0]); !ok || n < 1 || n > 255 {
		p.invalid()
		return
	}
	port := p.port
	group := port.GetVRRP(args[0])
	created := group == nil
	if created {
		group = p.Conf().NewVRRP(args[0])
	}
	rest := args[1:]

	ok := true
	switch {
	case processor.MatchesAll(rest, "ip") && (len(rest) == 2 || len(rest) == 3):
		addr, err := parseAddr(rest[1])
		if err != nil || (len(rest) == 3 && !processor.Matches(rest[2], "secondary")) {
			ok = false
			break
		}
		if !group.HasIP(addr) {
			group.IPAddresses = append(group.IPAddresses, addr)
		}
	case processor.MatchesAll(rest, "priority") && len(rest) == 2:
		var priority int
		if priority, ok = util.ParseInt(rest[1]); ok {
			group.Priority = priority
		}
	case processor.MatchesAll(rest, "timers", "advertisement") && len(rest) == 3:
		var hello int
		if hello, ok = util.ParseInt(rest[2]); ok {
			group.TimersHello = hello
		}
	case processor.MatchesExactly(rest, "preempt"):
		group.Preempt = model.Bool(true)
	case processor.MatchesAll(rest, "preempt", "delay", "minimum") && len(rest) == 4:
		var delay int
		if delay, ok = util.ParseInt(rest[3]); ok {
			group.Preempt = model.Bool(true)
			group.PreemptDelayMinimum = delay
		}
	case processor.MatchesAll(rest, "authentication") && len(rest) >= 2:
		group.Authentication = strings.Join(rest[1:], " ")
	case processor.MatchesAll(rest, "track") && len(rest) == 4 && processor.Matches(rest[2], "decrement"):
		if group.Track == nil {
			group.Track = map[string]string{}
		}
		group.Track[rest[1]] = rest[3]
	default:
		ok = false
	}
	if !ok {
		p.invalid()
		return
	}
	if created {
		port.Vlan.VRRPs = append(port.Vlan.VRRPs, group)
	}
}

func (p *configInterfaceMode) noVrrp(args []string) {
	if !p.routed() || len(args) == 0 {
		return
	}
	port := p.port
	group := port.GetVRRP(args[0])
	if group == nil {
		return
	}
	rest := args[1:]
	switch {
	case len(rest) == 0:
		port.RemoveVRRP(args[0])
		return
	case processor.MatchesAll(rest, "ip") && len(rest) >= 2:
		var kept []netip.Addr
		for _, addr := range group.IPAddresses {
			if addr.String() != rest[1] {
				kept = append(kept, addr)
			}
		}
		group.IPAddresses = kept
	case processor.MatchesAll(rest, "priority"):
		group.Priority = 0
	case processor.MatchesAll(rest, "timers"):
		group.TimersHello = 0
	case processor.MatchesAll(rest, "preempt"):
		group.Preempt = model.Bool(false)
		group.PreemptDelayMinimum = 0
	case processor.MatchesAll(rest, "authentication"):
		group.Authentication = ""
	case processor.MatchesAll(rest, "track") && len(rest) >= 2:
		delete(group.Track, rest[1])
	default:
		p.invalid()
		return
	}
	if group.IsEmpty() {
		port.RemoveVRRP(args[0])
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	var out []string
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
