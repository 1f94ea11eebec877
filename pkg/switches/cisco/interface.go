package cisco

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// ===== Interface configuration =====

type configInterfaceMode struct {
	mode
	port *model.Port

	// running-config lists secondaries before the primary; they wait here
	// until the primary arrives.
	pendingSecondaries []netip.Prefix
}

func newConfigInterface(c *Core, parent *configMode, port *model.Port) *configInterfaceMode {
	p := &configInterfaceMode{mode: mode{core: c}, port: port}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config-if)#" })

	p.Handle("description", func(args []string) {
		if len(args) == 0 {
			p.invalid("description ")
			return
		}
		port.Description = strings.Join(args, " ")
	})
	p.Handle("no_description", func([]string) { port.Description = "" })
	p.Handle("shutdown", func([]string) { port.Shutdown = model.Bool(true) })
	p.Handle("no_shutdown", func([]string) { port.Shutdown = model.Bool(false) })
	p.Handle("switchport", p.switchport)
	p.Handle("no_switchport", p.noSwitchport)
	p.Handle("channel_group", p.channelGroup)
	p.Handle("no_channel_group", func([]string) { port.AggregationMembership = "" })
	p.Handle("ip", p.ip)
	p.Handle("no_ip", p.noIP)
	p.Handle("standby", p.standby)
	p.Handle("no_standby", p.noStandby)
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.endFrom(parent) })
	return p
}

func (p *configInterfaceMode) switchport(args []string) {
	conf := p.Conf()
	port := p.port
	switch {
	case len(args) == 0:
	case processor.MatchesAll(args, "mode") && len(args) == 2:
		mode, ok := switchportMode(args[1])
		if !ok {
			p.invalid("switchport mode ")
			return
		}
		port.SetMode(mode)
	case processor.MatchesAll(args, "access", "vlan") && len(args) == 3:
		n, ok := p.vlanArg(args[2], "switchport access vlan ")
		if !ok {
			return
		}
		if conf.GetVlan(n) == nil {
			p.WriteLine(fmt.Sprintf("%% Access VLAN does not exist. Creating vlan %d", n))
			conf.AddVlan(conf.NewVlan(n, ""))
		}
		port.AccessVlan = n
	case processor.MatchesAll(args, "trunk", "encapsulation") && len(args) == 3:
		encapsulation := ""
		for _, e := range []string{"dot1q", "isl", "negotiate"} {
			if processor.Matches(args[2], e) {
				encapsulation = e
			}
		}
		if encapsulation == "" {
			p.invalid("switchport trunk encapsulation ")
			return
		}
		port.TrunkEncapsulationMode = encapsulation
	case processor.MatchesAll(args, "trunk", "native", "vlan") && len(args) == 4:
		n, ok := p.vlanArg(args[3], "switchport trunk native vlan ")
		if !ok {
			return
		}
		port.TrunkNativeVlan = n
	case processor.MatchesAll(args, "trunk", "allowed", "vlan") && len(args) >= 4:
		p.trunkAllowed(args[3:])
	default:
		p.invalid("switchport ")
	}
}

func switchportMode(token string) (string, bool) {
	for _, m := range []string{model.ModeAccess, model.ModeTrunk, model.ModeDynamic} {
		if processor.Matches(token, m) {
			return m, true
		}
	}
	return "", false
}

func (p *configInterfaceMode) vlanArg(token, prefix string) (int, bool) {
	n, isNumber := util.ParseInt(token)
	if !isNumber {
		p.invalid(prefix)
		return 0, false
	}
	if util.ValidateVLANID(n, p.Conf().MaxVlan) != nil {
		p.Write(badVlanList(token, p.Conf().MaxVlan))
		return 0, false
	}
	return n, true
}

func (p *configInterfaceMode) trunkAllowed(args []string) {
	port := p.port
	max := p.Conf().MaxVlan
	list := func(spec string) ([]int, bool) {
		vlans, err := util.ExpandVLANRange(spec, max)
		if err != nil {
			p.Write(badVlanList(spec, max))
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
		p.invalid("switchport trunk allowed vlan ")
	}
}

func (p *configInterfaceMode) noSwitchport(args []string) {
	port := p.port
	switch {
	case processor.MatchesExactly(args, "mode"):
		port.SetMode("")
	case processor.MatchesAll(args, "access", "vlan"):
		port.AccessVlan = 0
	case processor.MatchesAll(args, "trunk", "encapsulation"):
		port.TrunkEncapsulationMode = ""
	case processor.MatchesAll(args, "trunk", "native", "vlan"):
		port.TrunkNativeVlan = 0
	case processor.MatchesAll(args, "trunk", "allowed", "vlan"):
		port.TrunkVlans = nil
	default:
		p.invalid("no switchport ")
	}
}

// channelGroup handles "channel-group N mode active|on|passive", creating
// the port-channel on first use.
func (p *configInterfaceMode) channelGroup(args []string) {
	if len(args) != 3 || !processor.Matches(args[1], "mode") {
		p.invalid("channel-group ")
		return
	}
	n, ok := util.ParseInt(args[0])
	if !ok || n < 1 {
		p.invalid("channel-group ")
		return
	}
	conf := p.Conf()
	name := "Port-channel" + strconv.Itoa(n)
	agg := conf.GetPort(name)
	if agg == nil {
		p.WriteLine(fmt.Sprintf("Creating a port-channel interface %s", name))
		agg = conf.NewAggregatedPort(name)
		conf.AddPort(agg)
	}
	agg.Aggregate.LACPActive = processor.Matches(args[2], "active")
	p.port.AggregationMembership = name
}

// ===== Layer 3 =====

func (p *configInterfaceMode) routed(prefix string) bool {
	if !p.port.IsVlanPort() {
		p.invalid(prefix)
		return false
	}
	return true
}

func (p *configInterfaceMode) ip(args []string) {
	if !p.routed("ip ") {
		return
	}
	port := p.port
	switch {
	case processor.MatchesAll(args, "address") && len(args) >= 3:
		p.ipAddress(args[1:])
	case processor.MatchesAll(args, "vrf", "forwarding") && len(args) == 3:
		conf := p.Conf()
		if conf.GetVRF(args[2]) == nil {
			p.WriteLine(fmt.Sprintf("%% VRF %s not configured.", args[2]))
			return
		}
		if len(port.Vlan.IPs) > 0 {
			p.WriteLine(fmt.Sprintf("%% Interface %s IPv4 disabled and address(es) removed due to enabling VRF %s", port.Name, args[2]))
			port.ClearIPs()
		}
		port.VRF = args[2]
	case processor.MatchesAll(args, "access-group") && len(args) == 3:
		switch {
		case processor.Matches(args[2], "in"):
			port.Vlan.AccessGroupIn = args[1]
		case processor.Matches(args[2], "out"):
			port.Vlan.AccessGroupOut = args[1]
		default:
			p.invalid("ip access-group " + args[1] + " ")
		}
	case processor.MatchesExactly(args, "redirects"):
		port.Vlan.IPRedirect = nil
	case processor.MatchesExactly(args, "proxy-arp"):
		port.Vlan.IPProxyARP = nil
	case processor.MatchesAll(args, "helper-address") && len(args) == 2:
		if _, err := netip.ParseAddr(args[1]); err != nil {
			p.invalid("ip helper-address ")
			return
		}
		if !containsString(port.IPHelpers, args[1]) {
			port.IPHelpers = append(port.IPHelpers, args[1])
		}
	default:
		p.invalid("ip ")
	}
}

func (p *configInterfaceMode) ipAddress(args []string) {
	conf := p.Conf()
	port := p.port
	ip, err := util.ParseIPAndNetmask(args[0], args[1])
	if err != nil {
		p.invalid("ip address ")
		return
	}
	secondary := len(args) == 3 && processor.Matches(args[2], "secondary")
	if len(args) == 3 && !secondary {
		p.invalid("ip address " + args[0] + " " + args[1] + " ")
		return
	}

	if other, _, found := conf.FindOverlappingIP(ip, port.Name); found {
		p.WriteLine(fmt.Sprintf("%% %s overlaps with %s", util.NetworkAddr(ip), other.Name))
		return
	}
	for i, existing := range port.Vlan.IPs {
		if !util.PrefixesOverlap(existing, ip) || (i == 0 && !secondary) {
			continue
		}
		kind := "secondary"
		if i == 0 {
			kind = "primary"
		}
		p.WriteLine(fmt.Sprintf("%% %s overlaps with %s address on %s", util.NetworkAddr(ip), kind, port.Name))
		return
	}

	if !secondary {
		port.SetPrimaryIP(ip)
		for _, pending := range p.pendingSecondaries {
			if !port.HasIP(pending) {
				port.AddSecondaryIP(pending)
			}
		}
		p.pendingSecondaries = nil
		return
	}
	if port.HasIP(ip) {
		return
	}
	if _, ok := port.PrimaryIP(); !ok {
		p.pendingSecondaries = append(p.pendingSecondaries, ip)
		return
	}
	port.AddSecondaryIP(ip)
}

func (p *configInterfaceMode) noIP(args []string) {
	if !p.routed("no ip ") {
		return
	}
	port := p.port
	switch {
	case processor.MatchesExactly(args, "address"):
		port.ClearIPs()
	case processor.MatchesAll(args, "address") && len(args) >= 3:
		ip, err := util.ParseIPAndNetmask(args[1], args[2])
		if err != nil {
			p.invalid("no ip address ")
			return
		}
		if !port.HasIP(ip) {
			p.WriteLine(fmt.Sprintf("%% Address %s not configured on %s", ip.Addr(), port.Name))
			return
		}
		if err := port.RemoveIP(ip); err != nil {
			p.WriteLine("Must delete secondary before deleting primary")
		}
	case processor.MatchesAll(args, "vrf", "forwarding"):
		if port.VRF != "" && len(port.Vlan.IPs) > 0 {
			p.WriteLine(fmt.Sprintf("%% Interface %s IPv4 disabled and address(es) removed due to disabling VRF %s", port.Name, port.VRF))
			port.ClearIPs()
		}
		port.VRF = ""
	case processor.MatchesAll(args, "access-group") && len(args) >= 2:
		dir := args[len(args)-1]
		switch {
		case processor.Matches(dir, "in"):
			port.Vlan.AccessGroupIn = ""
		case processor.Matches(dir, "out"):
			port.Vlan.AccessGroupOut = ""
		default:
			p.invalid("no ip access-group ")
		}
	case processor.MatchesExactly(args, "redirects"):
		port.Vlan.IPRedirect = model.Bool(false)
	case processor.MatchesExactly(args, "proxy-arp"):
		port.Vlan.IPProxyARP = model.Bool(false)
	case processor.MatchesAll(args, "helper-address"):
		if len(args) == 1 {
			port.IPHelpers = nil
			return
		}
		port.IPHelpers = removeString(port.IPHelpers, args[1])
	default:
		p.invalid("no ip ")
	}
}

// ===== HSRP =====

func (p *configInterfaceMode) standby(args []string) {
	if !p.routed("standby ") {
		return
	}
	if len(args) < 2 {
		p.invalid("standby ")
		return
	}
	if _, ok := util.ParseInt(args[0]); !ok {
		p.invalid("standby ")
		return
	}
	port := p.port
	group := port.GetVRRP(args[0])
	created := group == nil
	if created {
		group = p.Conf().NewVRRP(args[0])
	}
	prefix := "standby " + args[0] + " "
	rest := args[1:]

	ok := true
	switch {
	case processor.MatchesAll(rest, "ip") && (len(rest) == 2 || len(rest) == 3):
		addr, err := netip.ParseAddr(rest[1])
		if err != nil || (len(rest) == 3 && !processor.Matches(rest[2], "secondary")) {
			ok = false
			break
		}
		if !group.HasIP(addr) {
			group.IPAddresses = append(group.IPAddresses, addr)
		}
	case processor.MatchesAll(rest, "timers") && len(rest) == 3:
		hello, ok1 := util.ParseInt(rest[1])
		hold, ok2 := util.ParseInt(rest[2])
		if ok = ok1 && ok2; ok {
			group.TimersHello, group.TimersHold = hello, hold
		}
	case processor.MatchesAll(rest, "priority") && len(rest) == 2:
		var priority int
		if priority, ok = util.ParseInt(rest[1]); ok {
			group.Priority = priority
		}
	case processor.MatchesExactly(rest, "preempt"):
		group.Preempt = model.Bool(true)
	case processor.MatchesAll(rest, "preempt", "delay", "minimum") && len(rest) == 4:
		var delay int
		if delay, ok = util.ParseInt(rest[3]); ok {
			group.Preempt = model.Bool(true)
			group.PreemptDelayMinimum = delay
		}
	case processor.MatchesAll(rest, "authentication") && len(rest) == 2:
		group.Authentication = rest[1]
	case processor.MatchesAll(rest, "track") && len(rest) == 4 && processor.Matches(rest[2], "decrement"):
		if group.Track == nil {
			group.Track = map[string]string{}
		}
		group.Track[rest[1]] = rest[3]
	default:
		ok = false
	}
	if !ok {
		p.invalid(prefix)
		return
	}
	if created {
		port.Vlan.VRRPs = append(port.Vlan.VRRPs, group)
	}
}

func (p *configInterfaceMode) noStandby(args []string) {
	if !p.routed("no standby ") {
		return
	}
	if len(args) == 0 {
		p.invalid("no standby ")
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
		for _, a := range group.IPAddresses {
			if a.String() != rest[1] {
				kept = append(kept, a)
			}
		}
		group.IPAddresses = kept
	case processor.MatchesAll(rest, "ip"):
		group.IPAddresses = nil
	case processor.MatchesAll(rest, "timers"):
		group.TimersHello, group.TimersHold = 0, 0
	case processor.MatchesAll(rest, "priority"):
		group.Priority = 0
	case processor.MatchesAll(rest, "preempt"):
		group.Preempt = nil
		group.PreemptDelayMinimum = 0
	case processor.MatchesAll(rest, "authentication"):
		group.Authentication = ""
	case processor.MatchesAll(rest, "track") && len(rest) >= 2:
		delete(group.Track, rest[1])
	default:
		p.invalid("no standby " + args[0] + " ")
		return
	}
	if group.IsEmpty() {
		port.RemoveVRRP(args[0])
	}
}
