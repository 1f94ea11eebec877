package brocade

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// splitPortID parses "1/3" into module 1, port 3.
func splitPortID(id string) (int, int, bool) {
	m, n, found := strings.Cut(id, "/")
	if !found {
		return 0, 0, false
	}
	module, ok := util.ParseInt(m)
	if !ok {
		return 0, 0, false
	}
	number, ok := util.ParseInt(n)
	return module, number, ok
}

func portID(port *model.Port) string {
	return strings.TrimPrefix(port.Name, "ethernet ")
}

func veName(n int) string { return fmt.Sprintf("ve %d", n) }

// resolveInterface finds "ethernet 1/1", "ethe 1/1" or "ve 10".
func resolveInterface(conf *model.SwitchConfiguration, args []string) *model.Port {
	if len(args) != 2 {
		return nil
	}
	switch {
	case processor.Matches(args[0], "ve"):
		n, ok := util.ParseInt(args[1])
		if !ok {
			return nil
		}
		return conf.GetPort(veName(n))
	case processor.Matches(args[0], "ethernet"):
		return conf.GetPort("ethernet " + args[1])
	}
	return nil
}

// parsePortList expands "ethe 1/1 to 1/3 ethe 2/1" into ports.
func parsePortList(conf *model.SwitchConfiguration, args []string) ([]*model.Port, bool) {
	var ports []*model.Port
	for i := 0; i < len(args); {
		if !processor.Matches(args[i], "ethernet") || i+1 >= len(args) {
			return nil, false
		}
		from, to := args[i+1], args[i+1]
		i += 2
		if i+1 < len(args) && args[i] == "to" {
			to = args[i+1]
			i += 2
		}
		span, ok := portSpan(conf, from, to)
		if !ok {
			return nil, false
		}
		ports = append(ports, span...)
	}
	return ports, len(ports) > 0
}

func portSpan(conf *model.SwitchConfiguration, from, to string) ([]*model.Port, bool) {
	fromModule, fromPort, ok := splitPortID(from)
	if !ok {
		return nil, false
	}
	toModule, toPort, ok := splitPortID(to)
	if !ok || toModule != fromModule || toPort < fromPort {
		return nil, false
	}
	var ports []*model.Port
	for n := fromPort; n <= toPort; n++ {
		port := conf.GetPort(fmt.Sprintf("ethernet %d/%d", fromModule, n))
		if port == nil {
			return nil, false
		}
		ports = append(ports, port)
	}
	return ports, true
}

// refreshMode derives the port mode from its VLAN memberships.
func refreshMode(port *model.Port) {
	switch {
	case len(port.TrunkVlans) > 0:
		port.Mode = model.ModeTrunk
	case port.AccessVlan != 0:
		port.Mode = model.ModeAccess
	default:
		port.Mode = ""
	}
}

type configMode struct {
	mode
}

func newConfig(c *Core) *configMode {
	p := &configMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.prefix() + "(config)#" })

	p.Handle("hostname", func(args []string) {
		if len(args) != 1 {
			p.incomplete()
			return
		}
		p.Conf().Name = args[0]
	})
	p.Handle("vlan", p.vlan)
	p.Handle("no_vlan", p.noVlan)
	p.Handle("interface", p.iface)
	p.Handle("vrf", p.vrf)
	p.Handle("no_vrf", p.noVrf)
	p.Handle("ip", p.ip)
	p.Handle("no_ip", p.noIP)
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.Done() })
	return p
}

// vlanNumber validates the VLAN argument the way FastIron words it.
func (p *configMode) vlanNumber(args []string) (int, bool) {
	if len(args) == 0 {
		p.incomplete()
		return 0, false
	}
	n, ok := util.ParseInt(args[0])
	switch {
	case !ok:
		p.invalid(args...)
		return 0, false
	case n == 0:
		p.WriteLine("Error: vlan ID value 0 not allowed.")
		return 0, false
	case n > p.Conf().MaxVlan:
		p.WriteLine(fmt.Sprintf("Error: vlan id %d is outside of allowed max of %d", n, p.Conf().MaxVlan))
		return 0, false
	}
	return n, true
}

// vlan handles "vlan N [name X] [by port]".
func (p *configMode) vlan(args []string) {
	n, ok := p.vlanNumber(args)
	if !ok {
		return
	}
	name := ""
	rest := args[1:]
	if len(rest) >= 2 && processor.Matches(rest[0], "name") {
		name = rest[1]
		rest = rest[2:]
	}
	if len(rest) > 0 && !processor.MatchesExactly(rest, "by", "port") {
		p.invalid(rest...)
		return
	}

	conf := p.Conf()
	v := conf.GetVlan(n)
	if v == nil {
		v = conf.NewVlan(n, "")
		conf.AddVlan(v)
	}
	if name != "" && !(n == 1 && name == defaultVlanName) {
		v.Name = name
	}
	p.MoveTo(newConfigVlan(p, v))
}

func (p *configMode) noVlan(args []string) {
	n, ok := p.vlanNumber(args)
	if !ok {
		return
	}
	conf := p.Conf()
	v := conf.GetVlan(n)
	if v == nil {
		p.WriteLine(fmt.Sprintf("Error: vlan %d is not configured", n))
		return
	}
	if n == 1 {
		p.WriteLine("Error: Cannot delete the default vlan")
		return
	}
	if ve := conf.GetVlanPort(n); ve != nil {
		conf.RemovePort(ve)
	}
	conf.RemoveVlan(v)
}

// iface handles "interface ethernet 1/1" and "interface ve N".
func (p *configMode) iface(args []string) {
	if len(args) != 2 {
		p.incomplete()
		return
	}
	conf := p.Conf()
	switch {
	case processor.Matches(args[0], "ve"):
		port := resolveInterface(conf, args)
		if port == nil {
			p.WriteLine("Error - invalid virtual ethernet interface number.")
			return
		}
		p.MoveTo(newConfigVe(p, port))
	case processor.Matches(args[0], "ethernet"):
		port := resolveInterface(conf, args)
		if port == nil {
			p.WriteLine("Error - invalid interface " + args[1])
			return
		}
		p.MoveTo(newConfigEthernet(p, port))
	default:
		p.invalid(args...)
	}
}

func (p *configMode) vrf(args []string) {
	if len(args) != 1 {
		p.incomplete()
		return
	}
	conf := p.Conf()
	v := conf.GetVRF(args[0])
	if v == nil {
		v = conf.NewVRF(args[0])
		conf.AddVRF(v)
	}
	p.MoveTo(newConfigVrf(p, v))
}

func (p *configMode) noVrf(args []string) {
	if len(args) != 1 {
		p.incomplete()
		return
	}
	conf := p.Conf()
	v := conf.GetVRF(args[0])
	if v == nil {
		p.WriteLine("Error - VRF(" + args[0] + ") does not exist")
		return
	}
	for _, port := range conf.GetVlanPorts() {
		if port.VRF == v.Name {
			port.ClearIPs()
		}
	}
	conf.RemoveVRF(v)
}

// parseRoute reads "A/M NH" or "A M NH".
func parseRoute(args []string) (netip.Prefix, netip.Addr, bool) {
	prefix, used, err := util.ParseCIDROrNetmask(args)
	if err != nil || len(args) != used+1 {
		return netip.Prefix{}, netip.Addr{}, false
	}
	nextHop, err := netip.ParseAddr(args[used])
	if err != nil || !nextHop.Is4() {
		return netip.Prefix{}, netip.Addr{}, false
	}
	return prefix, nextHop, true
}

func (p *configMode) ip(args []string) {
	if !processor.MatchesAll(args, "route") {
		p.invalid(args...)
		return
	}
	destination, nextHop, ok := parseRoute(args[1:])
	if !ok {
		p.invalid(args[1:]...)
		return
	}
	conf := p.Conf()
	if conf.GetStaticRoute(destination, nextHop) == nil {
		conf.AddStaticRoute(conf.NewRoute(destination, nextHop))
	}
}

func (p *configMode) noIP(args []string) {
	if !processor.MatchesAll(args, "route") {
		p.invalid(args...)
		return
	}
	destination, nextHop, ok := parseRoute(args[1:])
	if !ok {
		p.invalid(args[1:]...)
		return
	}
	if err := p.Conf().RemoveStaticRoute(destination, nextHop); err != nil {
		p.WriteLine("Error - route not found")
	}
}

type configVlanMode struct {
	mode
	vlan *model.Vlan
}

func newConfigVlan(parent *configMode, v *model.Vlan) *configVlanMode {
	p := &configVlanMode{mode: mode{core: parent.core}, vlan: v}
	p.Base = processor.NewBase(func() string {
		return fmt.Sprintf("%s(config-vlan-%d)#", p.prefix(), v.Number)
	})

	p.Handle("untagged", p.untagged)
	p.Handle("no_untagged", func(args []string) {
		ports, ok := parsePortList(p.Conf(), args)
		if !ok {
			p.invalid(args...)
			return
		}
		for _, port := range ports {
			if port.AccessVlan == v.Number {
				port.AccessVlan = 0
				refreshMode(port)
			}
		}
	})
	p.Handle("tagged", func(args []string) {
		ports, ok := parsePortList(p.Conf(), args)
		if !ok {
			p.invalid(args...)
			return
		}
		for _, port := range ports {
			if port.AccessVlan == v.Number {
				port.AccessVlan = 0
			}
			port.TrunkVlans = append(model.VlanList{}, port.TrunkVlans...).Add(v.Number)
			refreshMode(port)
		}
	})
	p.Handle("no_tagged", func(args []string) {
		ports, ok := parsePortList(p.Conf(), args)
		if !ok {
			p.invalid(args...)
			return
		}
		for _, port := range ports {
			port.TrunkVlans = port.TrunkVlans.Remove(v.Number)
			refreshMode(port)
		}
	})
	p.Handle("router_interface", p.routerInterface)
	p.Handle("no_router_interface", func(args []string) {
		n, ok := veNumber(args)
		if !ok {
			p.invalid(args...)
			return
		}
		conf := p.Conf()
		if ve := conf.GetPort(veName(n)); ve != nil && ve.Vlan.VlanID == v.Number {
			conf.RemovePort(ve)
		}
	})
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

func (p *configVlanMode) untagged(args []string) {
	ports, ok := parsePortList(p.Conf(), args)
	if !ok {
		p.invalid(args...)
		return
	}
	for _, port := range ports {
		if port.AccessVlan != 0 && port.AccessVlan != p.vlan.Number {
			p.WriteLine(fmt.Sprintf("error - port ethe %s is untagged in vlan %d", portID(port), port.AccessVlan))
			return
		}
	}
	for _, port := range ports {
		port.AccessVlan = p.vlan.Number
		port.TrunkVlans = port.TrunkVlans.Remove(p.vlan.Number)
		refreshMode(port)
	}
}

// veNumber reads "ve N".
func veNumber(args []string) (int, bool) {
	if len(args) != 2 || !processor.Matches(args[0], "ve") {
		return 0, false
	}
	return util.ParseInt(args[1])
}

func (p *configVlanMode) routerInterface(args []string) {
	n, ok := veNumber(args)
	if !ok {
		p.invalid(args...)
		return
	}
	conf := p.Conf()
	if existing := conf.GetPort(veName(n)); existing != nil {
		if existing.Vlan.VlanID != p.vlan.Number {
			p.WriteLine(fmt.Sprintf("Error: ve %d is already used by vlan %d", n, existing.Vlan.VlanID))
		}
		return
	}
	if current := conf.GetVlanPort(p.vlan.Number); current != nil {
		p.WriteLine(fmt.Sprintf("Error: vlan %d already has router-interface %s", p.vlan.Number, current.Name))
		return
	}
	conf.AddPort(conf.NewVlanPort(p.vlan.Number, veName(n)))
}

type configVrfMode struct {
	mode
}

func newConfigVrf(parent *configMode, v *model.VRF) *configVrfMode {
	p := &configVrfMode{mode{core: parent.core}}
	p.Base = processor.NewBase(func() string {
		return fmt.Sprintf("%s(config-vrf-%s)#", p.prefix(), v.Name)
	})

	p.Handle("rd", func(args []string) {
		if len(args) != 1 {
			p.incomplete()
			return
		}
		v.RD = args[0]
	})
	p.Handle("no_rd", func([]string) { v.RD = "" })
	p.Handle("address_family", func([]string) {})
	p.Handle("exit_address_family", func([]string) {})
	p.Handle("exit_vrf", func([]string) { p.Done() })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}
