package cisco

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// parseVlan accepts a VLAN number in 1..max.
func parseVlan(token string, max int) (int, bool) {
	n, ok := util.ParseInt(token)
	if !ok || util.ValidateVLANID(n, max) != nil {
		return n, false
	}
	return n, true
}

func badVlanList(token string, max int) string {
	return fmt.Sprintf("Command rejected: Bad VLAN list - character #%d (EOL) delimits a VLAN number\n"+
		" which is out of the range 1..%d.\n", len(token)+1, max)
}

// resolvePort finds an existing interface from a possibly abbreviated name.
func resolvePort(conf *model.SwitchConfiguration, name string) *model.Port {
	prefix, number := util.SplitPortName(name)
	if number == "" {
		return nil
	}
	switch {
	case strings.HasPrefix("vlan", prefix) && len(prefix) >= 2:
		if n, ok := util.ParseInt(number); ok {
			return conf.GetVlanPort(n)
		}
		return nil
	case strings.HasPrefix("port-channel", prefix) && len(prefix) >= 2:
		return conf.GetPort("Port-channel" + number)
	}
	return conf.GetPortByPartialName(name)
}

// ===== Global configuration =====

type configMode struct {
	mode
}

func newConfig(c *Core) *configMode {
	p := &configMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config)#" })

	p.Handle("hostname", func(args []string) {
		if len(args) != 1 {
			p.invalid("hostname ")
			return
		}
		p.Conf().Name = args[0]
	})
	p.Handle("vlan", p.vlan)
	p.Handle("no_vlan", p.noVlan)
	p.Handle("interface", p.iface)
	p.Handle("no_interface", p.noInterface)
	p.Handle("ip", p.ip)
	p.Handle("no_ip", p.noIP)
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.Done() })
	return p
}

func (p *configMode) vlan(args []string) {
	if len(args) != 1 {
		p.invalid("vlan ")
		return
	}
	conf := p.Conf()
	n, isNumber := util.ParseInt(args[0])
	if !isNumber {
		p.invalid("vlan ")
		return
	}
	if util.ValidateVLANID(n, conf.MaxVlan) != nil {
		p.Write(badVlanList(args[0], conf.MaxVlan))
		return
	}
	v := conf.GetVlan(n)
	if v == nil {
		v = conf.NewVlan(n, "")
		conf.AddVlan(v)
	}
	p.MoveTo(newConfigVlan(p.core, p, v))
}

func (p *configMode) noVlan(args []string) {
	if len(args) != 1 {
		p.invalid("no vlan ")
		return
	}
	n, ok := parseVlan(args[0], p.Conf().MaxVlan)
	if !ok {
		p.Write(badVlanList(args[0], p.Conf().MaxVlan))
		return
	}
	if v := p.Conf().GetVlan(n); v != nil {
		p.Conf().RemoveVlan(v)
	}
}

func (p *configMode) iface(args []string) {
	if len(args) == 0 {
		p.invalid("interface ")
		return
	}
	conf := p.Conf()
	name := strings.Join(args, "")
	port := resolvePort(conf, name)
	if port == nil {
		prefix, number := util.SplitPortName(name)
		n, isNumber := util.ParseInt(number)
		switch {
		case isNumber && strings.HasPrefix("vlan", prefix) && len(prefix) >= 2:
			if util.ValidateVLANID(n, conf.MaxVlan) != nil {
				p.invalid("interface ")
				return
			}
			port = conf.NewVlanPort(n, "Vlan"+number)
			conf.AddPort(port)
		case isNumber && strings.HasPrefix("port-channel", prefix) && len(prefix) >= 2:
			port = conf.NewAggregatedPort("Port-channel" + number)
			conf.AddPort(port)
		default:
			p.invalid("interface ")
			return
		}
	}
	p.MoveTo(newConfigInterface(p.core, p, port))
}

func (p *configMode) noInterface(args []string) {
	port := resolvePort(p.Conf(), strings.Join(args, ""))
	if port == nil || port.IsPhysical() {
		p.invalid("no interface ")
		return
	}
	p.Conf().RemovePort(port)
}

func (p *configMode) ip(args []string) {
	conf := p.Conf()
	switch {
	case processor.MatchesAll(args, "vrf") && len(args) == 2:
		vrf := conf.GetVRF(args[1])
		if vrf == nil {
			vrf = conf.NewVRF(args[1])
			conf.AddVRF(vrf)
		}
		p.MoveTo(newConfigVrf(p.core, p, vrf))
	case processor.MatchesAll(args, "route") && len(args) == 4:
		dest, nextHop, ok := parseRoute(args[1:])
		if !ok {
			p.invalid("ip route ")
			return
		}
		if conf.GetStaticRoute(dest, nextHop) == nil {
			conf.AddStaticRoute(conf.NewRoute(dest, nextHop))
		}
	default:
		p.invalid("ip ")
	}
}

func (p *configMode) noIP(args []string) {
	conf := p.Conf()
	switch {
	case processor.MatchesAll(args, "vrf") && len(args) == 2:
		vrf := conf.GetVRF(args[1])
		if vrf == nil {
			p.WriteLine(fmt.Sprintf("%% IP VRF %s not configured", args[1]))
			return
		}
		for _, port := range conf.GetVlanPorts() {
			if port.VRF == vrf.Name {
				port.ClearIPs()
			}
		}
		conf.RemoveVRF(vrf)
	case processor.MatchesAll(args, "route") && len(args) == 4:
		dest, nextHop, ok := parseRoute(args[1:])
		if !ok {
			p.invalid("no ip route ")
			return
		}
		if err := conf.RemoveStaticRoute(dest, nextHop); err != nil {
			p.WriteLine("%No matching route to delete")
		}
	default:
		p.invalid("no ip ")
	}
}

func parseRoute(args []string) (netip.Prefix, netip.Addr, bool) {
	dest, err := util.ParseIPAndNetmask(args[0], args[1])
	if err != nil {
		return netip.Prefix{}, netip.Addr{}, false
	}
	nextHop, err := netip.ParseAddr(args[2])
	if err != nil {
		return netip.Prefix{}, netip.Addr{}, false
	}
	return dest.Masked(), nextHop, true
}

// ===== VLAN configuration =====

type configVlanMode struct {
	mode
	vlan *model.Vlan
}

func newConfigVlan(c *Core, parent *configMode, v *model.Vlan) *configVlanMode {
	p := &configVlanMode{mode: mode{core: c}, vlan: v}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config-vlan)#" })

	p.Handle("name", func(args []string) {
		if len(args) == 0 {
			p.invalid("name ")
			return
		}
		v.Name = strings.Join(args, " ")
	})
	p.Handle("no_name", func([]string) { v.Name = "" })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.endFrom(parent) })
	return p
}

// ===== VRF configuration =====

type configVrfMode struct {
	mode
	vrf *model.VRF
}

func newConfigVrf(c *Core, parent *configMode, vrf *model.VRF) *configVrfMode {
	p := &configVrfMode{mode: mode{core: c}, vrf: vrf}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config-vrf)#" })

	p.Handle("rd", func(args []string) {
		if len(args) != 1 {
			p.invalid("rd ")
			return
		}
		vrf.RD = args[0]
	})
	p.Handle("no_rd", func([]string) { vrf.RD = "" })
	p.Handle("route_target", func(args []string) {
		if len(args) != 2 {
			p.invalid("route-target ")
			return
		}
		for _, dir := range routeTargetDirections(args[0]) {
			target := dir + " " + args[1]
			if !containsString(vrf.RouteTargets, target) {
				vrf.RouteTargets = append(vrf.RouteTargets, target)
			}
		}
	})
	p.Handle("no_route_target", func(args []string) {
		if len(args) != 2 {
			p.invalid("no route-target ")
			return
		}
		for _, dir := range routeTargetDirections(args[0]) {
			vrf.RouteTargets = removeString(vrf.RouteTargets, dir+" "+args[1])
		}
	})
	p.Handle("description", func(args []string) { vrf.Description = strings.Join(args, " ") })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.endFrom(parent) })
	return p
}

func routeTargetDirections(token string) []string {
	switch {
	case processor.Matches(token, "both"):
		return []string{"export", "import"}
	case processor.Matches(token, "export"):
		return []string{"export"}
	case processor.Matches(token, "import"):
		return []string{"import"}
	}
	return nil
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
