package arista

import (
	"fmt"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// resolvePort finds an existing interface: "Ethernet1", "et1", "vlan 10",
// "Po1".
func resolvePort(conf *model.SwitchConfiguration, name string) *model.Port {
	prefix, number := util.SplitPortName(strings.ToLower(name))
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
		return conf.GetPort("Port-Channel" + number)
	}
	return conf.GetPortByPartialName(name)
}

type configMode struct {
	mode
}

func newConfig(c *Core) *configMode {
	p := &configMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config)#" })

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
	p.Handle("no_interface", p.noInterface)
	p.Handle("vrf", p.vrf)
	p.Handle("no_vrf", p.noVrf)
	p.Handle("ip", p.ip)
	p.Handle("no_ip", p.noIP)
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.Done() })
	return p
}

func (p *configMode) vlanNumbers(args []string) ([]int, bool) {
	if len(args) != 1 {
		p.incomplete()
		return nil, false
	}
	vlans, err := util.ExpandVLANRange(args[0], p.Conf().MaxVlan)
	if err != nil {
		p.invalid()
		return nil, false
	}
	return vlans, true
}

// vlan accepts a single VLAN or a range; a range edits every member.
func (p *configMode) vlan(args []string) {
	vlans, ok := p.vlanNumbers(args)
	if !ok {
		return
	}
	conf := p.Conf()
	var edited []*model.Vlan
	for _, n := range vlans {
		v := conf.GetVlan(n)
		if v == nil {
			v = conf.NewVlan(n, "")
			conf.AddVlan(v)
		}
		edited = append(edited, v)
	}
	p.MoveTo(newConfigVlan(p.core, p, args[0], edited))
}

func (p *configMode) noVlan(args []string) {
	vlans, ok := p.vlanNumbers(args)
	if !ok {
		return
	}
	for _, n := range vlans {
		if v := p.Conf().GetVlan(n); v != nil {
			p.Conf().RemoveVlan(v)
		}
	}
}

func (p *configMode) iface(args []string) {
	if len(args) == 0 {
		p.incomplete()
		return
	}
	conf := p.Conf()
	name := strings.Join(args, "")
	port := resolvePort(conf, name)
	if port == nil {
		prefix, number := util.SplitPortName(strings.ToLower(name))
		n, isNumber := util.ParseInt(number)
		switch {
		case isNumber && strings.HasPrefix("vlan", prefix) && len(prefix) >= 2:
			if util.ValidateVLANID(n, conf.MaxVlan) != nil {
				p.invalid()
				return
			}
			port = conf.NewVlanPort(n, "Vlan"+number)
			conf.AddPort(port)
		case isNumber && strings.HasPrefix("port-channel", prefix) && len(prefix) >= 2:
			port = conf.NewAggregatedPort("Port-Channel" + number)
			conf.AddPort(port)
		default:
			p.invalid()
			return
		}
	}
	p.MoveTo(newConfigInterface(p.core, p, port))
}

func (p *configMode) noInterface(args []string) {
	port := resolvePort(p.Conf(), strings.Join(args, ""))
	switch {
	case port == nil:
		p.invalid()
	case port.IsPhysical():
		port.Reset()
	default:
		p.Conf().RemovePort(port)
	}
}

func (p *configMode) vrf(args []string) {
	if len(args) != 2 || !processor.Matches(args[0], "definition") {
		p.invalid()
		return
	}
	conf := p.Conf()
	vrf := conf.GetVRF(args[1])
	if vrf == nil {
		vrf = conf.NewVRF(args[1])
		conf.AddVRF(vrf)
	}
	p.MoveTo(newConfigVrf(p.core, p, vrf))
}

func (p *configMode) noVrf(args []string) {
	if len(args) != 2 || !processor.Matches(args[0], "definition") {
		p.invalid()
		return
	}
	conf := p.Conf()
	vrf := conf.GetVRF(args[1])
	if vrf == nil {
		return
	}
	for _, port := range conf.Ports {
		if port.VRF == vrf.Name {
			port.ClearIPs()
		}
	}
	conf.RemoveVRF(vrf)
}

func (p *configMode) ip(args []string) {
	conf := p.Conf()
	switch {
	case processor.MatchesExactly(args, "routing"):
	case processor.MatchesAll(args, "route") && len(args) == 3:
		dest, err := util.ParseIPWithMask(args[1])
		if err != nil {
			p.invalid()
			return
		}
		nextHop, err := parseAddr(args[2])
		if err != nil {
			p.invalid()
			return
		}
		if conf.GetStaticRoute(dest, nextHop) == nil {
			conf.AddStaticRoute(conf.NewRoute(dest, nextHop))
		}
	default:
		p.invalid()
	}
}

func (p *configMode) noIP(args []string) {
	if !processor.MatchesAll(args, "route") || len(args) != 3 {
		p.invalid()
		return
	}
	dest, err := util.ParseIPWithMask(args[1])
	if err != nil {
		p.invalid()
		return
	}
	nextHop, err := parseAddr(args[2])
	if err != nil {
		p.invalid()
		return
	}
	p.Conf().RemoveStaticRoute(dest, nextHop)
}

// ===== VLAN configuration =====

type configVlanMode struct {
	mode
	vlans []*model.Vlan
}

func newConfigVlan(c *Core, parent *configMode, label string, vlans []*model.Vlan) *configVlanMode {
	p := &configVlanMode{mode: mode{core: c}, vlans: vlans}
	p.Base = processor.NewBase(func() string { return fmt.Sprintf("%s(config-vlan-%s)#", p.Conf().Name, label) })

	p.Handle("name", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		for _, v := range vlans {
			v.Name = strings.Join(args, " ")
		}
	})
	p.Handle("no_name", func([]string) {
		for _, v := range vlans {
			v.Name = ""
		}
	})
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
	p.Base = processor.NewBase(func() string { return fmt.Sprintf("%s(config-vrf-%s)#", p.Conf().Name, vrf.Name) })

	p.Handle("rd", func(args []string) {
		if len(args) != 1 {
			p.incomplete()
			return
		}
		vrf.RD = args[0]
	})
	p.Handle("no_rd", func([]string) { vrf.RD = "" })
	p.Handle("description", func(args []string) { vrf.Description = strings.Join(args, " ") })
	p.Handle("no_description", func([]string) { vrf.Description = "" })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.endFrom(parent) })
	return p
}
