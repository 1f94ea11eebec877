package dell

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// resolvePort finds "ethernet 1/g1", "1/g1", "Te0/0/1" or
// "tengigabitethernet 0/0/1".
func resolvePort(conf *model.SwitchConfiguration, args []string) *model.Port {
	name := strings.Join(args, "")
	if name == "" {
		return nil
	}
	if port := conf.GetPortByPartialName(name); port != nil {
		return port
	}
	return conf.GetPortByPartialName("ethernet" + name)
}

type configMode struct {
	mode
}

func newConfig(c *Core) *configMode {
	p := &configMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config)#" })

	p.Handle("hostname", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		p.Conf().Name = processor.FreeText(args)
	})
	if c.dialect.VlanDatabase {
		p.Handle("vlan", func(args []string) {
			if !processor.MatchesExactly(args, "database") {
				p.caret("vlan", args, 0)
				return
			}
			p.MoveTo(newVlanDatabase(p))
		})
	} else {
		p.Handle("vlan", p.vlan)
		p.Handle("no_vlan", func(args []string) { removeVlans(&p.mode, "vlan", args) })
	}
	p.Handle("interface", p.iface)
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) { p.Done() })
	return p
}

// vlanNumbers parses a VLAN list such as "10,20-22" against the cap.
func vlanNumbers(m *mode, verb string, args []string) ([]int, bool) {
	if len(args) != 1 {
		m.incomplete()
		return nil, false
	}
	vlans, err := util.ExpandRange(args[0])
	if err != nil || len(vlans) == 0 {
		m.caret(verb, args, 0)
		return nil, false
	}
	for _, n := range vlans {
		if util.ValidateVLANID(n, m.Conf().MaxVlan) != nil {
			m.WriteLine(fmt.Sprintf("Value is out of range. The valid range is 1 to %d.", m.Conf().MaxVlan))
			return nil, false
		}
	}
	return vlans, true
}

func createVlans(conf *model.SwitchConfiguration, numbers []int) []*model.Vlan {
	var out []*model.Vlan
	for _, n := range numbers {
		v := conf.GetVlan(n)
		if v == nil {
			v = conf.NewVlan(n, "")
			conf.AddVlan(v)
		}
		out = append(out, v)
	}
	return out
}

func removeVlans(m *mode, verb string, args []string) {
	numbers, ok := vlanNumbers(m, verb, args)
	if !ok {
		return
	}
	conf := m.Conf()
	for _, n := range numbers {
		if n == 1 {
			m.WriteLine("The default VLAN cannot be deleted.")
			continue
		}
		if v := conf.GetVlan(n); v != nil {
			if port := conf.GetVlanPort(n); port != nil {
				conf.RemovePort(port)
			}
			conf.RemoveVlan(v)
		}
	}
}

// vlan enters the mode of one VLAN, or of a list edited together.
func (p *configMode) vlan(args []string) {
	numbers, ok := vlanNumbers(&p.mode, "vlan", args)
	if !ok {
		return
	}
	p.MoveTo(newConfigVlan(p, args[0], createVlans(p.Conf(), numbers)))
}

func (p *configMode) iface(args []string) {
	if len(args) == 0 {
		p.incomplete()
		return
	}
	conf := p.Conf()
	if processor.Matches(args[0], "vlan") && len(args[0]) >= 2 {
		if len(args) != 2 {
			p.incomplete()
			return
		}
		n, ok := util.ParseInt(args[1])
		if !ok {
			p.caret("interface", args, 1)
			return
		}
		v := conf.GetVlan(n)
		if v == nil {
			p.WriteLine("VLAN ID not found.")
			return
		}
		p.MoveTo(newInterfaceVlan(p, v))
		return
	}
	port := resolvePort(conf, args)
	if port == nil || !port.IsPhysical() {
		p.caret("interface", args, 0)
		return
	}
	p.MoveTo(newConfigInterface(p, port))
}

type vlanDatabaseMode struct {
	mode
}

func newVlanDatabase(parent *configMode) *vlanDatabaseMode {
	p := &vlanDatabaseMode{mode{core: parent.core}}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "(config-vlan)#" })

	p.Handle("vlan", func(args []string) {
		if numbers, ok := vlanNumbers(&p.mode, "vlan", args); ok {
			createVlans(p.Conf(), numbers)
		}
	})
	p.Handle("no_vlan", func(args []string) { removeVlans(&p.mode, "vlan", args) })
	p.Handle("exit", func([]string) { p.Done() })
	return p
}

type configVlanMode struct {
	mode
}

func newConfigVlan(parent *configMode, label string, vlans []*model.Vlan) *configVlanMode {
	p := &configVlanMode{mode{core: parent.core}}
	p.Base = processor.NewBase(func() string { return fmt.Sprintf("%s(config-vlan%s)#", p.Conf().Name, label) })

	p.Handle("name", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		for _, v := range vlans {
			v.Name = processor.FreeText(args)
		}
	})
	p.Handle("no_name", func([]string) {
		for _, v := range vlans {
			v.Name = ""
		}
	})
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

type interfaceVlanMode struct {
	mode
	vlan *model.Vlan
}

func newInterfaceVlan(parent *configMode, v *model.Vlan) *interfaceVlanMode {
	p := &interfaceVlanMode{mode: mode{core: parent.core}, vlan: v}
	p.Base = processor.NewBase(func() string { return fmt.Sprintf("%s(config-if-vlan%d)#", p.Conf().Name, v.Number) })

	p.Handle("name", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		v.Name = processor.FreeText(args)
	})
	p.Handle("no_name", func([]string) { v.Name = "" })
	p.Handle("ip", p.ip)
	p.Handle("no_ip", func(args []string) {
		if !processor.MatchesAll(args, "address") {
			p.caret("no ip", args, 0)
			return
		}
		if port := p.Conf().GetVlanPort(v.Number); port != nil {
			port.ClearIPs()
		}
	})
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

// ip handles "ip address A M" and "ip address A/M". The VLAN interface
// is created with its first address.
func (p *interfaceVlanMode) ip(args []string) {
	if !processor.MatchesAll(args, "address") {
		p.caret("ip", args, 0)
		return
	}
	ip, used, err := util.ParseCIDROrNetmask(args[1:])
	if err != nil || len(args) != used+1 {
		p.caret("ip", args, 1)
		return
	}
	conf := p.Conf()
	port := conf.GetVlanPort(p.vlan.Number)
	name := ""
	if port != nil {
		name = port.Name
	}
	if _, _, found := conf.FindOverlappingIP(ip, name); found {
		p.WriteLine("Subnet conflict between specified IP and current configuration.")
		return
	}
	if port == nil {
		port = conf.NewVlanPort(p.vlan.Number, "")
		conf.AddPort(port)
	}
	port.SetPrimaryIP(netip.PrefixFrom(ip.Addr(), ip.Bits()))
}
