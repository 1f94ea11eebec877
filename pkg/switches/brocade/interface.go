package brocade

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// vrfWarning is printed whenever a VRF change strips the addresses of an
// interface.
const vrfWarning = "Warning: All IPv4 and IPv6 addresses (including link-local) on this interface have been removed"

// speed is the prompt label of a port: module 2 carries the 10G ports.
func speed(port *model.Port) string {
	if module, _, _ := splitPortID(portID(port)); module == 2 {
		return "e10000"
	}
	return "e1000"
}

// handleCommon registers the verbs ethernet and ve interfaces share.
func handleCommon(p *mode, parent *configMode, port *model.Port) {
	p.Handle("port_name", func(args []string) {
		if len(args) == 0 {
			p.incomplete()
			return
		}
		port.Description = processor.FreeText(args)
	})
	p.Handle("no_port_name", func([]string) { port.Description = "" })
	p.Handle("disable", func([]string) { port.Shutdown = model.Bool(true) })
	p.Handle("enable", func([]string) { port.Shutdown = nil })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
	})
}

type configEthernetMode struct {
	mode
}

func newConfigEthernet(parent *configMode, port *model.Port) *configEthernetMode {
	p := &configEthernetMode{mode{core: parent.core}}
	p.Base = processor.NewBase(func() string {
		return fmt.Sprintf("%s(config-if-%s-%s)#", p.prefix(), speed(port), portID(port))
	})
	handleCommon(&p.mode, parent, port)
	return p
}

type configVeMode struct {
	mode
	parent *configMode
	port   *model.Port
}

func newConfigVe(parent *configMode, port *model.Port) *configVeMode {
	p := &configVeMode{mode: mode{core: parent.core}, parent: parent, port: port}
	p.Base = processor.NewBase(func() string {
		return fmt.Sprintf("%s(config-vif-%s)#", p.prefix(), strings.TrimPrefix(port.Name, "ve "))
	})
	handleCommon(&p.mode, parent, port)

	p.Handle("ip", p.ip)
	p.Handle("no_ip", p.noIP)
	p.Handle("vrf", func(args []string) {
		if len(args) != 2 || !processor.Matches(args[0], "forwarding") {
			p.invalid(args...)
			return
		}
		if p.Conf().GetVRF(args[1]) == nil {
			p.WriteLine("Error - VRF(" + args[1] + ") does not exist")
			return
		}
		port.VRF = args[1]
		port.ClearIPs()
		p.WriteLine(vrfWarning)
	})
	p.Handle("no_vrf", func(args []string) {
		if len(args) == 0 || !processor.Matches(args[0], "forwarding") {
			p.invalid(args...)
			return
		}
		port.VRF = ""
		port.ClearIPs()
		p.WriteLine(vrfWarning)
	})
	return p
}

// parseAddress reads "A/M" or "A M" and reports the tokens left over.
func parseAddress(args []string) (netip.Prefix, []string, bool) {
	prefix, used, err := util.ParseCIDROrNetmask(args)
	if err != nil || !prefix.Addr().Is4() {
		return netip.Prefix{}, nil, false
	}
	return prefix, args[used:], true
}

func (p *configVeMode) ip(args []string) {
	switch {
	case processor.MatchesAll(args, "address"):
		p.address(args[1:])
	case processor.MatchesAll(args, "access-group") && len(args) == 3:
		switch {
		case processor.Matches(args[2], "in"):
			p.port.Vlan.AccessGroupIn = args[1]
		case processor.Matches(args[2], "out"):
			p.port.Vlan.AccessGroupOut = args[1]
		default:
			p.invalid(args[2:]...)
		}
	case processor.MatchesAll(args, "helper-address"):
		helper, ok := helperAddress(args[1:])
		if !ok {
			p.invalid(args[1:]...)
			return
		}
		if !containsString(p.port.IPHelpers, helper) {
			p.port.IPHelpers = append(p.port.IPHelpers, helper)
		}
	case processor.MatchesExactly(args, "redirect"):
		p.port.Vlan.IPRedirect = nil
	case processor.MatchesAll(args, "vrrp-extended", "auth-type", "simple-text-auth") && len(args) == 4:
		p.port.Vlan.VRRPCommonAuthentication = args[3]
	case processor.MatchesAll(args, "vrrp-extended", "vrid") && len(args) == 3:
		if _, ok := util.ParseInt(args[2]); !ok {
			p.invalid(args[2:]...)
			return
		}
		group := p.port.GetVRRP(args[2])
		if group == nil {
			group = p.Conf().NewVRRP(args[2])
			p.port.Vlan.VRRPs = append(p.port.Vlan.VRRPs, group)
		}
		p.MoveTo(newConfigVrid(p, group))
	default:
		p.invalid(args...)
	}
}

// helperAddress reads "[index] A"; the index is positional and ignored.
func helperAddress(args []string) (string, bool) {
	if len(args) == 2 {
		if _, ok := util.ParseInt(args[0]); !ok {
			return "", false
		}
		args = args[1:]
	}
	if len(args) != 1 {
		return "", false
	}
	addr, err := netip.ParseAddr(args[0])
	if err != nil || !addr.Is4() {
		return "", false
	}
	return addr.String(), true
}

func (p *configVeMode) address(args []string) {
	ip, rest, ok := parseAddress(args)
	if !ok {
		p.invalid(args...)
		return
	}
	secondary := processor.MatchesExactly(rest, "secondary")
	if len(rest) > 0 && !secondary {
		p.invalid(rest...)
		return
	}

	port := p.port
	if port.HasIP(ip) {
		p.WriteLine("IP/Port: Errno(6) Duplicate ip address")
		return
	}
	if _, _, found := p.Conf().FindOverlappingIP(ip, port.Name); found {
		p.WriteLine("IP/Port: Errno(11) ip subnet overlap with another interface")
		return
	}
	if !secondary {
		port.SetPrimaryIP(ip)
		return
	}
	if err := port.AddSecondaryIP(ip); err != nil {
		p.WriteLine("IP/Port: Errno(15) Can not assign secondary address before primary")
	}
}

func (p *configVeMode) noIP(args []string) {
	port := p.port
	switch {
	case processor.MatchesAll(args, "address"):
		ip, rest, ok := parseAddress(args[1:])
		if !ok || len(rest) > 1 {
			p.invalid(args[1:]...)
			return
		}
		if !port.HasIP(ip) {
			p.WriteLine("Error - Address " + ip.Addr().String() + " not configured")
			return
		}
		if err := port.RemoveIP(ip); err != nil {
			p.WriteLine("IP/Port: Errno(22) Must delete secondary address before deleting primary")
		}
	case processor.MatchesAll(args, "access-group") && len(args) == 3:
		if processor.Matches(args[2], "in") && port.Vlan.AccessGroupIn == args[1] {
			port.Vlan.AccessGroupIn = ""
		}
		if processor.Matches(args[2], "out") && port.Vlan.AccessGroupOut == args[1] {
			port.Vlan.AccessGroupOut = ""
		}
	case processor.MatchesAll(args, "helper-address"):
		helper, ok := helperAddress(args[1:])
		if !ok {
			p.invalid(args[1:]...)
			return
		}
		port.IPHelpers = removeString(port.IPHelpers, helper)
	case processor.MatchesExactly(args, "redirect"):
		port.Vlan.IPRedirect = model.Bool(false)
	case processor.MatchesAll(args, "vrrp-extended", "auth-type"):
		port.Vlan.VRRPCommonAuthentication = ""
	case processor.MatchesAll(args, "vrrp-extended", "vrid") && len(args) == 3:
		port.RemoveVRRP(args[2])
	default:
		p.invalid(args...)
	}
}

type configVridMode struct {
	mode
}

func newConfigVrid(parent *configVeMode, group *model.VRRP) *configVridMode {
	p := &configVridMode{mode{core: parent.core}}
	p.Base = processor.NewBase(func() string {
		return fmt.Sprintf("%s(config-vif-%s-vrid-%s)#",
			p.prefix(), strings.TrimPrefix(parent.port.Name, "ve "), group.GroupID)
	})

	p.Handle("backup", func(args []string) { p.backup(group, args) })
	p.Handle("no_backup", func([]string) {
		group.Priority = 0
		delete(group.Track, trackPriorityKey)
	})
	p.Handle("ip_address", func(args []string) {
		addr, ok := parseAddr(args)
		if !ok {
			p.invalid(args...)
			return
		}
		if !group.HasIP(addr) {
			group.IPAddresses = append(group.IPAddresses, addr)
		}
	})
	p.Handle("no_ip_address", func(args []string) {
		addr, ok := parseAddr(args)
		if !ok {
			p.invalid(args...)
			return
		}
		for i, existing := range group.IPAddresses {
			if existing == addr {
				group.IPAddresses = append(group.IPAddresses[:i], group.IPAddresses[i+1:]...)
				break
			}
		}
	})
	p.Handle("advertise", func(args []string) {
		if !processor.MatchesExactly(args, "backup") {
			p.invalid(args...)
			return
		}
		group.Advertising = true
	})
	p.Handle("no_advertise", func([]string) { group.Advertising = false })
	p.Handle("hello_interval", func(args []string) {
		if n, ok := p.seconds(args); ok {
			group.TimersHello = n
		}
	})
	p.Handle("no_hello_interval", func([]string) { group.TimersHello = 0 })
	p.Handle("dead_interval", func(args []string) {
		if n, ok := p.seconds(args); ok {
			group.TimersHold = n
		}
	})
	p.Handle("no_dead_interval", func([]string) { group.TimersHold = 0 })
	p.Handle("activate", func([]string) { group.Activated = true })
	p.Handle("no_activate", func([]string) { group.Activated = false })
	p.Handle("exit", func([]string) { p.Done() })
	p.Handle("end", func([]string) {
		p.Done()
		parent.Done()
		parent.parent.Done()
	})
	return p
}

// trackPriorityKey holds the track-priority of a VRRP-E backup.
const trackPriorityKey = "track-priority"

// backup handles "backup [priority P] [track-priority T]".
func (p *configVridMode) backup(group *model.VRRP, args []string) {
	for len(args) > 0 {
		if len(args) < 2 {
			p.incomplete()
			return
		}
		n, ok := util.ParseInt(args[1])
		if !ok || n < 1 || n > 254 {
			p.invalid(args[1:]...)
			return
		}
		switch {
		case processor.Matches(args[0], "priority"):
			group.Priority = n
		case processor.Matches(args[0], "track-priority"):
			if group.Track == nil {
				group.Track = map[string]string{}
			}
			group.Track[trackPriorityKey] = strconv.Itoa(n)
		default:
			p.invalid(args...)
			return
		}
		args = args[2:]
	}
}

func (p *configVridMode) seconds(args []string) (int, bool) {
	if len(args) != 1 {
		p.incomplete()
		return 0, false
	}
	n, ok := util.ParseInt(args[0])
	if !ok || n < 1 || n > 84 {
		p.invalid(args...)
		return 0, false
	}
	return n, true
}

func parseAddr(args []string) (netip.Addr, bool) {
	if len(args) != 1 {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(args[0])
	return addr, err == nil && addr.Is4()
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
