package dell

import (
	"fmt"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// interfaceBody renders the settings of a physical port, without the
// "interface" and "exit" lines.
func interfaceBody(c *Core, port *model.Port) []string {
	var lines []string
	if port.Description != "" {
		lines = append(lines, "description '"+port.Description+"'")
	}
	if port.IsShutdown(false) {
		lines = append(lines, "shutdown")
	}
	if port.SpanningTreeDisabled {
		lines = append(lines, "spanning-tree disable")
	}
	if model.IsTrue(port.SpanningTreePortfast) {
		lines = append(lines, "spanning-tree portfast")
	}
	if port.MTU != 0 {
		lines = append(lines, fmt.Sprintf("mtu %d", port.MTU))
	}
	if port.Mode != "" {
		lines = append(lines, "switchport mode "+port.Mode)
	}
	if port.AccessVlan != 0 {
		lines = append(lines, fmt.Sprintf("switchport access vlan %d", port.AccessVlan))
	}
	if port.Mode == model.ModeGeneral {
		if port.TrunkNativeVlan != 0 {
			lines = append(lines, fmt.Sprintf("switchport general pvid %d", port.TrunkNativeVlan))
		}
		if len(port.TrunkVlans) > 0 {
			lines = append(lines, "switchport general allowed vlan add "+util.CompactRange(port.TrunkVlans)+" tagged")
		}
	} else {
		lines = append(lines, trunkLines(c, port)...)
	}
	if model.IsFalse(port.LLDPTransmit) {
		lines = append(lines, "no lldp transmit")
	}
	if model.IsFalse(port.LLDPReceive) {
		lines = append(lines, "no lldp receive")
	}
	if model.IsFalse(port.LLDPMedTransmitCapabilities) {
		lines = append(lines, "no lldp med transmit-tlv capabilities")
	}
	if model.IsFalse(port.LLDPMedTransmitNetworkPolicy) {
		lines = append(lines, "no lldp med transmit-tlv network-policy")
	}
	return lines
}

func trunkLines(c *Core, port *model.Port) []string {
	if !c.dialect.TrunkAll {
		if len(port.TrunkVlans) == 0 {
			return nil
		}
		return []string{"switchport trunk allowed vlan add " + util.CompactRange(port.TrunkVlans)}
	}
	switch {
	case port.TrunkVlans == nil:
		return nil
	case len(port.TrunkVlans) == 0:
		return []string{"switchport trunk allowed vlan none"}
	}
	return []string{"switchport trunk allowed vlan " + util.CompactRange(port.TrunkVlans)}
}

func vlanNumbersOf(vlans []*model.Vlan) []int {
	var out []int
	for _, v := range vlans {
		out = append(out, v.Number)
	}
	return out
}

func runningConfig(c *Core) string {
	conf := c.Conf
	var b strings.Builder
	w := func(lines ...string) {
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
	}

	w("!Current Configuration:",
		fmt.Sprintf("!System Description %q", c.dialect.Description),
		"!System Software Version "+c.dialect.Version,
		"!",
		"configure")

	extra := conf.Vlans[1:]
	if c.dialect.VlanDatabase {
		if len(extra) > 0 {
			w("vlan database", "vlan "+util.CompactRange(vlanNumbersOf(extra)), "exit")
		}
	} else {
		for _, v := range conf.Vlans {
			if v.Number == 1 && v.Name == "" {
				continue
			}
			w(fmt.Sprintf("vlan %d", v.Number))
			if v.Name != "" {
				w(fmt.Sprintf("name %q", v.Name))
			}
			w("exit")
		}
	}
	w(fmt.Sprintf("hostname %q", conf.Name))

	for _, v := range conf.Vlans {
		port := conf.GetVlanPort(v.Number)
		named := c.dialect.VlanDatabase && v.Name != ""
		if port == nil && !named {
			continue
		}
		w(fmt.Sprintf("interface vlan %d", v.Number))
		if named {
			w(fmt.Sprintf("name %q", v.Name))
		}
		if port != nil {
			for _, ip := range port.Vlan.IPs {
				w("ip address " + util.FormatIPMask(ip))
			}
		}
		w("exit")
	}

	for _, port := range conf.GetPhysicalPorts() {
		body := interfaceBody(c, port)
		if len(body) == 0 {
			continue
		}
		w("!", "interface "+c.dialect.Header(port.Name))
		w(body...)
		w("exit")
	}
	w("exit")
	return b.String()
}

// carries reports whether port passes VLAN n.
func carries(c *Core, port *model.Port, n int) bool {
	switch port.Mode {
	case model.ModeTrunk:
		return port.TrunkVlans.Contains(n) && (c.dialect.TrunkAll || port.TrunkVlans != nil)
	case model.ModeGeneral:
		return port.TrunkNativeVlan == n || (port.TrunkVlans != nil && port.TrunkVlans.Contains(n))
	}
	access := port.AccessVlan
	if access == 0 {
		access = 1
	}
	return access == n
}

func showVlan(c *Core, vlans []*model.Vlan) string {
	var b strings.Builder
	b.WriteString("\nVLAN   Name                             Ports          Type\n")
	b.WriteString("-----  -------------------------------- -------------- ---------\n")
	for _, v := range vlans {
		var ports []string
		for _, port := range c.Conf.GetPhysicalPorts() {
			if carries(c, port, v.Number) {
				ports = append(ports, c.dialect.Label(port.Name))
			}
		}
		name, kind := v.Name, "Static"
		if v.Number == 1 {
			kind = "Default"
			if name == "" {
				name = "default"
			}
		}
		fmt.Fprintf(&b, "%-6s %-32s %-14s %s\n", fmt.Sprint(v.Number), name, strings.Join(ports, ","), kind)
	}
	b.WriteString("\n")
	return b.String()
}

func showInterfacesStatus(c *Core) string {
	var b strings.Builder
	b.WriteString("\nPort        Description               Vlan  Mode     Link\n")
	b.WriteString("----------- ------------------------- ----- -------- -----\n")
	for _, port := range c.Conf.GetPhysicalPorts() {
		description := port.Description
		if len(description) > 25 {
			description = description[:25]
		}
		mode := port.Mode
		if mode == "" {
			mode = model.ModeAccess
		}
		vlan := "1"
		switch {
		case mode == model.ModeTrunk:
			vlan = "Trnk"
		case mode == model.ModeGeneral && port.TrunkNativeVlan != 0:
			vlan = fmt.Sprint(port.TrunkNativeVlan)
		case port.AccessVlan != 0:
			vlan = fmt.Sprint(port.AccessVlan)
		}
		link := "Up"
		if port.IsShutdown(false) {
			link = "Down"
		}
		fmt.Fprintf(&b, "%-11s %-25s %-5s %-8s %s\n", c.dialect.Label(port.Name), description, vlan, mode, link)
	}
	b.WriteString("\n")
	return b.String()
}
