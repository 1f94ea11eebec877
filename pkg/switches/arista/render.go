package arista

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
	"github.com/newtron-network/fakeswitches/pkg/version"
)

const indent = "   "

func runningConfig(conf *model.SwitchConfiguration) string {
	lines := []string{
		"! Command: show running-config",
		"! device: " + conf.Name + " (vEOS, EOS-4.20.8M)",
		"!",
		"! boot system flash:/vEOS-lab.swi",
		"!",
		"hostname " + conf.Name,
		"!",
		"spanning-tree mode mstp",
		"!",
		"no aaa root",
		"!",
	}
	for _, v := range conf.Vlans {
		if v.Number == 1 && v.Name == "" {
			continue
		}
		lines = append(lines, vlanLines(v)...)
		lines = append(lines, "!")
	}
	for _, vrf := range conf.VRFs {
		lines = append(lines, vrfLines(vrf)...)
		lines = append(lines, "!")
	}
	for _, port := range orderedPorts(conf) {
		lines = append(lines, interfaceLines(conf, port)...)
		lines = append(lines, "!")
	}
	for _, r := range conf.Routes {
		lines = append(lines, fmt.Sprintf("ip route %s %s", r.Destination, r.NextHop))
	}
	if len(conf.Routes) > 0 {
		lines = append(lines, "!")
	}
	lines = append(lines, "ip routing", "!", "end")
	return strings.Join(lines, "\n") + "\n"
}

// orderedPorts lists port-channels, then front-panel ports, then VLAN
// interfaces by VLAN number.
func orderedPorts(conf *model.SwitchConfiguration) []*model.Port {
	ports := append([]*model.Port{}, conf.GetAggregatedPorts()...)
	ports = append(ports, conf.GetPhysicalPorts()...)
	vlanPorts := conf.GetVlanPorts()
	sort.SliceStable(vlanPorts, func(i, j int) bool { return vlanPorts[i].Vlan.VlanID < vlanPorts[j].Vlan.VlanID })
	return append(ports, vlanPorts...)
}

func vlanLines(v *model.Vlan) []string {
	lines := []string{fmt.Sprintf("vlan %d", v.Number)}
	if v.Name != "" {
		lines = append(lines, indent+"name "+v.Name)
	}
	return lines
}

func vrfLines(vrf *model.VRF) []string {
	lines := []string{"vrf definition " + vrf.Name}
	if vrf.Description != "" {
		lines = append(lines, indent+"description "+vrf.Description)
	}
	if vrf.RD != "" {
		lines = append(lines, indent+"rd "+vrf.RD)
	}
	return lines
}

func interfaceLines(conf *model.SwitchConfiguration, port *model.Port) []string {
	lines := []string{"interface " + port.Name}
	add := func(format string, args ...interface{}) {
		lines = append(lines, indent+fmt.Sprintf(format, args...))
	}
	if port.Description != "" {
		add("description %s", port.Description)
	}
	if port.IsShutdown(false) {
		add("shutdown")
	}
	if port.IsVlanPort() {
		return append(lines, vlanPortLines(port)...)
	}
	if port.AccessVlan != 0 {
		add("switchport access vlan %d", port.AccessVlan)
	}
	if port.TrunkNativeVlan != 0 {
		add("switchport trunk native vlan %d", port.TrunkNativeVlan)
	}
	if port.TrunkVlans != nil {
		allowed := util.CompactRange(port.TrunkVlans)
		if len(port.TrunkVlans) == 0 {
			allowed = "none"
		}
		add("switchport trunk allowed vlan %s", allowed)
	}
	if port.Mode == model.ModeTrunk {
		add("switchport mode trunk")
	}
	if port.AggregationMembership != "" {
		mode := "on"
		if agg := conf.GetPort(port.AggregationMembership); agg != nil && agg.Aggregate != nil && agg.Aggregate.LACPActive {
			mode = "active"
		}
		add("channel-group %s mode %s", strings.TrimPrefix(port.AggregationMembership, "Port-Channel"), mode)
	}
	return lines
}

func vlanPortLines(port *model.Port) []string {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, indent+fmt.Sprintf(format, args...))
	}
	attrs := port.Vlan
	if port.VRF != "" {
		add("vrf forwarding %s", port.VRF)
	}
	if primary, ok := port.PrimaryIP(); ok {
		add("ip address %s", primary)
	}
	for _, ip := range port.SecondaryIPs() {
		add("ip address %s secondary", ip)
	}
	if model.IsFalse(attrs.IPRedirect) {
		add("no ip redirects")
	}
	for _, helper := range port.IPHelpers {
		add("ip helper-address %s", helper)
	}
	for _, addr := range attrs.VarpAddresses {
		add("ip virtual-router address %s", addr)
	}
	if attrs.LoadInterval != "" {
		add("load-interval %s", attrs.LoadInterval)
	}
	if model.IsFalse(attrs.MPLSIP) {
		add("no mpls ip")
	}
	for _, g := range attrs.VRRPs {
		lines = append(lines, vrrpLines(g)...)
	}
	return lines
}

func vrrpLines(g *model.VRRP) []string {
	prefix := indent + "vrrp " + g.GroupID
	var lines []string
	for i, ip := range g.IPAddresses {
		line := prefix + " ip " + ip.String()
		if i > 0 {
			line += " secondary"
		}
		lines = append(lines, line)
	}
	if g.Priority != 0 {
		lines = append(lines, fmt.Sprintf("%s priority %d", prefix, g.Priority))
	}
	if g.TimersHello != 0 {
		lines = append(lines, fmt.Sprintf("%s timers advertisement %d", prefix, g.TimersHello))
	}
	switch {
	case model.IsTrue(g.Preempt) && g.PreemptDelayMinimum != 0:
		lines = append(lines, fmt.Sprintf("%s preempt delay minimum %d", prefix, g.PreemptDelayMinimum))
	case model.IsTrue(g.Preempt):
		lines = append(lines, prefix+" preempt")
	case model.IsFalse(g.Preempt):
		lines = append(lines, indent+"no vrrp "+g.GroupID+" preempt")
	}
	if g.Authentication != "" {
		lines = append(lines, prefix+" authentication "+g.Authentication)
	}
	for _, obj := range util.SortedKeys(g.Track) {
		lines = append(lines, fmt.Sprintf("%s track %s decrement %s", prefix, obj, g.Track[obj]))
	}
	return lines
}

// ===== show commands =====

func vlanName(v *model.Vlan) string {
	if v.Name != "" {
		return v.Name
	}
	if v.Number == 1 {
		return "default"
	}
	return fmt.Sprintf("VLAN%04d", v.Number)
}

// vlanMembers lists the short names of the switchports carrying v.
func vlanMembers(conf *model.SwitchConfiguration, v *model.Vlan) []string {
	var names []string
	for _, port := range conf.GetPhysicalPorts() {
		if port.AggregationMembership != "" {
			continue
		}
		if port.Mode == model.ModeTrunk {
			if port.TrunkVlans.Contains(v.Number) {
				names = append(names, core.ShortName(port.Name))
			}
			continue
		}
		if port.AccessVlan == v.Number {
			names = append(names, core.ShortName(port.Name))
		}
	}
	return names
}

func showVlan(conf *model.SwitchConfiguration, args []string) (string, string) {
	vlans, errLine := vlanSelection(conf, args)
	if errLine != "" {
		return "", errLine
	}
	var b strings.Builder
	b.WriteString("VLAN  Name                             Status    Ports\n")
	b.WriteString("----- -------------------------------- --------- -------------------------------\n")
	for _, v := range vlans {
		row := fmt.Sprintf("%-5d %-32s %-9s %s", v.Number, vlanName(v), "active", strings.Join(vlanMembers(conf, v), ", "))
		b.WriteString(strings.TrimRight(row, " ") + "\n")
	}
	b.WriteString("\n")
	return b.String(), ""
}

func interfaceStatus(port *model.Port) (string, string) {
	if port.IsShutdown(false) {
		return "administratively down", "disabled"
	}
	return "up", "connected"
}

func showInterfaces(ports []*model.Port) string {
	var b strings.Builder
	for _, port := range ports {
		state, status := interfaceStatus(port)
		protocol := "up"
		if status == "disabled" {
			protocol = "down"
		}
		fmt.Fprintf(&b, "%s is %s, line protocol is %s (%s)\n", port.Name, state, protocol, status)
		if port.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", port.Description)
		}
		if primary, ok := port.PrimaryIP(); ok {
			fmt.Fprintf(&b, "  Internet address is %s\n", primary)
			for _, ip := range port.SecondaryIPs() {
				fmt.Fprintf(&b, "  Secondary address is %s\n", ip)
			}
		}
		b.WriteString("  IP MTU 1500 bytes\n")
	}
	return b.String()
}

func showVersion(c *Core) string {
	return fmt.Sprintf("Arista vEOS\nHardware version:    \nSerial number:       \nSystem MAC address:  5254.0000.0000\n\n"+
		"Software image version: 4.20.8M (fakeswitches %s)\nArchitecture:           i386\n\n%s\n",
		version.Version, c.Conf.Name)
}
