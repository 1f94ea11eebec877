package brocade

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

const defaultVlanName = "DEFAULT-VLAN"

func vlanName(v *model.Vlan) string {
	switch {
	case v.Name != "":
		return v.Name
	case v.Number == 1:
		return defaultVlanName
	}
	return ""
}

// members splits the ports of VLAN n. With implicit set, ports without any
// membership count as untagged in the default VLAN.
func members(conf *model.SwitchConfiguration, n int, implicit bool) (untagged, tagged []*model.Port) {
	for _, port := range conf.GetPhysicalPorts() {
		if len(port.TrunkVlans) > 0 && port.TrunkVlans.Contains(n) {
			tagged = append(tagged, port)
		}
		if port.AccessVlan == n || (implicit && n == 1 && port.AccessVlan == 0 && len(port.TrunkVlans) == 0) {
			untagged = append(untagged, port)
		}
	}
	return untagged, tagged
}

// formatPortList renders "ethe 1/1 to 1/3 ethe 2/1".
func formatPortList(ports []*model.Port) string {
	var parts []string
	for i := 0; i < len(ports); {
		module, first, _ := splitPortID(portID(ports[i]))
		last := first
		j := i + 1
		for ; j < len(ports); j++ {
			m, n, _ := splitPortID(portID(ports[j]))
			if m != module || n != last+1 {
				break
			}
			last = n
		}
		if last == first {
			parts = append(parts, fmt.Sprintf("ethe %d/%d", module, first))
		} else {
			parts = append(parts, fmt.Sprintf("ethe %d/%d to %d/%d", module, first, module, last))
		}
		i = j
	}
	return strings.Join(parts, " ")
}

func vlanLines(conf *model.SwitchConfiguration, v *model.Vlan) []string {
	header := fmt.Sprintf("vlan %d", v.Number)
	if name := vlanName(v); name != "" {
		header += " name " + name
	}
	lines := []string{header + " by port"}
	untagged, tagged := members(conf, v.Number, false)
	if len(tagged) > 0 {
		lines = append(lines, " tagged "+formatPortList(tagged))
	}
	if len(untagged) > 0 {
		lines = append(lines, " untagged "+formatPortList(untagged))
	}
	if ve := conf.GetVlanPort(v.Number); ve != nil {
		lines = append(lines, " router-interface "+ve.Name)
	}
	return lines
}

// interfaceLines renders the block of an ethernet or ve interface.
func interfaceLines(port *model.Port) []string {
	lines := []string{"interface " + port.Name}
	if port.Description != "" {
		lines = append(lines, " port-name "+port.Description)
	}
	if port.IsShutdown(false) {
		lines = append(lines, " disable")
	}
	if port.IsVlanPort() {
		lines = append(lines, veLines(port)...)
	}
	return lines
}

func veLines(port *model.Port) []string {
	var lines []string
	attrs := port.Vlan
	if port.VRF != "" {
		lines = append(lines, " vrf forwarding "+port.VRF)
	}
	for i, ip := range attrs.IPs {
		line := " ip address " + util.FormatIPMask(ip)
		if i > 0 {
			line += " secondary"
		}
		lines = append(lines, line)
	}
	if attrs.AccessGroupIn != "" {
		lines = append(lines, " ip access-group "+attrs.AccessGroupIn+" in")
	}
	if attrs.AccessGroupOut != "" {
		lines = append(lines, " ip access-group "+attrs.AccessGroupOut+" out")
	}
	for i, helper := range port.IPHelpers {
		lines = append(lines, fmt.Sprintf(" ip helper-address %d %s", i+1, helper))
	}
	if model.IsFalse(attrs.IPRedirect) {
		lines = append(lines, " no ip redirect")
	}
	if attrs.VRRPCommonAuthentication != "" {
		lines = append(lines, " ip vrrp-extended auth-type simple-text-auth "+attrs.VRRPCommonAuthentication)
	}
	for _, group := range attrs.VRRPs {
		lines = append(lines, vridLines(group)...)
	}
	return lines
}

func vridLines(group *model.VRRP) []string {
	backup := "  backup"
	if group.Priority != 0 {
		backup += fmt.Sprintf(" priority %d", group.Priority)
	}
	if t, ok := group.Track[trackPriorityKey]; ok {
		backup += " track-priority " + t
	}
	lines := []string{" ip vrrp-extended vrid " + group.GroupID, backup}
	for _, addr := range group.IPAddresses {
		lines = append(lines, "  ip-address "+addr.String())
	}
	if group.Advertising {
		lines = append(lines, "  advertise backup")
	}
	if group.TimersHello != 0 {
		lines = append(lines, fmt.Sprintf("  hello-interval %d", group.TimersHello))
	}
	if group.TimersHold != 0 {
		lines = append(lines, fmt.Sprintf("  dead-interval %d", group.TimersHold))
	}
	if group.Activated {
		lines = append(lines, "  activate")
	}
	return append(lines, " exit")
}

// configured reports whether a physical port differs from its defaults.
func configured(port *model.Port) bool {
	return port.Description != "" || port.IsShutdown(false)
}

func runningConfig(conf *model.SwitchConfiguration) string {
	var b strings.Builder
	w := func(lines ...string) {
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
	}

	w("Current configuration:", "!", "ver 08.0.30jT311", "!",
		"stack unit 1",
		"  module 1 icx7250-24-port-management-module",
		"  module 2 icx7250-sfp-plus-8port-80g-module",
		"!", "!")
	for _, v := range conf.Vlans {
		w(vlanLines(conf, v)...)
		w("!")
	}
	w("!")
	for _, vrf := range conf.VRFs {
		w("vrf " + vrf.Name)
		if vrf.RD != "" {
			w(" rd " + vrf.RD)
		}
		w(" address-family ipv4", " exit-address-family", "exit-vrf", "!")
	}
	w("hostname " + conf.Name)
	routes := append([]*model.Route(nil), conf.Routes...)
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Destination.String() < routes[j].Destination.String()
	})
	for _, r := range routes {
		w(fmt.Sprintf("ip route %s %s", r.Destination, r.NextHop))
	}
	w("!")
	for _, port := range conf.GetPhysicalPorts() {
		if configured(port) {
			w(interfaceLines(port)...)
			w("!")
		}
	}
	ves := conf.GetVlanPorts()
	sort.SliceStable(ves, func(i, j int) bool { return veNumberOf(ves[i]) < veNumberOf(ves[j]) })
	for _, port := range ves {
		w(interfaceLines(port)...)
		w("!")
	}
	w("!", "end")
	return b.String()
}

func veNumberOf(port *model.Port) int {
	n, _ := util.ParseInt(strings.TrimPrefix(port.Name, "ve "))
	return n
}

// portGroups renders "(U1/M1)   1   2 (U1/M2)   1", or "None".
func portGroups(ports []*model.Port) string {
	if len(ports) == 0 {
		return "None"
	}
	var b strings.Builder
	current := -1
	for _, port := range ports {
		module, number, _ := splitPortID(portID(port))
		if module != current {
			if current != -1 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "(U1/M%d)", module)
			current = module
		}
		fmt.Fprintf(&b, " %3d", number)
	}
	return b.String()
}

func showVlan(conf *model.SwitchConfiguration, v *model.Vlan) string {
	name := vlanName(v)
	if name == "" {
		name = "[None]"
	}
	untagged, tagged := members(conf, v.Number, true)
	var b strings.Builder
	fmt.Fprintf(&b, "PORT-VLAN %d, Name %s, Priority level0, Spanning tree Off\n", v.Number, name)
	fmt.Fprintf(&b, " Untagged Ports: %s\n", portGroups(untagged))
	fmt.Fprintf(&b, "   Tagged Ports: %s\n", portGroups(tagged))
	b.WriteString("   Uplink Ports: None\n")
	b.WriteString(" DualMode Ports: None\n")
	b.WriteString(" Mac-Vlan Ports: None\n")
	b.WriteString("     Monitoring: Disabled\n")
	return b.String()
}

func showVlans(conf *model.SwitchConfiguration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTotal PORT-VLAN entries: %d\n", len(conf.Vlans))
	b.WriteString("Maximum PORT-VLAN entries: 64\n\n")
	b.WriteString("Legend: [Stk=Stack-Id, S=Slot]\n\n")
	for _, v := range conf.Vlans {
		b.WriteString(showVlan(conf, v))
		b.WriteString("\n")
	}
	return b.String()
}

func showPortVlans(conf *model.SwitchConfiguration, port *model.Port) string {
	var numbers []string
	for _, v := range conf.Vlans {
		untagged, tagged := members(conf, v.Number, true)
		for _, member := range append(untagged, tagged...) {
			if member == port {
				numbers = append(numbers, fmt.Sprint(v.Number))
				break
			}
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Port %s is a member of %d VLANs\n", portID(port), len(numbers))
	fmt.Fprintf(&b, "VLANs %s\n", strings.Join(numbers, " "))
	untaggedVlan := port.AccessVlan
	if untaggedVlan == 0 && len(port.TrunkVlans) == 0 {
		untaggedVlan = 1
	}
	if untaggedVlan != 0 {
		fmt.Fprintf(&b, "Untagged VLAN : %d\n", untaggedVlan)
	}
	if len(port.TrunkVlans) > 0 {
		fmt.Fprintf(&b, "Tagged VLANs  : %s\n", util.CompactRange(port.TrunkVlans))
	}
	return b.String()
}

func showVersion(c *Core) string {
	return "  Copyright (c) 1996-2016 Brocade Communications Systems, Inc. All rights reserved.\n" +
		"    UNIT 1: compiled on Jun 21 2016 at 09:12:07 labeled as SPR08030j\n" +
		"      (10184995 bytes) from Primary SPR08030j.bin\n" +
		"        SW: Version 08.0.30jT311\n" +
		fmt.Sprintf("  HW: Stackable ICX7250-24 (%s)\n", c.Conf.Name)
}
