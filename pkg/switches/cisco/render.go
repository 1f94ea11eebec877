package cisco

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
	"github.com/newtron-network/fakeswitches/pkg/version"
)

// withHeader prefixes a configuration body with the IOS banner, whose
// byte count covers the body.
func withHeader(body []string) string {
	text := strings.Join(body, "\n") + "\n"
	header := fmt.Sprintf("Building configuration...\n\nCurrent configuration : %d bytes\n", len(text))
	return header + text + "\n"
}

func runningConfig(conf *model.SwitchConfiguration) string {
	body := []string{"!", "version 12.1", "!", "hostname " + conf.Name, "!", "!"}
	for _, vrf := range conf.VRFs {
		body = append(body, vrfLines(vrf)...)
		body = append(body, "!")
	}
	for _, v := range conf.Vlans {
		body = append(body, vlanLines(v)...)
		body = append(body, "!")
	}
	for _, port := range orderedPorts(conf) {
		body = append(body, interfaceLines(conf, port)...)
		body = append(body, "!")
	}
	for _, r := range conf.Routes {
		body = append(body, fmt.Sprintf("ip route %s %s", util.FormatIPMask(r.Destination), r.NextHop))
	}
	if len(conf.Routes) > 0 {
		body = append(body, "!")
	}
	body = append(body, "end")
	return withHeader(body)
}

func interfaceConfig(conf *model.SwitchConfiguration, port *model.Port) string {
	body := append([]string{"!"}, interfaceLines(conf, port)...)
	return withHeader(append(body, "end"))
}

func vlanConfig(conf *model.SwitchConfiguration, n int) string {
	body := []string{"!"}
	if v := conf.GetVlan(n); v != nil {
		body = append(body, vlanLines(v)...)
	}
	return withHeader(append(body, "end"))
}

// orderedPorts lists port-channels, then front-panel ports in inventory
// order, then VLAN interfaces by VLAN number.
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
		lines = append(lines, " name "+v.Name)
	}
	return lines
}

func vrfLines(vrf *model.VRF) []string {
	lines := []string{"ip vrf " + vrf.Name}
	if vrf.Description != "" {
		lines = append(lines, " description "+vrf.Description)
	}
	if vrf.RD != "" {
		lines = append(lines, " rd "+vrf.RD)
	}
	for _, rt := range vrf.RouteTargets {
		lines = append(lines, " route-target "+rt)
	}
	return lines
}

func interfaceLines(conf *model.SwitchConfiguration, port *model.Port) []string {
	lines := []string{"interface " + port.Name}
	if port.Description != "" {
		lines = append(lines, " description "+port.Description)
	}
	if port.IsVlanPort() {
		return append(lines, vlanPortLines(port)...)
	}
	if port.AccessVlan != 0 && port.AccessVlan != 1 {
		lines = append(lines, fmt.Sprintf(" switchport access vlan %d", port.AccessVlan))
	}
	if port.TrunkEncapsulationMode != "" {
		lines = append(lines, " switchport trunk encapsulation "+port.TrunkEncapsulationMode)
	}
	if port.TrunkNativeVlan != 0 {
		lines = append(lines, fmt.Sprintf(" switchport trunk native vlan %d", port.TrunkNativeVlan))
	}
	if port.TrunkVlans != nil {
		allowed := util.CompactRange(port.TrunkVlans)
		if len(port.TrunkVlans) == 0 {
			allowed = "none"
		}
		lines = append(lines, " switchport trunk allowed vlan "+allowed)
	}
	if port.Mode != "" {
		lines = append(lines, " switchport mode "+port.Mode)
	}
	if port.IsShutdown(false) {
		lines = append(lines, " shutdown")
	}
	if port.AggregationMembership != "" {
		number := strings.TrimPrefix(port.AggregationMembership, "Port-channel")
		lines = append(lines, fmt.Sprintf(" channel-group %s mode %s", number, channelMode(conf, port)))
	}
	return lines
}

// channelMode reads the LACP mode from the port-channel the member joined.
func channelMode(conf *model.SwitchConfiguration, member *model.Port) string {
	if agg := conf.GetPort(member.AggregationMembership); agg != nil && agg.Aggregate != nil && !agg.Aggregate.LACPActive {
		return "on"
	}
	return "active"
}

func vlanPortLines(port *model.Port) []string {
	var lines []string
	attrs := port.Vlan
	if port.IsShutdown(false) {
		lines = append(lines, " shutdown")
	}
	if port.VRF != "" {
		lines = append(lines, " ip vrf forwarding "+port.VRF)
	}
	for _, ip := range port.SecondaryIPs() {
		lines = append(lines, " ip address "+util.FormatIPMask(ip)+" secondary")
	}
	if primary, ok := port.PrimaryIP(); ok {
		lines = append(lines, " ip address "+util.FormatIPMask(primary))
	} else {
		lines = append(lines, " no ip address")
	}
	if attrs.AccessGroupIn != "" {
		lines = append(lines, " ip access-group "+attrs.AccessGroupIn+" in")
	}
	if attrs.AccessGroupOut != "" {
		lines = append(lines, " ip access-group "+attrs.AccessGroupOut+" out")
	}
	if model.IsFalse(attrs.IPRedirect) {
		lines = append(lines, " no ip redirects")
	}
	if model.IsFalse(attrs.IPProxyARP) {
		lines = append(lines, " no ip proxy-arp")
	}
	for _, helper := range port.IPHelpers {
		lines = append(lines, " ip helper-address "+helper)
	}
	for _, group := range attrs.VRRPs {
		lines = append(lines, standbyLines(group)...)
	}
	return lines
}

func standbyLines(g *model.VRRP) []string {
	prefix := " standby " + g.GroupID
	var lines []string
	for i, ip := range g.IPAddresses {
		line := prefix + " ip " + ip.String()
		if i > 0 {
			line += " secondary"
		}
		lines = append(lines, line)
	}
	if g.TimersHello != 0 || g.TimersHold != 0 {
		lines = append(lines, fmt.Sprintf("%s timers %d %d", prefix, g.TimersHello, g.TimersHold))
	}
	if g.Priority != 0 {
		lines = append(lines, fmt.Sprintf("%s priority %d", prefix, g.Priority))
	}
	if model.IsTrue(g.Preempt) {
		line := prefix + " preempt"
		if g.PreemptDelayMinimum != 0 {
			line += fmt.Sprintf(" delay minimum %d", g.PreemptDelayMinimum)
		}
		lines = append(lines, line)
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

// accessMembers lists the short names of the switchports untagged in v.
func accessMembers(conf *model.SwitchConfiguration, v *model.Vlan) []string {
	var names []string
	for _, port := range conf.GetPhysicalPorts() {
		if port.Mode == model.ModeTrunk || port.AggregationMembership != "" {
			continue
		}
		access := port.AccessVlan
		if access == 0 {
			access = 1
		}
		if access == v.Number {
			names = append(names, core.ShortName(port.Name))
		}
	}
	return names
}

func showVlan(conf *model.SwitchConfiguration, brief bool) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("VLAN Name                             Status    Ports\n")
	b.WriteString("---- -------------------------------- --------- -------------------------------\n")
	for _, v := range conf.Vlans {
		members := accessMembers(conf, v)
		first := fmt.Sprintf("%-4d %-32s %-9s ", v.Number, vlanName(v), "active")
		if len(members) == 0 {
			b.WriteString(strings.TrimRight(first, " ") + "\n")
			continue
		}
		for i := 0; i < len(members); i += 4 {
			end := i + 4
			if end > len(members) {
				end = len(members)
			}
			chunk := strings.Join(members[i:end], ", ")
			if end < len(members) {
				chunk += ","
			}
			if i == 0 {
				b.WriteString(first + chunk + "\n")
			} else {
				b.WriteString(strings.Repeat(" ", 48) + chunk + "\n")
			}
		}
	}
	if brief {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString("VLAN Type  SAID       MTU   Parent RingNo BridgeNo Stp  BrdgMode Trans1 Trans2\n")
	b.WriteString("---- ----- ---------- ----- ------ ------ -------- ---- -------- ------ ------\n")
	for _, v := range conf.Vlans {
		b.WriteString(fmt.Sprintf("%-4d enet  %-10d 1500  -      -      -        -    -        0      0\n", v.Number, 100000+v.Number))
	}
	b.WriteString("\n")
	return b.String()
}

func showIPInterfaceBrief(conf *model.SwitchConfiguration) string {
	var b strings.Builder
	row := func(name, ip, ok, method, status, protocol string) {
		b.WriteString(strings.TrimRight(fmt.Sprintf("%-22s %-15s %-3s %-6s %-21s %s", name, ip, ok, method, status, protocol), " ") + "\n")
	}
	row("Interface", "IP-Address", "OK?", "Method", "Status", "Protocol")
	for _, port := range orderedPorts(conf) {
		ip, method := "unassigned", "unset"
		if primary, ok := port.PrimaryIP(); ok {
			ip, method = primary.Addr().String(), "manual"
		}
		status, protocol := "down", "down"
		if port.IsVlanPort() {
			status, protocol = "up", "up"
		}
		if port.IsShutdown(false) {
			status, protocol = "administratively down", "down"
		}
		row(port.Name, ip, "YES", method, status, protocol)
	}
	return b.String()
}

func showVersion(c *Core) string {
	return fmt.Sprintf("Cisco IOS Software, fakeswitches emulation (%s), Version %s\n\n%s uptime is 0 minutes\n\n%d FastEthernet/IEEE 802.3 interface(s)\n",
		c.Model(), version.Version, c.Conf.Name, len(c.Conf.GetPhysicalPorts()))
}
