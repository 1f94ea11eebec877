package juniper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/model"
)

// ToEtree implements datastore.Codec.
func (c *Codec) ToEtree(conf *model.SwitchConfiguration) *etree.Element {
	root := etree.NewElement("configuration")

	// bundles load before the members that reference them
	interfaces := etree.NewElement("interfaces")
	for _, port := range conf.GetAggregatedPorts() {
		interfaces.AddChild(c.interfaceElement(conf, port))
	}
	for _, port := range conf.GetPhysicalPorts() {
		if configured(port) {
			interfaces.AddChild(c.interfaceElement(conf, port))
		}
	}
	if irb := irbElement(conf); irb != nil {
		interfaces.AddChild(irb)
	}
	if len(interfaces.ChildElements()) > 0 {
		root.AddChild(interfaces)
	}

	if protocols := protocolsElement(conf); protocols != nil {
		root.AddChild(protocols)
	}

	if len(conf.Vlans) > 0 {
		vlans := root.CreateElement("vlans")
		sorted := append([]*model.Vlan(nil), conf.Vlans...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, v := range sorted {
			el := vlans.CreateElement("vlan")
			el.CreateElement("name").SetText(v.Name)
			if v.Description != "" {
				el.CreateElement("description").SetText(v.Description)
			}
			el.CreateElement("vlan-id").SetText(fmt.Sprint(v.Number))
			if port := conf.GetVlanPort(v.Number); port != nil {
				el.CreateElement("l3-interface").SetText(port.Name)
			}
		}
	}
	return root
}

// configured reports whether a physical port has anything under
// "interfaces".
func configured(port *model.Port) bool {
	return port.Description != "" || port.Shutdown != nil || port.MTU != 0 ||
		port.AutoNegotiation != nil || port.Speed != "" || port.AggregationMembership != "" ||
		port.VendorSpecific.Get(model.HasEthernetSwitching)
}

func (c *Codec) interfaceElement(conf *model.SwitchConfiguration, port *model.Port) *etree.Element {
	el := etree.NewElement("interface")
	el.CreateElement("name").SetText(port.Name)
	if port.Description != "" {
		el.CreateElement("description").SetText(port.Description)
	}
	if port.IsShutdown(false) {
		el.CreateElement("disable")
	}
	if port.MTU != 0 {
		el.CreateElement("mtu").SetText(fmt.Sprint(port.MTU))
	}
	if port.AutoNegotiation != nil || port.Speed != "" || port.AggregationMembership != "" {
		options := el.CreateElement("ether-options")
		switch {
		case model.IsTrue(port.AutoNegotiation):
			options.CreateElement("auto-negotiation")
		case model.IsFalse(port.AutoNegotiation):
			options.CreateElement("no-auto-negotiation")
		}
		if port.Speed != "" {
			options.CreateElement("speed").CreateElement("ethernet-" + port.Speed)
		}
		if port.AggregationMembership != "" {
			options.CreateElement("ieee-802.3ad").CreateElement("bundle").SetText(port.AggregationMembership)
		}
	}
	if port.IsAggregated() && (port.Aggregate.LACPActive || port.Aggregate.LACPPeriodic != "") {
		lacp := el.CreateElement("aggregated-ether-options").CreateElement("lacp")
		if port.Aggregate.LACPActive {
			lacp.CreateElement("active")
		}
		if port.Aggregate.LACPPeriodic != "" {
			lacp.CreateElement("periodic").SetText(port.Aggregate.LACPPeriodic)
		}
	}
	if port.VendorSpecific.Get(model.HasEthernetSwitching) {
		unit := el.CreateElement("unit")
		unit.CreateElement("name").SetText("0")
		switching := unit.CreateElement("family").CreateElement("ethernet-switching")
		if port.Mode != "" {
			switching.CreateElement(c.style.modeTag()).SetText(port.Mode)
		}
		var members []int
		if port.Mode == model.ModeTrunk {
			members = port.TrunkVlans
		} else if port.AccessVlan != 0 {
			members = []int{port.AccessVlan}
		}
		if len(members) > 0 {
			vlan := switching.CreateElement("vlan")
			for _, n := range members {
				vlan.CreateElement("members").SetText(memberName(conf, n))
			}
		}
		if port.TrunkNativeVlan != 0 {
			switching.CreateElement("native-vlan-id").SetText(fmt.Sprint(port.TrunkNativeVlan))
		}
	}
	return el
}

func irbElement(conf *model.SwitchConfiguration) *etree.Element {
	units := conf.GetVlanPorts()
	if len(units) == 0 {
		return nil
	}
	sort.SliceStable(units, func(i, j int) bool {
		a, _ := irbUnit(units[i].Name)
		b, _ := irbUnit(units[j].Name)
		return a < b
	})
	el := etree.NewElement("interface")
	el.CreateElement("name").SetText("irb")
	for _, port := range units {
		n, _ := irbUnit(port.Name)
		unit := el.CreateElement("unit")
		unit.CreateElement("name").SetText(fmt.Sprint(n))
		if port.Description != "" {
			unit.CreateElement("description").SetText(port.Description)
		}
		if port.VendorSpecific.Get(model.HasInternetProtocol) || len(port.Vlan.IPs) > 0 {
			inet := unit.CreateElement("family").CreateElement("inet")
			for _, ip := range port.Vlan.IPs {
				inet.CreateElement("address").CreateElement("name").SetText(ip.String())
			}
		}
	}
	return el
}

func protocolsElement(conf *model.SwitchConfiguration) *etree.Element {
	var rstp, lldp []*etree.Element
	for _, port := range conf.Ports {
		if hasRSTP(port) {
			el := etree.NewElement("interface")
			el.CreateElement("name").SetText(port.Name)
			if port.VendorSpecific.Get(model.RSTPEdge) {
				el.CreateElement("edge")
			}
			if port.VendorSpecific.Get(model.RSTPNoRootPort) {
				el.CreateElement("no-root-port")
			}
			rstp = append(rstp, el)
		}
		if port.VendorSpecific.Has(model.LLDP) {
			el := etree.NewElement("interface")
			el.CreateElement("name").SetText(port.Name)
			if !port.VendorSpecific.Get(model.LLDP) {
				el.CreateElement("disable")
			}
			lldp = append(lldp, el)
		}
	}
	if len(rstp) == 0 && len(lldp) == 0 {
		return nil
	}
	protocols := etree.NewElement("protocols")
	if len(rstp) > 0 {
		parent := protocols.CreateElement("rstp")
		for _, el := range rstp {
			parent.AddChild(el)
		}
	}
	if len(lldp) > 0 {
		parent := protocols.CreateElement("lldp")
		for _, el := range lldp {
			parent.AddChild(el)
		}
	}
	return protocols
}

// ConfigText renders configuration XML in the JunOS curly-brace text
// format, the format "show configuration" and rollback comparisons use.
func ConfigText(root *etree.Element) string {
	var b strings.Builder
	for _, child := range root.ChildElements() {
		writeText(&b, root, child, 0)
	}
	return b.String()
}

func writeText(b *strings.Builder, parent, el *etree.Element, depth int) {
	indent := strings.Repeat("    ", depth)
	header := el.Tag
	var kids []*etree.Element
	for _, k := range el.ChildElements() {
		if k.Tag == "name" {
			name := text(k)
			// list entries of the top containers are shown by name alone
			if (parent.Tag == "interfaces" && el.Tag == "interface") || (parent.Tag == "vlans" && el.Tag == "vlan") {
				header = name
			} else {
				header += " " + name
			}
			continue
		}
		kids = append(kids, k)
	}
	switch {
	case len(kids) > 0:
		fmt.Fprintf(b, "%s%s {\n", indent, header)
		for _, k := range kids {
			writeText(b, el, k, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case text(el) != "":
		fmt.Fprintf(b, "%s%s %s;\n", indent, header, text(el))
	default:
		fmt.Fprintf(b, "%s%s;\n", indent, header)
	}
}
