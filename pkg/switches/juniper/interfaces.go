package juniper

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/datastore"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

func text(el *etree.Element) string {
	return strings.TrimSpace(el.Text())
}

// irbUnit parses "irb.N".
func irbUnit(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "irb.")
	if !ok {
		return 0, false
	}
	return util.ParseInt(rest)
}

// protocolKeys are the flags "protocols" sets on a port; they survive a
// reset of the interface.
var protocolKeys = []model.VendorKey{model.RSTPEdge, model.RSTPNoRootPort, model.LLDP}

// resetPort returns a port to its unconfigured state.
func resetPort(port *model.Port) {
	kept := model.VendorSpecific{}
	for _, k := range protocolKeys {
		if port.VendorSpecific.Has(k) {
			kept[k] = port.VendorSpecific.Get(k)
		}
	}
	port.Reset()
	port.TrunkVlans = model.VlanList{}
	if len(kept) > 0 {
		port.VendorSpecific = kept
	}
}

// portFor returns the physical or aggregated port called name, creating it
// when the name is valid.
func portFor(conf *model.SwitchConfiguration, name string, create bool) (*model.Port, error) {
	kind, err := parseInterfaceName(name)
	if err != nil {
		return nil, err
	}
	if kind == irbInterface {
		return nil, netconf.NewInvalidValue(fmt.Sprintf("invalid interface type in '%s'", name), datastore.EditPath("interfaces"))
	}
	port := conf.GetPort(name)
	if port != nil || !create {
		return port, nil
	}
	if kind == aggregatedInterface {
		port = conf.NewAggregatedPort(name)
	} else {
		port = conf.NewPort(name)
	}
	conf.AddPort(port)
	return port, nil
}

func (c *Codec) applyInterface(conf *model.SwitchConfiguration, el *etree.Element, op datastore.Operation) error {
	name := datastore.Key(el)
	if name == "" {
		return netconf.NewMissingElement("name")
	}
	if name == "irb" {
		return c.applyIRB(conf, el, op)
	}
	path := datastore.EditPath("interfaces", name)

	port, err := portFor(conf, name, !op.IsDelete())
	if err != nil {
		return err
	}
	if op.IsDelete() {
		if port == nil {
			return netconf.NewDataMissing("interface", datastore.EditPath("interfaces"))
		}
		if port.IsAggregated() {
			conf.RemovePort(port)
		} else {
			resetPort(port)
		}
		return nil
	}
	if op == datastore.Replace {
		resetPort(port)
	}

	var errs util.MultiError
	for _, child := range el.ChildElements() {
		childOp := datastore.OperationOf(child, op)
		switch child.Tag {
		case "name":
		case "description":
			if childOp.IsDelete() {
				port.Description = ""
			} else {
				port.Description = text(child)
			}
		case "disable":
			if childOp.IsDelete() {
				port.Shutdown = nil
			} else {
				port.Shutdown = model.Bool(true)
			}
		case "mtu":
			if childOp.IsDelete() {
				port.MTU = 0
				continue
			}
			n, ok := util.ParseInt(text(child))
			if !ok || n < 256 || n > 9216 {
				errs.Append(netconf.NewInvalidValue(fmt.Sprintf("Value %s is not within range (256..9216)", text(child)), path))
				continue
			}
			port.MTU = n
		case "ether-options":
			errs.Append(c.applyEtherOptions(conf, port, child, childOp, path))
		case "aggregated-ether-options":
			if !port.IsAggregated() {
				errs.Append(netconf.NewBadElement(child.Tag, path))
				continue
			}
			errs.Append(applyAggregatedOptions(port, child, childOp, path))
		case "unit":
			errs.Append(c.applyUnit(conf, port, child, childOp))
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	return errs.ErrorOrNil()
}

func (c *Codec) applyEtherOptions(conf *model.SwitchConfiguration, port *model.Port, el *etree.Element, op datastore.Operation, path string) error {
	path = strings.TrimSuffix(path, "]") + " ether-options]"
	if op.IsDelete() {
		port.AutoNegotiation = nil
		port.Speed = ""
		port.AggregationMembership = ""
		return nil
	}
	var errs util.MultiError
	for _, child := range el.ChildElements() {
		childOp := datastore.OperationOf(child, op)
		switch child.Tag {
		case "auto-negotiation", "no-auto-negotiation":
			if childOp.IsDelete() {
				port.AutoNegotiation = nil
			} else {
				port.AutoNegotiation = model.Bool(child.Tag == "auto-negotiation")
			}
		case "speed":
			speed := child.ChildElements()
			if childOp.IsDelete() || len(speed) == 0 {
				port.Speed = ""
				continue
			}
			port.Speed = strings.TrimPrefix(speed[0].Tag, "ethernet-")
		case "ieee-802.3ad":
			bundle, _ := datastore.Leaf(child, "bundle")
			if childOp.IsDelete() {
				port.AggregationMembership = ""
				continue
			}
			if agg := conf.GetPort(bundle); agg == nil || !agg.IsAggregated() {
				errs.Append(netconf.NewOperationFailed(fmt.Sprintf("Interface %s is not configured", bundle), path))
				continue
			}
			port.AggregationMembership = bundle
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	return errs.ErrorOrNil()
}

func applyAggregatedOptions(port *model.Port, el *etree.Element, op datastore.Operation, path string) error {
	path = strings.TrimSuffix(path, "]") + " aggregated-ether-options]"
	lacp := el.SelectElement("lacp")
	if op.IsDelete() || (lacp != nil && datastore.OperationOf(lacp, op).IsDelete()) {
		port.Aggregate.LACPActive = false
		port.Aggregate.LACPPeriodic = ""
		return nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag != "lacp" {
			return netconf.NewBadElement(child.Tag, path)
		}
	}
	if lacp == nil {
		return nil
	}
	for _, child := range lacp.ChildElements() {
		switch child.Tag {
		case "active":
			port.Aggregate.LACPActive = true
		case "passive":
			port.Aggregate.LACPActive = false
		case "periodic":
			port.Aggregate.LACPPeriodic = text(child)
		default:
			return netconf.NewBadElement(child.Tag, strings.TrimSuffix(path, "]")+" lacp]")
		}
	}
	return nil
}

// ===== Switching =====

func clearSwitching(port *model.Port) {
	port.Mode = ""
	port.AccessVlan = 0
	port.TrunkNativeVlan = 0
	port.TrunkVlans = model.VlanList{}
	delete(port.VendorSpecific, model.HasEthernetSwitching)
}

func setMode(port *model.Port, mode string) {
	if port.Mode == mode {
		return
	}
	port.SetMode(mode)
	port.AccessVlan = 0
	port.TrunkVlans = model.VlanList{}
}

func (c *Codec) applyUnit(conf *model.SwitchConfiguration, port *model.Port, el *etree.Element, op datastore.Operation) error {
	unit := datastore.Key(el)
	path := datastore.EditPath("interfaces", port.Name, "unit", unit)
	if unit != "0" {
		return netconf.NewInvalidValue(fmt.Sprintf("unit %s is not supported on %s", unit, port.Name), datastore.EditPath("interfaces", port.Name))
	}
	if op.IsDelete() {
		if !port.VendorSpecific.Has(model.HasEthernetSwitching) {
			return netconf.NewDataMissing("unit", datastore.EditPath("interfaces", port.Name))
		}
		clearSwitching(port)
		return nil
	}
	var errs util.MultiError
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "name":
		case "family":
			familyOp := datastore.OperationOf(child, op)
			for _, family := range child.ChildElements() {
				if family.Tag != "ethernet-switching" {
					errs.Append(netconf.NewBadElement(family.Tag, strings.TrimSuffix(path, "]")+" family]"))
					continue
				}
				errs.Append(c.applySwitching(conf, port, family, datastore.OperationOf(family, familyOp)))
			}
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	return errs.ErrorOrNil()
}

func (c *Codec) applySwitching(conf *model.SwitchConfiguration, port *model.Port, el *etree.Element, op datastore.Operation) error {
	path := datastore.EditPath("interfaces", port.Name, "unit", "0", "family", "ethernet-switching")
	if op.IsDelete() {
		clearSwitching(port)
		return nil
	}
	port.Set(model.HasEthernetSwitching, true)

	// The mode decides how members are read, so it goes first.
	if mode := el.SelectElement(c.style.modeTag()); mode != nil {
		if datastore.OperationOf(mode, op).IsDelete() {
			setMode(port, "")
		} else {
			switch value := text(mode); value {
			case model.ModeAccess, model.ModeTrunk:
				setMode(port, value)
			default:
				return netconf.NewInvalidValue(fmt.Sprintf("invalid %s '%s'", mode.Tag, value), path)
			}
		}
	}

	var errs util.MultiError
	for _, child := range el.ChildElements() {
		childOp := datastore.OperationOf(child, op)
		switch child.Tag {
		case c.style.modeTag():
		case "vlan":
			errs.Append(c.applyMembers(conf, port, child, childOp, path))
		case "native-vlan-id":
			if childOp.IsDelete() {
				port.TrunkNativeVlan = 0
				continue
			}
			v := resolveVlan(conf, text(child))
			if v == nil {
				errs.Append(netconf.NewOperationFailed(fmt.Sprintf("No vlan matches vlan tag %s for interface %s.0", text(child), port.Name), path))
				continue
			}
			port.TrunkNativeVlan = v.Number
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	return errs.ErrorOrNil()
}

func (c *Codec) applyMembers(conf *model.SwitchConfiguration, port *model.Port, el *etree.Element, op datastore.Operation, path string) error {
	if op.IsDelete() {
		port.AccessVlan = 0
		port.TrunkVlans = model.VlanList{}
		return nil
	}
	if op == datastore.Replace {
		port.AccessVlan = 0
		port.TrunkVlans = model.VlanList{}
	}
	var errs util.MultiError
	for _, member := range el.ChildElements() {
		if member.Tag != "members" {
			errs.Append(netconf.NewBadElement(member.Tag, strings.TrimSuffix(path, "]")+" vlan]"))
			continue
		}
		v := resolveVlan(conf, text(member))
		if v == nil {
			errs.Append(netconf.NewOperationFailed(fmt.Sprintf("No vlan matches vlan tag %s for interface %s.0", text(member), port.Name), path))
			continue
		}
		remove := datastore.OperationOf(member, op).IsDelete()
		switch {
		case port.Mode == model.ModeTrunk && remove:
			port.TrunkVlans = port.TrunkVlans.Remove(v.Number)
		case port.Mode == model.ModeTrunk:
			port.TrunkVlans = port.TrunkVlans.Add(v.Number)
		case remove:
			if port.AccessVlan == v.Number {
				port.AccessVlan = 0
			}
		default:
			port.AccessVlan = v.Number
		}
	}
	return errs.ErrorOrNil()
}

// ===== IRB =====

func (c *Codec) applyIRB(conf *model.SwitchConfiguration, el *etree.Element, op datastore.Operation) error {
	path := datastore.EditPath("interfaces", "irb")
	if op.IsDelete() {
		units := conf.GetVlanPorts()
		if len(units) == 0 {
			return netconf.NewDataMissing("interface", datastore.EditPath("interfaces"))
		}
		for _, port := range units {
			conf.RemovePort(port)
		}
		return nil
	}
	var errs util.MultiError
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "name":
		case "unit":
			errs.Append(applyIRBUnit(conf, child, datastore.OperationOf(child, op)))
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	return errs.ErrorOrNil()
}

func applyIRBUnit(conf *model.SwitchConfiguration, el *etree.Element, op datastore.Operation) error {
	unit := datastore.Key(el)
	name := "irb." + unit
	path := datastore.EditPath("interfaces", "irb", "unit", unit)
	if _, ok := irbUnit(name); !ok {
		return netconf.NewInvalidValue(fmt.Sprintf("invalid unit '%s'", unit), datastore.EditPath("interfaces", "irb"))
	}
	port := conf.GetPort(name)
	if op.IsDelete() {
		if port == nil {
			return netconf.NewDataMissing("unit", datastore.EditPath("interfaces", "irb"))
		}
		conf.RemovePort(port)
		return nil
	}
	if port == nil {
		port = conf.NewVlanPort(0, name)
		conf.AddPort(port)
	}
	if op == datastore.Replace {
		port.Description = ""
		port.ClearIPs()
	}

	var errs util.MultiError
	for _, child := range el.ChildElements() {
		childOp := datastore.OperationOf(child, op)
		switch child.Tag {
		case "name":
		case "description":
			if childOp.IsDelete() {
				port.Description = ""
			} else {
				port.Description = text(child)
			}
		case "family":
			for _, family := range child.ChildElements() {
				if family.Tag != "inet" {
					errs.Append(netconf.NewBadElement(family.Tag, strings.TrimSuffix(path, "]")+" family]"))
					continue
				}
				errs.Append(applyInet(conf, port, family, datastore.OperationOf(family, childOp), path))
			}
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	return errs.ErrorOrNil()
}

func applyInet(conf *model.SwitchConfiguration, port *model.Port, el *etree.Element, op datastore.Operation, path string) error {
	path = strings.TrimSuffix(path, "]") + " family inet]"
	if op.IsDelete() {
		port.ClearIPs()
		delete(port.VendorSpecific, model.HasInternetProtocol)
		return nil
	}
	port.Set(model.HasInternetProtocol, true)
	var errs util.MultiError
	for _, child := range el.ChildElements() {
		if child.Tag != "address" {
			errs.Append(netconf.NewBadElement(child.Tag, path))
			continue
		}
		value := datastore.Key(child)
		ip, err := netip.ParsePrefix(value)
		if err != nil {
			errs.Append(netconf.NewInvalidValue(fmt.Sprintf("Invalid prefix '%s'", value), path))
			continue
		}
		if datastore.OperationOf(child, op).IsDelete() {
			if err := port.RemoveIP(ip); err != nil {
				errs.Append(netconf.NewDataMissing("address", path))
			}
			continue
		}
		if port.HasIP(ip) {
			continue
		}
		if other, _, found := conf.FindOverlappingIP(ip, port.Name); found {
			errs.Append(netconf.NewOperationFailed(fmt.Sprintf("Overlapping subnet is configured under %s", other.Name), path))
			continue
		}
		if _, ok := port.PrimaryIP(); ok {
			port.AddSecondaryIP(ip)
		} else {
			port.SetPrimaryIP(ip)
		}
	}
	return errs.ErrorOrNil()
}
