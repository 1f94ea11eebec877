package juniper

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/datastore"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Style is the configuration dialect of a JunOS family.
type Style int

const (
	// EX switches name the switching mode "port-mode".
	EX Style = iota
	// QFX switches name it "interface-mode" and reject trunks without
	// members at commit.
	QFX
)

func (s Style) modeTag() string {
	if s == QFX {
		return "interface-mode"
	}
	return "port-mode"
}

const trunkWithoutMembers = "For trunk interface, please ensure either vlan members is configured or inner-vlan-id-list is configured"

// Codec converts between the configuration model and JunOS configuration
// XML.
type Codec struct {
	style Style
	reg   *datastore.Registry
}

var _ datastore.Codec = (*Codec)(nil)

// NewCodec creates the codec of a style.
func NewCodec(style Style) *Codec {
	c := &Codec{style: style, reg: datastore.NewRegistry()}
	c.reg.Order("vlans", "interfaces", "protocols")
	c.reg.Handle("vlans/vlan", c.applyVlan)
	c.reg.Handle("interfaces/interface", c.applyInterface)
	c.reg.Handle("protocols/rstp/interface", c.applyRSTP)
	c.reg.Handle("protocols/lldp/interface", c.applyLLDP)
	return c
}

// Apply implements datastore.Codec.
func (c *Codec) Apply(conf *model.SwitchConfiguration, el *etree.Element) error {
	if el.Tag != "configuration" {
		return netconf.NewBadElement(el.Tag, datastore.EditPath())
	}
	return c.reg.Apply(conf, el)
}

// Validate implements datastore.Codec with the JunOS commit checks.
func (c *Codec) Validate(conf *model.SwitchConfiguration) error {
	var errs util.MultiError
	if err := conf.Validate(); err != nil {
		errs.Append(netconf.NewOperationFailed(err.Error(), datastore.EditPath("interfaces")))
	}
	for _, port := range conf.Ports {
		if port.IsVlanPort() {
			continue
		}
		switching := port.VendorSpecific.Get(model.HasEthernetSwitching)
		if c.style == QFX && switching && port.Mode == model.ModeTrunk && len(port.TrunkVlans) == 0 {
			errs.Append(&netconf.RPCError{
				Type:       netconf.ErrorTypeProtocol,
				Tag:        netconf.TagOperationFailed,
				Severity:   "error",
				Path:       datastore.EditPath("interfaces", port.Name, "unit", "0", "family"),
				Message:    trunkWithoutMembers,
				BadElement: "ethernet-switching",
			})
		}
		if hasRSTP(port) && !switching {
			errs.Append(netconf.NewOperationFailed(
				fmt.Sprintf("XSTP : Interface %s.0 is not enabled for Ethernet Switching", port.Name),
				datastore.EditPath("protocols", "rstp")))
		}
	}
	return errs.ErrorOrNil()
}

// ===== VLANs =====

// resolveVlan finds a VLAN by name, or by number for numeric members.
func resolveVlan(conf *model.SwitchConfiguration, member string) *model.Vlan {
	if n, ok := util.ParseInt(member); ok {
		return conf.GetVlan(n)
	}
	return conf.GetVlanByName(member)
}

// memberName is how a port refers to VLAN n.
func memberName(conf *model.SwitchConfiguration, n int) string {
	if v := conf.GetVlan(n); v != nil && v.Name != "" {
		return v.Name
	}
	return fmt.Sprint(n)
}

func (c *Codec) applyVlan(conf *model.SwitchConfiguration, el *etree.Element, op datastore.Operation) error {
	name := datastore.Key(el)
	path := datastore.EditPath("vlans", name)
	if name == "" {
		return netconf.NewMissingElement("name")
	}
	v := conf.GetVlanByName(name)

	if op.IsDelete() {
		if v == nil {
			return netconf.NewDataMissing("vlan", path)
		}
		unbindL3(conf, v.Number)
		conf.RemoveVlan(v)
		return nil
	}
	if op == datastore.Replace && v != nil {
		v.Description = ""
		unbindL3(conf, v.Number)
	}

	number := 0
	var errs util.MultiError
	for _, child := range el.ChildElements() {
		value := text(child)
		switch child.Tag {
		case "name", "description", "l3-interface":
		case "vlan-id":
			n, ok := util.ParseInt(value)
			if !ok || util.ValidateVLANID(n, conf.MaxVlan) != nil {
				errs.Append(netconf.NewInvalidValue(fmt.Sprintf("Value %s is not within range (1..%d)", value, conf.MaxVlan), path))
				continue
			}
			number = n
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	switch {
	case v == nil && number == 0:
		return netconf.NewOperationFailed("vlan-id must be configured", path)
	case v == nil:
		if other := conf.GetVlan(number); other != nil {
			return netconf.NewOperationFailed(fmt.Sprintf("vlan-id %d is already used by vlan %s", number, other.Name), path)
		}
		v = conf.NewVlan(number, name)
		if err := conf.AddVlan(v); err != nil {
			return netconf.NewOperationFailed(err.Error(), path)
		}
	case number != 0 && number != v.Number:
		if other := conf.GetVlan(number); other != nil {
			return netconf.NewOperationFailed(fmt.Sprintf("vlan-id %d is already used by vlan %s", number, other.Name), path)
		}
		renumberVlan(conf, v, number)
	}

	for _, child := range el.ChildElements() {
		childOp := datastore.OperationOf(child, op)
		switch child.Tag {
		case "description":
			if childOp.IsDelete() {
				v.Description = ""
			} else {
				v.Description = text(child)
			}
		case "l3-interface":
			if err := bindL3(conf, v, text(child), childOp, path); err != nil {
				errs.Append(err)
			}
		}
	}
	return errs.ErrorOrNil()
}

// renumberVlan changes the id of v and follows every reference to it.
func renumberVlan(conf *model.SwitchConfiguration, v *model.Vlan, number int) {
	old := v.Number
	for _, port := range conf.Ports {
		if port.AccessVlan == old {
			port.AccessVlan = number
		}
		if port.TrunkNativeVlan == old {
			port.TrunkNativeVlan = number
		}
		if port.TrunkVlans != nil && port.TrunkVlans.Contains(old) {
			port.TrunkVlans = port.TrunkVlans.Remove(old).Add(number)
		}
		if port.IsVlanPort() && port.Vlan.VlanID == old {
			port.Vlan.VlanID = number
		}
	}
	v.Number = number
	sort.SliceStable(conf.Vlans, func(i, j int) bool { return conf.Vlans[i].Number < conf.Vlans[j].Number })
}

// bindL3 attaches the routed interface "irb.N" to v, creating the unit
// when it is not configured yet.
func bindL3(conf *model.SwitchConfiguration, v *model.Vlan, name string, op datastore.Operation, path string) error {
	if op.IsDelete() {
		unbindL3(conf, v.Number)
		return nil
	}
	if _, ok := irbUnit(name); !ok {
		return netconf.NewInvalidValue(fmt.Sprintf("invalid l3-interface '%s'", name), path)
	}
	unbindL3(conf, v.Number)
	port := conf.GetPort(name)
	if port == nil {
		port = conf.NewVlanPort(v.Number, name)
		conf.AddPort(port)
	}
	port.Vlan.VlanID = v.Number
	return nil
}

func unbindL3(conf *model.SwitchConfiguration, number int) {
	for _, port := range conf.GetVlanPorts() {
		if port.Vlan.VlanID == number {
			port.Vlan.VlanID = 0
		}
	}
}
