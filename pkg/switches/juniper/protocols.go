package juniper

import (
	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/datastore"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// hasRSTP reports whether the port appears under protocols rstp. A port
// listed without flags keeps RSTPEdge stored as false.
func hasRSTP(port *model.Port) bool {
	return port.VendorSpecific.Has(model.RSTPEdge) || port.VendorSpecific.Has(model.RSTPNoRootPort)
}

func (c *Codec) applyRSTP(conf *model.SwitchConfiguration, el *etree.Element, op datastore.Operation) error {
	name := datastore.Key(el)
	path := datastore.EditPath("protocols", "rstp", "interface", name)
	port, err := portFor(conf, name, !op.IsDelete())
	if err != nil {
		return err
	}
	if op.IsDelete() {
		if port == nil || !hasRSTP(port) {
			return netconf.NewDataMissing("interface", datastore.EditPath("protocols", "rstp"))
		}
		delete(port.VendorSpecific, model.RSTPEdge)
		delete(port.VendorSpecific, model.RSTPNoRootPort)
		return nil
	}
	if op == datastore.Replace {
		delete(port.VendorSpecific, model.RSTPNoRootPort)
		port.Set(model.RSTPEdge, false)
	}

	var errs util.MultiError
	for _, child := range el.ChildElements() {
		set := !datastore.OperationOf(child, op).IsDelete()
		switch child.Tag {
		case "name":
		case "edge":
			port.Set(model.RSTPEdge, set)
		case "no-root-port":
			if set {
				port.Set(model.RSTPNoRootPort, true)
			} else {
				delete(port.VendorSpecific, model.RSTPNoRootPort)
			}
		default:
			errs.Append(netconf.NewBadElement(child.Tag, path))
		}
	}
	if !hasRSTP(port) {
		port.Set(model.RSTPEdge, false)
	}
	return errs.ErrorOrNil()
}

func (c *Codec) applyLLDP(conf *model.SwitchConfiguration, el *etree.Element, op datastore.Operation) error {
	name := datastore.Key(el)
	path := datastore.EditPath("protocols", "lldp", "interface", name)
	port, err := portFor(conf, name, !op.IsDelete())
	if err != nil {
		return err
	}
	if op.IsDelete() {
		if port == nil || !port.VendorSpecific.Has(model.LLDP) {
			return netconf.NewDataMissing("interface", datastore.EditPath("protocols", "lldp"))
		}
		delete(port.VendorSpecific, model.LLDP)
		return nil
	}

	enabled := true
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "name":
		case "disable":
			enabled = datastore.OperationOf(child, op).IsDelete()
		default:
			return netconf.NewBadElement(child.Tag, path)
		}
	}
	port.Set(model.LLDP, enabled)
	return nil
}
