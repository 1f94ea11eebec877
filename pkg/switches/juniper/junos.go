package juniper

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"

	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// junosCapability serves the JunOS specific rpcs.
type junosCapability struct {
	core *Core
}

func (j *junosCapability) URI() string { return JunosURI }

func (j *junosCapability) Handlers() map[string]netconf.RPCHandler {
	return map[string]netconf.RPCHandler{
		"get-configuration": j.getConfiguration,
	}
}

// getConfiguration answers <get-configuration database="committed|candidate">
// and, with compare="rollback" rollback="N", the text difference between
// rollback N and the candidate.
func (j *junosCapability) getConfiguration(req *netconf.Request) (*netconf.Reply, error) {
	op := req.Operation
	ds := j.core.Datastore

	if op.SelectAttrValue("compare", "") == "rollback" {
		value := op.SelectAttrValue("rollback", "0")
		n, ok := util.ParseInt(value)
		if !ok || n < 0 || n >= len(j.core.history) {
			return nil, netconf.NewInvalidValue(fmt.Sprintf("Requested rollback %s does not exist", value), "")
		}
		return &netconf.Reply{Data: []*etree.Element{j.compare(n)}}, nil
	}

	source := netconf.Running
	switch database := op.SelectAttrValue("database", "committed"); database {
	case "committed":
	case "candidate":
		source = netconf.Candidate
	default:
		return nil, netconf.NewInvalidValue(fmt.Sprintf("invalid database '%s'", database), "")
	}
	conf, err := ds.ToEtree(source)
	if err != nil {
		return nil, err
	}
	if filter := op.SelectElement("configuration"); filter != nil && len(filter.ChildElements()) > 0 {
		wrapper := etree.NewElement("filter")
		wrapper.AddChild(filter.Copy())
		if conf = netconf.SubtreeFilter(conf, wrapper); conf == nil {
			conf = etree.NewElement("configuration")
		}
	}
	if op.SelectAttrValue("format", "xml") == "text" {
		out := etree.NewElement("configuration-text")
		out.SetText(ConfigText(conf))
		return &netconf.Reply{Data: []*etree.Element{out}}, nil
	}
	return &netconf.Reply{Data: []*etree.Element{conf}}, nil
}

func (j *junosCapability) compare(n int) *etree.Element {
	from := j.core.history[n]
	to := ConfigText(j.core.codec.ToEtree(j.core.Datastore.Candidate()))
	edits := myers.ComputeEdits("configuration", from, to)
	diff := fmt.Sprint(gotextdiff.ToUnified(fmt.Sprintf("rollback %d", n), "candidate", from, edits))

	info := etree.NewElement("configuration-information")
	info.CreateElement("configuration-output").SetText(diff)
	return info
}
