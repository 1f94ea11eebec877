package juniper

import (
	"context"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

func newSwitch(modelName string) *Core {
	return New(modelName, core.Options{Name: "juniper"})
}

// rpc sends one rpc and returns the parsed rpc-reply.
func rpc(t *testing.T, r *netconf.Responder, body string) *etree.Element {
	t.Helper()
	reply, _ := r.Handle([]byte(`<rpc message-id="1" xmlns="` + netconf.BaseNamespace + `">` + body + `</rpc>`))
	require.NotNil(t, reply)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(reply))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func editCandidate(t *testing.T, r *netconf.Responder, configuration string) *etree.Element {
	t.Helper()
	return rpc(t, r, `<edit-config><target><candidate/></target><config><configuration>`+
		configuration+`</configuration></config></edit-config>`)
}

func requireOK(t *testing.T, reply *etree.Element) {
	t.Helper()
	if msg := reply.FindElement("//error-message"); msg != nil {
		t.Fatalf("unexpected rpc-error: %s", msg.Text())
	}
	require.NotNil(t, reply.SelectElement("ok"))
}

func errorMessage(reply *etree.Element) string {
	if msg := reply.FindElement("//error-message"); msg != nil {
		return msg.Text()
	}
	return ""
}

// ===== Hello Tests =====

func TestHello_Capabilities(t *testing.T) {
	r := newSwitch(Generic).NetconfResponder("1")
	assert.Equal(t, []string{
		netconf.BaseURI,
		netconf.CandidateURI,
		netconf.ValidateURI,
		JunosURI,
		DMISystemURI,
	}, r.Capabilities())

	hello := string(r.Hello())
	assert.Contains(t, hello, "<session-id>1</session-id>")
	assert.Contains(t, hello, JunosURI)
}

func TestNew_Models(t *testing.T) {
	tests := []struct {
		model string
		want  string
		style Style
	}{
		{Generic, Generic, EX},
		{QFXCopperGeneric, QFXCopperGeneric, QFX},
		{"juniper_mx_generic", Generic, EX},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c := newSwitch(tt.model)
			assert.Equal(t, tt.want, c.Model())
			assert.Equal(t, tt.style, c.Style())
			assert.Nil(t, c.Conf.GetVlan(1))
			assert.NotNil(t, c.Conf.GetPort("ge-0/0/1"))
		})
	}
}

func TestNewSession_NotSupported(t *testing.T) {
	_, err := newSwitch(Generic).NewSession(nil, session.Options{})
	require.Error(t, err)
}

// ===== Commit Tests =====

func TestCommit_VlanAndAccessPort(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<vlans><vlan><name>VLAN1000</name><vlan-id>1000</vlan-id><description>servers</description></vlan></vlans>
		<interfaces><interface><name>ge-0/0/1</name><unit><name>0</name><family><ethernet-switching>
			<port-mode>access</port-mode><vlan><members>VLAN1000</members></vlan>
		</ethernet-switching></family></unit></interface></interfaces>`))

	assert.Nil(t, c.Conf.GetVlan(1000), "running changes before commit")
	requireOK(t, rpc(t, r, `<commit/>`))

	v := c.Conf.GetVlan(1000)
	require.NotNil(t, v)
	assert.Equal(t, "VLAN1000", v.Name)
	assert.Equal(t, "servers", v.Description)
	port := c.Conf.GetPort("ge-0/0/1")
	assert.Equal(t, model.ModeAccess, port.Mode)
	assert.Equal(t, 1000, port.AccessVlan)
}

func TestCommit_QFXTrunkWithoutMembers(t *testing.T) {
	c := newSwitch(QFXCopperGeneric)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<interfaces><interface><name>ge-0/0/3</name><unit><name>0</name><family><ethernet-switching>
			<interface-mode>trunk</interface-mode>
		</ethernet-switching></family></unit></interface></interfaces>`))

	reply := rpc(t, r, `<commit/>`)
	require.NotNil(t, reply.FindElement("//rpc-error"))
	assert.Equal(t, "protocol", reply.FindElement("//error-type").Text())
	assert.Equal(t, "operation-failed", reply.FindElement("//error-tag").Text())
	assert.Equal(t, "[edit interfaces ge-0/0/3 unit 0 family]", reply.FindElement("//error-path").Text())
	assert.Equal(t, trunkWithoutMembers, errorMessage(reply))
	assert.Equal(t, "ethernet-switching", reply.FindElement("//error-info/bad-element").Text())

	assert.Empty(t, c.Conf.GetPort("ge-0/0/3").Mode, "failed commit leaves running untouched")
}

func TestCommit_EXTrunkWithoutMembersAccepted(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<interfaces><interface><name>ge-0/0/3</name><unit><name>0</name><family><ethernet-switching>
			<port-mode>trunk</port-mode>
		</ethernet-switching></family></unit></interface></interfaces>`))
	requireOK(t, rpc(t, r, `<commit/>`))
	assert.Equal(t, model.ModeTrunk, c.Conf.GetPort("ge-0/0/3").Mode)
}

func TestCommit_RSTPRequiresSwitching(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `<protocols><rstp><interface><name>ge-0/0/2</name><edge/></interface></rstp></protocols>`))
	reply := rpc(t, r, `<commit/>`)
	assert.Equal(t, "XSTP : Interface ge-0/0/2.0 is not enabled for Ethernet Switching", errorMessage(reply))
	assert.Equal(t, "[edit protocols rstp]", reply.FindElement("//error-path").Text())

	requireOK(t, editCandidate(t, r, `
		<interfaces><interface><name>ge-0/0/2</name><unit><name>0</name><family><ethernet-switching/></family></unit></interface></interfaces>`))
	requireOK(t, rpc(t, r, `<commit/>`))
	assert.True(t, c.Conf.GetPort("ge-0/0/2").VendorSpecific.Get(model.RSTPEdge))
}

func TestCommit_Idempotent(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")
	edit := `<vlans><vlan><name>VLAN20</name><vlan-id>20</vlan-id></vlan></vlans>`

	requireOK(t, editCandidate(t, r, edit))
	requireOK(t, rpc(t, r, `<commit/>`))
	first := string(c.RenderStartupConfig())

	requireOK(t, editCandidate(t, r, edit))
	assert.False(t, c.Datastore.IsDirty())
	requireOK(t, rpc(t, r, `<commit/>`))
	assert.Equal(t, first, string(c.RenderStartupConfig()))
}

// ===== Lock Tests =====

func TestLock_ModifiedCandidate(t *testing.T) {
	c := newSwitch(Generic)
	first := c.NetconfResponder("1")
	second := c.NetconfResponder("2")

	requireOK(t, editCandidate(t, first, `<vlans><vlan><name>VLAN30</name><vlan-id>30</vlan-id></vlan></vlans>`))

	reply := rpc(t, second, `<lock><target><candidate/></target></lock>`)
	assert.Equal(t, "configuration database modified", errorMessage(reply))
	assert.Equal(t, "lock-denied", reply.FindElement("//error-tag").Text())

	requireOK(t, rpc(t, first, `<discard-changes/>`))
	requireOK(t, rpc(t, second, `<lock><target><candidate/></target></lock>`))

	reply = rpc(t, first, `<lock><target><candidate/></target></lock>`)
	assert.Equal(t, "Configuration database is already open", errorMessage(reply))

	second.Close()
	requireOK(t, rpc(t, first, `<lock><target><candidate/></target></lock>`))
}

// ===== Edit Tests =====

func TestEdit_InterfaceNames(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ge-0/0/48", "port value outside range 1..47 for '48' in 'ge-0/0/48'"},
		{"ge-0/0/1foo", "invalid trailing input 'foo' in 'ge-0/0/1foo'"},
		{"ae128", "device value outside range 0..127 for '128' in 'ae128'"},
		{"fa-0/0/1", "invalid interface type in 'fa-0/0/1'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSwitch(Generic).NetconfResponder("1")
			reply := editCandidate(t, r, `<interfaces><interface><name>`+tt.name+`</name><description>x</description></interface></interfaces>`)
			assert.Equal(t, tt.want, errorMessage(reply))
			assert.Equal(t, "[edit interfaces]", reply.FindElement("//error-path").Text())
		})
	}
}

func TestEdit_UnknownVlanMember(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	reply := editCandidate(t, r, `
		<interfaces><interface><name>ge-0/0/1</name><unit><name>0</name><family><ethernet-switching>
			<port-mode>trunk</port-mode><vlan><members>ghost</members></vlan>
		</ethernet-switching></family></unit></interface></interfaces>`)
	assert.Equal(t, "No vlan matches vlan tag ghost for interface ge-0/0/1.0", errorMessage(reply))
	assert.False(t, c.Datastore.IsDirty(), "a rejected edit leaves the candidate alone")
}

func TestEdit_VlanRules(t *testing.T) {
	tests := []struct {
		name string
		edit string
		want string
	}{
		{
			name: "missing id",
			edit: `<vlans><vlan><name>nameless</name></vlan></vlans>`,
			want: "vlan-id must be configured",
		},
		{
			name: "out of range",
			edit: `<vlans><vlan><name>big</name><vlan-id>4095</vlan-id></vlan></vlans>`,
			want: "Value 4095 is not within range (1..4094)",
		},
		{
			name: "duplicate id",
			edit: `<vlans><vlan><name>other</name><vlan-id>10</vlan-id></vlan></vlans>`,
			want: "vlan-id 10 is already used by vlan VLAN10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSwitch(Generic).NetconfResponder("1")
			requireOK(t, editCandidate(t, r, `<vlans><vlan><name>VLAN10</name><vlan-id>10</vlan-id></vlan></vlans>`))
			assert.Equal(t, tt.want, errorMessage(editCandidate(t, r, tt.edit)))
		})
	}
}

func TestEdit_DeleteVlanDetachesPorts(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<vlans><vlan><name>VLAN40</name><vlan-id>40</vlan-id></vlan></vlans>
		<interfaces><interface><name>ge-0/0/4</name><unit><name>0</name><family><ethernet-switching>
			<port-mode>trunk</port-mode><vlan><members>VLAN40</members></vlan>
		</ethernet-switching></family></unit></interface></interfaces>`))
	requireOK(t, rpc(t, r, `<commit/>`))
	assert.Equal(t, model.VlanList{40}, c.Conf.GetPort("ge-0/0/4").TrunkVlans)

	requireOK(t, editCandidate(t, r, `<vlans><vlan operation="delete"><name>VLAN40</name></vlan></vlans>`))
	requireOK(t, rpc(t, r, `<commit/>`))
	assert.Nil(t, c.Conf.GetVlan(40))
	assert.Empty(t, c.Conf.GetPort("ge-0/0/4").TrunkVlans)

	reply := editCandidate(t, r, `<vlans><vlan operation="delete"><name>VLAN40</name></vlan></vlans>`)
	assert.Equal(t, "data-missing", reply.FindElement("//error-tag").Text())
}

func TestEdit_IRB(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<vlans><vlan><name>VLAN50</name><vlan-id>50</vlan-id><l3-interface>irb.50</l3-interface></vlan></vlans>
		<interfaces><interface><name>irb</name><unit><name>50</name><family><inet>
			<address><name>10.0.50.1/24</name></address>
		</inet></family></unit></interface></interfaces>`))
	requireOK(t, rpc(t, r, `<commit/>`))

	port := c.Conf.GetVlanPort(50)
	require.NotNil(t, port)
	assert.Equal(t, "irb.50", port.Name)
	primary, ok := port.PrimaryIP()
	require.True(t, ok)
	assert.Equal(t, "10.0.50.1/24", primary.String())

	reply := editCandidate(t, r, `
		<interfaces><interface><name>irb</name><unit><name>60</name><family><inet>
			<address><name>10.0.50.2/25</name></address>
		</inet></family></unit></interface></interfaces>`)
	assert.Equal(t, "Overlapping subnet is configured under irb.50", errorMessage(reply))
}

// ===== get-config Tests =====

func TestGetConfig_Filter(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<vlans>
			<vlan><name>VLAN10</name><vlan-id>10</vlan-id></vlan>
			<vlan><name>VLAN20</name><vlan-id>20</vlan-id></vlan>
		</vlans>`))
	requireOK(t, rpc(t, r, `<commit/>`))

	reply := rpc(t, r, `<get-config><source><running/></source><filter type="subtree">
		<configuration><vlans><vlan><name>VLAN20</name></vlan></vlans></configuration>
	</filter></get-config>`)
	vlans := reply.FindElements("//vlans/vlan")
	require.Len(t, vlans, 1)
	assert.Equal(t, "20", vlans[0].SelectElement("vlan-id").Text())
}

func TestGetConfiguration_Text(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `
		<vlans><vlan><name>VLAN10</name><vlan-id>10</vlan-id></vlan></vlans>
		<interfaces><interface><name>ge-0/0/1</name><description>uplink</description></interface></interfaces>`))

	reply := rpc(t, r, `<get-configuration database="candidate" format="text"/>`)
	text := reply.FindElement("//configuration-text")
	require.NotNil(t, text)
	assert.Equal(t, `interfaces {
    ge-0/0/1 {
        description uplink;
    }
}
vlans {
    VLAN10 {
        vlan-id 10;
    }
}
`, text.Text())

	committed := rpc(t, r, `<get-configuration database="committed"/>`)
	assert.Nil(t, committed.FindElement("//vlans"))
}

func TestGetConfiguration_RollbackCompare(t *testing.T) {
	c := newSwitch(Generic)
	r := c.NetconfResponder("1")

	requireOK(t, editCandidate(t, r, `<vlans><vlan><name>VLAN10</name><vlan-id>10</vlan-id></vlan></vlans>`))
	requireOK(t, rpc(t, r, `<commit/>`))
	requireOK(t, editCandidate(t, r, `<vlans><vlan><name>VLAN20</name><vlan-id>20</vlan-id></vlan></vlans>`))

	reply := rpc(t, r, `<get-configuration compare="rollback" rollback="0" format="text"/>`)
	out := reply.FindElement("//configuration-information/configuration-output")
	require.NotNil(t, out)
	assert.Contains(t, out.Text(), "+    VLAN20 {")
	assert.NotContains(t, out.Text(), "+    VLAN10 {")

	reply = rpc(t, r, `<get-configuration compare="rollback" rollback="1" format="text"/>`)
	out = reply.FindElement("//configuration-output")
	require.NotNil(t, out)
	assert.Contains(t, out.Text(), "+    VLAN10 {")

	reply = rpc(t, r, `<get-configuration compare="rollback" rollback="9"/>`)
	assert.Equal(t, "Requested rollback 9 does not exist", errorMessage(reply))
}

func TestGetConfiguration_NoChanges(t *testing.T) {
	r := newSwitch(Generic).NetconfResponder("1")
	reply := rpc(t, r, `<get-configuration compare="rollback" rollback="0"/>`)
	out := reply.FindElement("//configuration-output")
	require.NotNil(t, out)
	assert.Empty(t, strings.TrimSpace(out.Text()))
}

// ===== Startup Config Tests =====

func TestApplyConfig_RoundTrip(t *testing.T) {
	c := newSwitch(QFXCopperGeneric)
	r := c.NetconfResponder("1")
	requireOK(t, editCandidate(t, r, `
		<vlans>
			<vlan><name>VLAN10</name><vlan-id>10</vlan-id><l3-interface>irb.10</l3-interface></vlan>
			<vlan><name>VLAN20</name><vlan-id>20</vlan-id></vlan>
		</vlans>
		<interfaces>
			<interface><name>ae1</name><aggregated-ether-options><lacp><active/><periodic>fast</periodic></lacp></aggregated-ether-options></interface>
			<interface><name>ge-0/0/1</name><description>uplink</description><mtu>9000</mtu>
				<ether-options><ieee-802.3ad><bundle>ae1</bundle></ieee-802.3ad></ether-options></interface>
			<interface><name>ge-0/0/2</name><unit><name>0</name><family><ethernet-switching>
				<interface-mode>trunk</interface-mode><vlan><members>VLAN10</members><members>VLAN20</members></vlan>
				<native-vlan-id>10</native-vlan-id>
			</ethernet-switching></family></unit></interface>
			<interface><name>irb</name><unit><name>10</name><family><inet><address><name>192.168.10.1/24</name></address></inet></family></unit></interface>
		</interfaces>
		<protocols>
			<rstp><interface><name>ge-0/0/2</name><edge/></interface></rstp>
			<lldp><interface><name>ge-0/0/1</name><disable/></interface></lldp>
		</protocols>`))
	requireOK(t, rpc(t, r, `<commit/>`))
	saved := c.RenderStartupConfig()

	restored := newSwitch(QFXCopperGeneric)
	require.NoError(t, restored.ApplyConfig(context.Background(), saved))
	assert.Equal(t, string(saved), string(restored.RenderStartupConfig()))

	port := restored.Conf.GetPort("ge-0/0/2")
	assert.Equal(t, model.VlanList{10, 20}, port.TrunkVlans)
	assert.Equal(t, 10, port.TrunkNativeVlan)
	assert.Equal(t, "ae1", restored.Conf.GetPort("ge-0/0/1").AggregationMembership)
	assert.False(t, restored.Datastore.IsDirty())
}

func TestApplyConfig_Invalid(t *testing.T) {
	c := newSwitch(Generic)
	assert.Error(t, c.ApplyConfig(context.Background(), []byte(`<vlans/>`)))
	assert.Error(t, c.ApplyConfig(context.Background(), []byte(`not xml`)))
}

// ===== ConfigText Tests =====

func TestConfigText(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<configuration>
		<interfaces><interface><name>ge-0/0/1</name><disable/>
			<unit><name>0</name><family><ethernet-switching><port-mode>access</port-mode></ethernet-switching></family></unit>
		</interface></interfaces>
		<protocols><rstp><interface><name>ge-0/0/1</name><edge/></interface></rstp></protocols>
	</configuration>`))

	want := `interfaces {
    ge-0/0/1 {
        disable;
        unit 0 {
            family {
                ethernet-switching {
                    port-mode access;
                }
            }
        }
    }
}
protocols {
    rstp {
        interface ge-0/0/1 {
            edge;
        }
    }
}
`
	assert.Equal(t, want, ConfigText(doc.Root()))
}
