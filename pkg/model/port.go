package model

import (
	"fmt"
	"net/netip"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// PortKind tags the variant carried by a Port.
type PortKind int

const (
	PhysicalPort PortKind = iota
	VlanInterface
	AggregatedInterface
)

func (k PortKind) String() string {
	switch k {
	case VlanInterface:
		return "vlan"
	case AggregatedInterface:
		return "aggregated"
	default:
		return "physical"
	}
}

// Switchport modes
const (
	ModeAccess  = "access"
	ModeTrunk   = "trunk"
	ModeGeneral = "general"
	ModeDynamic = "dynamic"
)

// Port represents any interface of the switch. Fields shared by every kind
// live here; VLAN interfaces carry Vlan and aggregated interfaces carry
// Aggregate.
type Port struct {
	Name        string   `json:"name"` // vendor formatted, e.g. "GigabitEthernet0/1", "ethernet 1/3", "ae1"
	Kind        PortKind `json:"kind"`
	Description string   `json:"description,omitempty"`

	// L2
	Mode                   string   `json:"mode,omitempty"`
	AccessVlan             int      `json:"access_vlan,omitempty"`
	TrunkNativeVlan        int      `json:"trunk_native_vlan,omitempty"`
	TrunkVlans             VlanList `json:"trunk_vlans"` // nil means all
	TrunkEncapsulationMode string   `json:"trunk_encapsulation_mode,omitempty"`

	Shutdown        *bool  `json:"shutdown,omitempty"`
	Speed           string `json:"speed,omitempty"`
	AutoNegotiation *bool  `json:"auto_negotiation,omitempty"`
	MTU             int    `json:"mtu,omitempty"`

	// Name of the AggregatedInterface this port is a member of
	AggregationMembership string `json:"aggregation_membership,omitempty"`

	VRF       string   `json:"vrf,omitempty"` // weak reference by name
	IPHelpers []string `json:"ip_helpers,omitempty"`

	LLDPTransmit                 *bool `json:"lldp_transmit,omitempty"`
	LLDPReceive                  *bool `json:"lldp_receive,omitempty"`
	LLDPMedTransmitCapabilities  *bool `json:"lldp_med_transmit_capabilities,omitempty"`
	LLDPMedTransmitNetworkPolicy *bool `json:"lldp_med_transmit_network_policy,omitempty"`

	SpanningTreePortfast *bool `json:"spanning_tree_portfast,omitempty"`
	SpanningTreeDisabled bool  `json:"spanning_tree_disabled,omitempty"`

	VendorSpecific VendorSpecific `json:"-"`

	Vlan      *VlanPortAttrs   `json:"vlan_port,omitempty"`
	Aggregate *AggregatedAttrs `json:"aggregated_port,omitempty"`
}

// VlanPortAttrs are the routed-interface attributes of an SVI / VE / irb unit.
type VlanPortAttrs struct {
	VlanID int `json:"vlan_id"`

	// IPs holds the primary address first, then secondaries in order.
	IPs            []netip.Prefix `json:"ips,omitempty"`
	AccessGroupIn  string         `json:"access_group_in,omitempty"`
	AccessGroupOut string         `json:"access_group_out,omitempty"`

	VRRPCommonAuthentication string       `json:"vrrp_common_authentication,omitempty"`
	VRRPs                    []*VRRP      `json:"vrrps,omitempty"`
	VarpAddresses            []netip.Addr `json:"varp_addresses,omitempty"`

	IPRedirect   *bool  `json:"ip_redirect,omitempty"`
	IPProxyARP   *bool  `json:"ip_proxy_arp,omitempty"`
	LoadInterval string `json:"load_interval,omitempty"`
	MPLSIP       *bool  `json:"mpls_ip,omitempty"`
}

// AggregatedAttrs are the bond / port-channel / ae attributes.
type AggregatedAttrs struct {
	LACPActive   bool   `json:"lacp_active,omitempty"`
	LACPPeriodic string `json:"lacp_periodic,omitempty"`
}

// Bool returns a pointer to v, for tri-state fields.
func Bool(v bool) *bool { return &v }

// IsTrue reports whether a tri-state field is explicitly true.
func IsTrue(b *bool) bool { return b != nil && *b }

// IsFalse reports whether a tri-state field is explicitly false.
func IsFalse(b *bool) bool { return b != nil && !*b }

// IsVlanPort returns true for routed VLAN interfaces
func (p *Port) IsVlanPort() bool { return p.Kind == VlanInterface }

// IsAggregated returns true for bond / port-channel interfaces
func (p *Port) IsAggregated() bool { return p.Kind == AggregatedInterface }

// IsPhysical returns true for front-panel ports
func (p *Port) IsPhysical() bool { return p.Kind == PhysicalPort }

// IsShutdown reports the effective admin state given the vendor default.
func (p *Port) IsShutdown(defaultShutdown bool) bool {
	if p.Shutdown == nil {
		return defaultShutdown
	}
	return *p.Shutdown
}

// Set stores a vendor-specific flag on the port.
func (p *Port) Set(k VendorKey, value bool) {
	if p.VendorSpecific == nil {
		p.VendorSpecific = VendorSpecific{}
	}
	p.VendorSpecific[k] = value
}

// SetMode changes the switchport mode. Moving to access clears every
// trunk-related field.
func (p *Port) SetMode(mode string) {
	p.Mode = mode
	if mode == ModeAccess {
		p.TrunkNativeVlan = 0
		p.TrunkVlans = nil
		p.TrunkEncapsulationMode = ""
	}
}

// Reset returns the port to its factory state, keeping identity and variant.
func (p *Port) Reset() {
	fresh := Port{Name: p.Name, Kind: p.Kind}
	if p.Vlan != nil {
		fresh.Vlan = &VlanPortAttrs{VlanID: p.Vlan.VlanID}
	}
	if p.Aggregate != nil {
		fresh.Aggregate = &AggregatedAttrs{}
	}
	*p = fresh
}

// ReferencesVlan reports whether the port uses VLAN n as access, native or
// explicit trunk member.
func (p *Port) ReferencesVlan(n int) bool {
	if p.AccessVlan == n || p.TrunkNativeVlan == n {
		return true
	}
	return p.TrunkVlans != nil && p.TrunkVlans.Contains(n)
}

// detachVlan clears every reference to VLAN n.
func (p *Port) detachVlan(n int) {
	if p.AccessVlan == n {
		p.AccessVlan = 0
	}
	if p.TrunkNativeVlan == n {
		p.TrunkNativeVlan = 0
	}
	if p.TrunkVlans != nil && p.TrunkVlans.Contains(n) {
		p.TrunkVlans = p.TrunkVlans.Remove(n)
	}
}

// PrimaryIP returns the primary address of a VLAN interface.
func (p *Port) PrimaryIP() (netip.Prefix, bool) {
	if p.Vlan == nil || len(p.Vlan.IPs) == 0 {
		return netip.Prefix{}, false
	}
	return p.Vlan.IPs[0], true
}

// SecondaryIPs returns the secondary addresses of a VLAN interface.
func (p *Port) SecondaryIPs() []netip.Prefix {
	if p.Vlan == nil || len(p.Vlan.IPs) < 2 {
		return nil
	}
	return p.Vlan.IPs[1:]
}

// SetPrimaryIP replaces the primary address, or adds it when there is none.
func (p *Port) SetPrimaryIP(ip netip.Prefix) {
	if len(p.Vlan.IPs) == 0 {
		p.Vlan.IPs = []netip.Prefix{ip}
		return
	}
	p.Vlan.IPs[0] = ip
}

// AddSecondaryIP appends a secondary address. A primary must exist.
func (p *Port) AddSecondaryIP(ip netip.Prefix) error {
	if len(p.Vlan.IPs) == 0 {
		return util.NewPreconditionError("add secondary", ip.String(), "a primary address must exist", "")
	}
	p.Vlan.IPs = append(p.Vlan.IPs, ip)
	return nil
}

// HasIP reports whether ip (address and length) is assigned to the port.
func (p *Port) HasIP(ip netip.Prefix) bool {
	return p.indexOfIP(ip) >= 0
}

// RemoveIP removes one address. The primary can only go once every
// secondary is gone.
func (p *Port) RemoveIP(ip netip.Prefix) error {
	idx := p.indexOfIP(ip)
	if idx < 0 {
		return fmt.Errorf("%w: %s on %s", util.ErrNotFound, ip, p.Name)
	}
	if idx == 0 && len(p.Vlan.IPs) > 1 {
		return util.NewInUseError(ip.String(), "secondary addresses")
	}
	p.Vlan.IPs = append(p.Vlan.IPs[:idx], p.Vlan.IPs[idx+1:]...)
	return nil
}

// ClearIPs removes every address from a VLAN interface.
func (p *Port) ClearIPs() {
	if p.Vlan != nil {
		p.Vlan.IPs = nil
	}
}

func (p *Port) indexOfIP(ip netip.Prefix) int {
	if p.Vlan == nil {
		return -1
	}
	for i, existing := range p.Vlan.IPs {
		if existing == ip {
			return i
		}
	}
	return -1
}

// GetVRRP returns the VRRP group with the given id.
func (p *Port) GetVRRP(groupID string) *VRRP {
	if p.Vlan == nil {
		return nil
	}
	for _, v := range p.Vlan.VRRPs {
		if v.GroupID == groupID {
			return v
		}
	}
	return nil
}

// RemoveVRRP drops a VRRP group by id.
func (p *Port) RemoveVRRP(groupID string) {
	if p.Vlan == nil {
		return
	}
	for i, v := range p.Vlan.VRRPs {
		if v.GroupID == groupID {
			p.Vlan.VRRPs = append(p.Vlan.VRRPs[:i], p.Vlan.VRRPs[i+1:]...)
			return
		}
	}
}

func (p *Port) clone() *Port {
	c := *p
	c.TrunkVlans = p.TrunkVlans.clone()
	c.Shutdown = cloneBool(p.Shutdown)
	c.AutoNegotiation = cloneBool(p.AutoNegotiation)
	c.IPHelpers = cloneStrings(p.IPHelpers)
	c.LLDPTransmit = cloneBool(p.LLDPTransmit)
	c.LLDPReceive = cloneBool(p.LLDPReceive)
	c.LLDPMedTransmitCapabilities = cloneBool(p.LLDPMedTransmitCapabilities)
	c.LLDPMedTransmitNetworkPolicy = cloneBool(p.LLDPMedTransmitNetworkPolicy)
	c.SpanningTreePortfast = cloneBool(p.SpanningTreePortfast)
	c.VendorSpecific = p.VendorSpecific.clone()
	if p.Vlan != nil {
		v := *p.Vlan
		v.IPs = append([]netip.Prefix(nil), p.Vlan.IPs...)
		v.VarpAddresses = append([]netip.Addr(nil), p.Vlan.VarpAddresses...)
		v.IPRedirect = cloneBool(p.Vlan.IPRedirect)
		v.IPProxyARP = cloneBool(p.Vlan.IPProxyARP)
		v.MPLSIP = cloneBool(p.Vlan.MPLSIP)
		v.VRRPs = nil
		for _, vrrp := range p.Vlan.VRRPs {
			v.VRRPs = append(v.VRRPs, vrrp.clone())
		}
		c.Vlan = &v
	}
	if p.Aggregate != nil {
		a := *p.Aggregate
		c.Aggregate = &a
	}
	return &c
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
