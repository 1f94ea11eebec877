package model

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// DefaultMaxVlan is the highest VLAN number when a vendor sets no cap.
const DefaultMaxVlan = 4094

// CommitListener is notified after every commit of a configuration.
type CommitListener func(conf *SwitchConfiguration)

// SwitchConfiguration is the complete configuration of one emulated switch.
// Every session of the switch shares one instance; callers serialize access
// with Lock/Unlock around each command.
type SwitchConfiguration struct {
	mu sync.Mutex

	Name                string
	AutoEnabled         bool
	PrivilegedPasswords []string
	CommitDelay         time.Duration
	Locked              bool
	MaxVlan             int

	Vlans  []*Vlan // sorted by number
	Ports  []*Port // creation order
	Routes []*Route
	VRFs   []*VRF

	factory   Factory
	listeners []CommitListener
}

// New creates a configuration holding VLAN 1.
func New(name string, factory Factory) *SwitchConfiguration {
	c := &SwitchConfiguration{
		Name:    name,
		MaxVlan: DefaultMaxVlan,
		factory: factory.withDefaults(),
	}
	c.Vlans = []*Vlan{c.NewVlan(1, "")}
	return c
}

// Lock acquires the configuration lock.
func (c *SwitchConfiguration) Lock() { c.mu.Lock() }

// Unlock releases the configuration lock.
func (c *SwitchConfiguration) Unlock() { c.mu.Unlock() }

// Unlocked runs fn with the configuration lock released and takes it back
// before returning. The caller must hold the lock.
func (c *SwitchConfiguration) Unlocked(fn func()) {
	c.mu.Unlock()
	defer c.mu.Lock()
	fn()
}

// NewVlan builds a VLAN through the factory without adding it.
func (c *SwitchConfiguration) NewVlan(number int, name string) *Vlan {
	return c.factory.NewVlan(number, name)
}

// NewPort builds a physical port through the factory without adding it.
func (c *SwitchConfiguration) NewPort(name string) *Port {
	return c.factory.NewPort(name)
}

// NewVlanPort builds a VLAN interface through the factory without adding it.
func (c *SwitchConfiguration) NewVlanPort(vlanID int, name string) *Port {
	return c.factory.NewVlanPort(vlanID, name)
}

// NewAggregatedPort builds an aggregated interface through the factory.
func (c *SwitchConfiguration) NewAggregatedPort(name string) *Port {
	return c.factory.NewAggregatedPort(name)
}

// NewVRF builds a VRF through the factory without adding it.
func (c *SwitchConfiguration) NewVRF(name string) *VRF {
	return c.factory.NewVRF(name)
}

// NewRoute builds a static route through the factory without adding it.
func (c *SwitchConfiguration) NewRoute(destination netip.Prefix, nextHop netip.Addr) *Route {
	return c.factory.NewRoute(destination, nextHop)
}

// NewVRRP builds a VRRP group through the factory.
func (c *SwitchConfiguration) NewVRRP(groupID string) *VRRP {
	return c.factory.NewVRRP(groupID)
}

// ===== VLANs =====

// AddVlan inserts v keeping VLANs ordered by number.
func (c *SwitchConfiguration) AddVlan(v *Vlan) error {
	if c.GetVlan(v.Number) != nil {
		return fmt.Errorf("%w: vlan %d", util.ErrAlreadyExists, v.Number)
	}
	idx := sort.Search(len(c.Vlans), func(i int) bool { return c.Vlans[i].Number > v.Number })
	c.Vlans = append(c.Vlans, nil)
	copy(c.Vlans[idx+1:], c.Vlans[idx:])
	c.Vlans[idx] = v
	return nil
}

// RemoveVlan deletes v and detaches every port reference to it.
func (c *SwitchConfiguration) RemoveVlan(v *Vlan) {
	for i, existing := range c.Vlans {
		if existing.Number == v.Number {
			c.Vlans = append(c.Vlans[:i], c.Vlans[i+1:]...)
			break
		}
	}
	for _, p := range c.Ports {
		p.detachVlan(v.Number)
	}
}

// GetVlan returns the VLAN with the given number, or nil.
func (c *SwitchConfiguration) GetVlan(number int) *Vlan {
	for _, v := range c.Vlans {
		if v.Number == number {
			return v
		}
	}
	return nil
}

// GetVlanByName returns the first VLAN with the given name, or nil.
func (c *SwitchConfiguration) GetVlanByName(name string) *Vlan {
	for _, v := range c.Vlans {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// ===== Ports =====

// AddPort appends p.
func (c *SwitchConfiguration) AddPort(p *Port) error {
	if c.GetPort(p.Name) != nil {
		return fmt.Errorf("%w: port %s", util.ErrAlreadyExists, p.Name)
	}
	c.Ports = append(c.Ports, p)
	return nil
}

// RemovePort deletes p. Removing an aggregated port releases its members.
func (c *SwitchConfiguration) RemovePort(p *Port) {
	for i, existing := range c.Ports {
		if existing.Name == p.Name {
			c.Ports = append(c.Ports[:i], c.Ports[i+1:]...)
			break
		}
	}
	if p.IsAggregated() {
		for _, member := range c.Ports {
			if member.AggregationMembership == p.Name {
				member.AggregationMembership = ""
			}
		}
	}
}

// GetPort returns the port with exactly this name, or nil.
func (c *SwitchConfiguration) GetPort(name string) *Port {
	for _, p := range c.Ports {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// GetPortByPartialName resolves abbreviated interface names such as
// "Gi0/1", "ethe1/3" or "Te0/0/1". The candidate is split at its first
// digit; the alphabetic part must prefix the port's alphabetic part
// (case-insensitive) and the numeric part must end the port's numeric part.
// An exact numeric match wins over a suffix match.
func (c *SwitchConfiguration) GetPortByPartialName(name string) *Port {
	wantPrefix, wantNumber := util.SplitPortName(strings.TrimSpace(name))
	if wantNumber == "" {
		return nil
	}
	var suffixMatch *Port
	for _, p := range c.Ports {
		prefix, number := util.SplitPortName(p.Name)
		if !strings.HasPrefix(prefix, wantPrefix) {
			continue
		}
		if number == wantNumber {
			return p
		}
		if suffixMatch == nil && strings.HasSuffix(number, wantNumber) {
			suffixMatch = p
		}
	}
	return suffixMatch
}

// GetPortAndIPByIP returns the VLAN interface whose network contains addr,
// with the matching interface address.
func (c *SwitchConfiguration) GetPortAndIPByIP(addr netip.Addr) (*Port, netip.Prefix, bool) {
	for _, p := range c.GetVlanPorts() {
		for _, ip := range p.Vlan.IPs {
			if ip.Masked().Contains(addr) {
				return p, ip, true
			}
		}
	}
	return nil, netip.Prefix{}, false
}

// FindOverlappingIP returns the first interface address that overlaps
// network, ignoring the port named except.
func (c *SwitchConfiguration) FindOverlappingIP(network netip.Prefix, except string) (*Port, netip.Prefix, bool) {
	for _, p := range c.GetVlanPorts() {
		if p.Name == except {
			continue
		}
		for _, ip := range p.Vlan.IPs {
			if util.PrefixesOverlap(ip, network) {
				return p, ip, true
			}
		}
	}
	return nil, netip.Prefix{}, false
}

// GetPhysicalPorts returns the front-panel ports in creation order.
func (c *SwitchConfiguration) GetPhysicalPorts() []*Port {
	return c.portsOfKind(PhysicalPort)
}

// GetVlanPorts returns the VLAN interfaces in creation order.
func (c *SwitchConfiguration) GetVlanPorts() []*Port {
	return c.portsOfKind(VlanInterface)
}

// GetAggregatedPorts returns the aggregated interfaces in creation order.
func (c *SwitchConfiguration) GetAggregatedPorts() []*Port {
	return c.portsOfKind(AggregatedInterface)
}

// GetVlanPort returns the VLAN interface bound to VLAN vlanID, or nil.
func (c *SwitchConfiguration) GetVlanPort(vlanID int) *Port {
	for _, p := range c.GetVlanPorts() {
		if p.Vlan.VlanID == vlanID {
			return p
		}
	}
	return nil
}

func (c *SwitchConfiguration) portsOfKind(kind PortKind) []*Port {
	var out []*Port
	for _, p := range c.Ports {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// ===== VRFs =====

// AddVRF appends v.
func (c *SwitchConfiguration) AddVRF(v *VRF) error {
	if c.GetVRF(v.Name) != nil {
		return fmt.Errorf("%w: vrf %s", util.ErrAlreadyExists, v.Name)
	}
	c.VRFs = append(c.VRFs, v)
	return nil
}

// RemoveVRF deletes v and clears the weak references held by ports.
func (c *SwitchConfiguration) RemoveVRF(v *VRF) {
	for i, existing := range c.VRFs {
		if existing.Name == v.Name {
			c.VRFs = append(c.VRFs[:i], c.VRFs[i+1:]...)
			break
		}
	}
	for _, p := range c.Ports {
		if p.VRF == v.Name {
			p.VRF = ""
		}
	}
}

// GetVRF returns the VRF with the given name, or nil.
func (c *SwitchConfiguration) GetVRF(name string) *VRF {
	for _, v := range c.VRFs {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// ===== Static routes =====

// AddStaticRoute appends r.
func (c *SwitchConfiguration) AddStaticRoute(r *Route) error {
	if c.GetStaticRoute(r.Destination, r.NextHop) != nil {
		return fmt.Errorf("%w: route %s via %s", util.ErrAlreadyExists, r.Destination, r.NextHop)
	}
	c.Routes = append(c.Routes, r)
	return nil
}

// RemoveStaticRoute deletes the route to destination via nextHop.
func (c *SwitchConfiguration) RemoveStaticRoute(destination netip.Prefix, nextHop netip.Addr) error {
	for i, r := range c.Routes {
		if r.Destination == destination.Masked() && r.NextHop == nextHop {
			c.Routes = append(c.Routes[:i], c.Routes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: route %s via %s", util.ErrNotFound, destination, nextHop)
}

// GetStaticRoute returns the route to destination via nextHop, or nil.
func (c *SwitchConfiguration) GetStaticRoute(destination netip.Prefix, nextHop netip.Addr) *Route {
	for _, r := range c.Routes {
		if r.Destination == destination.Masked() && r.NextHop == nextHop {
			return r
		}
	}
	return nil
}

// ===== Commit =====

// OnCommit registers a listener run after every Commit.
func (c *SwitchConfiguration) OnCommit(l CommitListener) {
	c.listeners = append(c.listeners, l)
}

// Commit waits CommitDelay, then notifies listeners. The caller holds the
// configuration lock, so other sessions block for the whole delay.
func (c *SwitchConfiguration) Commit() {
	if c.CommitDelay > 0 {
		time.Sleep(c.CommitDelay)
	}
	for _, l := range c.listeners {
		l(c)
	}
}

// Validate checks that every reference held by a port resolves.
func (c *SwitchConfiguration) Validate() error {
	var v util.ValidationBuilder
	for _, p := range c.Ports {
		if p.AccessVlan != 0 && c.GetVlan(p.AccessVlan) == nil {
			v.AddErrorf("%s: access vlan %d does not exist", p.Name, p.AccessVlan)
		}
		if p.TrunkNativeVlan != 0 && c.GetVlan(p.TrunkNativeVlan) == nil {
			v.AddErrorf("%s: native vlan %d does not exist", p.Name, p.TrunkNativeVlan)
		}
		for _, n := range p.TrunkVlans {
			if c.GetVlan(n) == nil {
				v.AddErrorf("%s: trunk vlan %d does not exist", p.Name, n)
			}
		}
		if p.AggregationMembership != "" {
			if agg := c.GetPort(p.AggregationMembership); agg == nil || !agg.IsAggregated() {
				v.AddErrorf("%s: aggregated port %s does not exist", p.Name, p.AggregationMembership)
			}
		}
	}
	return v.Build()
}
