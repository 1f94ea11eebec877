package model

import "net/netip"

// Factory is the constructor table of a switch configuration. Vendors
// override individual entries to inject their defaults; CLI and NETCONF code
// always build entities through SwitchConfiguration.New* which dispatches here.
type Factory struct {
	NewVlan           func(number int, name string) *Vlan
	NewPort           func(name string) *Port
	NewVlanPort       func(vlanID int, name string) *Port
	NewAggregatedPort func(name string) *Port
	NewVRF            func(name string) *VRF
	NewRoute          func(destination netip.Prefix, nextHop netip.Addr) *Route
	NewVRRP           func(groupID string) *VRRP
}

// DefaultFactory returns the generic constructors.
func DefaultFactory() Factory {
	return Factory{
		NewVlan: func(number int, name string) *Vlan {
			return &Vlan{Number: number, Name: name}
		},
		NewPort: func(name string) *Port {
			return &Port{Name: name, Kind: PhysicalPort}
		},
		NewVlanPort: func(vlanID int, name string) *Port {
			return &Port{Name: name, Kind: VlanInterface, Vlan: &VlanPortAttrs{VlanID: vlanID}}
		},
		NewAggregatedPort: func(name string) *Port {
			return &Port{Name: name, Kind: AggregatedInterface, Aggregate: &AggregatedAttrs{}}
		},
		NewVRF: func(name string) *VRF {
			return &VRF{Name: name}
		},
		NewRoute: func(destination netip.Prefix, nextHop netip.Addr) *Route {
			return &Route{Destination: destination.Masked(), NextHop: nextHop}
		},
		NewVRRP: func(groupID string) *VRRP {
			return &VRRP{GroupID: groupID}
		},
	}
}

// withDefaults fills every nil constructor from DefaultFactory.
func (f Factory) withDefaults() Factory {
	d := DefaultFactory()
	if f.NewVlan == nil {
		f.NewVlan = d.NewVlan
	}
	if f.NewPort == nil {
		f.NewPort = d.NewPort
	}
	if f.NewVlanPort == nil {
		f.NewVlanPort = d.NewVlanPort
	}
	if f.NewAggregatedPort == nil {
		f.NewAggregatedPort = d.NewAggregatedPort
	}
	if f.NewVRF == nil {
		f.NewVRF = d.NewVRF
	}
	if f.NewRoute == nil {
		f.NewRoute = d.NewRoute
	}
	if f.NewVRRP == nil {
		f.NewVRRP = d.NewVRRP
	}
	return f
}
