package model

import "net/netip"

// VRF represents a routing-table namespace
type VRF struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	RD           string   `json:"rd,omitempty"`
	RouteTargets []string `json:"route_targets,omitempty"` // "export 65000:1", "import 65000:1"
}

func (v *VRF) clone() *VRF {
	c := *v
	c.RouteTargets = cloneStrings(v.RouteTargets)
	return &c
}

// Route is a static route
type Route struct {
	Destination netip.Prefix `json:"destination"` // masked network
	NextHop     netip.Addr   `json:"next_hop"`
}

func (r *Route) clone() *Route {
	c := *r
	return &c
}
