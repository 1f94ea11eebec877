package model

// VendorKey names one vendor-specific attribute. The set of keys is closed:
// the zero value is never used and new keys can only be declared here.
type VendorKey struct {
	name string
}

func (k VendorKey) String() string { return k.name }

// Known vendor-specific attribute keys.
var (
	HasEthernetSwitching = VendorKey{"has-ethernet-switching"}
	RSTPEdge             = VendorKey{"rstp-edge"}
	RSTPNoRootPort       = VendorKey{"rstp-no-root-port"}
	LLDP                 = VendorKey{"lldp"}
	NoIPRedirects        = VendorKey{"no ip redirects"}
	HasInternetProtocol  = VendorKey{"has-internet-protocol"}
)

// VendorKeys lists every known key in a stable order.
var VendorKeys = []VendorKey{
	HasEthernetSwitching,
	RSTPEdge,
	RSTPNoRootPort,
	LLDP,
	NoIPRedirects,
	HasInternetProtocol,
}

// VendorSpecific is the per-entity extension bag. A missing key is false.
type VendorSpecific map[VendorKey]bool

// Get returns the value stored for k.
func (v VendorSpecific) Get(k VendorKey) bool {
	return v[k]
}

// Has reports whether k was set at all, true or false.
func (v VendorSpecific) Has(k VendorKey) bool {
	_, ok := v[k]
	return ok
}

func (v VendorSpecific) clone() VendorSpecific {
	if v == nil {
		return nil
	}
	out := make(VendorSpecific, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
