package model

import "net/netip"

// VRRP is a first-hop redundancy group attached to a VLAN interface
type VRRP struct {
	GroupID     string       `json:"group_id"`
	IPAddresses []netip.Addr `json:"ip_addresses,omitempty"`

	Priority            int    `json:"priority,omitempty"` // 0 means vendor default
	Authentication      string `json:"authentication,omitempty"`
	TimersHello         int    `json:"timers_hello,omitempty"`
	TimersHold          int    `json:"timers_hold,omitempty"`
	Preempt             *bool  `json:"preempt,omitempty"`
	PreemptDelayMinimum int    `json:"preempt_delay_minimum,omitempty"`

	// Track maps a tracked object to the priority decrement
	Track map[string]string `json:"track,omitempty"`

	Advertising bool `json:"advertising,omitempty"`
	Activated   bool `json:"activated,omitempty"`
}

// HasIP reports whether addr is one of the virtual addresses.
func (v *VRRP) HasIP(addr netip.Addr) bool {
	for _, ip := range v.IPAddresses {
		if ip == addr {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing but the group id is configured.
func (v *VRRP) IsEmpty() bool {
	return len(v.IPAddresses) == 0 && v.Priority == 0 && v.Authentication == "" &&
		v.TimersHello == 0 && v.TimersHold == 0 && v.Preempt == nil &&
		v.PreemptDelayMinimum == 0 && len(v.Track) == 0 && !v.Advertising && !v.Activated
}

func (v *VRRP) clone() *VRRP {
	c := *v
	c.IPAddresses = append([]netip.Addr(nil), v.IPAddresses...)
	c.Preempt = cloneBool(v.Preempt)
	if v.Track != nil {
		c.Track = make(map[string]string, len(v.Track))
		for k, val := range v.Track {
			c.Track[k] = val
		}
	}
	return &c
}
