// Package model holds the in-memory configuration of one emulated switch.
package model

import "sort"

// Vlan represents a VLAN of the switch configuration
type Vlan struct {
	Number      int    `json:"number"` // 1..MaxVlan
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	VendorSpecific VendorSpecific `json:"-"`
}

// Set stores a vendor-specific flag on the VLAN.
func (v *Vlan) Set(k VendorKey, value bool) {
	if v.VendorSpecific == nil {
		v.VendorSpecific = VendorSpecific{}
	}
	v.VendorSpecific[k] = value
}

func (v *Vlan) clone() *Vlan {
	c := *v
	c.VendorSpecific = v.VendorSpecific.clone()
	return &c
}

// VlanList is an ordered set of VLAN numbers used for trunk membership.
// A nil list means "all VLANs"; an empty non-nil list means "none".
type VlanList []int

// AllVlans reports whether the list is the implicit "all" list.
func (l VlanList) AllVlans() bool { return l == nil }

// Contains reports whether n is carried by the list.
func (l VlanList) Contains(n int) bool {
	if l == nil {
		return true
	}
	for _, v := range l {
		if v == n {
			return true
		}
	}
	return false
}

// Add returns the list with numbers merged in, sorted and deduplicated.
func (l VlanList) Add(numbers ...int) VlanList {
	if l == nil {
		return nil
	}
	out := append(VlanList{}, l...)
	for _, n := range numbers {
		if !out.Contains(n) {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Remove returns the list without numbers. Removing from "all" is not
// representable, so the caller expands first.
func (l VlanList) Remove(numbers ...int) VlanList {
	out := VlanList{}
	for _, v := range l {
		keep := true
		for _, n := range numbers {
			if v == n {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, v)
		}
	}
	return out
}

// Except returns every VLAN in 1..max that is not in numbers.
func Except(max int, numbers ...int) VlanList {
	out := VlanList{}
	for v := 1; v <= max; v++ {
		excluded := false
		for _, n := range numbers {
			if v == n {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, v)
		}
	}
	return out
}

func (l VlanList) clone() VlanList {
	if l == nil {
		return nil
	}
	return append(VlanList{}, l...)
}
