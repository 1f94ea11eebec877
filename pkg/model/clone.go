package model

// Clone returns a deep copy sharing nothing mutable with c. Commit
// listeners are not copied.
func (c *SwitchConfiguration) Clone() *SwitchConfiguration {
	out := &SwitchConfiguration{
		Name:                c.Name,
		AutoEnabled:         c.AutoEnabled,
		PrivilegedPasswords: cloneStrings(c.PrivilegedPasswords),
		CommitDelay:         c.CommitDelay,
		MaxVlan:             c.MaxVlan,
		factory:             c.factory,
	}
	for _, v := range c.Vlans {
		out.Vlans = append(out.Vlans, v.clone())
	}
	for _, p := range c.Ports {
		out.Ports = append(out.Ports, p.clone())
	}
	for _, r := range c.Routes {
		out.Routes = append(out.Routes, r.clone())
	}
	for _, v := range c.VRFs {
		out.VRFs = append(out.VRFs, v.clone())
	}
	return out
}

// Reconcile makes c equal to candidate while keeping the identity of every
// entity that survives, so pointers held by open sessions stay valid.
// Entities only in candidate are added as copies, entities only in c are
// removed, and survivors have their fields overwritten.
func (c *SwitchConfiguration) Reconcile(candidate *SwitchConfiguration) {
	c.Name = candidate.Name

	vlans := make([]*Vlan, 0, len(candidate.Vlans))
	for _, cv := range candidate.Vlans {
		if existing := c.GetVlan(cv.Number); existing != nil {
			*existing = *cv.clone()
			vlans = append(vlans, existing)
		} else {
			vlans = append(vlans, cv.clone())
		}
	}
	c.Vlans = vlans

	ports := make([]*Port, 0, len(candidate.Ports))
	for _, cp := range candidate.Ports {
		if existing := c.GetPort(cp.Name); existing != nil {
			*existing = *cp.clone()
			ports = append(ports, existing)
		} else {
			ports = append(ports, cp.clone())
		}
	}
	c.Ports = ports

	vrfs := make([]*VRF, 0, len(candidate.VRFs))
	for _, cv := range candidate.VRFs {
		if existing := c.GetVRF(cv.Name); existing != nil {
			*existing = *cv.clone()
			vrfs = append(vrfs, existing)
		} else {
			vrfs = append(vrfs, cv.clone())
		}
	}
	c.VRFs = vrfs

	c.Routes = nil
	for _, r := range candidate.Routes {
		c.Routes = append(c.Routes, r.clone())
	}
}
