package util

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ExpandRange turns a list such as "10,20-22" into its sorted members
// without duplicates. Blanks around numbers and empty items are ignored.
func ExpandRange(list string) ([]int, error) {
	var out []int
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(item, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("bad range item %q", item)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("bad range item %q", item)
			}
			if last < first {
				return nil, fmt.Errorf("range %q runs backwards", item)
			}
		}
		for n := first; n <= last; n++ {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// CompactRange is the inverse of ExpandRange: [22 10 20 21] gives
// "10,20-22".
func CompactRange(values []int) string {
	sorted := slices.Compact(slices.Sorted(slices.Values(values)))
	var b strings.Builder
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(sorted[i]))
		if j > i {
			fmt.Fprintf(&b, "-%d", sorted[j])
		}
		i = j + 1
	}
	return b.String()
}

// ValidateVLANID checks a VLAN number against [1, max].
func ValidateVLANID(id, max int) error {
	if id < 1 || id > max {
		return fmt.Errorf("%w: vlan %d not in 1-%d", ErrOutOfRange, id, max)
	}
	return nil
}

// ExpandVLANRange is ExpandRange with every member checked by
// ValidateVLANID.
func ExpandVLANRange(list string, max int) ([]int, error) {
	vlans, err := ExpandRange(list)
	if err != nil {
		return nil, err
	}
	for _, n := range vlans {
		if err := ValidateVLANID(n, max); err != nil {
			return nil, err
		}
	}
	return vlans, nil
}

// ParseInt accepts only unsigned decimal tokens.
func ParseInt(s string) (int, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
