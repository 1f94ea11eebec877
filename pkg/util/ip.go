package util

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParseIPWithMask parses an address in CIDR notation ("10.0.0.1/24") into a
// prefix that keeps the host bits.
func ParseIPWithMask(cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR notation: %s", cidr)
	}
	return p, nil
}

// ParseIPAndNetmask parses an address and a dotted-decimal netmask
// ("10.0.0.1", "255.255.255.0") into a prefix that keeps the host bits.
func ParseIPAndNetmask(ip, mask string) (netip.Prefix, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return netip.Prefix{}, fmt.Errorf("invalid IPv4 address: %s", ip)
	}
	bits, err := NetmaskToBits(mask)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, bits), nil
}

// NetmaskToBits converts "255.255.255.0" to 24. Non-contiguous masks fail.
func NetmaskToBits(mask string) (int, error) {
	addr, err := netip.ParseAddr(mask)
	if err != nil || !addr.Is4() {
		return 0, fmt.Errorf("invalid netmask: %s", mask)
	}
	b := addr.As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	bits := 0
	for v&0x80000000 != 0 {
		bits++
		v <<= 1
	}
	if v != 0 {
		return 0, fmt.Errorf("invalid netmask: %s", mask)
	}
	return bits, nil
}

// BitsToNetmask converts 24 to "255.255.255.0".
func BitsToNetmask(bits int) string {
	var v uint32
	if bits > 0 {
		v = ^uint32(0) << (32 - bits)
	}
	return fmt.Sprintf("%d.%d.%d.%d", v>>24, (v>>16)&0xff, (v>>8)&0xff, v&0xff)
}

// NetworkAddr returns the network address of p ("10.0.0.1/24" -> "10.0.0.0").
func NetworkAddr(p netip.Prefix) netip.Addr {
	return p.Masked().Addr()
}

// PrefixesOverlap reports whether two networks share any address.
func PrefixesOverlap(a, b netip.Prefix) bool {
	return a.Masked().Overlaps(b.Masked())
}

// FormatIPMask renders a prefix as "10.0.0.1 255.255.255.0".
func FormatIPMask(p netip.Prefix) string {
	return p.Addr().String() + " " + BitsToNetmask(p.Bits())
}

// ParseCIDROrNetmask accepts either "a.b.c.d/n" or the pair "a.b.c.d" "m.m.m.m".
func ParseCIDROrNetmask(args []string) (netip.Prefix, int, error) {
	if len(args) == 0 {
		return netip.Prefix{}, 0, fmt.Errorf("missing address")
	}
	if strings.Contains(args[0], "/") {
		p, err := ParseIPWithMask(args[0])
		return p, 1, err
	}
	if len(args) < 2 {
		return netip.Prefix{}, 0, fmt.Errorf("missing netmask")
	}
	p, err := ParseIPAndNetmask(args[0], args[1])
	return p, 2, err
}
