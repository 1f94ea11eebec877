package util

import (
	"net/netip"
	"testing"
)

func TestNetmaskToBits(t *testing.T) {
	tests := []struct {
		mask    string
		want    int
		wantErr bool
	}{
		{"255.255.255.0", 24, false},
		{"255.255.255.255", 32, false},
		{"0.0.0.0", 0, false},
		{"255.255.128.0", 17, false},
		{"255.0.255.0", 0, true},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			got, err := NetmaskToBits(tt.mask)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NetmaskToBits(%q) error = %v, wantErr %v", tt.mask, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NetmaskToBits(%q) = %d, want %d", tt.mask, got, tt.want)
			}
		})
	}
}

func TestBitsToNetmask(t *testing.T) {
	for bits, want := range map[int]string{0: "0.0.0.0", 8: "255.0.0.0", 24: "255.255.255.0", 30: "255.255.255.252", 32: "255.255.255.255"} {
		if got := BitsToNetmask(bits); got != want {
			t.Errorf("BitsToNetmask(%d) = %q, want %q", bits, got, want)
		}
	}
}

func TestParseIPAndNetmask(t *testing.T) {
	p, err := ParseIPAndNetmask("10.0.0.1", "255.255.255.0")
	if err != nil {
		t.Fatalf("ParseIPAndNetmask() error = %v", err)
	}
	if p.String() != "10.0.0.1/24" {
		t.Errorf("prefix = %s, want 10.0.0.1/24", p)
	}
	if FormatIPMask(p) != "10.0.0.1 255.255.255.0" {
		t.Errorf("FormatIPMask() = %q", FormatIPMask(p))
	}
	if NetworkAddr(p).String() != "10.0.0.0" {
		t.Errorf("NetworkAddr() = %s", NetworkAddr(p))
	}
}

func TestPrefixesOverlap(t *testing.T) {
	a := netip.MustParsePrefix("10.0.0.1/24")
	if !PrefixesOverlap(a, netip.MustParsePrefix("10.0.0.200/25")) {
		t.Errorf("expected overlap")
	}
	if PrefixesOverlap(a, netip.MustParsePrefix("10.0.1.1/24")) {
		t.Errorf("unexpected overlap")
	}
}

func TestParseCIDROrNetmask(t *testing.T) {
	p, n, err := ParseCIDROrNetmask([]string{"1.1.1.1/27", "secondary"})
	if err != nil || n != 1 || p.Bits() != 27 {
		t.Errorf("CIDR form = (%v, %d, %v)", p, n, err)
	}
	p, n, err = ParseCIDROrNetmask([]string{"1.1.1.1", "255.255.255.0"})
	if err != nil || n != 2 || p.Bits() != 24 {
		t.Errorf("netmask form = (%v, %d, %v)", p, n, err)
	}
	if _, _, err := ParseCIDROrNetmask([]string{"1.1.1.1"}); err == nil {
		t.Errorf("missing netmask should fail")
	}
}
