package util

import "testing"

func TestSplitPortName(t *testing.T) {
	tests := []struct {
		name       string
		wantPrefix string
		wantNumber string
	}{
		{"GigabitEthernet0/1", "gigabitethernet", "0/1"},
		{"Gi0/1", "gi", "0/1"},
		{"ethernet 1/3", "ethernet", "1/3"},
		{"ethe1/3", "ethe", "1/3"},
		{"Te0/0/1", "te", "0/0/1"},
		{"xe-0/0/1", "xe-", "0/0/1"},
		{"ethernet 1/g1", "ethernet", "1/g1"},
		{"Vlan", "vlan", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, number := SplitPortName(tt.name)
			if prefix != tt.wantPrefix || number != tt.wantNumber {
				t.Errorf("SplitPortName(%q) = (%q, %q), want (%q, %q)", tt.name, prefix, number, tt.wantPrefix, tt.wantNumber)
			}
		})
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("SortedKeys() = %v", got)
	}
}

func TestSortedKeys_Empty(t *testing.T) {
	if got := SortedKeys(map[string]bool{}); len(got) != 0 {
		t.Errorf("SortedKeys() = %v, want empty", got)
	}
}
