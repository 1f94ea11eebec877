package util

import (
	"errors"
	"reflect"
	"testing"
)

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		want    []int
		wantErr bool
	}{
		{name: "single value", list: "5", want: []int{5}},
		{name: "simple range", list: "1-5", want: []int{1, 2, 3, 4, 5}},
		{name: "trunk list", list: "10,20-22", want: []int{10, 20, 21, 22}},
		{name: "with spaces", list: "1 - 3, 5", want: []int{1, 2, 3, 5}},
		{name: "duplicates removed", list: "1-3,2-4", want: []int{1, 2, 3, 4}},
		{name: "empty string", list: "", want: nil},
		{name: "invalid - start > end", list: "5-1", wantErr: true},
		{name: "invalid - not a number", list: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpandRange(%q) error = %v, wantErr %v", tt.list, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandRange(%q) = %v, want %v", tt.list, got, tt.want)
			}
		})
	}
}

func TestCompactRange(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   string
	}{
		{"empty", nil, ""},
		{"single", []int{5}, "5"},
		{"trunk list", []int{22, 10, 20, 21}, "10,20-22"},
		{"pair", []int{20, 21}, "20-21"},
		{"duplicates", []int{1, 1, 2}, "1-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompactRange(tt.values); got != tt.want {
				t.Errorf("CompactRange(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestExpandVLANRange(t *testing.T) {
	tests := []struct {
		list    string
		max     int
		wantErr bool
	}{
		{"1", 4094, false},
		{"4094", 4094, false},
		{"4095", 4094, true},
		{"0", 4094, true},
		{"4091", 4090, true},
		{"4093", 4093, false},
	}

	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			_, err := ExpandVLANRange(tt.list, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExpandVLANRange(%q, %d) error = %v, wantErr %v", tt.list, tt.max, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("error should wrap ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"299", 299, true},
		{"-1", 0, false},
		{"1a", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseInt(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
