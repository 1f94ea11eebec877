package cli

import (
	"strings"
	"testing"
)

// ===== DotPad Tests =====

func TestDotPad(t *testing.T) {
	tests := []struct {
		name  string
		width int
		want  string
	}{
		{"sw1 ssh", 12, "sw1 ssh ...."},
		{"leaf", 6, "leaf ."},
		{"leaf", 5, "leaf"},
		{"spine1 telnet", 8, "spine1 telnet"},
		{"", 3, " .."},
		{"x", 0, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DotPad(tt.name, tt.width)
			if got != tt.want {
				t.Errorf("DotPad(%q, %d) = %q, want %q", tt.name, tt.width, got, tt.want)
			}
			if len(tt.name) < tt.width-1 && len(got) != tt.width {
				t.Errorf("DotPad(%q, %d) has length %d", tt.name, tt.width, len(got))
			}
		})
	}
}

// ===== Color Tests =====

func withColor(t *testing.T, on bool) {
	t.Helper()
	saved := colorEnabled
	colorEnabled = on
	t.Cleanup(func() { colorEnabled = saved })
}

func TestPaint(t *testing.T) {
	withColor(t, true)
	codes := map[string]func(string) string{
		"32": Green,
		"33": Yellow,
		"31": Red,
		"1":  Bold,
		"2":  Dim,
	}
	for code, fn := range codes {
		got := fn("sw1")
		if want := "\033[" + code + "msw1\033[0m"; got != want {
			t.Errorf("code %s: got %q, want %q", code, got, want)
		}
	}
}

func TestPaint_NoColor(t *testing.T) {
	withColor(t, false)
	if got := Green("listening"); got != "listening" {
		t.Errorf("Green() with color off = %q", got)
	}
	if got := State("failed"); got != "failed" {
		t.Errorf("State() with color off = %q", got)
	}
}

func TestState(t *testing.T) {
	withColor(t, true)
	tests := []struct {
		state string
		code  string
	}{
		{"listening", "32"},
		{"saved", "32"},
		{"ok", "32"},
		{"-", "2"},
		{"disabled", "2"},
		{"error", "31"},
		{"failed", "31"},
		{"starting", "33"},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := State(tt.state)
			if !strings.HasPrefix(got, "\033["+tt.code+"m") || !strings.Contains(got, tt.state) {
				t.Errorf("State(%q) = %q, want color %s", tt.state, got, tt.code)
			}
		})
	}
}
