package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/newtron-network/fakeswitches/pkg/auth"
	"github.com/newtron-network/fakeswitches/pkg/cli"
)

func accessPolicy() *auth.Policy {
	return &auth.Policy{
		Users:      []auth.User{{Name: "admin", Password: "x"}, {Name: "robot", Password: "y"}, {Name: "bob", Password: "z"}},
		SuperUsers: []string{"admin"},
		Permissions: map[string][]string{
			"netconf.session": {"robot"},
		},
		Switches: map[string]map[string][]string{
			"lab": {"cli.shell": {"bob"}},
		},
	}
}

// accessRow finds the table line of perm.
func accessRow(t *testing.T, out, perm string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, " "+perm+" ") {
			return line
		}
	}
	t.Fatalf("no row for %s in:\n%s", perm, out)
	return ""
}

func TestPrintAccess(t *testing.T) {
	checker := auth.NewChecker(accessPolicy())

	tests := []struct {
		user    string
		sw      string
		allowed []string
		denied  []string
		grants  string
	}{
		{"admin", "", []string{"cli.shell", "netconf.session", "eapi.command"}, nil, "all"},
		{"robot", "", []string{"netconf.session"}, []string{"cli.shell", "eapi.command"}, "netconf.session"},
		{"bob", "lab", []string{"cli.shell"}, []string{"netconf.session"}, "none"},
		{"bob", "core", nil, []string{"cli.shell"}, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.user+"@"+tt.sw, func(t *testing.T) {
			var out bytes.Buffer
			if err := printAccess(&out, checker, tt.user, tt.sw); err != nil {
				t.Fatalf("printAccess() error = %v", err)
			}
			for _, p := range tt.allowed {
				if row := accessRow(t, out.String(), p); !strings.Contains(row, cli.State("ok")) {
					t.Errorf("%s should be allowed: %q", p, row)
				}
			}
			for _, p := range tt.denied {
				if row := accessRow(t, out.String(), p); !strings.Contains(row, cli.State("denied")) {
					t.Errorf("%s should be denied: %q", p, row)
				}
			}
			if !strings.Contains(out.String(), "Global grants: "+tt.grants) {
				t.Errorf("output should list grants %q:\n%s", tt.grants, out.String())
			}
		})
	}
}

func TestPrintAccess_Anonymous(t *testing.T) {
	var out bytes.Buffer
	if err := printAccess(&out, auth.NewChecker(nil), "anyone", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "anonymous") {
		t.Errorf("output = %q", out.String())
	}
}
