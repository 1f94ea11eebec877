package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `
listen_host: 0.0.0.0
store:
  redis_addr: localhost:6379
  redis_db: 3
tftp:
  timeout: 2s
access:
  users:
    - name: root
      password: root
  super_users: [root]
switches:
  - name: core-1
    model: cisco_generic
    hostname: my_switch
    privileged_passwords: [root]
    commit_delay: 500ms
    ssh: "2222"
    telnet: "2323"
  - name: edge-1
    model: juniper_qfx_copper_generic
    ssh: 10.0.0.1:830
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.Switches) != 2 {
		t.Fatalf("len(Switches) = %d, want 2", len(cfg.Switches))
	}
	core := cfg.Switches[0]
	if core.DisplayName() != "my_switch" {
		t.Errorf("DisplayName() = %q, want my_switch", core.DisplayName())
	}
	if core.Delay() != 500*time.Millisecond {
		t.Errorf("Delay() = %v, want 500ms", core.Delay())
	}
	if cfg.Switches[1].DisplayName() != "edge-1" {
		t.Errorf("DisplayName() = %q, want edge-1", cfg.Switches[1].DisplayName())
	}
	if cfg.Store.RedisAddr != "localhost:6379" || cfg.Store.RedisDB != 3 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.TFTP.TimeoutOrDefault() != 2*time.Second {
		t.Errorf("TFTP timeout = %v, want 2s", cfg.TFTP.TimeoutOrDefault())
	}
	if len(cfg.Access.Users) != 1 || cfg.Access.Users[0].Name != "root" {
		t.Errorf("Access.Users = %+v", cfg.Access.Users)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no switches", `listen_host: x`, "at least one switch is required"},
		{"missing name", "switches:\n  - model: cisco_generic", "name is required"},
		{"missing model", "switches:\n  - name: a", "model is required"},
		{"duplicate", "switches:\n  - {name: a, model: m}\n  - {name: a, model: m}", "defined twice"},
		{"bad delay", "switches:\n  - {name: a, model: m, commit_delay: soon}", "commit_delay"},
		{"bad port", "switches:\n  - {name: a, model: m, ssh: \"99999\"}", "invalid port"},
		{"shared port", "switches:\n  - {name: a, model: m, ssh: \"22\"}\n  - {name: b, model: m, telnet: \"22\"}", "already used by a ssh"},
		{"bad yaml", "switches: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switches.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		host  string
		value string
		want  string
	}{
		{"", "2222", "127.0.0.1:2222"},
		{"0.0.0.0", ":23", "0.0.0.0:23"},
		{"0.0.0.0", "10.1.1.1:830", "10.1.1.1:830"},
		{"", "[::1]:22", "[::1]:22"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ListenAddr(tt.host, tt.value)
			if err != nil {
				t.Fatalf("ListenAddr() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ListenAddr(%q, %q) = %q, want %q", tt.host, tt.value, got, tt.want)
			}
		})
	}
}
