package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/newtron-network/fakeswitches/internal/testutil"
	"github.com/newtron-network/fakeswitches/pkg/config"
	"github.com/newtron-network/fakeswitches/pkg/store"
	"github.com/newtron-network/fakeswitches/pkg/switches"
)

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return strconv.Itoa(port)
}

// ===== Fleet Tests =====

func TestStartFleet_Telnet(t *testing.T) {
	port := freePort(t)
	cfg := &config.Config{Switches: []config.SwitchConfig{
		{Name: "lab", Model: "dell_generic", Hostname: "my_dell", Telnet: port},
	}}

	f, err := startFleet(context.Background(), cfg, store.NewMemoryStore())
	if err != nil {
		t.Fatalf("startFleet() error = %v", err)
	}
	defer f.Close()

	if len(f.listeners) != 1 {
		t.Fatalf("listeners = %d, want 1", len(f.listeners))
	}
	if got, want := f.listeners[0].Addr, "127.0.0.1:"+port; got != want {
		t.Errorf("Addr = %q, want %q", got, want)
	}

	conn, err := net.Dial("tcp", f.listeners[0].Addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	out := &testutil.Buffer{}
	go io.Copy(out, conn)
	testutil.WaitFor(t, out, "my_dell>")
}

func TestStartFleet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sw      config.SwitchConfig
		wantErr string
	}{
		{"unknown model", config.SwitchConfig{Name: "a", Model: "nope", SSH: freePort(t)}, "not found"},
		{"unsupported transport", config.SwitchConfig{Name: "j", Model: "juniper_generic", Telnet: freePort(t)}, "does not serve telnet"},
		{"no http api", config.SwitchConfig{Name: "c", Model: "cisco_generic", HTTP: freePort(t)}, "does not serve http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Switches: []config.SwitchConfig{tt.sw}}
			_, err := startFleet(context.Background(), cfg, store.NewMemoryStore())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("startFleet() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// ===== Flag Tests =====

func TestFlagConfig(t *testing.T) {
	defer viper.Reset()
	viper.Set("ssh", "2222")
	viper.Set("commit-delay", "250ms")

	cfg, err := flagConfig("cisco_generic")
	if err != nil {
		t.Fatalf("flagConfig() error = %v", err)
	}
	sw := cfg.Switches[0]
	if sw.Name != "cisco_generic" || sw.SSH != "2222" {
		t.Errorf("switch = %+v", sw)
	}
	if sw.Delay().String() != "250ms" {
		t.Errorf("Delay() = %v, want 250ms", sw.Delay())
	}
}

func TestFlagConfig_Errors(t *testing.T) {
	defer viper.Reset()

	if _, err := flagConfig(""); err == nil {
		t.Error("flagConfig(\"\") should require a model")
	}
	if _, err := flagConfig("cisco_generic"); err == nil || !strings.Contains(err.Error(), "no listener") {
		t.Errorf("flagConfig() error = %v, want no listener", err)
	}
	viper.Set("telnet", "99999")
	if _, err := flagConfig("cisco_generic"); err == nil {
		t.Error("flagConfig() should reject an invalid port")
	}
}

// ===== Console Tests =====

func TestRunLines(t *testing.T) {
	c, err := switches.New("cisco_generic", switches.Options{Name: "my_switch"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var out bytes.Buffer
	if err := runLines(c, "tester", strings.NewReader("enable\nshow run\n"), &out); err != nil {
		t.Fatalf("runLines() error = %v", err)
	}
	if !strings.Contains(out.String(), "hostname my_switch") {
		t.Errorf("output missing running config:\n%s", out.String())
	}
}

func TestRunRaw_CtrlD(t *testing.T) {
	c, err := switches.New("cisco_generic", switches.Options{Name: "my_switch"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var out bytes.Buffer
	if err := runRaw(c, "tester", strings.NewReader("enable\r\x04"), &out); err != nil {
		t.Fatalf("runRaw() error = %v", err)
	}
	if !strings.Contains(out.String(), "my_switch#") {
		t.Errorf("output = %q, want privileged prompt", out.String())
	}
}
