// Package config loads the switch definition file of the emulator.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/fakeswitches/pkg/auth"
)

// Config is the top-level structure of a switch definition file.
type Config struct {
	// ListenHost is used for listeners given as a bare port.
	ListenHost string         `yaml:"listen_host,omitempty"`
	Store      StoreConfig    `yaml:"store,omitempty"`
	AuditLog   string         `yaml:"audit_log,omitempty"`
	Access     auth.Policy    `yaml:"access,omitempty"`
	TFTP       TFTPConfig     `yaml:"tftp,omitempty"`
	Switches   []SwitchConfig `yaml:"switches"`
}

// StoreConfig selects the startup-config store. Without a Redis address
// startup configurations only live as long as the process.
type StoreConfig struct {
	RedisAddr string `yaml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty"`
}

// TFTPConfig tunes the client used by "copy tftp" commands.
type TFTPConfig struct {
	Timeout string `yaml:"timeout,omitempty"`
}

// SwitchConfig defines one emulated switch.
type SwitchConfig struct {
	Name                string   `yaml:"name"`
	Model               string   `yaml:"model"`
	Hostname            string   `yaml:"hostname,omitempty"`
	PrivilegedPasswords []string `yaml:"privileged_passwords,omitempty"`
	AutoEnabled         bool     `yaml:"auto_enabled,omitempty"`
	CommitDelay         string   `yaml:"commit_delay,omitempty"`

	// Listeners: "2222", ":2222" or "10.0.0.1:2222". Empty disables.
	SSH    string `yaml:"ssh,omitempty"`
	Telnet string `yaml:"telnet,omitempty"`
	HTTP   string `yaml:"http,omitempty"`
}

// Load parses a definition file and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading switch definitions: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates definitions held in memory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing switch definitions YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating switch definitions: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields, durations and listener addresses.
func (cfg *Config) Validate() error {
	if len(cfg.Switches) == 0 {
		return fmt.Errorf("at least one switch is required")
	}
	if _, err := parseDuration(cfg.TFTP.Timeout); err != nil {
		return fmt.Errorf("tftp.timeout: %w", err)
	}

	names := make(map[string]bool)
	addrs := make(map[string]string)
	for i, sw := range cfg.Switches {
		if sw.Name == "" {
			return fmt.Errorf("switch %d: name is required", i)
		}
		if names[sw.Name] {
			return fmt.Errorf("switch %s: defined twice", sw.Name)
		}
		names[sw.Name] = true
		if sw.Model == "" {
			return fmt.Errorf("switch %s: model is required", sw.Name)
		}
		if _, err := parseDuration(sw.CommitDelay); err != nil {
			return fmt.Errorf("switch %s: commit_delay: %w", sw.Name, err)
		}
		for _, l := range []struct{ kind, value string }{{"ssh", sw.SSH}, {"telnet", sw.Telnet}, {"http", sw.HTTP}} {
			if l.value == "" {
				continue
			}
			addr, err := ListenAddr(cfg.ListenHost, l.value)
			if err != nil {
				return fmt.Errorf("switch %s: %s: %w", sw.Name, l.kind, err)
			}
			if other, taken := addrs[addr]; taken {
				return fmt.Errorf("switch %s: %s address %s already used by %s", sw.Name, l.kind, addr, other)
			}
			addrs[addr] = sw.Name + " " + l.kind
		}
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// Delay returns the commit delay of the switch.
func (s SwitchConfig) Delay() time.Duration {
	d, _ := parseDuration(s.CommitDelay)
	return d
}

// DisplayName is the hostname shown in prompts.
func (s SwitchConfig) DisplayName() string {
	if s.Hostname != "" {
		return s.Hostname
	}
	return s.Name
}

// TimeoutOrDefault returns the TFTP timeout, 5 seconds by default.
func (t TFTPConfig) TimeoutOrDefault() time.Duration {
	if d, _ := parseDuration(t.Timeout); d > 0 {
		return d
	}
	return 5 * time.Second
}

// ListenAddr resolves a listener value against the default host.
func ListenAddr(host, value string) (string, error) {
	if host == "" {
		host = "127.0.0.1"
	}
	if !strings.Contains(value, ":") {
		value = ":" + value
	}
	h, port, err := net.SplitHostPort(value)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}
	if h == "" {
		h = host
	}
	return net.JoinHostPort(h, port), nil
}
