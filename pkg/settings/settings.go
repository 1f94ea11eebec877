// Package settings keeps the defaults a user sets with "fakeswitch
// settings" in ~/.fakeswitch/settings.yaml.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	DefaultModel string `yaml:"default_model,omitempty"`
	ConfigPath   string `yaml:"config_path,omitempty"`
	ListenHost   string `yaml:"listen_host,omitempty"`
	AuditLog     string `yaml:"audit_log,omitempty"`
}

// Key describes one setting as the settings command shows it.
type Key struct {
	Name     string
	Alias    string
	Help     string
	field    func(*Settings) *string
	fallback func() string
}

// Keys lists every setting in display order.
var Keys = []Key{
	{Name: "default_model", Alias: "model", Help: "model used when --model is not given",
		field: func(s *Settings) *string { return &s.DefaultModel }},
	{Name: "config_path", Alias: "config", Help: "switch definition file used when --config is not given",
		field: func(s *Settings) *string { return &s.ConfigPath }},
	{Name: "listen_host", Alias: "host", Help: "address bound by listeners given as a bare port",
		field: func(s *Settings) *string { return &s.ListenHost }, fallback: func() string { return "127.0.0.1" }},
	{Name: "audit_log", Help: "audit log file",
		field: func(s *Settings) *string { return &s.AuditLog }, fallback: defaultAuditLog},
}

func lookup(name string) (Key, bool) {
	for _, k := range Keys {
		if name == k.Name || (k.Alias != "" && name == k.Alias) {
			return k, true
		}
	}
	return Key{}, false
}

// Value is the stored value, or the default when unset.
func (k Key) Value(s *Settings) string {
	if v := *k.field(s); v != "" {
		return v
	}
	if k.fallback != nil {
		return k.fallback()
	}
	return ""
}

// IsSet reports whether the user stored a value for k.
func (k Key) IsSet(s *Settings) bool {
	return *k.field(s) != ""
}

// DefaultSettingsPath is ~/.fakeswitch/settings.yaml, or a file in the
// working directory when there is no home.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "fakeswitch_settings.yaml"
	}
	return filepath.Join(home, ".fakeswitch", "settings.yaml")
}

func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads path. A missing file gives empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

func (s *Settings) SaveTo(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Set stores value under a setting name or its alias. It reports false
// for unknown names.
func (s *Settings) Set(name, value string) bool {
	k, ok := lookup(name)
	if ok {
		*k.field(s) = value
	}
	return ok
}

func (s *Settings) GetListenHost() string {
	k, _ := lookup("listen_host")
	return k.Value(s)
}

func (s *Settings) GetAuditLog() string {
	k, _ := lookup("audit_log")
	return k.Value(s)
}

func defaultAuditLog() string {
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "audit.log")
}

func (s *Settings) Clear() {
	*s = Settings{}
}
