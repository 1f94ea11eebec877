package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetListenHost(); got != "127.0.0.1" {
		t.Errorf("GetListenHost() default = %q, want %q", got, "127.0.0.1")
	}
	if got := s.GetAuditLog(); filepath.Base(got) != "audit.log" {
		t.Errorf("GetAuditLog() default = %q", got)
	}
	if s.DefaultModel != "" {
		t.Errorf("DefaultModel should be empty, got %q", s.DefaultModel)
	}
}

func TestSettings_Set(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(*Settings) string
		ok    bool
	}{
		{"default_model", "cisco_generic", func(s *Settings) string { return s.DefaultModel }, true},
		{"model", "arista_generic", func(s *Settings) string { return s.DefaultModel }, true},
		{"config", "/etc/fakeswitch.yaml", func(s *Settings) string { return s.ConfigPath }, true},
		{"host", "0.0.0.0", func(s *Settings) string { return s.GetListenHost() }, true},
		{"audit_log", "/tmp/audit.log", func(s *Settings) string { return s.GetAuditLog() }, true},
		{"colour", "blue", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s := &Settings{}
			if got := s.Set(tt.key, tt.value); got != tt.ok {
				t.Fatalf("Set(%q) = %v, want %v", tt.key, got, tt.ok)
			}
			if tt.check != nil && tt.check(s) != tt.value {
				t.Errorf("after Set(%q), value = %q, want %q", tt.key, tt.check(s), tt.value)
			}
		})
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		DefaultModel: "dell_generic",
		ConfigPath:   "/path",
		ListenHost:   "0.0.0.0",
		AuditLog:     "/var/log/audit.log",
	}

	s.Clear()

	if *s != (Settings{}) {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	original := &Settings{
		DefaultModel: "juniper_qfx_copper_generic",
		ConfigPath:   "/etc/fakeswitch/switches.yaml",
		ListenHost:   "0.0.0.0",
	}
	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("LoadFrom() = %+v, want %+v", *loaded, *original)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom("/nonexistent/path/settings.yaml")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil || s.DefaultModel != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestSettings_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("default_model: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid YAML should error")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "nested", "settings.yaml")

	s := &Settings{DefaultModel: "brocade_generic"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if !filepath.IsAbs(path) && path != "fakeswitch_settings.yaml" {
		t.Errorf("DefaultSettingsPath() should be absolute or fallback, got %q", path)
	}
}

func TestKeys(t *testing.T) {
	s := &Settings{ConfigPath: "/etc/fakeswitch.yaml"}
	want := map[string]struct {
		value string
		set   bool
	}{
		"default_model": {"", false},
		"config_path":   {"/etc/fakeswitch.yaml", true},
		"listen_host":   {"127.0.0.1", false},
	}
	for _, k := range Keys {
		w, ok := want[k.Name]
		if !ok {
			continue
		}
		if got := k.Value(s); got != w.value {
			t.Errorf("%s: Value() = %q, want %q", k.Name, got, w.value)
		}
		if got := k.IsSet(s); got != w.set {
			t.Errorf("%s: IsSet() = %v, want %v", k.Name, got, w.set)
		}
	}
}
