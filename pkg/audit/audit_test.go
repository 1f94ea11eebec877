package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvent_New(t *testing.T) {
	event := NewEvent(EventTypeCommand, "my_arista", "7")

	if event.Switch != "my_arista" {
		t.Errorf("Switch = %q, want %q", event.Switch, "my_arista")
	}
	if event.Session != "7" {
		t.Errorf("Session = %q, want %q", event.Session, "7")
	}
	if event.ID == "" {
		t.Error("ID should not be empty")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if NewEvent(EventTypeCommand, "a", "b").ID == event.ID {
		t.Error("IDs should be unique")
	}
}

func TestEvent_Chaining(t *testing.T) {
	event := NewEvent(EventTypeCommand, "my_switch", "1").
		WithUser("root").
		WithTransport("ssh", "10.0.0.9").
		WithCommand("my_switch#", "show vlan").
		WithSuccess().
		WithDuration(time.Second)

	if event.User != "root" || event.Transport != "ssh" || event.ClientIP != "10.0.0.9" {
		t.Errorf("event = %+v", event)
	}
	if event.Prompt != "my_switch#" || event.Command != "show vlan" {
		t.Errorf("command = %q at %q", event.Command, event.Prompt)
	}
	if !event.Success || event.Duration != time.Second {
		t.Errorf("event = %+v", event)
	}
}

func TestEvent_WithError(t *testing.T) {
	event := NewEvent(EventTypeRPC, "my_juniper", "1").WithError(errors.New("lock-denied"))
	if event.Success || event.Error != "lock-denied" {
		t.Errorf("event = %+v", event)
	}

	event2 := NewEvent(EventTypeRPC, "my_juniper", "1").WithError(nil)
	if event2.Success || event2.Error != "" {
		t.Errorf("event = %+v", event2)
	}
}

// ===== MemoryLogger Tests =====

func TestMemoryLogger_Query(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewEvent(EventTypeConnect, "sw1", "1").WithSuccess())
	l.Log(NewEvent(EventTypeCommand, "sw1", "1").WithCommand("sw1>", "enable").WithSuccess())
	l.Log(NewEvent(EventTypeCommand, "sw1", "1").WithCommand("sw1#", "frob"))
	l.Log(NewEvent(EventTypeCommand, "sw2", "2").WithSuccess())

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by switch", Filter{Switch: "sw1"}, 3},
		{"by type", Filter{Type: EventTypeCommand}, 3},
		{"failures", Filter{FailureOnly: true}, 1},
		{"limit", Filter{Limit: 2}, 2},
		{"offset", Filter{Offset: 3}, 1},
		{"offset past end", Filter{Offset: 10}, 0},
		{"by session", Filter{Session: "2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Query(%+v) returned %d events, want %d", tt.filter, len(got), tt.want)
			}
		})
	}
}

// ===== FileLogger Tests =====

func TestFileLogger_Basic(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit", "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	event := NewEvent(EventTypeCommand, "my_switch", "1").WithCommand("my_switch#", "write memory").WithSuccess()
	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := logger.Query(Filter{Switch: "my_switch"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Command != "write memory" || events[0].Type != EventTypeCommand {
		t.Errorf("event = %+v", events[0])
	}
}

func TestFileLogger_QueryTimeFilter(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "audit.log"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	old := NewEvent(EventTypeCommand, "sw", "1")
	old.Timestamp = time.Now().Add(-2 * time.Hour)
	logger.Log(old)
	logger.Log(NewEvent(EventTypeCommand, "sw", "1"))

	events, _ := logger.Query(Filter{StartTime: time.Now().Add(-time.Hour)})
	if len(events) != 1 {
		t.Errorf("Expected 1 recent event, got %d", len(events))
	}
}

func TestFileLogger_QueryNonExistent(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Close()
	os.Remove(logPath)

	events, err := logger.Query(Filter{})
	if err != nil || len(events) != 0 {
		t.Errorf("Query() = (%v, %v), want empty", events, err)
	}
}

func TestFileLogger_LogRotation(t *testing.T) {
	tests := []struct {
		name       string
		maxBackups int
		kept       int
	}{
		{"one backup", 1, 2},
		{"three backups", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "audit.log")
			logger, err := NewFileLogger(logPath, RotationConfig{MaxSize: 100, MaxBackups: tt.maxBackups})
			if err != nil {
				t.Fatalf("NewFileLogger failed: %v", err)
			}
			defer logger.Close()

			for _, cmd := range []string{"show vlan", "show version", "show running-config"} {
				if err := logger.Log(NewEvent(EventTypeCommand, "sw", "1").WithCommand("sw#", cmd)); err != nil {
					t.Fatalf("Log failed: %v", err)
				}
			}

			if _, err := os.Stat(logPath + ".1"); err != nil {
				t.Errorf("expected a rotated file: %v", err)
			}
			events, err := logger.Query(Filter{})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.kept {
				t.Fatalf("Query() returned %d events, want %d", len(events), tt.kept)
			}
			if last := events[len(events)-1]; last.Command != "show running-config" {
				t.Errorf("newest event = %q, want it last", last.Command)
			}
		})
	}
}

func TestFileLogger_Reopen(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	first, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	first.Log(NewEvent(EventTypeConnect, "sw", "1"))
	first.Close()

	if err := first.Log(NewEvent(EventTypeConnect, "sw", "2")); err == nil {
		t.Error("Log() after Close() should fail")
	}

	second, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer second.Close()
	second.Log(NewEvent(EventTypeDisconnect, "sw", "1"))

	events, _ := second.Query(Filter{Switch: "sw"})
	if len(events) != 2 {
		t.Errorf("Query() returned %d events, want 2", len(events))
	}
}

// ===== Default Logger Tests =====

func TestDefaultLogger(t *testing.T) {
	mem := NewMemoryLogger()
	SetDefaultLogger(mem)
	defer SetDefaultLogger(nil)

	if err := Log(NewEvent(EventTypeCommit, "sw", "1").WithSuccess()); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	events, _ := Query(Filter{Type: EventTypeCommit})
	if len(events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(events))
	}
}
