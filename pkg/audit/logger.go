package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Logger stores audit events and answers queries over them.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// MemoryLogger keeps events in memory, oldest first.
type MemoryLogger struct {
	mu     sync.Mutex
	events []*Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event *Event) error {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return filter.apply(l.events), nil
}

func (l *MemoryLogger) Close() error { return nil }

// RotationConfig bounds the size of a FileLogger. A zero MaxSize never
// rotates. Backups are named path.1 (newest) to path.N.
type RotationConfig struct {
	MaxSize    int64
	MaxBackups int
}

func (r RotationConfig) backups() int {
	if r.MaxBackups < 1 {
		return 1
	}
	return r.MaxBackups
}

// FileLogger appends events to a JSON-lines file.
type FileLogger struct {
	path     string
	rotation RotationConfig

	mu   sync.Mutex
	file *os.File
	size int64
}

func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("audit log directory: %w", err)
	}
	l := &FileLogger{path: path, rotation: rotation}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("audit log %s: %w", l.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("audit log %s: %w", l.path, err)
	}
	l.file, l.size = f, info.Size()
	return nil
}

// Log writes one line, rotating first when the line would push a
// non-empty file past MaxSize.
func (l *FileLogger) Log(event *Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("audit log %s is closed", l.path)
	}
	max := l.rotation.MaxSize
	if max > 0 && l.size > 0 && l.size+int64(len(line)) > max {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating audit log: %w", err)
		}
	}
	n, err := l.file.Write(line)
	l.size += int64(n)
	return err
}

func (l *FileLogger) backup(n int) string {
	return fmt.Sprintf("%s.%d", l.path, n)
}

// rotate shifts path.N-1 to path.N down to path to path.1, dropping the
// oldest backup.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil
	keep := l.rotation.backups()
	for n := keep - 1; n >= 1; n-- {
		if err := os.Rename(l.backup(n), l.backup(n+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(l.path, l.backup(1)); err != nil {
		return err
	}
	return l.open()
}

// Query reads the backups, oldest first, then the live file.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var files []string
	for n := l.rotation.backups(); n >= 1; n-- {
		files = append(files, l.backup(n))
	}
	files = append(files, l.path)

	var events []*Event
	for _, path := range files {
		read, err := readEvents(path)
		if err != nil {
			return nil, err
		}
		events = append(events, read...)
	}
	return filter.apply(events), nil
}

func readEvents(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			util.Warnf("audit: %s:%d: skipping malformed entry: %v", filepath.Base(path), line, err)
			continue
		}
		events = append(events, &e)
	}
	return events, scanner.Err()
}

func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// SetDefaultLogger installs the logger used by Log and Query. nil turns
// auditing off.
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

func current() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Log records event with the default logger, if any.
func Log(event *Event) error {
	if l := current(); l != nil {
		return l.Log(event)
	}
	return nil
}

// Query searches the default logger. Without one it finds nothing.
func Query(filter Filter) ([]*Event, error) {
	if l := current(); l != nil {
		return l.Query(filter)
	}
	return []*Event{}, nil
}
