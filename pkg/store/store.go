// Package store persists the startup configuration of each emulated switch,
// so "write memory" survives a restart of the emulator.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Startup is one saved startup configuration.
type Startup struct {
	Switch  string
	Model   string
	Config  []byte
	SavedAt time.Time
}

// Store saves and loads startup configurations by switch name.
type Store interface {
	Save(ctx context.Context, s Startup) error
	// Load returns util.ErrNotFound when nothing was saved.
	Load(ctx context.Context, switchName string) (Startup, error)
	Delete(ctx context.Context, switchName string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore keeps startup configurations in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Startup
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Startup)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s Startup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	s.Config = append([]byte(nil), s.Config...)
	m.entries[s.Switch] = s
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, switchName string) (Startup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[switchName]
	if !ok {
		return Startup{}, fmt.Errorf("%w: startup config of %s", util.ErrNotFound, switchName)
	}
	return s, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, switchName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, switchName)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
