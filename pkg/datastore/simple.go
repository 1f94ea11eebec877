package datastore

import (
	"fmt"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Simple is the datastore of CLI-only switches: commands edit running
// directly and "write memory" commits it.
type Simple struct {
	running *model.SwitchConfiguration
}

// NewSimple wraps running.
func NewSimple(running *model.SwitchConfiguration) *Simple {
	return &Simple{running: running}
}

// Running returns the running configuration.
func (s *Simple) Running() *model.SwitchConfiguration { return s.running }

// Commit commits running. The caller holds the configuration lock.
func (s *Simple) Commit() {
	s.running.Commit()
}

// Lock is not supported without a candidate.
func (s *Simple) Lock(target Target, sessionID string) error {
	return fmt.Errorf("%w: lock %s", util.ErrNotSupported, target)
}
