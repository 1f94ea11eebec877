// Package audit records what clients did to the emulated switches.
package audit

import (
	"fmt"
	"sync/atomic"
	"time"
)

// EventType categorizes audit events
type EventType string

const (
	EventTypeConnect    EventType = "connect"
	EventTypeDisconnect EventType = "disconnect"
	EventTypeCommand    EventType = "command"
	EventTypeRPC        EventType = "rpc"
	EventTypeCommit     EventType = "commit"
)

// Event is one auditable client action
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	User      string        `json:"user,omitempty"`
	Switch    string        `json:"switch"`
	Session   string        `json:"session,omitempty"`
	Transport string        `json:"transport,omitempty"` // ssh, telnet, http, netconf, console
	ClientIP  string        `json:"client_ip,omitempty"`
	Prompt    string        `json:"prompt,omitempty"`
	Command   string        `json:"command,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	Switch      string
	User        string
	Session     string
	Type        EventType
	StartTime   time.Time
	EndTime     time.Time
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(eventType EventType, switchName, session string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Type:      eventType,
		Switch:    switchName,
		Session:   session,
	}
}

// WithUser sets the authenticated user
func (e *Event) WithUser(user string) *Event {
	e.User = user
	return e
}

// WithTransport sets the transport and client address
func (e *Event) WithTransport(transport, clientIP string) *Event {
	e.Transport = transport
	e.ClientIP = clientIP
	return e
}

// WithCommand sets the command line and the prompt it was typed at
func (e *Event) WithCommand(prompt, command string) *Event {
	e.Prompt = prompt
	e.Command = command
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func (f Filter) matches(event *Event) bool {
	if f.Switch != "" && event.Switch != f.Switch {
		return false
	}
	if f.User != "" && event.User != f.User {
		return false
	}
	if f.Session != "" && event.Session != f.Session {
		return false
	}
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if !f.StartTime.IsZero() && event.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && event.Timestamp.After(f.EndTime) {
		return false
	}
	if f.FailureOnly && event.Success {
		return false
	}
	return true
}

// apply keeps the matching events, then skips Offset and caps at Limit.
func (f Filter) apply(events []*Event) []*Event {
	var out []*Event
	skip := f.Offset
	for _, e := range events {
		if !f.matches(e) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

var idCounter atomic.Uint64

func generateID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), idCounter.Add(1))
}
