// Package util holds the helpers every switch package shares: error
// kinds, logging, VLAN range syntax and IP parsing.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Vendor handlers print their own messages; these let callers
// and tests tell failures apart with errors.Is.
var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrLocked             = errors.New("configuration database locked")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPreconditionFailed = errors.New("precondition not met")
	ErrValidationFailed   = errors.New("validation failed")
	ErrInUse              = errors.New("in use")
	ErrNotSupported       = errors.New("operation not supported")
	ErrOutOfRange         = errors.New("value out of range")
)

// PreconditionError is an operation refused because the configuration is
// not in the state it needs.
type PreconditionError struct {
	Operation    string
	Resource     string
	Precondition string
	Details      string
}

func (e *PreconditionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot %s %s: %s", e.Operation, e.Resource, e.Precondition)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

// NewPreconditionError builds a PreconditionError.
func NewPreconditionError(operation, resource, precondition, details string) *PreconditionError {
	return &PreconditionError{Operation: operation, Resource: resource, Precondition: precondition, Details: details}
}

// ValidationError lists every dangling reference or rule a configuration
// breaks.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return "validation failed:\n  - " + strings.Join(e.Errors, "\n  - ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// NewValidationError builds a ValidationError from messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder accumulates failures; the zero value is ready to use.
type ValidationBuilder struct {
	messages []string
}

// Add records message unless ok holds.
func (v *ValidationBuilder) Add(ok bool, message string) *ValidationBuilder {
	if !ok {
		v.messages = append(v.messages, message)
	}
	return v
}

// AddErrorf records a formatted message.
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.messages = append(v.messages, fmt.Sprintf(format, args...))
	return v
}

// HasErrors reports whether anything was recorded.
func (v *ValidationBuilder) HasErrors() bool { return len(v.messages) > 0 }

// Build returns nil or a *ValidationError.
func (v *ValidationBuilder) Build() error {
	if !v.HasErrors() {
		return nil
	}
	return NewValidationError(v.messages...)
}

// InUseError is a removal refused because something still refers to the
// resource.
type InUseError struct {
	Resource string
	UsedBy   []string
}

func (e *InUseError) Error() string {
	return e.Resource + " is in use by: " + strings.Join(e.UsedBy, ", ")
}

func (e *InUseError) Unwrap() error { return ErrInUse }

// NewInUseError builds an InUseError.
func NewInUseError(resource string, usedBy ...string) *InUseError {
	return &InUseError{Resource: resource, UsedBy: usedBy}
}

// MultiError collects independent failures so that a caller can report all of
// them at once. The zero value is ready to use.
type MultiError struct {
	Errors []error
}

// Append adds err when it is not nil.
func (m *MultiError) Append(err error) {
	if err == nil {
		return
	}
	var nested *MultiError
	if errors.As(err, &nested) {
		m.Errors = append(m.Errors, nested.Errors...)
		return
	}
	m.Errors = append(m.Errors, err)
}

// ErrorOrNil returns nil when nothing was collected.
func (m *MultiError) ErrorOrNil() error {
	if m == nil || len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n  - %s", len(m.Errors), strings.Join(msgs, "\n  - "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
