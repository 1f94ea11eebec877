package netconf

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Error types
const (
	ErrorTypeTransport   = "transport"
	ErrorTypeRPC         = "rpc"
	ErrorTypeProtocol    = "protocol"
	ErrorTypeApplication = "application"
)

// Error tags (RFC 6241 appendix A)
const (
	TagInUse                 = "in-use"
	TagInvalidValue          = "invalid-value"
	TagMissingElement        = "missing-element"
	TagBadElement            = "bad-element"
	TagUnknownElement        = "unknown-element"
	TagLockDenied            = "lock-denied"
	TagDataExists            = "data-exists"
	TagDataMissing           = "data-missing"
	TagOperationNotSupported = "operation-not-supported"
	TagOperationFailed       = "operation-failed"
	TagMalformedMessage      = "malformed-message"
)

// RPCError is one rpc-error element of a reply.
type RPCError struct {
	Type       string
	Tag        string
	Severity   string
	Path       string
	Message    string
	BadElement string
	Info       map[string]string
}

func (e *RPCError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Tag
}

// Unwrap maps the tag onto the matching util error kind.
func (e *RPCError) Unwrap() error {
	switch e.Tag {
	case TagLockDenied:
		return util.ErrLocked
	case TagInUse:
		return util.ErrInUse
	case TagDataMissing:
		return util.ErrNotFound
	case TagDataExists:
		return util.ErrAlreadyExists
	case TagOperationNotSupported:
		return util.ErrNotSupported
	case TagBadElement, TagInvalidValue, TagMissingElement, TagUnknownElement:
		return util.ErrInvalidConfig
	}
	return nil
}

// ToElement renders the error in the Juniper layout.
func (e *RPCError) ToElement() *etree.Element {
	el := etree.NewElement("rpc-error")
	el.CreateElement("error-type").SetText(e.Type)
	el.CreateElement("error-tag").SetText(e.Tag)
	severity := e.Severity
	if severity == "" {
		severity = "error"
	}
	el.CreateElement("error-severity").SetText(severity)
	if e.Path != "" {
		el.CreateElement("error-path").SetText(e.Path)
	}
	if e.Message != "" {
		el.CreateElement("error-message").SetText(e.Message)
	}
	if e.BadElement != "" || len(e.Info) > 0 {
		info := el.CreateElement("error-info")
		if e.BadElement != "" {
			info.CreateElement("bad-element").SetText(e.BadElement)
		}
		for _, k := range util.SortedKeys(e.Info) {
			info.CreateElement(k).SetText(e.Info[k])
		}
	}
	return el
}

// NewOperationNotSupported reports an rpc nothing handles.
func NewOperationNotSupported(operation string) *RPCError {
	return &RPCError{
		Type:       ErrorTypeProtocol,
		Tag:        TagOperationNotSupported,
		Message:    fmt.Sprintf("syntax error, expecting <%s> not supported", operation),
		BadElement: operation,
	}
}

// NewBadElement reports an element the datastore does not recognise.
func NewBadElement(element, path string) *RPCError {
	return &RPCError{
		Type:       ErrorTypeProtocol,
		Tag:        TagOperationFailed,
		Path:       path,
		Message:    "syntax error",
		BadElement: element,
	}
}

// NewOperationFailed reports an application-level failure.
func NewOperationFailed(message, path string) *RPCError {
	return &RPCError{
		Type:    ErrorTypeProtocol,
		Tag:     TagOperationFailed,
		Path:    path,
		Message: message,
	}
}

// NewInvalidValue reports a value out of range or malformed.
func NewInvalidValue(message, path string) *RPCError {
	return &RPCError{
		Type:    ErrorTypeApplication,
		Tag:     TagInvalidValue,
		Path:    path,
		Message: message,
	}
}

// NewDataMissing reports a delete of something that does not exist.
func NewDataMissing(element, path string) *RPCError {
	return &RPCError{
		Type:       ErrorTypeApplication,
		Tag:        TagDataMissing,
		Path:       path,
		Message:    "statement not found",
		BadElement: element,
	}
}

// NewMissingElement reports a required child that was not sent.
func NewMissingElement(element string) *RPCError {
	return &RPCError{
		Type:       ErrorTypeProtocol,
		Tag:        TagMissingElement,
		Message:    fmt.Sprintf("missing element <%s>", element),
		BadElement: element,
	}
}

// NewMalformedMessage reports an unparseable request.
func NewMalformedMessage(cause error) *RPCError {
	return &RPCError{
		Type:    ErrorTypeRPC,
		Tag:     TagMalformedMessage,
		Message: cause.Error(),
	}
}

// Errors flattens err into rpc-errors. A MultiError yields one rpc-error per
// collected error; anything that is not an RPCError becomes operation-failed.
func Errors(err error) []*RPCError {
	if err == nil {
		return nil
	}
	var multi *util.MultiError
	if errors.As(err, &multi) {
		var out []*RPCError
		for _, e := range multi.Errors {
			out = append(out, Errors(e)...)
		}
		return out
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return []*RPCError{rpcErr}
	}
	return []*RPCError{NewOperationFailed(err.Error(), "")}
}
