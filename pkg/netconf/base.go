package netconf

import (
	"fmt"

	"github.com/beevik/etree"
)

// Target names a configuration datastore.
type Target string

const (
	Running   Target = "running"
	Candidate Target = "candidate"
)

// ParseTarget reads the datastore named by the first child of el, as in
// <source><running/></source>.
func ParseTarget(el *etree.Element) (Target, error) {
	if el == nil {
		return "", NewMissingElement("target")
	}
	child := firstChild(el)
	if child == nil {
		return "", NewMissingElement(el.Tag)
	}
	switch Target(child.Tag) {
	case Running, Candidate:
		return Target(child.Tag), nil
	}
	return "", &RPCError{
		Type:       ErrorTypeProtocol,
		Tag:        TagBadElement,
		Message:    fmt.Sprintf("unknown datastore %s", child.Tag),
		BadElement: child.Tag,
	}
}

// Datastore is what the base operations read and edit.
type Datastore interface {
	ToEtree(source Target) (*etree.Element, error)
	Edit(target Target, config *etree.Element) error
	Validate(source Target) error
	CommitCandidate() error
	Lock(target Target, sessionID string) error
	Unlock(target Target, sessionID string) error
	Reset()
	ReleaseLocks(sessionID string)
}

// BaseCapability serves the base 1.0 operations against a datastore.
type BaseCapability struct {
	ds Datastore
}

// NewBaseCapability creates the base capability.
func NewBaseCapability(ds Datastore) *BaseCapability {
	return &BaseCapability{ds: ds}
}

// URI implements Capability.
func (b *BaseCapability) URI() string { return BaseURI }

// Handlers implements Capability.
func (b *BaseCapability) Handlers() map[string]RPCHandler {
	return map[string]RPCHandler{
		"get-config":      b.getConfig,
		"edit-config":     b.editConfig,
		"commit":          b.commit,
		"lock":            b.lock,
		"unlock":          b.unlock,
		"discard-changes": b.discardChanges,
		"validate":        b.validate,
		"close-session":   b.closeSession,
	}
}

// CloseSession implements SessionCloser.
func (b *BaseCapability) CloseSession(sessionID string) {
	b.ds.ReleaseLocks(sessionID)
}

func (b *BaseCapability) getConfig(req *Request) (*Reply, error) {
	source, err := ParseTarget(req.Operation.SelectElement("source"))
	if err != nil {
		return nil, err
	}
	conf, err := b.ds.ToEtree(source)
	if err != nil {
		return nil, err
	}
	data := etree.NewElement("data")
	if filter := req.Operation.SelectElement("filter"); filter != nil {
		conf = SubtreeFilter(conf, filter)
	}
	if conf != nil {
		data.AddChild(conf)
	}
	return &Reply{Data: []*etree.Element{data}}, nil
}

func (b *BaseCapability) editConfig(req *Request) (*Reply, error) {
	target, err := ParseTarget(req.Operation.SelectElement("target"))
	if err != nil {
		return nil, err
	}
	config := req.Operation.SelectElement("config")
	if config == nil {
		return nil, NewMissingElement("config")
	}
	root := firstChild(config)
	if root == nil {
		return OK(), nil
	}
	if err := b.ds.Edit(target, root); err != nil {
		return nil, err
	}
	return OK(), nil
}

func (b *BaseCapability) commit(*Request) (*Reply, error) {
	if err := b.ds.CommitCandidate(); err != nil {
		return nil, err
	}
	return OK(), nil
}

func (b *BaseCapability) lock(req *Request) (*Reply, error) {
	target, err := ParseTarget(req.Operation.SelectElement("target"))
	if err != nil {
		return nil, err
	}
	if err := b.ds.Lock(target, req.SessionID); err != nil {
		return nil, err
	}
	return OK(), nil
}

func (b *BaseCapability) unlock(req *Request) (*Reply, error) {
	target, err := ParseTarget(req.Operation.SelectElement("target"))
	if err != nil {
		return nil, err
	}
	if err := b.ds.Unlock(target, req.SessionID); err != nil {
		return nil, err
	}
	return OK(), nil
}

func (b *BaseCapability) discardChanges(*Request) (*Reply, error) {
	b.ds.Reset()
	return OK(), nil
}

func (b *BaseCapability) validate(req *Request) (*Reply, error) {
	source, err := ParseTarget(req.Operation.SelectElement("source"))
	if err != nil {
		return nil, err
	}
	if err := b.ds.Validate(source); err != nil {
		return nil, err
	}
	return OK(), nil
}

func (b *BaseCapability) closeSession(*Request) (*Reply, error) {
	return &Reply{Close: true}, nil
}
