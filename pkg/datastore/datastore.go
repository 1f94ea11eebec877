// Package datastore holds the running and candidate configurations of a
// NETCONF switch and applies XML edits to them.
package datastore

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Target names a datastore.
type Target = netconf.Target

const (
	Running   = netconf.Running
	Candidate = netconf.Candidate
)

// Codec converts between a configuration and its vendor XML.
type Codec interface {
	// ToEtree renders conf.
	ToEtree(conf *model.SwitchConfiguration) *etree.Element
	// Apply merges el into conf. conf is a scratch copy; Apply may leave it
	// half-edited when it returns an error.
	Apply(conf *model.SwitchConfiguration, el *etree.Element) error
	// Validate runs the vendor commit checks.
	Validate(conf *model.SwitchConfiguration) error
}

// Datastore is the candidate/running pair of one switch. Every session of
// the switch shares the same candidate.
//
// Datastore does not lock the running configuration itself; callers hold
// the configuration lock around every operation, as netconf.Serve does.
type Datastore struct {
	running   *model.SwitchConfiguration
	candidate *model.SwitchConfiguration
	codec     Codec
	locks     map[Target]string
	log       *logrus.Entry
}

// New creates a datastore whose candidate is a deep copy of running.
func New(running *model.SwitchConfiguration, codec Codec) *Datastore {
	return &Datastore{
		running:   running,
		candidate: running.Clone(),
		codec:     codec,
		locks:     make(map[Target]string),
		log:       util.WithSwitch(running.Name).WithField("component", "datastore"),
	}
}

// Running returns the running configuration.
func (d *Datastore) Running() *model.SwitchConfiguration { return d.running }

// Candidate returns the candidate configuration.
func (d *Datastore) Candidate() *model.SwitchConfiguration { return d.candidate }

func (d *Datastore) conf(t Target) (*model.SwitchConfiguration, error) {
	switch t {
	case Running:
		return d.running, nil
	case Candidate:
		return d.candidate, nil
	}
	return nil, fmt.Errorf("%w: datastore %q", util.ErrNotFound, t)
}

// ToEtree renders source.
func (d *Datastore) ToEtree(source Target) (*etree.Element, error) {
	conf, err := d.conf(source)
	if err != nil {
		return nil, err
	}
	return d.codec.ToEtree(conf), nil
}

// Edit merges el into target. The edit runs on a copy that replaces the
// target only when every node applied cleanly. An edit of running takes
// effect at once, without commit checks.
func (d *Datastore) Edit(target Target, el *etree.Element) error {
	conf, err := d.conf(target)
	if err != nil {
		return err
	}
	scratch := conf.Clone()
	if err := d.codec.Apply(scratch, el); err != nil {
		d.log.Debugf("edit of %s rejected: %v", target, err)
		return err
	}
	switch target {
	case Candidate:
		d.candidate = scratch
	case Running:
		d.running.Reconcile(scratch)
	}
	return nil
}

// Validate runs the commit checks on source without committing.
func (d *Datastore) Validate(source Target) error {
	conf, err := d.conf(source)
	if err != nil {
		return err
	}
	return d.codec.Validate(conf)
}

// CommitCandidate validates the candidate, reconciles it into running and
// commits running, which waits the configured commit delay.
func (d *Datastore) CommitCandidate() error {
	if err := d.codec.Validate(d.candidate); err != nil {
		d.log.Infof("commit rejected: %v", err)
		return err
	}
	d.running.Reconcile(d.candidate)
	d.running.Commit()
	d.candidate = d.running.Clone()
	d.log.Info("candidate committed")
	return nil
}

// Lock takes target for sessionID. A candidate that differs from running
// cannot be locked.
func (d *Datastore) Lock(target Target, sessionID string) error {
	if _, err := d.conf(target); err != nil {
		return err
	}
	if _, held := d.locks[target]; held {
		return lockError("Configuration database is already open")
	}
	if target == Candidate && d.IsDirty() {
		return lockError("configuration database modified")
	}
	d.locks[target] = sessionID
	if target == Running {
		d.running.Locked = true
	}
	return nil
}

// Unlock releases target. Only the holder may unlock.
func (d *Datastore) Unlock(target Target, sessionID string) error {
	holder, held := d.locks[target]
	if !held {
		return lockError("Configuration database is not open")
	}
	if holder != sessionID {
		return lockError("Configuration database is locked by session " + holder)
	}
	delete(d.locks, target)
	if target == Running {
		d.running.Locked = false
	}
	return nil
}

// LockedBy returns the session holding target, if any.
func (d *Datastore) LockedBy(target Target) (string, bool) {
	holder, held := d.locks[target]
	return holder, held
}

// ReleaseLocks drops every lock held by sessionID. The candidate itself is
// left as the session left it.
func (d *Datastore) ReleaseLocks(sessionID string) {
	for target, holder := range d.locks {
		if holder == sessionID {
			delete(d.locks, target)
			if target == Running {
				d.running.Locked = false
			}
		}
	}
}

// Reset discards the candidate changes.
func (d *Datastore) Reset() {
	d.candidate = d.running.Clone()
}

// IsDirty reports whether the candidate renders differently from running.
func (d *Datastore) IsDirty() bool {
	return !bytes.Equal(serialize(d.codec.ToEtree(d.candidate)), serialize(d.codec.ToEtree(d.running)))
}

func serialize(el *etree.Element) []byte {
	doc := etree.NewDocument()
	doc.SetRoot(el)
	out, _ := doc.WriteToBytes()
	return out
}

func lockError(message string) error {
	return &netconf.RPCError{
		Type:     netconf.ErrorTypeProtocol,
		Tag:      netconf.TagLockDenied,
		Severity: "error",
		Message:  message,
	}
}
