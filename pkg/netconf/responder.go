// Package netconf implements the NETCONF 1.0 server side: end-of-message
// framing, the hello exchange, rpc dispatch to capabilities and rpc-error
// rendering.
package netconf

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Namespaces and capability URIs
const (
	BaseNamespace   = "urn:ietf:params:xml:ns:netconf:base:1.0"
	BaseURI         = "urn:ietf:params:netconf:base:1.0"
	CandidateURI    = "urn:ietf:params:netconf:capability:candidate:1.0"
	ValidateURI     = "urn:ietf:params:netconf:capability:validate:1.0"
	ConfirmedCommit = "urn:ietf:params:netconf:capability:confirmed-commit:1.0"
	URLURI          = "urn:ietf:params:netconf:capability:url:1.0?scheme=http,ftp,file"
)

// Request is one decoded rpc.
type Request struct {
	SessionID string
	MessageID string
	// RPC is the rpc element; Operation its first child.
	RPC       *etree.Element
	Operation *etree.Element
}

// Reply is what a handler returns. No data renders as <ok/>.
type Reply struct {
	Data  []*etree.Element
	Close bool
}

// OK is the empty successful reply.
func OK() *Reply { return &Reply{} }

// RPCHandler serves one rpc tag.
type RPCHandler func(req *Request) (*Reply, error)

// Capability advertises a URI and serves the rpcs it defines.
type Capability interface {
	URI() string
	Handlers() map[string]RPCHandler
}

// SessionCloser is implemented by capabilities holding per-session state,
// such as datastore locks.
type SessionCloser interface {
	CloseSession(sessionID string)
}

type advertised string

func (a advertised) URI() string                     { return string(a) }
func (a advertised) Handlers() map[string]RPCHandler { return nil }

// Advertise returns a capability that is listed in the hello but serves no
// rpc of its own.
func Advertise(uri string) Capability { return advertised(uri) }

// Responder answers the rpcs of one NETCONF session.
type Responder struct {
	sessionID string
	caps      []Capability
	handlers  map[string]RPCHandler
	log       *logrus.Entry
	closed    bool
}

// NewResponder composes the capability lists. Later capabilities override
// handlers of earlier ones for the same tag.
func NewResponder(switchName, sessionID string, caps ...Capability) *Responder {
	r := &Responder{
		sessionID: sessionID,
		handlers:  make(map[string]RPCHandler),
		log:       util.WithSession(switchName, sessionID).WithField("protocol", "netconf"),
	}
	for _, c := range caps {
		r.caps = append(r.caps, c)
		for tag, h := range c.Handlers() {
			r.handlers[tag] = h
		}
	}
	return r
}

// SessionID returns the id announced in the hello.
func (r *Responder) SessionID() string { return r.sessionID }

// Capabilities lists the advertised URIs in order.
func (r *Responder) Capabilities() []string {
	uris := make([]string, 0, len(r.caps))
	for _, c := range r.caps {
		uris = append(uris, c.URI())
	}
	return uris
}

// Hello returns the server hello message.
func (r *Responder) Hello() []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	hello := doc.CreateElement("hello")
	hello.CreateAttr("xmlns", BaseNamespace)
	caps := hello.CreateElement("capabilities")
	for _, uri := range r.Capabilities() {
		caps.CreateElement("capability").SetText(uri)
	}
	hello.CreateElement("session-id").SetText(r.sessionID)
	out, _ := doc.WriteToBytes()
	return out
}

// Handle answers one framed message. A nil reply means nothing is sent
// back; closeSession asks the transport to end the session after sending.
func (r *Responder) Handle(msg []byte) (reply []byte, closeSession bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(msg); err != nil || doc.Root() == nil {
		if err == nil {
			err = fmt.Errorf("empty message")
		}
		r.log.Warnf("malformed message: %v", err)
		return r.render(nil, nil, NewMalformedMessage(err)), false
	}

	root := doc.Root()
	switch root.Tag {
	case "hello":
		r.log.Debug("client hello received")
		return nil, false
	case "rpc":
	default:
		return r.render(root, nil, NewOperationNotSupported(root.Tag)), false
	}

	op := firstChild(root)
	if op == nil {
		return r.render(root, nil, NewMissingElement("operation")), false
	}

	handler, ok := r.handlers[op.Tag]
	if !ok {
		r.log.Infof("rpc not supported: %s", op.Tag)
		return r.render(root, nil, NewOperationNotSupported(op.Tag)), false
	}

	req := &Request{
		SessionID: r.sessionID,
		MessageID: root.SelectAttrValue("message-id", ""),
		RPC:       root,
		Operation: op,
	}
	r.log.Debugf("rpc %s message-id=%s", op.Tag, req.MessageID)
	result, err := handler(req)
	if err != nil {
		r.log.Infof("rpc %s failed: %v", op.Tag, err)
		return r.render(root, nil, err), false
	}
	if result == nil {
		result = OK()
	}
	if result.Close {
		r.Close()
	}
	return r.render(root, result, nil), result.Close
}

// Close releases the per-session state of every capability. It is safe to
// call more than once.
func (r *Responder) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, c := range r.caps {
		if closer, ok := c.(SessionCloser); ok {
			closer.CloseSession(r.sessionID)
		}
	}
}

func (r *Responder) render(rpc *etree.Element, result *Reply, err error) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	reply := doc.CreateElement("rpc-reply")
	reply.CreateAttr("xmlns", BaseNamespace)
	if rpc != nil {
		for _, a := range rpc.Attr {
			if a.Space == "" && a.Key == "xmlns" {
				continue
			}
			reply.CreateAttr(a.FullKey(), a.Value)
		}
	}

	switch {
	case err != nil:
		for _, e := range Errors(err) {
			reply.AddChild(e.ToElement())
		}
	case result != nil && len(result.Data) > 0:
		for _, d := range result.Data {
			reply.AddChild(d)
		}
	default:
		reply.CreateElement("ok")
	}

	out, _ := doc.WriteToBytes()
	return out
}

func firstChild(el *etree.Element) *etree.Element {
	kids := el.ChildElements()
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}
