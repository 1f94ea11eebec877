package netconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

type fakeDatastore struct {
	conf     *etree.Element
	edits    []string
	commits  int
	resets   int
	locked   map[Target]string
	released []string
	editErr  error
}

func newFakeDatastore() *fakeDatastore {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(`<configuration>
  <interfaces>
    <interface><name>ge-0/0/1</name><description>one</description></interface>
    <interface><name>ge-0/0/2</name><description>two</description></interface>
  </interfaces>
  <vlans>
    <vlan><name>VLAN10</name><vlan-id>10</vlan-id></vlan>
  </vlans>
</configuration>`); err != nil {
		panic(err)
	}
	return &fakeDatastore{conf: doc.Root(), locked: map[Target]string{}}
}

func (f *fakeDatastore) ToEtree(Target) (*etree.Element, error) { return f.conf.Copy(), nil }
func (f *fakeDatastore) Edit(target Target, config *etree.Element) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, string(target)+":"+config.Tag)
	return nil
}
func (f *fakeDatastore) Validate(Target) error  { return nil }
func (f *fakeDatastore) CommitCandidate() error { f.commits++; return nil }
func (f *fakeDatastore) Lock(target Target, sessionID string) error {
	if holder, ok := f.locked[target]; ok && holder != sessionID {
		return NewOperationFailed("Configuration database is already open", "")
	}
	f.locked[target] = sessionID
	return nil
}
func (f *fakeDatastore) Unlock(target Target, sessionID string) error {
	delete(f.locked, target)
	return nil
}
func (f *fakeDatastore) Reset() { f.resets++ }
func (f *fakeDatastore) ReleaseLocks(sessionID string) {
	f.released = append(f.released, sessionID)
}

func newTestResponder(ds *fakeDatastore) *Responder {
	return NewResponder("my_juniper", "7",
		NewBaseCapability(ds),
		Advertise(CandidateURI),
		Advertise("http://xml.juniper.net/dmi/system/1.0"),
	)
}

func parse(t *testing.T, b []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(b))
	return doc.Root()
}

func rpc(body string) []byte {
	return []byte(`<rpc xmlns="urn:ietf:params:xml:ns:netconf:base:1.0" message-id="42">` + body + `</rpc>`)
}

// ===== Framer Tests =====

func TestFramer_ReadMessages(t *testing.T) {
	in := "<hello/>]]>]]>\n<rpc><commit/></rpc>]]>]]>"
	f := NewFramer(&readWriter{Reader: strings.NewReader(in)})

	msg, err := f.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "<hello/>", string(msg))

	msg, err = f.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "<rpc><commit/></rpc>", string(msg))

	_, err = f.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFramer_TruncatedMessage(t *testing.T) {
	f := NewFramer(&readWriter{Reader: strings.NewReader("<rpc><comm")})
	_, err := f.ReadMessage()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFramer_WriteMessage(t *testing.T) {
	rw := &readWriter{Reader: strings.NewReader("")}
	require.NoError(t, NewFramer(rw).WriteMessage([]byte("<ok/>")))
	assert.Equal(t, "<ok/>\n]]>]]>", rw.out.String())
}

// ===== Responder Tests =====

func TestResponder_Hello(t *testing.T) {
	r := newTestResponder(newFakeDatastore())
	hello := parse(t, r.Hello())

	assert.Equal(t, "hello", hello.Tag)
	var uris []string
	for _, c := range hello.FindElements("./capabilities/capability") {
		uris = append(uris, c.Text())
	}
	assert.Equal(t, []string{BaseURI, CandidateURI, "http://xml.juniper.net/dmi/system/1.0"}, uris)
	assert.Equal(t, "7", hello.SelectElement("session-id").Text())
}

func TestResponder_ClientHelloIgnored(t *testing.T) {
	r := newTestResponder(newFakeDatastore())
	reply, closeSession := r.Handle([]byte(`<hello><capabilities/></hello>`))
	assert.Nil(t, reply)
	assert.False(t, closeSession)
}

func TestResponder_UnsupportedOperation(t *testing.T) {
	r := newTestResponder(newFakeDatastore())
	reply, _ := r.Handle(rpc(`<get-software-information/>`))
	root := parse(t, reply)

	assert.Equal(t, "rpc-reply", root.Tag)
	assert.Equal(t, "42", root.SelectAttrValue("message-id", ""))
	assert.Equal(t, TagOperationNotSupported, root.FindElement("./rpc-error/error-tag").Text())
	assert.Equal(t, "get-software-information", root.FindElement("./rpc-error/error-info/bad-element").Text())
}

func TestResponder_MalformedMessage(t *testing.T) {
	r := newTestResponder(newFakeDatastore())
	reply, _ := r.Handle([]byte(`this is not xml`))
	root := parse(t, reply)
	assert.Equal(t, TagMalformedMessage, root.FindElement("./rpc-error/error-tag").Text())
}

func TestResponder_BaseOperations(t *testing.T) {
	ds := newFakeDatastore()
	r := newTestResponder(ds)

	reply, _ := r.Handle(rpc(`<edit-config><target><candidate/></target><config><configuration><vlans/></configuration></config></edit-config>`))
	assert.NotNil(t, parse(t, reply).SelectElement("ok"))
	assert.Equal(t, []string{"candidate:configuration"}, ds.edits)

	reply, _ = r.Handle(rpc(`<commit/>`))
	assert.NotNil(t, parse(t, reply).SelectElement("ok"))
	assert.Equal(t, 1, ds.commits)

	r.Handle(rpc(`<discard-changes/>`))
	assert.Equal(t, 1, ds.resets)

	reply, _ = r.Handle(rpc(`<lock><target><candidate/></target></lock>`))
	assert.NotNil(t, parse(t, reply).SelectElement("ok"))
	assert.Equal(t, "7", ds.locked[Candidate])

	reply, _ = r.Handle(rpc(`<lock><target><startup/></target></lock>`))
	assert.Equal(t, TagBadElement, parse(t, reply).FindElement("./rpc-error/error-tag").Text())
}

func TestResponder_EditErrorsRenderEachError(t *testing.T) {
	ds := newFakeDatastore()
	var multi util.MultiError
	multi.Append(NewBadElement("frob", "[edit vlans vlan]"))
	multi.Append(NewBadElement("blah", "[edit interfaces]"))
	ds.editErr = multi.ErrorOrNil()

	reply, _ := newTestResponder(ds).Handle(rpc(`<edit-config><target><candidate/></target><config><configuration/></config></edit-config>`))
	errs := parse(t, reply).SelectElements("rpc-error")
	require.Len(t, errs, 2)
	assert.Equal(t, "frob", errs[0].FindElement("./error-info/bad-element").Text())
	assert.Equal(t, "[edit interfaces]", errs[1].SelectElement("error-path").Text())
}

func TestResponder_GetConfigWithFilter(t *testing.T) {
	r := newTestResponder(newFakeDatastore())
	reply, _ := r.Handle(rpc(`<get-config><source><running/></source><filter type="subtree">
		<configuration><interfaces><interface><name>ge-0/0/2</name></interface></interfaces></configuration>
	</filter></get-config>`))

	root := parse(t, reply)
	ifaces := root.FindElements("./data/configuration/interfaces/interface")
	require.Len(t, ifaces, 1)
	assert.Equal(t, "two", ifaces[0].SelectElement("description").Text())
	assert.Nil(t, root.FindElement("./data/configuration/vlans"))
}

func TestResponder_CloseSession(t *testing.T) {
	ds := newFakeDatastore()
	r := newTestResponder(ds)
	reply, closeSession := r.Handle(rpc(`<close-session/>`))

	assert.True(t, closeSession)
	assert.NotNil(t, parse(t, reply).SelectElement("ok"))
	assert.Equal(t, []string{"7"}, ds.released)

	r.Close()
	assert.Len(t, ds.released, 1, "locks are released once")
}

// ===== Subtree Filter Tests =====

func TestSubtreeFilter(t *testing.T) {
	data := newFakeDatastore().conf

	tests := []struct {
		name   string
		filter string
		check  func(t *testing.T, out *etree.Element)
	}{
		{
			name:   "selection node",
			filter: `<filter><configuration><vlans/></configuration></filter>`,
			check: func(t *testing.T, out *etree.Element) {
				assert.NotNil(t, out.FindElement("./vlans/vlan/vlan-id"))
				assert.Nil(t, out.SelectElement("interfaces"))
			},
		},
		{
			name:   "content match keeps whole entry",
			filter: `<filter><configuration><vlans><vlan><name>VLAN10</name></vlan></vlans></configuration></filter>`,
			check: func(t *testing.T, out *etree.Element) {
				assert.Equal(t, "10", out.FindElement("./vlans/vlan/vlan-id").Text())
			},
		},
		{
			name:   "content match with selection",
			filter: `<filter><configuration><interfaces><interface><name>ge-0/0/1</name><description/></interface></interfaces></configuration></filter>`,
			check: func(t *testing.T, out *etree.Element) {
				ifaces := out.FindElements("./interfaces/interface")
				require.Len(t, ifaces, 1)
				assert.Equal(t, "one", ifaces[0].SelectElement("description").Text())
			},
		},
		{
			name:   "no match",
			filter: `<filter><configuration><vlans><vlan><name>NOPE</name></vlan></vlans></configuration></filter>`,
			check: func(t *testing.T, out *etree.Element) {
				assert.Nil(t, out)
			},
		},
		{
			name:   "other root",
			filter: `<filter><system/></filter>`,
			check: func(t *testing.T, out *etree.Element) {
				assert.Nil(t, out)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := etree.NewDocument()
			require.NoError(t, doc.ReadFromString(tt.filter))
			tt.check(t, SubtreeFilter(data, doc.Root()))
		})
	}
}

// ===== Errors Tests =====

func TestErrors_Flatten(t *testing.T) {
	assert.Nil(t, Errors(nil))

	plain := Errors(errors.New("boom"))
	require.Len(t, plain, 1)
	assert.Equal(t, TagOperationFailed, plain[0].Tag)
	assert.Equal(t, "boom", plain[0].Message)

	el := NewOperationFailed("configuration database modified", "").ToElement()
	assert.Equal(t, "error", el.SelectElement("error-severity").Text())
	assert.Nil(t, el.SelectElement("error-path"))
}

func TestRPCError_Unwrap(t *testing.T) {
	tests := []struct {
		tag  string
		want error
	}{
		{TagLockDenied, util.ErrLocked},
		{TagDataMissing, util.ErrNotFound},
		{TagDataExists, util.ErrAlreadyExists},
		{TagOperationNotSupported, util.ErrNotSupported},
		{TagBadElement, util.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			err := fmt.Errorf("edit: %w", &RPCError{Tag: tt.tag})
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.NoError(t, (&RPCError{Tag: TagOperationFailed}).Unwrap())
}

// ===== Serve Tests =====

type readWriter struct {
	io.Reader
	out bytes.Buffer
}

func (rw *readWriter) Write(p []byte) (int, error) { return rw.out.Write(p) }

func TestServe(t *testing.T) {
	ds := newFakeDatastore()
	in := `<hello><capabilities><capability>` + BaseURI + `</capability></capabilities></hello>]]>]]>` +
		string(rpc(`<commit/>`)) + "]]>]]>" +
		string(rpc(`<close-session/>`)) + "]]>]]>" +
		string(rpc(`<commit/>`)) + "]]>]]>"
	rw := &readWriter{Reader: strings.NewReader(in)}

	var mu sync.Mutex
	require.NoError(t, Serve(context.Background(), rw, newTestResponder(ds), &mu))

	messages := strings.Split(rw.out.String(), Delimiter)
	// hello, commit reply, close reply, trailing empty
	assert.Len(t, messages, 4)
	assert.Contains(t, messages[0], "<session-id>7</session-id>")
	assert.Equal(t, 1, ds.commits, "nothing runs after close-session")
	assert.Equal(t, []string{"7"}, ds.released)
}

func TestServe_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rw := &readWriter{Reader: strings.NewReader(string(rpc(`<commit/>`)) + Delimiter)}
	var mu sync.Mutex
	err := Serve(ctx, rw, newTestResponder(newFakeDatastore()), &mu)
	assert.ErrorIs(t, err, context.Canceled)
}
