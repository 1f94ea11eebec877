package datastore

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Operation is the edit-config operation carried by an element.
type Operation string

const (
	Merge   Operation = "merge"
	Replace Operation = "replace"
	Create  Operation = "create"
	Delete  Operation = "delete"
	Remove  Operation = "remove"
)

// IsDelete reports whether op removes data.
func (op Operation) IsDelete() bool { return op == Delete || op == Remove }

// OperationOf returns the operation attribute of el, or inherited when el
// has none. Any namespace prefix is accepted.
func OperationOf(el *etree.Element, inherited Operation) Operation {
	if attr := el.SelectAttr("operation"); attr != nil {
		return Operation(attr.Value)
	}
	if inherited == "" {
		return Merge
	}
	return inherited
}

// NodeHandler applies one recognised element to conf.
type NodeHandler func(conf *model.SwitchConfiguration, el *etree.Element, op Operation) error

// Registry maps element paths, relative to the edit root and joined by
// "/", to the handlers that apply them. Containers without a handler are
// descended into when a handler exists below them.
type Registry struct {
	handlers map[string]NodeHandler
	order    map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]NodeHandler), order: make(map[string]int)}
}

// Handle registers h for path, e.g. "vlans/vlan".
func (r *Registry) Handle(path string, h NodeHandler) {
	r.handlers[path] = h
}

// Order makes the listed top-level elements apply first, in this order,
// whatever their position in the request.
func (r *Registry) Order(tags ...string) {
	for i, t := range tags {
		r.order[t] = i + 1
	}
}

// Apply walks root and runs the handler of every recognised element.
// Errors of independent nodes are collected together.
func (r *Registry) Apply(conf *model.SwitchConfiguration, root *etree.Element) error {
	var errs util.MultiError
	children := root.ChildElements()
	sort.SliceStable(children, func(i, j int) bool {
		return r.rank(children[i].Tag) < r.rank(children[j].Tag)
	})
	for _, child := range children {
		r.walk(conf, child, child.Tag, OperationOf(root, Merge), &errs)
	}
	return errs.ErrorOrNil()
}

func (r *Registry) rank(tag string) int {
	if n, ok := r.order[tag]; ok {
		return n
	}
	return len(r.order) + 1
}

func (r *Registry) walk(conf *model.SwitchConfiguration, el *etree.Element, path string, inherited Operation, errs *util.MultiError) {
	op := OperationOf(el, inherited)
	if h, ok := r.handlers[path]; ok {
		errs.Append(h(conf, el, op))
		return
	}
	if !r.hasDescendants(path) {
		errs.Append(netconf.NewBadElement(el.Tag, EditPath(strings.Split(path, "/")[:strings.Count(path, "/")]...)))
		return
	}
	for _, child := range el.ChildElements() {
		r.walk(conf, child, path+"/"+child.Tag, op, errs)
	}
}

func (r *Registry) hasDescendants(path string) bool {
	prefix := path + "/"
	for p := range r.handlers {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// EditPath formats a Juniper error path: EditPath("interfaces", "ge-0/0/1")
// is "[edit interfaces ge-0/0/1]".
func EditPath(elems ...string) string {
	if len(elems) == 0 {
		return "[edit]"
	}
	return "[edit " + strings.Join(elems, " ") + "]"
}

// Leaf returns the trimmed text of the child tag, and whether it exists.
func Leaf(el *etree.Element, tag string) (string, bool) {
	child := el.SelectElement(tag)
	if child == nil {
		return "", false
	}
	return strings.TrimSpace(child.Text()), true
}

// Key returns the trimmed text of the name child, the key of most lists.
func Key(el *etree.Element) string {
	name, _ := Leaf(el, "name")
	return name
}
