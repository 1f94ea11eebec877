package netconf

import (
	"strings"

	"github.com/beevik/etree"
)

// SubtreeFilter applies an RFC 6241 subtree filter to data. filter is the
// <filter> element; its children select from data, which is the root of
// the datastore tree. It returns nil when nothing is selected.
//
// A filter node with child elements is a containment node. A leaf with text
// is a content-match node: it keeps its parent only when a sibling in the
// data has the same text. A leaf without text is a selection node and keeps
// the whole matching subtree.
func SubtreeFilter(data, filter *etree.Element) *etree.Element {
	if data == nil || filter == nil {
		return nil
	}
	for _, f := range filter.ChildElements() {
		if f.Tag == data.Tag {
			if out := filterNode(data, f); out != nil {
				return out
			}
		}
	}
	return nil
}

func filterNode(data, f *etree.Element) *etree.Element {
	kids := f.ChildElements()
	if len(kids) == 0 {
		if want := strings.TrimSpace(f.Text()); want != "" && strings.TrimSpace(data.Text()) != want {
			return nil
		}
		return data.Copy()
	}

	var matches, others []*etree.Element
	for _, k := range kids {
		if isContentMatch(k) {
			matches = append(matches, k)
		} else {
			others = append(others, k)
		}
	}

	for _, m := range matches {
		if !hasMatchingChild(data, m) {
			return nil
		}
	}
	if len(others) == 0 {
		return data.Copy()
	}

	out := shallowCopy(data)
	selected := false
	for _, child := range data.ChildElements() {
		if matchesAny(child, matches) {
			out.AddChild(child.Copy())
			continue
		}
		for _, o := range others {
			if o.Tag != child.Tag {
				continue
			}
			if r := filterNode(child, o); r != nil {
				out.AddChild(r)
				selected = true
				break
			}
		}
	}
	if !selected && len(matches) == 0 {
		return nil
	}
	return out
}

func isContentMatch(el *etree.Element) bool {
	return len(el.ChildElements()) == 0 && strings.TrimSpace(el.Text()) != ""
}

func hasMatchingChild(data, m *etree.Element) bool {
	for _, child := range data.SelectElements(m.Tag) {
		if strings.TrimSpace(child.Text()) == strings.TrimSpace(m.Text()) {
			return true
		}
	}
	return false
}

func matchesAny(child *etree.Element, matches []*etree.Element) bool {
	for _, m := range matches {
		if child.Tag == m.Tag && strings.TrimSpace(child.Text()) == strings.TrimSpace(m.Text()) {
			return true
		}
	}
	return false
}

func shallowCopy(el *etree.Element) *etree.Element {
	out := etree.NewElement(el.Tag)
	out.Space = el.Space
	for _, a := range el.Attr {
		out.CreateAttr(a.FullKey(), a.Value)
	}
	return out
}
