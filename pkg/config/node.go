// Package config provides a read-only, self-describing XML subtree type
// and navigation helpers over it. The engine itself never validates
// configuration semantically; it only walks the tree handed to it by
// the surrounding daemon.
package config

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// Node is a generic XML element: name, attributes, text content and
// child elements, recursively. encoding/xml decodes directly into this
// shape via the `,any` wildcards, so no per-device-kind struct is needed
// to parse wicked's interface documents — only to navigate them.
type Node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Children []Node    `xml:",any"`
}

// Parse decodes a single XML document into a Node tree.
func Parse(r io.Reader) (*Node, error) {
	var n Node
	if err := xml.NewDecoder(r).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseString is a convenience wrapper around Parse for inline fixtures.
func ParseString(doc string) (*Node, error) {
	return Parse(strings.NewReader(doc))
}

// Name returns the element's local name (namespace prefix stripped).
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.XMLName.Local
}

// Text returns the element's own character data, trimmed.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content)
}

// Attr returns the named attribute's value and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrDefault returns the named attribute's value, or def if absent.
func (n *Node) AttrDefault(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Child returns the first direct child with the given local name, or
// nil if none exists.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].Name() == name {
			return &n.Children[i]
		}
	}
	return nil
}

// ChildText returns the trimmed text of the first child with the given
// name, or "" if no such child exists.
func (n *Node) ChildText(name string) string {
	return n.Child(name).Text()
}

// AllChildren returns every direct child with the given local name.
func (n *Node) AllChildren(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for i := range n.Children {
		if n.Children[i].Name() == name {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// Int parses the element's text as an integer, returning ok=false if it
// is missing or not a valid integer.
func (n *Node) Int() (int, bool) {
	if n == nil {
		return 0, false
	}
	v, err := strconv.Atoi(n.Text())
	if err != nil {
		return 0, false
	}
	return v, true
}
