// Package view renders chat pages as golang.org/x/net/html node trees.
package view

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is a shorthand attribute constructor.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Element builds an element node and attaches children.
func Element(tag atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag.String(),
		DataAtom: tag,
		Attr:     attrs,
	}
	for _, child := range children {
		if child != nil {
			n.AppendChild(child)
		}
	}
	return n
}

// Text builds an escaped text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Attr(kv[i], kv[i+1]))
	}
	return out
}

// Render serialises nodes in order.
func Render(w io.Writer, nodes ...*html.Node) error {
	for _, n := range nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// AttrValue returns the value of key on n.
func AttrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// FindAll walks n depth-first and collects nodes matching match.
func FindAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if match(cur) {
			found = append(found, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// HasClass reports whether n's class attribute lists class.
func HasClass(n *html.Node, class string) bool {
	val, ok := AttrValue(n, "class")
	if !ok {
		return false
	}
	start := 0
	for i := 0; i <= len(val); i++ {
		if i == len(val) || val[i] == ' ' {
			if val[start:i] == class {
				return true
			}
			start = i + 1
		}
	}
	return false
}
