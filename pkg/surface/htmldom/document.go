// Package htmldom implements surface.Surface over an in-memory
// golang.org/x/net/html tree.
//
// It backs the headless host, the replay CLI and the interpreter tests.
// Control state, listeners, geometry and focus live in side tables keyed by
// node pointer; everything else is stored on the html.Node itself so that
// Render shows exactly what a browser would serialize.
package htmldom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/vinterp/pkg/surface"
)

// Namespace URIs mapped onto the short names x/net/html uses.
var namespaces = map[string]string{
	"http://www.w3.org/2000/svg":         "svg",
	"http://www.w3.org/1998/Math/MathML": "math",
}

type control struct {
	value    *string
	checked  *bool
	selected *bool
}

// Document is an in-memory surface. It is not safe for concurrent use.
type Document struct {
	doc  *html.Node
	root *html.Node

	controls  map[*html.Node]*control
	listeners map[*html.Node]map[string]surface.Handler
	rects     map[*html.Node]surface.Rect
	scroll    map[*html.Node][2]float64
	focused   *html.Node
}

var _ surface.Surface = (*Document)(nil)

// New creates an empty document whose mount root is <div id="main">.
func New() *Document {
	doc := &html.Node{Type: html.DocumentNode}
	root := newElement("div")
	root.Attr = []html.Attribute{{Key: "id", Val: "main"}}
	doc.AppendChild(root)
	return &Document{
		doc:       doc,
		root:      root,
		controls:  make(map[*html.Node]*control),
		listeners: make(map[*html.Node]map[string]surface.Handler),
		rects:     make(map[*html.Node]surface.Rect),
		scroll:    make(map[*html.Node][2]float64),
	}
}

// Parse creates a document and mounts markup under its root, as a server
// pre-render would.
func Parse(markup string) (*Document, error) {
	d := New()
	if err := d.SetInnerHTML(d.root, markup); err != nil {
		return nil, err
	}
	return d, nil
}

func newElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func node(n surface.Node) *html.Node {
	h, _ := n.(*html.Node)
	return h
}

// wrap keeps a nil *html.Node from becoming a non-nil interface.
func wrap(n *html.Node) surface.Node {
	if n == nil {
		return nil
	}
	return n
}

// Root returns the mount root.
func (d *Document) Root() surface.Node { return d.root }

func (d *Document) CreateElement(tag string) surface.Node { return newElement(tag) }

func (d *Document) CreateElementNS(tag, namespace string) surface.Node {
	n := newElement(tag)
	if short, ok := namespaces[namespace]; ok {
		n.Namespace = short
	} else {
		n.Namespace = namespace
	}
	return n
}

func (d *Document) CreateText(text string) surface.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func (d *Document) CreatePlaceholder() surface.Node {
	n := newElement("pre")
	n.Attr = []html.Attribute{{Key: "hidden", Val: ""}}
	return n
}

func (d *Document) AppendChild(parent, child surface.Node) {
	p, c := node(parent), node(child)
	if p == nil || c == nil {
		return
	}
	detach(c)
	p.AppendChild(c)
}

func (d *Document) InsertBefore(anchor surface.Node, nodes ...surface.Node) {
	a := node(anchor)
	if a == nil || a.Parent == nil {
		return
	}
	for _, n := range nodes {
		c := node(n)
		if c == nil || c == a {
			continue
		}
		detach(c)
		a.Parent.InsertBefore(c, a)
	}
}

func (d *Document) InsertAfter(anchor surface.Node, nodes ...surface.Node) {
	a := node(anchor)
	if a == nil || a.Parent == nil {
		return
	}
	ref := a
	for _, n := range nodes {
		c := node(n)
		if c == nil || c == a {
			continue
		}
		detach(c)
		ref.Parent.InsertBefore(c, ref.NextSibling)
		ref = c
	}
}

func (d *Document) ReplaceWith(target surface.Node, nodes ...surface.Node) {
	t := node(target)
	if t == nil {
		return
	}
	if t.Parent != nil {
		d.InsertBefore(t, nodes...)
	}
	detach(t)
}

func (d *Document) Detach(n surface.Node) {
	if h := node(n); h != nil {
		detach(h)
	}
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func (d *Document) Clone(n surface.Node) surface.Node {
	h := node(n)
	if h == nil {
		return nil
	}
	return deepClone(h)
}

func deepClone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(deepClone(child))
	}
	return c
}

func (d *Document) Parent(n surface.Node) surface.Node {
	if h := node(n); h != nil {
		return wrap(h.Parent)
	}
	return nil
}

func (d *Document) FirstChild(n surface.Node) surface.Node {
	if h := node(n); h != nil {
		return wrap(h.FirstChild)
	}
	return nil
}

func (d *Document) NextSibling(n surface.Node) surface.Node {
	if h := node(n); h != nil {
		return wrap(h.NextSibling)
	}
	return nil
}

func (d *Document) Kind(n surface.Node) surface.Kind {
	h := node(n)
	if h == nil {
		return surface.KindOther
	}
	switch h.Type {
	case html.ElementNode:
		return surface.KindElement
	case html.TextNode:
		return surface.KindText
	case html.CommentNode:
		return surface.KindComment
	case html.DocumentNode:
		return surface.KindDocument
	}
	return surface.KindOther
}

func (d *Document) Tag(n surface.Node) string {
	if h := node(n); h != nil && h.Type == html.ElementNode {
		return h.Data
	}
	return ""
}

func (d *Document) Text(n surface.Node) string {
	h := node(n)
	if h == nil {
		return ""
	}
	if h.Type == html.TextNode || h.Type == html.CommentNode {
		return h.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(h)
	return sb.String()
}

func (d *Document) SetText(n surface.Node, text string) {
	h := node(n)
	if h == nil {
		return
	}
	if h.Type != html.ElementNode && h.Type != html.DocumentNode {
		h.Data = text
		return
	}
	removeChildren(h)
	h.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Render serializes n, including n itself.
func (d *Document) Render(n surface.Node) string {
	h := node(n)
	if h == nil {
		return ""
	}
	var sb strings.Builder
	if err := html.Render(&sb, h); err != nil {
		return fmt.Sprintf("<!-- render: %v -->", err)
	}
	return sb.String()
}

// InnerHTML serializes the children of n.
func (d *Document) InnerHTML(n surface.Node) string {
	h := node(n)
	if h == nil {
		return ""
	}
	var sb strings.Builder
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return fmt.Sprintf("<!-- render: %v -->", err)
		}
	}
	return sb.String()
}

// HTML serializes the children of the mount root.
func (d *Document) HTML() string { return d.InnerHTML(d.root) }

// Find returns the first node under the root, in document order, for which
// match returns true.
func (d *Document) Find(match func(surface.Node) bool) surface.Node {
	var found surface.Node
	surface.Walk(d, d.root, func(n surface.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByAttr returns the first element carrying attribute name=value.
func (d *Document) FindByAttr(name, value string) surface.Node {
	return d.Find(func(n surface.Node) bool {
		v, ok := d.Attribute(n, name)
		return ok && v == value
	})
}
