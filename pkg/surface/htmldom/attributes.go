package htmldom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vinterp/pkg/surface"
)

func (d *Document) Attribute(n surface.Node, name string) (string, bool) {
	return d.AttributeNS(n, "", name)
}

// AttributeNS reads a namespaced attribute.
func (d *Document) AttributeNS(n surface.Node, namespace, name string) (string, bool) {
	h := node(n)
	if h == nil {
		return "", false
	}
	for _, a := range h.Attr {
		if a.Namespace == namespace && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (d *Document) SetAttribute(n surface.Node, name, value string) {
	d.SetAttributeNS(n, "", name, value)
}

func (d *Document) RemoveAttribute(n surface.Node, name string) {
	d.RemoveAttributeNS(n, "", name)
}

func (d *Document) SetAttributeNS(n surface.Node, namespace, name, value string) {
	h := node(n)
	if h == nil || h.Type != html.ElementNode {
		return
	}
	for i := range h.Attr {
		if h.Attr[i].Namespace == namespace && h.Attr[i].Key == name {
			h.Attr[i].Val = value
			return
		}
	}
	h.Attr = append(h.Attr, html.Attribute{Namespace: namespace, Key: name, Val: value})
}

func (d *Document) RemoveAttributeNS(n surface.Node, namespace, name string) {
	h := node(n)
	if h == nil {
		return
	}
	for i := range h.Attr {
		if h.Attr[i].Namespace == namespace && h.Attr[i].Key == name {
			h.Attr = append(h.Attr[:i], h.Attr[i+1:]...)
			return
		}
	}
}

type styleDecl struct {
	prop, value string
}

func parseStyle(s string) []styleDecl {
	var out []styleDecl
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		out = append(out, styleDecl{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

func formatStyle(decls []styleDecl) string {
	var sb strings.Builder
	for i, decl := range decls {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(decl.prop)
		sb.WriteString(": ")
		sb.WriteString(decl.value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// Style returns a single inline style property.
func (d *Document) Style(n surface.Node, property string) (string, bool) {
	style, _ := d.Attribute(n, "style")
	for _, decl := range parseStyle(style) {
		if decl.prop == property {
			return decl.value, true
		}
	}
	return "", false
}

func (d *Document) SetStyle(n surface.Node, property, value string) {
	style, _ := d.Attribute(n, "style")
	decls := parseStyle(style)
	found := false
	for i := range decls {
		if decls[i].prop == property {
			decls[i].value = value
			found = true
		}
	}
	if !found {
		decls = append(decls, styleDecl{prop: property, value: value})
	}
	d.SetAttribute(n, "style", formatStyle(decls))
}

func (d *Document) RemoveStyle(n surface.Node, property string) {
	style, ok := d.Attribute(n, "style")
	if !ok {
		return
	}
	decls := parseStyle(style)
	kept := decls[:0]
	for _, decl := range decls {
		if decl.prop != property {
			kept = append(kept, decl)
		}
	}
	if len(kept) == 0 {
		d.RemoveAttribute(n, "style")
		return
	}
	d.SetAttribute(n, "style", formatStyle(kept))
}

func (d *Document) SetInnerHTML(n surface.Node, markup string) error {
	h := node(n)
	if h == nil {
		return nil
	}
	ctx := h
	if h.Type != html.ElementNode {
		ctx = newElement("body")
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return err
	}
	removeChildren(h)
	for _, c := range nodes {
		h.AppendChild(c)
	}
	return nil
}
