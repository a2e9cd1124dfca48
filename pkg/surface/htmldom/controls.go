package htmldom

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/vango-dev/vinterp/pkg/surface"
)

func (d *Document) state(h *html.Node) *control {
	c, ok := d.controls[h]
	if !ok {
		c = &control{}
		d.controls[h] = c
	}
	return c
}

func formatBool(b bool) string { return strconv.FormatBool(b) }

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		// Attribute-style truthiness: any other non-empty value sets it.
		return s != ""
	}
	return b
}

func (d *Document) Control(n surface.Node, prop surface.ControlProp) string {
	h := node(n)
	if h == nil || h.Type != html.ElementNode {
		return ""
	}
	c := d.controls[h]

	switch prop {
	case surface.PropValue:
		if c != nil && c.value != nil {
			return *c.value
		}
		return d.defaultValue(h)
	case surface.PropChecked:
		if c != nil && c.checked != nil {
			return formatBool(*c.checked)
		}
		_, ok := d.Attribute(h, "checked")
		return formatBool(ok)
	case surface.PropSelected:
		if c != nil && c.selected != nil {
			return formatBool(*c.selected)
		}
		_, ok := d.Attribute(h, "selected")
		return formatBool(ok)
	case surface.PropDefaultValue:
		if h.Data == "textarea" {
			return d.Text(h)
		}
		v, _ := d.Attribute(h, "value")
		return v
	case surface.PropDefaultChecked:
		_, ok := d.Attribute(h, "checked")
		return formatBool(ok)
	case surface.PropDefaultSelected:
		_, ok := d.Attribute(h, "selected")
		return formatBool(ok)
	}
	return ""
}

func (d *Document) defaultValue(h *html.Node) string {
	switch h.Data {
	case "textarea":
		return d.Text(h)
	case "select":
		if values := d.SelectedValues(h); len(values) > 0 {
			return values[0]
		}
		return ""
	case "option":
		if v, ok := d.Attribute(h, "value"); ok {
			return v
		}
		return d.Text(h)
	case "input":
		if v, ok := d.Attribute(h, "value"); ok {
			return v
		}
		if t, _ := d.Attribute(h, "type"); t == "checkbox" || t == "radio" {
			return "on"
		}
		return ""
	}
	v, _ := d.Attribute(h, "value")
	return v
}

func (d *Document) SetControl(n surface.Node, prop surface.ControlProp, value string) {
	h := node(n)
	if h == nil || h.Type != html.ElementNode {
		return
	}
	switch prop {
	case surface.PropValue:
		if h.Data == "select" {
			d.selectValue(h, value)
			return
		}
		d.state(h).value = &value
	case surface.PropChecked:
		b := parseBool(value)
		d.state(h).checked = &b
	case surface.PropSelected:
		b := parseBool(value)
		d.state(h).selected = &b
	case surface.PropDefaultValue:
		if h.Data == "textarea" {
			d.SetText(h, value)
			return
		}
		d.SetAttribute(h, "value", value)
	case surface.PropDefaultChecked:
		d.setFlag(h, "checked", parseBool(value))
	case surface.PropDefaultSelected:
		d.setFlag(h, "selected", parseBool(value))
	}
}

func (d *Document) setFlag(h *html.Node, name string, on bool) {
	if on {
		d.SetAttribute(h, name, "")
	} else {
		d.RemoveAttribute(h, name)
	}
}

func (d *Document) ResetControl(n surface.Node, prop surface.ControlProp) {
	h := node(n)
	if h == nil {
		return
	}
	c := d.controls[h]
	switch prop {
	case surface.PropValue:
		if c != nil {
			c.value = nil
		}
		if h.Data == "select" {
			for _, opt := range d.options(h) {
				if oc := d.controls[opt]; oc != nil {
					oc.selected = nil
				}
			}
		}
	case surface.PropChecked:
		if c != nil {
			c.checked = nil
		}
	case surface.PropSelected:
		if c != nil {
			c.selected = nil
		}
	case surface.PropDefaultValue:
		if h.Data == "textarea" {
			removeChildren(h)
			return
		}
		d.RemoveAttribute(h, "value")
	case surface.PropDefaultChecked:
		d.RemoveAttribute(h, "checked")
	case surface.PropDefaultSelected:
		d.RemoveAttribute(h, "selected")
	}
}

// options returns the option elements of a select, including those inside
// optgroups.
func (d *Document) options(sel *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "option":
				out = append(out, c)
			case "optgroup":
				walk(c)
			}
		}
	}
	walk(sel)
	return out
}

// SelectedValues returns the values of the selected options of a select
// element. A single-choice select with nothing selected reports its first
// option, as browsers do.
func (d *Document) SelectedValues(n surface.Node) []string {
	sel := node(n)
	if sel == nil {
		return nil
	}
	opts := d.options(sel)
	var out []string
	for _, opt := range opts {
		if d.Control(opt, surface.PropSelected) == "true" {
			out = append(out, d.Control(opt, surface.PropValue))
		}
	}
	if _, multiple := d.Attribute(sel, "multiple"); len(out) == 0 && !multiple && len(opts) > 0 {
		out = append(out, d.Control(opts[0], surface.PropValue))
	}
	if len(out) > 1 {
		if _, multiple := d.Attribute(sel, "multiple"); !multiple {
			out = out[len(out)-1:]
		}
	}
	return out
}

func (d *Document) selectValue(sel *html.Node, value string) {
	for _, opt := range d.options(sel) {
		on := d.Control(opt, surface.PropValue) == value
		d.state(opt).selected = &on
	}
}
