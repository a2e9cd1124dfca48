package normalize

import (
	"strings"

	"github.com/vango-dev/vinterp/pkg/surface"
)

// ControlValue returns the coerced value of a single control: "true" or
// "false" for checkboxes and radios, selected option values joined by
// commas for a multi-select, text content for contenteditable elements and
// the live value otherwise.
func (n *Normalizer) ControlValue(node surface.Node) string {
	if node == nil {
		return ""
	}
	switch n.src.Tag(node) {
	case "input":
		switch n.inputType(node) {
		case "checkbox", "radio":
			return n.src.Control(node, surface.PropChecked)
		}
		return n.src.Control(node, surface.PropValue)
	case "select":
		if _, multiple := n.src.Attribute(node, "multiple"); multiple {
			return strings.Join(n.selected(node), ",")
		}
		return n.src.Control(node, surface.PropValue)
	case "textarea":
		return n.src.Control(node, surface.PropValue)
	}
	if v, ok := n.src.Attribute(node, "contenteditable"); ok && v != "false" {
		return n.src.Text(node)
	}
	return ""
}

// FormValues collects the named, enabled controls of form the way a browser
// builds FormData: checked boxes contribute their value, multi-selects one
// entry per selected option, and file and button inputs nothing.
func (n *Normalizer) FormValues(form surface.Node) map[string][]string {
	values := map[string][]string{}
	surface.Walk(n.src, form, func(node surface.Node) bool {
		if node == form {
			return true
		}
		name, ok := n.src.Attribute(node, "name")
		if !ok || name == "" {
			return true
		}
		if _, disabled := n.src.Attribute(node, "disabled"); disabled {
			return true
		}
		switch n.src.Tag(node) {
		case "input":
			switch n.inputType(node) {
			case "checkbox", "radio":
				if n.src.Control(node, surface.PropChecked) == "true" {
					values[name] = append(values[name], n.src.Control(node, surface.PropValue))
				}
			case "file", "button", "submit", "reset", "image":
			default:
				values[name] = append(values[name], n.src.Control(node, surface.PropValue))
			}
		case "select":
			values[name] = append(values[name], n.selected(node)...)
			return false
		case "textarea":
			values[name] = append(values[name], n.src.Control(node, surface.PropValue))
		}
		return true
	})
	return values
}

// selected returns the values of the selected options of a select element.
// A single-choice select with nothing selected reports its first option.
func (n *Normalizer) selected(sel surface.Node) []string {
	var out []string
	var first surface.Node
	surface.Walk(n.src, sel, func(node surface.Node) bool {
		if n.src.Tag(node) != "option" {
			return true
		}
		if first == nil {
			first = node
		}
		if n.src.Control(node, surface.PropSelected) == "true" {
			out = append(out, n.src.Control(node, surface.PropValue))
		}
		return false
	})
	_, multiple := n.src.Attribute(sel, "multiple")
	if !multiple {
		switch {
		case len(out) > 1:
			out = out[len(out)-1:]
		case len(out) == 0 && first != nil:
			out = []string{n.src.Control(first, surface.PropValue)}
		}
	}
	return out
}
