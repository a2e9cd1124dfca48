package interp

import (
	"github.com/vango-dev/vinterp/pkg/surface"
)

// StyleNamespace routes SetAttribute to a single inline style property.
const StyleNamespace = "style"

// InnerHTMLAttr replaces a node's content with raw markup.
const InnerHTMLAttr = "dangerous_inner_html"

// booleanAttrs is the closed set of attributes whose value "false" means
// absent.
var booleanAttrs = map[string]struct{}{
	"allowfullscreen":     {},
	"allowpaymentrequest": {},
	"async":               {},
	"autofocus":           {},
	"autoplay":            {},
	"checked":             {},
	"controls":            {},
	"default":             {},
	"defer":               {},
	"disabled":            {},
	"formnovalidate":      {},
	"hidden":              {},
	"ismap":               {},
	"itemscope":           {},
	"loop":                {},
	"multiple":            {},
	"muted":               {},
	"nomodule":            {},
	"novalidate":          {},
	"open":                {},
	"playsinline":         {},
	"readonly":            {},
	"required":            {},
	"reversed":            {},
	"selected":            {},
	"truespeed":           {},
	"webkitdirectory":     {},
}

// IsBooleanAttribute reports whether name is in the boolean attribute table.
func IsBooleanAttribute(name string) bool {
	_, ok := booleanAttrs[name]
	return ok
}

// controlAttrs maps attribute names onto the control property they drive.
var controlAttrs = map[string]surface.ControlProp{
	"value":            surface.PropValue,
	"checked":          surface.PropChecked,
	"selected":         surface.PropSelected,
	"initial_value":    surface.PropDefaultValue,
	"initial_checked":  surface.PropDefaultChecked,
	"initial_selected": surface.PropDefaultSelected,
}

func (in *Interpreter) setAttribute(n surface.Node, name, value, namespace string) error {
	switch {
	case namespace == StyleNamespace:
		in.s.SetStyle(n, name, value)
		return nil
	case namespace != "":
		in.s.SetAttributeNS(n, namespace, name, value)
		return nil
	}

	if prop, ok := controlAttrs[name]; ok {
		in.s.SetControl(n, prop, value)
		return nil
	}
	if name == InnerHTMLAttr {
		return in.setInnerHTML(n, value)
	}
	if value == "false" && IsBooleanAttribute(name) {
		in.s.RemoveAttribute(n, name)
		return nil
	}
	in.s.SetAttribute(n, name, value)
	return nil
}

func (in *Interpreter) removeAttribute(n surface.Node, name, namespace string) error {
	switch {
	case namespace == StyleNamespace:
		in.s.RemoveStyle(n, name)
		return nil
	case namespace != "":
		in.s.RemoveAttributeNS(n, namespace, name)
		return nil
	}

	switch name {
	case "value":
		in.s.SetControl(n, surface.PropValue, "")
		in.s.RemoveAttribute(n, name)
	case "checked", "selected":
		in.s.SetControl(n, controlAttrs[name], "false")
	case "initial_value", "initial_checked", "initial_selected":
		in.s.ResetControl(n, controlAttrs[name])
	case InnerHTMLAttr:
		return in.setInnerHTML(n, "")
	default:
		in.s.RemoveAttribute(n, name)
	}
	return nil
}

// setInnerHTML replaces the children of n. The markup parser creates new
// nodes, so tracked descendants of the old children are unbound once the
// replacement succeeds.
func (in *Interpreter) setInnerHTML(n surface.Node, markup string) error {
	if in.sanitizer != nil {
		markup = in.sanitizer.Sanitize(markup)
	}
	var old []surface.Node
	for c := in.s.FirstChild(n); c != nil; c = in.s.NextSibling(c) {
		old = append(old, c)
	}
	if err := in.s.SetInnerHTML(n, markup); err != nil {
		return ErrMalformedEdit
	}
	for _, c := range old {
		in.discard(c)
	}
	return nil
}
