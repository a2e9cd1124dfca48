// Package normalize converts native surface events into platform-neutral
// protocol payloads.
//
// Normalization is read-only: it inspects the origin node and its form, but
// never changes the surface or any interpreter state.
package normalize

import (
	"strings"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// Source is the part of a surface the normalizer reads.
type Source interface {
	surface.Tree
	Attribute(n surface.Node, name string) (string, bool)
	Control(n surface.Node, prop surface.ControlProp) string
}

// Normalizer builds payloads for one surface.
type Normalizer struct {
	src Source
}

// New creates a normalizer reading from src.
func New(src Source) *Normalizer {
	return &Normalizer{src: src}
}

// Normalize returns the payload for ev, which was resolved to origin.
func (n *Normalizer) Normalize(ev *surface.Event, origin surface.Node) protocol.EventData {
	c := CategoryOf(ev.Name)
	switch c {
	case protocol.CategoryMouse:
		m := mouse(ev)
		if form := n.enclosingForm(origin); form != nil {
			m.Values = n.FormValues(form)
		}
		return m
	case protocol.CategoryPointer:
		return protocol.PointerData{
			MouseData:          mouse(ev),
			PointerID:          ev.PointerID,
			Width:              ev.Width,
			Height:             ev.Height,
			Pressure:           ev.Pressure,
			TangentialPressure: ev.TangentialPressure,
			TiltX:              ev.TiltX,
			TiltY:              ev.TiltY,
			Twist:              ev.Twist,
			PointerType:        ev.PointerType,
			IsPrimary:          ev.IsPrimary,
		}
	case protocol.CategoryKeyboard:
		return protocol.KeyboardData{
			Key:         ev.Key,
			Code:        ev.Code,
			KeyCode:     ev.KeyCode,
			Location:    ev.Location,
			Modifiers:   modifiers(ev),
			Repeat:      ev.Repeat,
			IsComposing: ev.IsComposing,
		}
	case protocol.CategoryWheel:
		return protocol.WheelData{
			MouseData: mouse(ev),
			DeltaX:    ev.DeltaX,
			DeltaY:    ev.DeltaY,
			DeltaZ:    ev.DeltaZ,
			DeltaMode: ev.DeltaMode,
		}
	case protocol.CategoryTouch:
		return protocol.TouchData{
			Changed:   touches(ev.ChangedTouches),
			Targets:   touches(ev.TargetTouches),
			Touches:   touches(ev.Touches),
			Modifiers: modifiers(ev),
		}
	case protocol.CategoryComposition:
		return protocol.CompositionData{Data: ev.Data}
	case protocol.CategoryDrag:
		return protocol.DragData{MouseData: mouse(ev), Files: files(ev.Files)}
	case protocol.CategoryAnimation:
		return protocol.AnimationData{
			AnimationName: ev.AnimationName,
			ElapsedTime:   ev.ElapsedTime,
			PseudoElement: ev.PseudoElement,
		}
	case protocol.CategoryTransition:
		return protocol.TransitionData{
			PropertyName:  ev.PropertyName,
			ElapsedTime:   ev.ElapsedTime,
			PseudoElement: ev.PseudoElement,
		}
	case protocol.CategoryFocus:
		return protocol.FocusData{}
	case protocol.CategoryScroll:
		return n.scroll(origin)
	case protocol.CategoryForm:
		return n.form(ev, origin)
	}
	return protocol.EmptyData{Kind: c}
}

func modifiers(ev *surface.Event) protocol.Modifiers {
	var m protocol.Modifiers
	if ev.CtrlKey {
		m |= protocol.ModCtrl
	}
	if ev.ShiftKey {
		m |= protocol.ModShift
	}
	if ev.AltKey {
		m |= protocol.ModAlt
	}
	if ev.MetaKey {
		m |= protocol.ModMeta
	}
	return m
}

func mouse(ev *surface.Event) protocol.MouseData {
	return protocol.MouseData{
		ClientX:   ev.ClientX,
		ClientY:   ev.ClientY,
		PageX:     ev.PageX,
		PageY:     ev.PageY,
		ScreenX:   ev.ScreenX,
		ScreenY:   ev.ScreenY,
		OffsetX:   ev.OffsetX,
		OffsetY:   ev.OffsetY,
		Button:    ev.Button,
		Buttons:   ev.Buttons,
		Modifiers: modifiers(ev),
	}
}

func touches(in []surface.Touch) []protocol.TouchPoint {
	out := make([]protocol.TouchPoint, len(in))
	for i, t := range in {
		out[i] = protocol.TouchPoint{
			Identifier: t.Identifier,
			ClientX:    t.ClientX,
			ClientY:    t.ClientY,
			PageX:      t.PageX,
			PageY:      t.PageY,
			ScreenX:    t.ScreenX,
			ScreenY:    t.ScreenY,
			Force:      t.Force,
			RadiusX:    t.RadiusX,
			RadiusY:    t.RadiusY,
			Rotation:   t.Rotation,
		}
	}
	return out
}

func files(in []surface.File) *protocol.FilesData {
	if len(in) == 0 {
		return nil
	}
	out := &protocol.FilesData{Files: make([]protocol.FileInfo, len(in))}
	for i, f := range in {
		out.Files[i] = protocol.FileInfo{Name: f.Name, Size: f.Size, Type: f.Type}
	}
	return out
}

// scroll reads the scroll position through the geometry capability when
// the source has it.
func (n *Normalizer) scroll(origin surface.Node) protocol.ScrollData {
	var d protocol.ScrollData
	g, ok := n.src.(surface.Geometry)
	if !ok || origin == nil {
		return d
	}
	d.ScrollLeft, d.ScrollTop = g.ScrollOffset(origin)
	if r, ok := g.Rect(origin); ok {
		d.ClientWidth, d.ClientHeight = r.Width, r.Height
		d.ScrollWidth, d.ScrollHeight = r.Width, r.Height
	}
	return d
}

func (n *Normalizer) form(ev *surface.Event, origin surface.Node) protocol.FormData {
	d := protocol.FormData{
		Value:  n.ControlValue(origin),
		Values: map[string][]string{},
		Valid:  ev.Name != "invalid",
	}
	if form := n.enclosingForm(origin); form != nil {
		d.Values = n.FormValues(form)
	}
	if n.inputType(origin) == "file" {
		d.Files = files(ev.Files)
	}
	return d
}

func (n *Normalizer) inputType(node surface.Node) string {
	if n.src.Tag(node) != "input" {
		return ""
	}
	t, ok := n.src.Attribute(node, "type")
	if !ok {
		return "text"
	}
	return strings.ToLower(t)
}

func (n *Normalizer) enclosingForm(origin surface.Node) surface.Node {
	var form surface.Node
	surface.Ancestors(n.src, origin, func(node surface.Node) bool {
		if n.src.Tag(node) == "form" {
			form = node
			return false
		}
		return true
	})
	return form
}
