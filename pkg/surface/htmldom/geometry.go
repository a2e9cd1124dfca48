package htmldom

import (
	"github.com/vango-dev/vinterp/pkg/surface"
)

// SetRect records the layout box reported for n. The document does no
// layout of its own.
func (d *Document) SetRect(n surface.Node, r surface.Rect) {
	if h := node(n); h != nil {
		d.rects[h] = r
	}
}

func (d *Document) Rect(n surface.Node) (surface.Rect, bool) {
	r, ok := d.rects[node(n)]
	return r, ok
}

func (d *Document) ScrollOffset(n surface.Node) (x, y float64) {
	off := d.scroll[node(n)]
	return off[0], off[1]
}

func (d *Document) SetScrollOffset(n surface.Node, x, y float64) {
	if h := node(n); h != nil {
		d.scroll[h] = [2]float64{x, y}
	}
}

// SetFocus focuses or blurs n. Blurring a node that is not focused reports
// false.
func (d *Document) SetFocus(n surface.Node, focused bool) bool {
	h := node(n)
	if h == nil {
		return false
	}
	if focused {
		d.focused = h
		return true
	}
	if d.focused != h {
		return false
	}
	d.focused = nil
	return true
}

// Focused returns the focused node, if any.
func (d *Document) Focused() surface.Node { return wrap(d.focused) }

// Release drops side-table state for n and its descendants. Hosts call it
// after a subtree is discarded for good.
func (d *Document) Release(n surface.Node) {
	surface.Walk(d, n, func(c surface.Node) bool {
		h := node(c)
		delete(d.controls, h)
		delete(d.listeners, h)
		delete(d.rects, h)
		delete(d.scroll, h)
		if d.focused == h {
			d.focused = nil
		}
		return true
	})
}
