package interp

import (
	"errors"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// ErrNoDispatch is returned by Fire when the surface cannot simulate events.
var ErrNoDispatch = errors.New("interp: surface cannot dispatch events")

// Node returns the surface node bound to id.
func (in *Interpreter) Node(id protocol.NodeID) (surface.Node, error) {
	return in.store.Get(id)
}

// Rect returns the bounding box of id. Nodes the surface has not measured
// report a zero Rect.
func (in *Interpreter) Rect(id protocol.NodeID) (surface.Rect, error) {
	n, err := in.store.Get(id)
	if err != nil {
		return surface.Rect{}, err
	}
	r, _ := in.s.Rect(n)
	return r, nil
}

// ScrollOffset returns the scroll position of id.
func (in *Interpreter) ScrollOffset(id protocol.NodeID) (x, y float64, err error) {
	n, err := in.store.Get(id)
	if err != nil {
		return 0, 0, err
	}
	x, y = in.s.ScrollOffset(n)
	return x, y, nil
}

// SetScrollOffset scrolls id to (x, y).
func (in *Interpreter) SetScrollOffset(id protocol.NodeID, x, y float64) error {
	n, err := in.store.Get(id)
	if err != nil {
		return err
	}
	in.s.SetScrollOffset(n, x, y)
	return nil
}

// SetFocus focuses or blurs id and reports whether the focus state changed.
func (in *Interpreter) SetFocus(id protocol.NodeID, focused bool) (bool, error) {
	n, err := in.store.Get(id)
	if err != nil {
		return false, err
	}
	return in.s.SetFocus(n, focused), nil
}
