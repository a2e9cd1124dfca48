package interp

import (
	"strings"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// PreventDefaultAttr lists "on<event>" names whose default action is always
// prevented on that node.
const PreventDefaultAttr = "data-prevent-default"

// fileDialogEvent is the event a file dialog answer is delivered as.
const fileDialogEvent = "change&input"

// dispatch turns a resolved native event into outbound messages.
func (in *Interpreter) dispatch(ev *surface.Event, id protocol.NodeID, origin surface.Node, bubbles bool) {
	if v, ok := in.s.Attribute(origin, PreventDefaultAttr); ok && containsField(v, "on"+ev.Name) {
		ev.PreventDefault()
	}

	if ev.Name == "click" && in.isFileInput(origin) {
		ev.PreventDefault()
		in.sendFileDialog(id, origin)
	}

	msg := protocol.EventMessage{
		Name:    ev.Name,
		Element: id,
		Bubbles: bubbles,
		Data:    in.norm.Normalize(ev, origin),
	}
	in.observer.EventDispatched(ev.Name, bubbles)

	if in.responder != nil {
		resp := in.responder.Respond(msg)
		if resp.PreventDefault {
			ev.PreventDefault()
		}
		if resp.StopPropagation {
			ev.StopPropagation()
		}
	} else {
		in.sink.Send(protocol.NewEventMessage(msg))
	}

	if ev.Name == "click" && bubbles && !ev.DefaultPrevented() {
		in.interceptLink(ev)
	}
}

func (in *Interpreter) drop(name string) {
	in.dropped++
	in.observer.EventDropped(name)
	in.logger.Debug("event dropped", "event", name)
}

func containsField(list, name string) bool {
	for _, f := range strings.Fields(list) {
		if f == name {
			return true
		}
	}
	return false
}

func (in *Interpreter) isFileInput(n surface.Node) bool {
	if in.s.Tag(n) != "input" {
		return false
	}
	t, _ := in.s.Attribute(n, "type")
	return strings.EqualFold(t, "file")
}

func (in *Interpreter) sendFileDialog(id protocol.NodeID, n surface.Node) {
	accept, _ := in.s.Attribute(n, "accept")
	_, directory := in.s.Attribute(n, "webkitdirectory")
	_, multiple := in.s.Attribute(n, "multiple")
	in.sink.Send(protocol.NewFileDialogMessage(protocol.FileDialogRequest{
		Accept:    accept,
		Directory: directory,
		Multiple:  multiple,
		Target:    id,
		Event:     fileDialogEvent,
		Bubbles:   true,
	}))
}

// interceptLink hands unclaimed link activations to the host instead of
// letting the surface navigate.
func (in *Interpreter) interceptLink(ev *surface.Event) {
	var href string
	surface.Ancestors(in.s, ev.Target, func(n surface.Node) bool {
		if in.s.Tag(n) == "a" {
			href, _ = in.s.Attribute(n, "href")
			return false
		}
		return n != in.root
	})
	if href == "" {
		return
	}
	ev.PreventDefault()
	in.sink.Send(protocol.NewNavigateMessage(href))
}

// Fire delivers a native event to the node bound to id on surfaces that can
// simulate dispatch. It returns false if the default action was prevented.
func (in *Interpreter) Fire(id protocol.NodeID, ev *surface.Event) (bool, error) {
	n, err := in.store.Get(id)
	if err != nil {
		return false, err
	}
	d, ok := in.s.(Dispatcher)
	if !ok {
		return false, ErrNoDispatch
	}
	ev.Target = n
	return d.Dispatch(ev), nil
}

// Dispatcher is implemented by surfaces that can simulate native event
// propagation.
type Dispatcher interface {
	Dispatch(ev *surface.Event) bool
}
