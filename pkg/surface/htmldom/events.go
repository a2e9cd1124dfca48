package htmldom

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/vinterp/pkg/surface"
)

func (d *Document) Listen(n surface.Node, event string, h surface.Handler) {
	target := node(n)
	if target == nil || h == nil {
		return
	}
	m, ok := d.listeners[target]
	if !ok {
		m = make(map[string]surface.Handler)
		d.listeners[target] = m
	}
	m[event] = h
}

func (d *Document) Unlisten(n surface.Node, event string) {
	target := node(n)
	m, ok := d.listeners[target]
	if !ok {
		return
	}
	delete(m, event)
	if len(m) == 0 {
		delete(d.listeners, target)
	}
}

// Listening reports whether a native handler is registered for event on n.
func (d *Document) Listening(n surface.Node, event string) bool {
	_, ok := d.listeners[node(n)][event]
	return ok
}

// ListenerCount returns the number of native registrations across the
// document.
func (d *Document) ListenerCount() int {
	total := 0
	for _, m := range d.listeners {
		total += len(m)
	}
	return total
}

// Dispatch delivers ev to its target and, when ev.Bubbles is set, to each
// ancestor up to the document. The propagation path is fixed before the
// first handler runs. It returns false if a handler called PreventDefault.
func (d *Document) Dispatch(ev *surface.Event) bool {
	target := node(ev.Target)
	if target == nil {
		return true
	}
	path := []*html.Node{target}
	if ev.Bubbles {
		for p := target.Parent; p != nil; p = p.Parent {
			path = append(path, p)
		}
	}
	for _, n := range path {
		if h, ok := d.listeners[n][ev.Name]; ok {
			h(ev)
		}
		if ev.PropagationStopped() {
			break
		}
	}
	return !ev.DefaultPrevented()
}
