package interp

import (
	"sort"
	"strconv"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// MarkerAttr marks nodes that currently hold at least one listener. Bubbling
// dispatch resolves the origin of a native event by walking up to the
// nearest node carrying it.
const MarkerAttr = "data-node-id"

// dispatchFunc delivers a resolved native event.
type dispatchFunc func(ev *surface.Event, id protocol.NodeID, origin surface.Node, bubbles bool)

// registry tracks bubbling listeners, delegated to one native handler per
// event name on the root, and non-bubbling listeners attached to the node
// itself.
type registry struct {
	s      surface.Surface
	root   surface.Node
	rootID protocol.NodeID

	// bubbling holds the refcount per event name.
	bubbling map[string]int
	// contrib holds how many bubbling listeners each node added per name,
	// so node removal can give them back.
	contrib map[protocol.NodeID]map[string]int
	// local holds the non-bubbling event names per node.
	local map[protocol.NodeID]map[string]struct{}
	// rootNative records which names have a native handler on the root.
	rootNative map[string]bool

	dispatch dispatchFunc
	dropped  func(name string)
}

func newRegistry(s surface.Surface, rootID protocol.NodeID, dispatch dispatchFunc, dropped func(string)) *registry {
	return &registry{
		s:          s,
		root:       s.Root(),
		rootID:     rootID,
		bubbling:   make(map[string]int),
		contrib:    make(map[protocol.NodeID]map[string]int),
		local:      make(map[protocol.NodeID]map[string]struct{}),
		rootNative: make(map[string]bool),
		dispatch:   dispatch,
		dropped:    dropped,
	}
}

func (r *registry) add(id protocol.NodeID, n surface.Node, name string, bubbles bool) {
	if bubbles {
		r.bubbling[name]++
		m, ok := r.contrib[id]
		if !ok {
			m = make(map[string]int)
			r.contrib[id] = m
		}
		m[name]++
		r.syncRoot(name)
	} else {
		m, ok := r.local[id]
		if !ok {
			m = make(map[string]struct{})
			r.local[id] = m
		}
		m[name] = struct{}{}
		if id == r.rootID {
			r.syncRoot(name)
		} else {
			r.s.Listen(n, name, r.localHandler(id, n))
		}
	}
	r.mark(id, n)
}

// remove deregisters one listener. Removing a listener that was never added
// is a no-op, as is any removal for an id with no entries.
func (r *registry) remove(id protocol.NodeID, n surface.Node, name string, bubbles bool) {
	if bubbles {
		m := r.contrib[id]
		if m[name] == 0 {
			return
		}
		m[name]--
		if m[name] == 0 {
			delete(m, name)
			if len(m) == 0 {
				delete(r.contrib, id)
			}
		}
		r.release(name, 1)
	} else {
		m := r.local[id]
		if _, ok := m[name]; !ok {
			return
		}
		delete(m, name)
		if len(m) == 0 {
			delete(r.local, id)
		}
		if id == r.rootID {
			r.syncRoot(name)
		} else if n != nil {
			r.s.Unlisten(n, name)
		}
	}
	if n != nil {
		r.mark(id, n)
	}
}

// removeNode drops every entry held by id in both modes.
func (r *registry) removeNode(id protocol.NodeID, n surface.Node) {
	for name, count := range r.contrib[id] {
		r.release(name, count)
	}
	delete(r.contrib, id)
	for name := range r.local[id] {
		if n != nil {
			r.s.Unlisten(n, name)
		}
	}
	delete(r.local, id)
	if n != nil {
		r.s.RemoveAttribute(n, MarkerAttr)
	}
}

func (r *registry) release(name string, count int) {
	r.bubbling[name] -= count
	if r.bubbling[name] <= 0 {
		delete(r.bubbling, name)
	}
	r.syncRoot(name)
}

// syncRoot keeps exactly one native handler per name on the root while
// either a bubbling listener or a root-local listener needs it.
func (r *registry) syncRoot(name string) {
	_, local := r.local[r.rootID][name]
	need := r.bubbling[name] > 0 || local
	switch {
	case need && !r.rootNative[name]:
		r.s.Listen(r.root, name, r.rootHandler(name))
		r.rootNative[name] = true
	case !need && r.rootNative[name]:
		r.s.Unlisten(r.root, name)
		delete(r.rootNative, name)
	}
}

func (r *registry) mark(id protocol.NodeID, n surface.Node) {
	if r.count(id) > 0 {
		r.s.SetAttribute(n, MarkerAttr, strconv.FormatUint(uint64(id), 10))
	} else {
		r.s.RemoveAttribute(n, MarkerAttr)
	}
}

// count returns the number of listener entries held by id.
func (r *registry) count(id protocol.NodeID) int {
	total := len(r.local[id])
	for _, c := range r.contrib[id] {
		total += c
	}
	return total
}

func (r *registry) refcount(name string) int {
	return r.bubbling[name]
}

// names returns the event names with a native handler on the root.
func (r *registry) names() []string {
	out := make([]string, 0, len(r.rootNative))
	for name := range r.rootNative {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *registry) rootHandler(name string) surface.Handler {
	return func(ev *surface.Event) {
		if _, ok := r.local[r.rootID][name]; ok && ev.Target == r.root {
			r.dispatch(ev, r.rootID, r.root, false)
		}
		if r.bubbling[name] == 0 || ev.PropagationStopped() {
			return
		}
		origin, id, ok := r.resolve(ev.Target)
		if !ok {
			r.dropped(name)
			return
		}
		r.dispatch(ev, id, origin, true)
	}
}

func (r *registry) localHandler(id protocol.NodeID, n surface.Node) surface.Handler {
	return func(ev *surface.Event) {
		r.dispatch(ev, id, n, false)
	}
}

// resolve walks from target up to the root looking for the nearest marked
// node.
func (r *registry) resolve(target surface.Node) (surface.Node, protocol.NodeID, bool) {
	for n := target; n != nil; n = r.s.Parent(n) {
		if v, ok := r.s.Attribute(n, MarkerAttr); ok {
			id, err := strconv.ParseUint(v, 10, 64)
			if err == nil {
				return n, protocol.NodeID(id), true
			}
		}
		if n == r.root {
			break
		}
	}
	return nil, 0, false
}
