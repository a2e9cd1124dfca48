package interp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// Hydration markers written by the server renderer.
const (
	// HydrationAttr holds "<index>[,<event>:<0|1>]*".
	HydrationAttr = "data-node-hydration"
	// HydrationComment prefixes a comment whose next sibling is the node
	// for the given index; "/" + HydrationComment closes an empty text run.
	HydrationComment = "node-id"
)

// MismatchKind classifies a hydration mismatch.
type MismatchKind uint8

const (
	MismatchMalformed    MismatchKind = iota + 1 // Marker could not be parsed
	MismatchOutOfRange                           // Marker index beyond the ids list
	MismatchAlreadyBound                         // Target id already in the store
	MismatchNoSibling                            // Comment marker with nothing after it
	MismatchUnbound                              // Id never referenced by a marker
)

func (k MismatchKind) String() string {
	switch k {
	case MismatchMalformed:
		return "malformed"
	case MismatchOutOfRange:
		return "out_of_range"
	case MismatchAlreadyBound:
		return "already_bound"
	case MismatchNoSibling:
		return "no_sibling"
	case MismatchUnbound:
		return "unbound"
	default:
		return "unknown"
	}
}

// Mismatch is one hydration problem. The affected id is left unbound.
type Mismatch struct {
	Kind   MismatchKind
	Index  int
	ID     protocol.NodeID
	Marker string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: index %d id %d marker %q", m.Kind, m.Index, m.ID, m.Marker)
}

// HydrationReport summarizes one hydration pass.
type HydrationReport struct {
	Bound      int
	Listeners  int
	Mismatches []Mismatch
}

// OK reports whether hydration bound every id without mismatches.
func (r *HydrationReport) OK() bool { return len(r.Mismatches) == 0 }

// ErrNoHydrationRoot is returned when Hydrate is given no root.
var ErrNoHydrationRoot = errors.New("interp: hydration root is nil")

type hydrator struct {
	in     *Interpreter
	ids    []protocol.NodeID
	bound  []bool
	report *HydrationReport
}

// Hydrate binds a pre-rendered tree under root to ids. ids[i] is the runtime
// id of the node whose marker carries index i.
//
// Element markers are scanned first: each marked element is bound, its
// listeners registered as NewEventListener would, and the marker attribute
// removed. Comment markers then bind their next sibling. Hydrating the same
// tree twice is not supported.
func (in *Interpreter) Hydrate(ids []protocol.NodeID, root surface.Node) (*HydrationReport, error) {
	if root == nil {
		return nil, ErrNoHydrationRoot
	}
	h := &hydrator{
		in:     in,
		ids:    ids,
		bound:  make([]bool, len(ids)),
		report: &HydrationReport{},
	}

	surface.Walk(in.s, root, h.element)
	surface.Walk(in.s, root, h.comment)

	for i, ok := range h.bound {
		if !ok {
			h.mismatch(Mismatch{Kind: MismatchUnbound, Index: i, ID: ids[i]})
		}
	}

	in.observer.Hydrated(h.report)
	in.logger.Debug("hydrated", "bound", h.report.Bound, "listeners", h.report.Listeners,
		"mismatches", len(h.report.Mismatches))
	return h.report, nil
}

func (h *hydrator) mismatch(m Mismatch) {
	h.report.Mismatches = append(h.report.Mismatches, m)
	h.in.logger.Warn("hydration mismatch", "kind", m.Kind.String(), "index", m.Index,
		"id", m.ID, "marker", m.Marker)
}

// target validates a marker index against the node it would bind and
// returns the id it refers to. A node already bound under any id is left
// alone.
func (h *hydrator) target(index int, marker string, n surface.Node) (protocol.NodeID, bool) {
	if index < 0 || index >= len(h.ids) {
		h.mismatch(Mismatch{Kind: MismatchOutOfRange, Index: index, Marker: marker})
		return 0, false
	}
	id := h.ids[index]
	_, tracked := h.in.store.IDOf(n)
	if h.bound[index] || tracked || h.in.store.Has(id) || id > MaxNodeID {
		h.mismatch(Mismatch{Kind: MismatchAlreadyBound, Index: index, ID: id, Marker: marker})
		return 0, false
	}
	return id, true
}

func (h *hydrator) element(n surface.Node) bool {
	if h.in.s.Kind(n) != surface.KindElement {
		return true
	}
	marker, ok := h.in.s.Attribute(n, HydrationAttr)
	if !ok {
		return true
	}
	h.in.s.RemoveAttribute(n, HydrationAttr)

	index, events, err := parseHydrationMarker(marker)
	if err != nil {
		h.mismatch(Mismatch{Kind: MismatchMalformed, Index: -1, Marker: marker})
		return true
	}
	id, ok := h.target(index, marker, n)
	if !ok {
		return true
	}
	if err := h.in.store.Set(id, n); err != nil {
		h.mismatch(Mismatch{Kind: MismatchAlreadyBound, Index: index, ID: id, Marker: marker})
		return true
	}
	h.bound[index] = true
	h.report.Bound++
	for _, ev := range events {
		h.in.listeners.add(id, n, ev.name, ev.bubbles)
		h.report.Listeners++
	}
	return true
}

func (h *hydrator) comment(n surface.Node) bool {
	if h.in.s.Kind(n) != surface.KindComment {
		return true
	}
	text := h.in.s.Text(n)
	rest, ok := strings.CutPrefix(text, HydrationComment)
	if !ok {
		return true
	}
	index, err := strconv.Atoi(rest)
	if err != nil {
		h.mismatch(Mismatch{Kind: MismatchMalformed, Index: -1, Marker: text})
		return true
	}

	sibling := h.in.s.NextSibling(n)
	if sibling == nil {
		h.mismatch(Mismatch{Kind: MismatchNoSibling, Index: index, Marker: text})
		return true
	}
	id, ok := h.target(index, text, sibling)
	if !ok {
		return true
	}
	// An empty text run renders as an open marker directly followed by its
	// closing marker; give it a real node to bind.
	if h.in.s.Kind(sibling) == surface.KindComment && h.in.s.Text(sibling) == "/"+text {
		empty := h.in.s.CreateText("")
		h.in.s.InsertAfter(n, empty)
		sibling = empty
	}
	if err := h.in.store.Set(id, sibling); err != nil {
		h.mismatch(Mismatch{Kind: MismatchAlreadyBound, Index: index, ID: id, Marker: text})
		return true
	}
	h.bound[index] = true
	h.report.Bound++
	return true
}

type markerEvent struct {
	name    string
	bubbles bool
}

// parseHydrationMarker parses "<index>[,<event>:<0|1>]*".
func parseHydrationMarker(s string) (int, []markerEvent, error) {
	parts := strings.Split(s, ",")
	index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, nil, err
	}
	events := make([]markerEvent, 0, len(parts)-1)
	for _, part := range parts[1:] {
		name, flag, ok := strings.Cut(part, ":")
		if !ok || name == "" || (flag != "0" && flag != "1") {
			return 0, nil, fmt.Errorf("interp: bad hydration event %q", part)
		}
		events = append(events, markerEvent{name: name, bubbles: flag == "1"})
	}
	return index, events, nil
}
