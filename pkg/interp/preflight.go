package interp

import (
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// liveness is the simulated state of an id during preflight.
type liveness uint8

const (
	alive liveness = iota + 1
	dead
	// maybe marks tracked descendants of a removed node. Edits earlier in
	// the batch may have moved them out of the subtree, so only the live
	// tree can tell.
	maybe
)

// slot is a simulated stack entry. LoadChild results are not known until
// the path is walked against the live tree.
type slot struct {
	id    protocol.NodeID
	known bool
}

// unplaced records a node moved by this batch to a position preflight
// cannot name.
const unplaced protocol.NodeID = MaxNodeID + 1

// preflight simulates a batch against the current stack depth, store and
// template cache without touching the surface. It catches arity, liveness
// and template violations so the batch can be rejected whole.
type preflight struct {
	in        *Interpreter
	stack     []slot
	live      map[protocol.NodeID]liveness        // ids touched by this batch
	parent    map[protocol.NodeID]protocol.NodeID // placements made by this batch
	opaque    bool                                // a LoadChild result was moved
	templates map[string]int                      // templates saved in this batch
}

func (in *Interpreter) preflight(seq uint64, edits []protocol.Edit) error {
	p := &preflight{
		in:        in,
		stack:     make([]slot, in.stack.len(), in.stack.len()+len(edits)),
		live:      make(map[protocol.NodeID]liveness),
		parent:    make(map[protocol.NodeID]protocol.NodeID),
		templates: make(map[string]int),
	}
	for i, n := range in.stack.items {
		if id, ok := in.store.IDOf(n); ok {
			p.stack[i] = slot{id: id, known: true}
		}
	}
	for i := range edits {
		if err := p.check(&edits[i]); err != nil {
			return &ViolationError{Seq: seq, Index: i, Edit: edits[i], Err: err}
		}
	}
	return nil
}

func (p *preflight) state(id protocol.NodeID) liveness {
	if st, ok := p.live[id]; ok {
		return st
	}
	if p.in.store.Has(id) {
		return alive
	}
	return dead
}

func (p *preflight) requireLive(id protocol.NodeID) error {
	if p.state(id) == dead {
		return ErrUnknownNode
	}
	return nil
}

func (p *preflight) create(id protocol.NodeID) error {
	if id > MaxNodeID {
		return ErrMalformedEdit
	}
	if p.state(id) == alive {
		return ErrNodeInUse
	}
	p.live[id] = alive
	delete(p.parent, id)
	return nil
}

// kill marks id removed. Nodes this batch placed beneath it are removed
// too, unless an unidentified node has been moved; its currently tracked
// descendants become uncertain.
func (p *preflight) kill(id protocol.NodeID) {
	var under []protocol.NodeID
	for cid := range p.parent {
		if p.placedUnder(cid, id) {
			under = append(under, cid)
		}
	}
	st := dead
	if p.opaque {
		st = maybe
	}
	for _, cid := range under {
		p.live[cid] = st
		delete(p.parent, cid)
	}
	delete(p.parent, id)

	if n, err := p.in.store.Get(id); err == nil && p.state(id) == alive {
		surface.Walk(p.in.s, n, func(c surface.Node) bool {
			if cid, ok := p.in.store.IDOf(c); ok && cid != id && p.state(cid) == alive {
				p.live[cid] = maybe
			}
			return true
		})
	}
	p.live[id] = dead
}

// placedUnder reports whether the placements made by this batch put id
// somewhere beneath root.
func (p *preflight) placedUnder(id, root protocol.NodeID) bool {
	for range len(p.parent) {
		up, ok := p.parent[id]
		if !ok || up == unplaced {
			return false
		}
		if up == root {
			return true
		}
		id = up
	}
	return false
}

// parentOf returns the id of the parent id currently has, as far as this
// batch's placements and the live tree can tell.
func (p *preflight) parentOf(id protocol.NodeID) (protocol.NodeID, bool) {
	if up, ok := p.parent[id]; ok {
		return up, up != unplaced
	}
	if _, touched := p.live[id]; touched {
		return 0, false
	}
	n, err := p.in.store.Get(id)
	if err != nil {
		return 0, false
	}
	return p.in.store.IDOf(p.in.s.Parent(n))
}

// place records that the known nodes among slots now sit under parent.
func (p *preflight) place(slots []slot, parent protocol.NodeID, ok bool) {
	if !ok {
		parent = unplaced
	}
	for _, sl := range slots {
		switch {
		case !sl.known:
			p.opaque = true
		case sl.id != parent:
			p.parent[sl.id] = parent
		}
	}
}

func (p *preflight) pop(count int) ([]slot, error) {
	if count > len(p.stack) {
		return nil, ErrStackUnderflow
	}
	start := len(p.stack) - count
	popped := p.stack[start:]
	p.stack = p.stack[:start]
	return popped, nil
}

func (p *preflight) push(id protocol.NodeID, known bool) {
	p.stack = append(p.stack, slot{id: id, known: known})
}

func (p *preflight) templateSize(name string) int {
	if n, ok := p.templates[name]; ok {
		return n
	}
	return p.in.templates.size(name)
}

func (p *preflight) check(e *protocol.Edit) error {
	switch e.Op {
	case protocol.OpCreateElement, protocol.OpCreateElementNS:
		if e.Tag == "" {
			return ErrMalformedEdit
		}
		if err := p.create(e.ID); err != nil {
			return err
		}
		p.push(e.ID, true)

	case protocol.OpCreateTextNode, protocol.OpCreatePlaceholder:
		if err := p.create(e.ID); err != nil {
			return err
		}
		p.push(e.ID, true)

	case protocol.OpAppendChildren:
		if err := p.requireLive(e.ID); err != nil {
			return err
		}
		if n := len(p.stack); n > 0 && p.stack[n-1].known && p.stack[n-1].id == e.ID {
			p.stack = p.stack[:n-1]
		}
		popped, err := p.pop(int(e.Count))
		if err != nil {
			return err
		}
		p.place(popped, e.ID, true)

	case protocol.OpInsertBefore, protocol.OpInsertAfter:
		if err := p.requireLive(e.ID); err != nil {
			return err
		}
		popped, err := p.pop(int(e.Count))
		if err != nil {
			return err
		}
		up, ok := p.parentOf(e.ID)
		p.place(popped, up, ok)

	case protocol.OpReplaceWith:
		if e.ID == p.in.rootID {
			return ErrRootRemoval
		}
		if err := p.requireLive(e.ID); err != nil {
			return err
		}
		up, ok := p.parentOf(e.ID)
		p.kill(e.ID)
		popped, err := p.pop(int(e.Count))
		if err != nil {
			return err
		}
		p.place(popped, up, ok)

	case protocol.OpRemove:
		if e.ID == p.in.rootID {
			return ErrRootRemoval
		}
		p.kill(e.ID)

	case protocol.OpSetText:
		return p.requireLive(e.ID)

	case protocol.OpSetAttribute, protocol.OpRemoveAttribute:
		if e.Name == "" {
			return ErrMalformedEdit
		}
		return p.requireLive(e.ID)

	case protocol.OpNewEventListener:
		if e.Name == "" {
			return ErrMalformedEdit
		}
		return p.requireLive(e.ID)

	case protocol.OpRemoveEventListener:
		if e.Name == "" {
			return ErrMalformedEdit
		}

	case protocol.OpLoadChild:
		if len(p.stack) == 0 {
			return ErrStackUnderflow
		}
		p.push(0, false)

	case protocol.OpPushRoot:
		if err := p.requireLive(e.ID); err != nil {
			return err
		}
		p.push(e.ID, true)

	case protocol.OpPopRoot:
		_, err := p.pop(1)
		return err

	case protocol.OpAssignID, protocol.OpHydrateText:
		if len(p.stack) == 0 {
			return ErrStackUnderflow
		}
		return p.create(e.ID)

	case protocol.OpReplacePlaceholder:
		if int(e.Count)+1 > len(p.stack) {
			return ErrStackUnderflow
		}
		popped, err := p.pop(int(e.Count))
		if err != nil {
			return err
		}
		p.place(popped, 0, false)

	case protocol.OpSaveTemplate:
		if e.Template == "" || len(e.IDs) == 0 {
			return ErrMalformedEdit
		}
		if p.templateSize(e.Template) >= 0 {
			return ErrTemplateExists
		}
		for _, id := range e.IDs {
			if err := p.requireLive(id); err != nil {
				return err
			}
		}
		p.templates[e.Template] = len(e.IDs)

	case protocol.OpLoadTemplate:
		size := p.templateSize(e.Template)
		if size < 0 {
			return ErrUnknownTemplate
		}
		if int(e.Index) >= size {
			return ErrMalformedEdit
		}
		if err := p.create(e.ID); err != nil {
			return err
		}
		p.push(e.ID, true)

	default:
		return ErrMalformedEdit
	}
	return nil
}
