package interp

import (
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// Apply validates and applies one batch in record order.
//
// On a violation Apply returns a *ViolationError and applies nothing after
// the offending record. Violations caught by validation leave the surface
// untouched; violations found while walking the live tree leave earlier
// records applied and clear the operand stack.
func (in *Interpreter) Apply(b *protocol.EditBatch) error {
	done := in.observer.BatchStarted(b.Seq, len(b.Edits))

	if err := in.preflight(b.Seq, b.Edits); err != nil {
		in.logger.Warn("batch rejected", "seq", b.Seq, "error", err)
		done(0, err)
		return err
	}

	for i := range b.Edits {
		if err := in.apply(&b.Edits[i]); err != nil {
			in.stack.reset()
			verr := &ViolationError{Seq: b.Seq, Index: i, Edit: b.Edits[i], Err: err}
			in.logger.Warn("batch aborted", "seq", b.Seq, "index", i, "error", err)
			done(i, verr)
			return verr
		}
	}

	in.logger.Debug("batch applied", "seq", b.Seq, "edits", len(b.Edits), "stack", in.stack.len())
	done(len(b.Edits), nil)
	return nil
}

// ApplyEdits applies edits as a batch with sequence number zero.
func (in *Interpreter) ApplyEdits(edits ...protocol.Edit) error {
	return in.Apply(&protocol.EditBatch{Edits: edits})
}

func (in *Interpreter) apply(e *protocol.Edit) error {
	switch e.Op {
	case protocol.OpCreateElement:
		return in.create(e.ID, in.s.CreateElement(e.Tag))

	case protocol.OpCreateElementNS:
		return in.create(e.ID, in.s.CreateElementNS(e.Tag, e.Namespace))

	case protocol.OpCreateTextNode:
		return in.create(e.ID, in.s.CreateText(e.Text))

	case protocol.OpCreatePlaceholder:
		return in.create(e.ID, in.s.CreatePlaceholder())

	case protocol.OpAppendChildren:
		parent, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		// A parent pushed with PushRoot is consumed along with its children.
		if top, err := in.stack.top(); err == nil && top == parent {
			_, _ = in.stack.pop()
		}
		children, err := in.stack.peekN(int(e.Count))
		if err != nil {
			return err
		}
		if err := in.checkMove(parent, children); err != nil {
			return err
		}
		children, _ = in.stack.popN(int(e.Count))
		for _, c := range children {
			in.s.AppendChild(parent, c)
		}

	case protocol.OpInsertBefore, protocol.OpInsertAfter:
		anchor, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		if in.s.Parent(anchor) == nil {
			return ErrDetached
		}
		nodes, err := in.stack.peekN(int(e.Count))
		if err != nil {
			return err
		}
		if err := in.checkMove(anchor, nodes); err != nil {
			return err
		}
		nodes, _ = in.stack.popN(int(e.Count))
		if e.Op == protocol.OpInsertBefore {
			in.s.InsertBefore(anchor, nodes...)
		} else {
			in.s.InsertAfter(anchor, nodes...)
		}

	case protocol.OpReplaceWith:
		target, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		if target == in.root {
			return ErrRootRemoval
		}
		if in.s.Parent(target) == nil {
			return ErrDetached
		}
		nodes, err := in.stack.peekN(int(e.Count))
		if err != nil {
			return err
		}
		if err := in.checkMove(target, nodes); err != nil {
			return err
		}
		nodes, _ = in.stack.popN(int(e.Count))
		in.s.ReplaceWith(target, nodes...)
		in.discard(target)

	case protocol.OpRemove:
		n, err := in.store.Get(e.ID)
		if err != nil {
			return nil
		}
		if n == in.root {
			return ErrRootRemoval
		}
		in.s.Detach(n)
		in.discard(n)

	case protocol.OpSetText:
		n, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		in.s.SetText(n, e.Text)

	case protocol.OpSetAttribute:
		n, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		return in.setAttribute(n, e.Name, e.Value, e.Namespace)

	case protocol.OpRemoveAttribute:
		n, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		return in.removeAttribute(n, e.Name, e.Namespace)

	case protocol.OpNewEventListener:
		n, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		in.listeners.add(e.ID, n, e.Name, e.Bubbles)

	case protocol.OpRemoveEventListener:
		n, _ := in.store.Get(e.ID)
		in.listeners.remove(e.ID, n, e.Name, e.Bubbles)

	case protocol.OpLoadChild:
		top, err := in.stack.top()
		if err != nil {
			return err
		}
		n, err := in.resolvePath(top, e.Path)
		if err != nil {
			return err
		}
		in.stack.push(n)

	case protocol.OpPushRoot:
		n, err := in.store.Get(e.ID)
		if err != nil {
			return err
		}
		in.stack.push(n)

	case protocol.OpPopRoot:
		_, err := in.stack.pop()
		return err

	case protocol.OpAssignID:
		n, err := in.loadPath(e.Path)
		if err != nil {
			return err
		}
		return in.bind(e.ID, n)

	case protocol.OpHydrateText:
		n, err := in.loadPath(e.Path)
		if err != nil {
			return err
		}
		if e.ID > MaxNodeID {
			return ErrMalformedEdit
		}
		if in.store.Has(e.ID) {
			return ErrNodeInUse
		}
		if in.s.Kind(n) == surface.KindText {
			// Text is rebound in place; other nodes are replaced and unbound.
			if _, ok := in.store.IDOf(n); ok {
				return ErrNodeInUse
			}
			in.s.SetText(n, e.Text)
		} else {
			if n == in.root {
				return ErrRootRemoval
			}
			if in.s.Parent(n) == nil {
				return ErrDetached
			}
			text := in.s.CreateText(e.Text)
			in.s.ReplaceWith(n, text)
			in.discard(n)
			n = text
		}
		return in.bind(e.ID, n)

	case protocol.OpReplacePlaceholder:
		nodes, err := in.stack.popN(int(e.Count))
		if err != nil {
			return err
		}
		target, err := in.loadPath(e.Path)
		if err != nil {
			return err
		}
		if target == in.root {
			return ErrRootRemoval
		}
		if in.s.Parent(target) == nil {
			return ErrDetached
		}
		if err := in.checkMove(target, nodes); err != nil {
			return err
		}
		in.s.ReplaceWith(target, nodes...)
		in.discard(target)

	case protocol.OpSaveTemplate:
		nodes := make([]surface.Node, len(e.IDs))
		for i, id := range e.IDs {
			n, err := in.store.Get(id)
			if err != nil {
				return err
			}
			nodes[i] = n
		}
		return in.templates.save(e.Template, e.IDs, nodes)

	case protocol.OpLoadTemplate:
		n, err := in.templates.load(e.Template, int(e.Index))
		if err != nil {
			return err
		}
		if err := in.bind(e.ID, n); err != nil {
			return err
		}
		in.stack.push(n)

	default:
		return ErrMalformedEdit
	}
	return nil
}

func (in *Interpreter) create(id protocol.NodeID, n surface.Node) error {
	if err := in.bind(id, n); err != nil {
		return err
	}
	in.stack.push(n)
	return nil
}

// bind attaches id to an untracked node. Neither the id nor the node may
// already be bound.
func (in *Interpreter) bind(id protocol.NodeID, n surface.Node) error {
	if id > MaxNodeID {
		return ErrMalformedEdit
	}
	if in.store.Has(id) {
		return ErrNodeInUse
	}
	if _, ok := in.store.IDOf(n); ok {
		return ErrNodeInUse
	}
	return in.store.Set(id, n)
}

// checkMove rejects attaching nodes at or below at when one of them is the
// root or an ancestor-or-self of at.
func (in *Interpreter) checkMove(at surface.Node, nodes []surface.Node) error {
	moving := make(map[surface.Node]struct{}, len(nodes))
	for _, n := range nodes {
		moving[n] = struct{}{}
	}
	var err error
	surface.Ancestors(in.s, at, func(a surface.Node) bool {
		if _, ok := moving[a]; ok {
			err = ErrCycle
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if _, ok := moving[in.root]; ok {
		return ErrRootRemoval
	}
	return nil
}

// loadPath resolves path from the node on top of the stack.
func (in *Interpreter) loadPath(path []uint8) (surface.Node, error) {
	top, err := in.stack.top()
	if err != nil {
		return nil, err
	}
	return in.resolvePath(top, path)
}

// resolvePath descends from start: each step moves to the first child and
// then skips that many siblings.
func (in *Interpreter) resolvePath(start surface.Node, path []uint8) (surface.Node, error) {
	n := start
	for _, step := range path {
		n = in.s.FirstChild(n)
		for i := uint8(0); i < step && n != nil; i++ {
			n = in.s.NextSibling(n)
		}
		if n == nil {
			return nil, ErrBadPath
		}
	}
	return n, nil
}

// discard unbinds every tracked node in the subtree rooted at n and drops
// their listener entries. The subtree must already be detached or replaced.
func (in *Interpreter) discard(n surface.Node) {
	surface.Walk(in.s, n, func(c surface.Node) bool {
		if id, ok := in.store.IDOf(c); ok {
			in.listeners.removeNode(id, c)
			in.store.Remove(id)
		}
		return true
	})
	if r, ok := in.s.(surface.Releaser); ok {
		r.Release(n)
	}
}
