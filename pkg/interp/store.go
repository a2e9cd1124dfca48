package interp

import (
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// MaxNodeID bounds the ids a producer may allocate. Ids are dense, so the
// store's backing slice grows to the largest id seen.
const MaxNodeID = 1<<24 - 1

// Store maps node ids to surface handles. Ids index a slice directly; a
// reverse map answers which id, if any, a handle is bound to.
type Store struct {
	nodes []surface.Node
	ids   map[surface.Node]protocol.NodeID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes: make([]surface.Node, 0, 64),
		ids:   make(map[surface.Node]protocol.NodeID),
	}
}

// Get returns the node bound to id.
func (s *Store) Get(id protocol.NodeID) (surface.Node, error) {
	if id < protocol.NodeID(len(s.nodes)) {
		if n := s.nodes[id]; n != nil {
			return n, nil
		}
	}
	return nil, ErrUnknownNode
}

// Has reports whether id is bound.
func (s *Store) Has(id protocol.NodeID) bool {
	return id < protocol.NodeID(len(s.nodes)) && s.nodes[id] != nil
}

// Set binds id to n. Binding a pair that is already bound together is a
// no-op; Set fails with ErrNodeInUse when either side is bound elsewhere and
// with ErrMalformedEdit for ids beyond MaxNodeID.
func (s *Store) Set(id protocol.NodeID, n surface.Node) error {
	if id > MaxNodeID || n == nil {
		return ErrMalformedEdit
	}
	if old, ok := s.ids[n]; ok {
		if old == id {
			return nil
		}
		return ErrNodeInUse
	}
	if s.Has(id) {
		return ErrNodeInUse
	}
	if id >= protocol.NodeID(len(s.nodes)) {
		size := max(2*len(s.nodes), int(id)+1)
		grown := make([]surface.Node, int(id)+1, size)
		copy(grown, s.nodes)
		s.nodes = grown
	}
	s.nodes[id] = n
	s.ids[n] = id
	return nil
}

// Remove unbinds id and returns the node it held. Removing an unbound id is
// a no-op.
func (s *Store) Remove(id protocol.NodeID) (surface.Node, bool) {
	if !s.Has(id) {
		return nil, false
	}
	n := s.nodes[id]
	s.nodes[id] = nil
	delete(s.ids, n)
	return n, true
}

// IDOf returns the id bound to n.
func (s *Store) IDOf(n surface.Node) (protocol.NodeID, bool) {
	if n == nil {
		return 0, false
	}
	id, ok := s.ids[n]
	return id, ok
}

// Len returns the number of bound ids.
func (s *Store) Len() int {
	return len(s.ids)
}
