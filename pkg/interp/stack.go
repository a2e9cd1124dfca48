package interp

import (
	"github.com/vango-dev/vinterp/pkg/surface"
)

// stack is the operand stack used while building subtrees.
type stack struct {
	items []surface.Node
}

func (s *stack) push(n surface.Node) {
	s.items = append(s.items, n)
}

func (s *stack) pop() (surface.Node, error) {
	if len(s.items) == 0 {
		return nil, ErrStackUnderflow
	}
	n := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return n, nil
}

// popN removes the top count nodes and returns them in push order.
func (s *stack) popN(count int) ([]surface.Node, error) {
	if count < 0 || count > len(s.items) {
		return nil, ErrStackUnderflow
	}
	start := len(s.items) - count
	out := make([]surface.Node, count)
	copy(out, s.items[start:])
	clear(s.items[start:])
	s.items = s.items[:start]
	return out, nil
}

// peekN returns the top count nodes in push order without removing them.
func (s *stack) peekN(count int) ([]surface.Node, error) {
	if count < 0 || count > len(s.items) {
		return nil, ErrStackUnderflow
	}
	return s.items[len(s.items)-count:], nil
}

func (s *stack) top() (surface.Node, error) {
	if len(s.items) == 0 {
		return nil, ErrStackUnderflow
	}
	return s.items[len(s.items)-1], nil
}

func (s *stack) len() int { return len(s.items) }

func (s *stack) reset() {
	clear(s.items)
	s.items = s.items[:0]
}
