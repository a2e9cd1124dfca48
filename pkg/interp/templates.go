package interp

import (
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// template is an immutable skeleton. Roots are private deep clones taken at
// save time, so later edits to the source nodes never leak into it.
type template struct {
	ids   []protocol.NodeID
	roots []surface.Node
}

type templateCache struct {
	s         surface.Surface
	templates map[string]*template
}

func newTemplateCache(s surface.Surface) *templateCache {
	return &templateCache{s: s, templates: make(map[string]*template)}
}

func (c *templateCache) has(name string) bool {
	_, ok := c.templates[name]
	return ok
}

// size returns the number of roots in a saved template, or -1.
func (c *templateCache) size(name string) int {
	t, ok := c.templates[name]
	if !ok {
		return -1
	}
	return len(t.roots)
}

func (c *templateCache) save(name string, ids []protocol.NodeID, nodes []surface.Node) error {
	if c.has(name) {
		return ErrTemplateExists
	}
	t := &template{
		ids:   append([]protocol.NodeID(nil), ids...),
		roots: make([]surface.Node, len(nodes)),
	}
	for i, n := range nodes {
		root := c.s.Clone(n)
		// Listener markers belong to the source ids, not to instances.
		surface.Walk(c.s, root, func(n surface.Node) bool {
			c.s.RemoveAttribute(n, MarkerAttr)
			return true
		})
		t.roots[i] = root
	}
	c.templates[name] = t
	return nil
}

// load returns a fresh deep clone of root index of the template.
func (c *templateCache) load(name string, index int) (surface.Node, error) {
	t, ok := c.templates[name]
	if !ok {
		return nil, ErrUnknownTemplate
	}
	if index < 0 || index >= len(t.roots) {
		return nil, ErrMalformedEdit
	}
	return c.s.Clone(t.roots[index]), nil
}
