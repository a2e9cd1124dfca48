// Package surface defines the capability set an interpreter needs from a
// host rendering surface.
//
// The interpreter never inspects handles directly. Everything it does goes
// through the small interfaces below, which lets the same edit machine drive
// a browser DOM bridge, a native widget tree or the in-memory HTML document
// in package htmldom.
package surface

// Node is an opaque handle to a surface node.
//
// Handles must be comparable (typically pointers): the interpreter keys its
// reverse index and listener bookkeeping on them.
type Node any

// Kind classifies a node.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindDocument
	KindOther
)

// Tree creates nodes and changes their position.
type Tree interface {
	// Root returns the node the interpreter mounts into. Bubbling listeners
	// are attached here.
	Root() Node

	CreateElement(tag string) Node
	CreateElementNS(tag, namespace string) Node
	CreateText(text string) Node
	// CreatePlaceholder returns an inert, hidden marker node.
	CreatePlaceholder() Node

	// AppendChild detaches child from its current parent, if any, and
	// appends it to parent.
	AppendChild(parent, child Node)
	// InsertBefore inserts nodes, in order, immediately before anchor.
	InsertBefore(anchor Node, nodes ...Node)
	// InsertAfter inserts nodes, in order, immediately after anchor.
	InsertAfter(anchor Node, nodes ...Node)
	// ReplaceWith puts nodes, in order, where target was and detaches target.
	ReplaceWith(target Node, nodes ...Node)
	// Detach removes n from its parent. Detaching an orphan is a no-op.
	Detach(n Node)
	// Clone returns a deep copy of n with no parent.
	Clone(n Node) Node

	Parent(n Node) Node
	FirstChild(n Node) Node
	NextSibling(n Node) Node
	Kind(n Node) Kind
	// Tag returns the lower-case element name, or "" for non-elements.
	Tag(n Node) string

	// Text returns the text content of n and its descendants.
	Text(n Node) string
	// SetText replaces the content of n with a single text run.
	SetText(n Node, text string)
}

// Attributes reads and writes element attributes and inline styles.
type Attributes interface {
	Attribute(n Node, name string) (string, bool)
	SetAttribute(n Node, name, value string)
	RemoveAttribute(n Node, name string)
	SetAttributeNS(n Node, namespace, name, value string)
	RemoveAttributeNS(n Node, namespace, name string)
	SetStyle(n Node, property, value string)
	RemoveStyle(n Node, property string)
	// SetInnerHTML replaces the children of n with parsed markup.
	SetInnerHTML(n Node, markup string) error
}

// ControlProp names a live or default property of a form control.
type ControlProp uint8

const (
	PropValue ControlProp = iota
	PropChecked
	PropSelected
	PropDefaultValue
	PropDefaultChecked
	PropDefaultSelected
)

var controlPropNames = [...]string{
	PropValue:           "value",
	PropChecked:         "checked",
	PropSelected:        "selected",
	PropDefaultValue:    "defaultValue",
	PropDefaultChecked:  "defaultChecked",
	PropDefaultSelected: "defaultSelected",
}

func (p ControlProp) String() string {
	if int(p) < len(controlPropNames) {
		return controlPropNames[p]
	}
	return "unknown"
}

// Controls exposes form control properties. Boolean properties use the
// strings "true" and "false".
type Controls interface {
	Control(n Node, prop ControlProp) string
	SetControl(n Node, prop ControlProp, value string)
	// ResetControl drops any live override so the property reflects its
	// default again.
	ResetControl(n Node, prop ControlProp)
}

// Handler receives native events.
type Handler func(ev *Event)

// Listeners registers native event handlers. At most one handler exists per
// (node, event name) pair; Listen replaces any previous one.
type Listeners interface {
	Listen(n Node, event string, h Handler)
	Unlisten(n Node, event string)
}

// Rect is a bounding box in surface coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry answers layout queries.
type Geometry interface {
	Rect(n Node) (Rect, bool)
	ScrollOffset(n Node) (x, y float64)
	SetScrollOffset(n Node, x, y float64)
	SetFocus(n Node, focused bool) bool
}

// Surface is the full capability set.
type Surface interface {
	Tree
	Attributes
	Controls
	Listeners
	Geometry
}

// Ancestors calls fn for n and each of its ancestors until fn returns false.
func Ancestors(t Tree, n Node, fn func(Node) bool) {
	for ; n != nil; n = t.Parent(n) {
		if !fn(n) {
			return
		}
	}
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(t Tree, n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for c := t.FirstChild(n); c != nil; {
		next := t.NextSibling(c)
		Walk(t, c, fn)
		c = next
	}
}

// Releaser is implemented by surfaces that keep side state per node. The
// interpreter calls Release once a removed subtree can no longer be
// referenced.
type Releaser interface {
	Release(n Node)
}
