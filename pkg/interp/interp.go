package interp

import (
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/vinterp/pkg/normalize"
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

// Normalizer converts a native event into a protocol payload.
type Normalizer interface {
	Normalize(ev *surface.Event, origin surface.Node) protocol.EventData
}

// Interpreter applies edit batches to one surface and dispatches the
// surface's native events. It exclusively owns its store, operand stack,
// listener registry and template cache.
type Interpreter struct {
	s      surface.Surface
	root   surface.Node
	rootID protocol.NodeID

	store     *Store
	stack     stack
	listeners *registry
	templates *templateCache

	norm      Normalizer
	sink      Sink
	responder Responder
	observer  Observer
	sanitizer *bluemonday.Policy
	logger    *slog.Logger

	dropped uint64
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithRootID binds the surface root to id instead of 0.
func WithRootID(id protocol.NodeID) Option {
	return func(in *Interpreter) { in.rootID = id }
}

// WithSink sets the destination of outbound messages.
func WithSink(sink Sink) Option {
	return func(in *Interpreter) { in.sink = sink }
}

// WithResponder routes user events through a synchronous responder.
func WithResponder(r Responder) Option {
	return func(in *Interpreter) { in.responder = r }
}

// WithObserver sets the telemetry observer.
func WithObserver(o Observer) Option {
	return func(in *Interpreter) { in.observer = o }
}

// WithNormalizer replaces the default event normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(in *Interpreter) { in.norm = n }
}

// WithSanitizer filters dangerous_inner_html through policy. Markup is
// applied verbatim when no policy is set.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(in *Interpreter) { in.sanitizer = policy }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

// New creates an interpreter mounted on the root of s.
func New(s surface.Surface, opts ...Option) *Interpreter {
	in := &Interpreter{
		s:        s,
		root:     s.Root(),
		store:    NewStore(),
		sink:     discardSink{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.Default().With("component", "interp")
	}
	if in.norm == nil {
		in.norm = normalize.New(s)
	}
	_ = in.store.Set(in.rootID, in.root)
	in.listeners = newRegistry(s, in.rootID, in.dispatch, in.drop)
	in.templates = newTemplateCache(s)
	return in
}

// Surface returns the surface the interpreter drives.
func (in *Interpreter) Surface() surface.Surface { return in.s }

// RootID returns the id bound to the surface root.
func (in *Interpreter) RootID() protocol.NodeID { return in.rootID }

// Store returns the node store. Callers must not mutate it.
func (in *Interpreter) Store() *Store { return in.store }

// StackDepth returns the number of nodes on the operand stack.
func (in *Interpreter) StackDepth() int { return in.stack.len() }

// RefCount returns the bubbling listener refcount for an event name.
func (in *Interpreter) RefCount(name string) int { return in.listeners.refcount(name) }

// NodeListeners returns the number of listener entries held by id.
func (in *Interpreter) NodeListeners(id protocol.NodeID) int { return in.listeners.count(id) }

// DelegatedEvents returns the event names with a native handler on the root.
func (in *Interpreter) DelegatedEvents() []string { return in.listeners.names() }

// Dropped returns the number of native events that resolved to no tracked
// node.
func (in *Interpreter) Dropped() uint64 { return in.dropped }
