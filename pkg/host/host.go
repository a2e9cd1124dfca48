package host

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
	"github.com/vango-dev/vinterp/pkg/surface/htmldom"
)

var (
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("host: closed")

	// ErrPopulated is returned when hydrating a surface that already holds
	// bound nodes besides the root.
	ErrPopulated = errors.New("host: surface already populated")
)

// Host owns one surface and its interpreter.
type Host struct {
	cfg    Config
	doc    *htmldom.Document
	in     *interp.Interpreter
	logger *slog.Logger

	work      chan func()
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	mu   sync.Mutex
	subs map[string]chan protocol.Message
}

// New creates a host over an empty document. Call Start before submitting
// work.
func New(cfg Config) *Host {
	cfg.applyDefaults()
	h := &Host{
		cfg:    cfg,
		doc:    htmldom.New(),
		logger: cfg.Logger.With("component", "host"),
		work:   make(chan func(), cfg.QueueSize),
		done:   make(chan struct{}),
		subs:   make(map[string]chan protocol.Message),
	}
	opts := []interp.Option{
		interp.WithRootID(cfg.RootID),
		interp.WithSink(interp.SinkFunc(h.broadcast)),
		interp.WithLogger(cfg.Logger.With("component", "interp")),
	}
	if cfg.Observer != nil {
		opts = append(opts, interp.WithObserver(cfg.Observer))
	}
	if cfg.Sanitizer != nil {
		opts = append(opts, interp.WithSanitizer(cfg.Sanitizer))
	}
	h.in = interp.New(h.doc, opts...)
	return h
}

// Start launches the event loop. Calling it more than once has no effect.
func (h *Host) Start() {
	h.startOnce.Do(func() {
		if h.cfg.Metrics != nil {
			h.cfg.Metrics.InterpreterOpened()
		}
		go h.eventLoop()
	})
}

// Close stops the event loop and drops every subscriber. Queued work that
// has not started is discarded.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		if h.cfg.Metrics != nil {
			h.cfg.Metrics.InterpreterClosed()
		}
		h.mu.Lock()
		for id, ch := range h.subs {
			close(ch)
			delete(h.subs, id)
		}
		h.mu.Unlock()
		h.logger.Info("host closed")
	})
}

// Done is closed when the host is closed.
func (h *Host) Done() <-chan struct{} { return h.done }

func (h *Host) eventLoop() {
	for {
		select {
		case fn := <-h.work:
			h.execute(fn)
		case <-h.done:
			return
		}
	}
}

func (h *Host) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("task panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// do runs fn on the event loop and waits for it to finish.
func (h *Host) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case h.work <- task:
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply applies one batch.
func (h *Host) Apply(ctx context.Context, b *protocol.EditBatch) error {
	var err error
	if qerr := h.do(ctx, func() { err = h.in.Apply(b) }); qerr != nil {
		return qerr
	}
	return err
}

// Hydrate mounts r.Markup under the root and binds it to r.IDs. The surface
// must not hold bound nodes besides the root.
func (h *Host) Hydrate(ctx context.Context, r *protocol.HydrateRequest) (*interp.HydrationReport, error) {
	var (
		report *interp.HydrationReport
		err    error
	)
	qerr := h.do(ctx, func() {
		if h.in.Store().Len() > 1 {
			err = ErrPopulated
			return
		}
		root := h.doc.Root()
		if err = h.doc.SetInnerHTML(root, r.Markup); err != nil {
			return
		}
		report, err = h.in.Hydrate(r.IDs, root)
	})
	if qerr != nil {
		return nil, qerr
	}
	return report, err
}

// SimulatedEvent describes a native event to fire at a node.
type SimulatedEvent struct {
	Event *surface.Event
	// Value, when set, is written to the node's live control value before
	// the event fires, as typing would.
	Value *string
	// Checked, when set, toggles the node's live checked state first.
	Checked *bool
}

// Fire delivers a simulated native event. It reports whether the default
// action survived.
func (h *Host) Fire(ctx context.Context, id protocol.NodeID, sim SimulatedEvent) (bool, error) {
	var (
		ok  bool
		err error
	)
	qerr := h.do(ctx, func() {
		n, nerr := h.in.Node(id)
		if nerr != nil {
			err = nerr
			return
		}
		if sim.Value != nil {
			h.doc.SetControl(n, surface.PropValue, *sim.Value)
		}
		if sim.Checked != nil {
			v := "false"
			if *sim.Checked {
				v = "true"
			}
			h.doc.SetControl(n, surface.PropChecked, v)
		}
		ok, err = h.in.Fire(id, sim.Event)
	})
	if qerr != nil {
		return false, qerr
	}
	return ok, err
}

// Rect returns the bounding box of id.
func (h *Host) Rect(ctx context.Context, id protocol.NodeID) (surface.Rect, error) {
	var (
		r   surface.Rect
		err error
	)
	if qerr := h.do(ctx, func() { r, err = h.in.Rect(id) }); qerr != nil {
		return surface.Rect{}, qerr
	}
	return r, err
}

// SetRect records a layout box for id, standing in for a layout engine.
func (h *Host) SetRect(ctx context.Context, id protocol.NodeID, r surface.Rect) error {
	var err error
	qerr := h.do(ctx, func() {
		var n surface.Node
		if n, err = h.in.Node(id); err == nil {
			h.doc.SetRect(n, r)
		}
	})
	if qerr != nil {
		return qerr
	}
	return err
}

// Snapshot returns the markup under the root.
func (h *Host) Snapshot(ctx context.Context) (string, error) {
	var s string
	if err := h.do(ctx, func() { s = h.doc.HTML() }); err != nil {
		return "", err
	}
	return s, nil
}

// Stats is a point-in-time view of interpreter state.
type Stats struct {
	Nodes       int      `json:"nodes"`
	StackDepth  int      `json:"stack_depth"`
	Delegated   []string `json:"delegated"`
	Dropped     uint64   `json:"dropped"`
	Subscribers int      `json:"subscribers"`
}

// Stats returns interpreter counters.
func (h *Host) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := h.do(ctx, func() {
		s = Stats{
			Nodes:      h.in.Store().Len(),
			StackDepth: h.in.StackDepth(),
			Delegated:  h.in.DelegatedEvents(),
			Dropped:    h.in.Dropped(),
		}
	})
	if err != nil {
		return Stats{}, err
	}
	h.mu.Lock()
	s.Subscribers = len(h.subs)
	h.mu.Unlock()
	return s, nil
}

// Subscribe registers a receiver for outbound messages. The channel is
// closed by cancel or by Close. A subscriber that falls QueueSize messages
// behind loses messages.
func (h *Host) Subscribe() (id string, msgs <-chan protocol.Message, cancel func()) {
	id = uuid.NewString()
	ch := make(chan protocol.Message, h.cfg.QueueSize)

	h.mu.Lock()
	select {
	case <-h.done:
		close(ch)
	default:
		h.subs[id] = ch
	}
	h.mu.Unlock()

	cancel = func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			close(c)
			delete(h.subs, id)
		}
	}
	return id, ch, cancel
}

// broadcast runs on the event loop as the interpreter's sink.
func (h *Host) broadcast(msg protocol.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("subscriber queue full, dropping message", "subscriber", id, "method", msg.Method)
		}
	}
}
