package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestHost(t *testing.T, cfg Config) *Host {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger
	}
	h := New(cfg)
	h.Start()
	t.Cleanup(h.Close)
	return h
}

// buttonBatch mounts <button> as node 1 with a bubbling click listener.
func buttonBatch(seq uint64) *protocol.EditBatch {
	return &protocol.EditBatch{Seq: seq, Edits: []protocol.Edit{
		{Op: protocol.OpCreateElement, ID: 1, Tag: "button"},
		{Op: protocol.OpAppendChildren, ID: 0, Count: 1},
		{Op: protocol.OpNewEventListener, ID: 1, Name: "click", Bubbles: true},
	}}
}

func click() *surface.Event {
	return &surface.Event{Name: "click", Bubbles: true}
}

func receive(t *testing.T, msgs <-chan protocol.Message) protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-msgs:
		if !ok {
			t.Fatal("subscription closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return protocol.Message{}
}

func TestHostApplyAndSnapshot(t *testing.T) {
	h := newTestHost(t, Config{})
	ctx := context.Background()

	if err := h.Apply(ctx, buttonBatch(1)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	got, err := h.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != `<button data-node-id="1"></button>` {
		t.Errorf("Snapshot() = %s", got)
	}

	stats, err := h.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Nodes != 2 || stats.StackDepth != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
	if len(stats.Delegated) != 1 || stats.Delegated[0] != "click" {
		t.Errorf("Delegated = %v, want [click]", stats.Delegated)
	}
}

func TestHostSubscribe(t *testing.T) {
	h := newTestHost(t, Config{})
	ctx := context.Background()
	_, msgs, cancel := h.Subscribe()
	defer cancel()

	if err := h.Apply(ctx, buttonBatch(1)); err != nil {
		t.Fatal(err)
	}
	ok, err := h.Fire(ctx, 1, SimulatedEvent{Event: click()})
	if err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if !ok {
		t.Error("Fire() reported default prevented")
	}

	msg := receive(t, msgs)
	ev, isEvent := msg.Params.(protocol.EventMessage)
	if msg.Method != protocol.MethodUserEvent || !isEvent {
		t.Fatalf("message = %+v", msg)
	}
	if ev.Name != "click" || ev.Element != 1 || !ev.Bubbles {
		t.Errorf("event = %+v", ev)
	}

	stats, _ := h.Stats(ctx)
	if stats.Subscribers != 1 {
		t.Errorf("Subscribers = %d, want 1", stats.Subscribers)
	}
	cancel()
	if _, open := <-msgs; open {
		t.Error("channel still open after cancel")
	}
	cancel()
}

func TestHostFireWritesControlState(t *testing.T) {
	h := newTestHost(t, Config{})
	ctx := context.Background()
	_, msgs, cancel := h.Subscribe()
	defer cancel()

	err := h.Apply(ctx, &protocol.EditBatch{Edits: []protocol.Edit{
		{Op: protocol.OpCreateElement, ID: 1, Tag: "input"},
		{Op: protocol.OpAppendChildren, ID: 0, Count: 1},
		{Op: protocol.OpNewEventListener, ID: 1, Name: "input", Bubbles: true},
	}})
	if err != nil {
		t.Fatal(err)
	}
	value := "typed"
	if _, err := h.Fire(ctx, 1, SimulatedEvent{
		Event: &surface.Event{Name: "input", Bubbles: true},
		Value: &value,
	}); err != nil {
		t.Fatal(err)
	}

	ev := receive(t, msgs).Params.(protocol.EventMessage)
	form, ok := ev.Data.(protocol.FormData)
	if !ok {
		t.Fatalf("Data = %T, want FormData", ev.Data)
	}
	if form.Value != "typed" {
		t.Errorf("Value = %q, want typed", form.Value)
	}
}

func TestHostHydrate(t *testing.T) {
	h := newTestHost(t, Config{})
	ctx := context.Background()

	report, err := h.Hydrate(ctx, &protocol.HydrateRequest{
		IDs:    []protocol.NodeID{5},
		Markup: `<button data-node-hydration="0,click:1">go</button>`,
	})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if !report.OK() || report.Bound != 1 || report.Listeners != 1 {
		t.Errorf("report = %+v", report)
	}

	_, err = h.Hydrate(ctx, &protocol.HydrateRequest{IDs: []protocol.NodeID{6}, Markup: "<p></p>"})
	if !errors.Is(err, ErrPopulated) {
		t.Errorf("second Hydrate() error = %v, want ErrPopulated", err)
	}
}

func TestHostRect(t *testing.T) {
	h := newTestHost(t, Config{})
	ctx := context.Background()
	if err := h.Apply(ctx, buttonBatch(1)); err != nil {
		t.Fatal(err)
	}

	want := surface.Rect{X: 1, Y: 2, Width: 30, Height: 40}
	if err := h.SetRect(ctx, 1, want); err != nil {
		t.Fatal(err)
	}
	got, err := h.Rect(ctx, 1)
	if err != nil || got != want {
		t.Errorf("Rect() = %+v, %v", got, err)
	}
	if err := h.SetRect(ctx, 9, want); err == nil {
		t.Error("SetRect() on unknown node succeeded")
	}
}

func TestHostRecoversFromPanic(t *testing.T) {
	h := newTestHost(t, Config{})
	ctx := context.Background()

	if err := h.do(ctx, func() { panic("boom") }); err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if err := h.Apply(ctx, buttonBatch(1)); err != nil {
		t.Errorf("Apply() after panic error = %v", err)
	}
}

func TestHostSlowSubscriberLosesMessages(t *testing.T) {
	h := newTestHost(t, Config{QueueSize: 1})
	ctx := context.Background()
	_, msgs, cancel := h.Subscribe()
	defer cancel()

	if err := h.Apply(ctx, buttonBatch(1)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.Fire(ctx, 1, SimulatedEvent{Event: click()}); err != nil {
			t.Fatal(err)
		}
	}
	if len(msgs) != 1 {
		t.Errorf("queued = %d, want 1", len(msgs))
	}
}

func TestHostClose(t *testing.T) {
	h := newTestHost(t, Config{})
	_, msgs, _ := h.Subscribe()

	h.Close()
	h.Close()

	if err := h.Apply(context.Background(), buttonBatch(1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply() after Close error = %v, want ErrClosed", err)
	}
	if _, open := <-msgs; open {
		t.Error("subscription open after Close")
	}
	_, late, _ := h.Subscribe()
	if _, open := <-late; open {
		t.Error("subscription after Close is open")
	}
}

func TestHostContextCanceled(t *testing.T) {
	h := New(Config{Logger: quietLogger, QueueSize: 1})
	defer h.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The loop is not started, so the task can only wait on ctx.
	h.work <- func() {}
	if err := h.Apply(ctx, buttonBatch(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Apply() error = %v, want context.Canceled", err)
	}
}

func TestCheckOrigin(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"https://app.example.com"}}
	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same host", "http://host.test", true},
		{"allowed", "https://app.example.com", true},
		{"other", "https://evil.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://host.test/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := cfg.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}

	wildcard := Config{AllowedOrigins: []string{"*"}}
	r := httptest.NewRequest("GET", "http://host.test/ws", nil)
	r.Header.Set("Origin", "https://anywhere.test")
	if !wildcard.checkOrigin(r) {
		t.Error("wildcard origin rejected")
	}
}
