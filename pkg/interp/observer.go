package interp

import (
	"github.com/vango-dev/vinterp/pkg/protocol"
)

// Sink receives outbound messages. Sends are fire-and-forget.
type Sink interface {
	Send(msg protocol.Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg protocol.Message)

// Send calls f(msg).
func (f SinkFunc) Send(msg protocol.Message) { f(msg) }

// Response is a host's synchronous answer to a user event.
type Response struct {
	PreventDefault  bool
	StopPropagation bool
}

// Responder answers user events synchronously. When configured, user
// events go to the Responder instead of the Sink.
type Responder interface {
	Respond(ev protocol.EventMessage) Response
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ev protocol.EventMessage) Response

func (f ResponderFunc) Respond(ev protocol.EventMessage) Response { return f(ev) }

// Observer receives telemetry callbacks. Implementations must be cheap;
// they run inline on the interpreter goroutine.
type Observer interface {
	// BatchStarted is called before a batch is validated. The returned
	// function is called once with the number of records applied and the
	// batch error, if any.
	BatchStarted(seq uint64, edits int) func(applied int, err error)
	Hydrated(report *HydrationReport)
	EventDispatched(name string, bubbles bool)
	EventDropped(name string)
}

type nopObserver struct{}

func (nopObserver) BatchStarted(uint64, int) func(int, error) { return func(int, error) {} }
func (nopObserver) Hydrated(*HydrationReport)                 {}
func (nopObserver) EventDispatched(string, bool)              {}
func (nopObserver) EventDropped(string)                       {}

type discardSink struct{}

func (discardSink) Send(protocol.Message) {}
