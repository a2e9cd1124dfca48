package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vinterp/pkg/interp"
)

const defaultTracerName = "vinterp"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "vinterp").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// Context is the parent context for spans (default: background).
	Context context.Context

	// Attributes are added to every span, e.g. a connection id.
	Attributes []attribute.KeyValue
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(t trace.Tracer) TracerOption {
	return func(c *TracerConfig) {
		c.Tracer = t
	}
}

// WithContext sets the parent context spans are started from.
func WithContext(ctx context.Context) TracerOption {
	return func(c *TracerConfig) {
		c.Context = ctx
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer is an interp.Observer that opens a span per batch and per
// hydration pass. Event dispatch is not traced.
type Tracer struct {
	tracer trace.Tracer
	ctx    context.Context
	attrs  []attribute.KeyValue
}

var _ interp.Observer = (*Tracer)(nil)

// NewTracer creates a tracing observer. The tracer comes from the global
// OpenTelemetry provider unless WithTracer is given.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	return &Tracer{tracer: config.Tracer, ctx: config.Context, attrs: config.Attributes}
}

func (t *Tracer) BatchStarted(seq uint64, edits int) func(applied int, err error) {
	_, span := t.tracer.Start(t.ctx, "vinterp.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.attrs...),
		trace.WithAttributes(
			attribute.Int64("vinterp.batch.seq", int64(seq)),
			attribute.Int("vinterp.batch.edits", edits),
		),
	)
	return func(applied int, err error) {
		defer span.End()
		span.SetAttributes(attribute.Int("vinterp.batch.applied", applied))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, interp.Reason(err))
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

func (t *Tracer) Hydrated(report *interp.HydrationReport) {
	_, span := t.tracer.Start(t.ctx, "vinterp.hydrate",
		trace.WithAttributes(t.attrs...),
		trace.WithAttributes(
			attribute.Int("vinterp.hydrate.bound", report.Bound),
			attribute.Int("vinterp.hydrate.listeners", report.Listeners),
			attribute.Int("vinterp.hydrate.mismatches", len(report.Mismatches)),
		),
	)
	defer span.End()
	if !report.OK() {
		span.SetStatus(codes.Error, "hydration mismatch")
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (t *Tracer) EventDispatched(string, bool) {}
func (t *Tracer) EventDropped(string)          {}
