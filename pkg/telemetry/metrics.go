package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vinterp/pkg/interp"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vinterp").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for batch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vinterp",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Batch status label values.
const (
	StatusApplied  = "applied"
	StatusRejected = "rejected" // Failed before any record was applied
	StatusAborted  = "aborted"  // Failed after applying a prefix
)

// Metrics is an interp.Observer backed by Prometheus collectors. One
// Metrics value may observe many interpreters.
type Metrics struct {
	batchesTotal       *prometheus.CounterVec
	batchEdits         prometheus.Histogram
	batchDuration      prometheus.Histogram
	batchErrors        *prometheus.CounterVec
	editsApplied       prometheus.Counter
	hydrationsTotal    prometheus.Counter
	hydrationMismatch  *prometheus.CounterVec
	hydrationBound     prometheus.Counter
	eventsDispatched   *prometheus.CounterVec
	eventsDropped      *prometheus.CounterVec
	activeInterpreters prometheus.Gauge

	now func() time.Time
}

var _ interp.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors and returns the observer. Registering
// twice against the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		batchesTotal: factory.NewCounterVec(counter("batches_total",
			"Total number of edit batches by status"), []string{"status"}),

		batchEdits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_edits",
			Help:        "Number of edit records per batch",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
		}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Batch validation and apply duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		batchErrors: factory.NewCounterVec(counter("batch_errors_total",
			"Total number of failed batches by reason"), []string{"reason"}),

		editsApplied: factory.NewCounter(counter("edits_applied_total",
			"Total number of edit records applied")),

		hydrationsTotal: factory.NewCounter(counter("hydrations_total",
			"Total number of hydration passes")),

		hydrationMismatch: factory.NewCounterVec(counter("hydration_mismatches_total",
			"Total number of hydration mismatches by kind"), []string{"kind"}),

		hydrationBound: factory.NewCounter(counter("hydration_bound_total",
			"Total number of nodes bound by hydration")),

		eventsDispatched: factory.NewCounterVec(counter("events_dispatched_total",
			"Total number of user events sent by event name and listener mode"), []string{"event", "mode"}),

		eventsDropped: factory.NewCounterVec(counter("events_dropped_total",
			"Total number of native events with no listener origin"), []string{"event"}),

		activeInterpreters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_interpreters",
			Help:        "Number of live interpreters",
			ConstLabels: config.ConstLabels,
		}),

		now: time.Now,
	}
}

func (m *Metrics) BatchStarted(_ uint64, edits int) func(applied int, err error) {
	start := m.now()
	m.batchEdits.Observe(float64(edits))
	return func(applied int, err error) {
		m.batchDuration.Observe(m.now().Sub(start).Seconds())
		m.editsApplied.Add(float64(applied))
		switch {
		case err == nil:
			m.batchesTotal.WithLabelValues(StatusApplied).Inc()
			return
		case applied == 0:
			m.batchesTotal.WithLabelValues(StatusRejected).Inc()
		default:
			m.batchesTotal.WithLabelValues(StatusAborted).Inc()
		}
		m.batchErrors.WithLabelValues(interp.Reason(err)).Inc()
	}
}

func (m *Metrics) Hydrated(report *interp.HydrationReport) {
	m.hydrationsTotal.Inc()
	m.hydrationBound.Add(float64(report.Bound))
	for _, mm := range report.Mismatches {
		m.hydrationMismatch.WithLabelValues(mm.Kind.String()).Inc()
	}
}

func (m *Metrics) EventDispatched(name string, bubbles bool) {
	mode := "direct"
	if bubbles {
		mode = "delegated"
	}
	m.eventsDispatched.WithLabelValues(name, mode).Inc()
}

func (m *Metrics) EventDropped(name string) {
	m.eventsDropped.WithLabelValues(name).Inc()
}

// InterpreterOpened records a new live interpreter. Hosts call it when a
// surface is mounted.
func (m *Metrics) InterpreterOpened() { m.activeInterpreters.Inc() }

// InterpreterClosed records an interpreter going away.
func (m *Metrics) InterpreterClosed() { m.activeInterpreters.Dec() }
