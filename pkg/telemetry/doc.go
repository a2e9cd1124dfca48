// Package telemetry implements interp.Observer on top of Prometheus
// collectors and OpenTelemetry spans.
//
// Metrics collected (namespace "vinterp" by default):
//   - batches_total: batches by status (applied, rejected, aborted)
//   - batch_edits: histogram of records per batch
//   - batch_duration_seconds: time from BatchStarted to completion
//   - batch_errors_total: failed batches by reason
//   - hydrations_total, hydration_mismatches_total by kind
//   - events_dispatched_total by event and mode, events_dropped_total by event
//
// Observers are combined with Multi:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	tr := telemetry.NewTracer()
//	in := interp.New(doc, interp.WithObserver(telemetry.Multi(m, tr)))
package telemetry
