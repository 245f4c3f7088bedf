// Package tracing provides OpenTelemetry spans for cleanup runs.
//
// A run opens one span; every table opens a child span carrying its
// archetype, outcome and row counts, with one event per generated statement.
// Spans are exported over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "otel-collector:4317"
//	    insecure: true
//
// When tracing is disabled New returns a noop tracer, so callers never need
// to check.
package tracing
