// Package telemetry groups the observability packages of erpsweep.
//
// # Components
//
//   - logging: slog logger writing a per-run file and the console, with
//     credential redaction
//   - metrics: Prometheus counters and histograms for runs, tables and
//     statements, served on /metrics or written to a textfile
//   - tracing: OpenTelemetry spans per run and per table
//   - health: liveness and readiness probes for the scheduler process
//
// Every component is configured from the telemetry section of the
// configuration file and is safe to leave disabled.
package telemetry
