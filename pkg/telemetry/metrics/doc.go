// Package metrics provides Prometheus metrics for cleanup runs.
//
// # Metrics
//
//   - erpsweep_runs_total{status,mode}: completed runs
//   - erpsweep_run_duration_seconds{mode}: run duration
//   - erpsweep_last_run_timestamp_seconds{status}: end of the latest run
//   - erpsweep_last_run_failed_tables: failed tables of the latest run
//   - erpsweep_tables_total{archetype,outcome}: processed tables
//   - erpsweep_table_duration_seconds{archetype}: per-table duration
//   - erpsweep_rows_total{archetype,kind}: rows seen, kept and removed
//   - erpsweep_statements_total{step,mode}: generated statements
//   - erpsweep_step_errors_total{step}: failed steps
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Runs started from cron keep the endpoint up between runs. One-shot runs
// can write the registry to a node_exporter textfile instead:
//
//	collector.WriteTextfile("/var/lib/node_exporter/erpsweep.prom")
package metrics
