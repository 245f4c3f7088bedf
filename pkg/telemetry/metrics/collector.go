package metrics

import (
	"time"

	"erpsweep/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Mode label values.
const (
	ModeLive   = "live"
	ModeDryRun = "dry_run"
)

// Collector owns the registry and every metric family of erpsweep.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runMetrics   *RunMetrics
	tableMetrics *TableMetrics
}

// NewCollector creates a collector. If registry is nil a new one is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "erpsweep"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:       cfg,
		registry:     registry,
		runMetrics:   NewRunMetrics(cfg, registry),
		tableMetrics: NewTableMetrics(cfg, registry),
	}
}

// RecordRun records a finished run.
//
// Parameters:
//   - status: "success", "failed" or "aborted"
//   - dryRun: whether statements were only logged
//   - duration: wall time of the run
//   - failedTables: number of tables that failed
func (c *Collector) RecordRun(status string, dryRun bool, duration time.Duration, failedTables int) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordRun(status, mode(dryRun), duration, failedTables)
}

// RecordTable records a table that reached a final outcome.
func (c *Collector) RecordTable(archetype, outcome string, duration time.Duration, total, kept int64) {
	if !c.config.Enabled {
		return
	}
	c.tableMetrics.RecordTable(archetype, outcome, duration, total, kept)
}

// RecordStatement counts a generated statement.
func (c *Collector) RecordStatement(step string, dryRun bool) {
	if !c.config.Enabled {
		return
	}
	c.tableMetrics.RecordStatement(step, mode(dryRun))
}

// RecordStepError counts a failed step.
func (c *Collector) RecordStepError(step string) {
	if !c.config.Enabled {
		return
	}
	c.tableMetrics.RecordStepError(step)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func mode(dryRun bool) string {
	if dryRun {
		return ModeDryRun
	}
	return ModeLive
}
