package metrics

import (
	"time"

	"erpsweep/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// TableMetrics tracks per-table work. Table names are not used as labels;
// a database can have tens of thousands of them.
type TableMetrics struct {
	tablesTotal    *prometheus.CounterVec
	tableDuration  *prometheus.HistogramVec
	rowsTotal      *prometheus.CounterVec
	statements     *prometheus.CounterVec
	stepErrorTotal *prometheus.CounterVec
}

// NewTableMetrics creates and registers table metrics with the provided registry.
func NewTableMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TableMetrics {
	tm := &TableMetrics{
		tablesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "tables_total",
				Help:      "Total number of processed tables by outcome",
			},
			[]string{"archetype", "outcome"},
		),

		tableDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "table_duration_seconds",
				Help:      "Time spent on one table in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"archetype"},
		),

		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rows_total",
				Help:      "Rows seen, kept and removed by archetype",
			},
			[]string{"archetype", "kind"},
		),

		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "statements_total",
				Help:      "Generated cleanup statements by step",
			},
			[]string{"step", "mode"},
		),

		stepErrorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "step_errors_total",
				Help:      "Failed cleanup steps",
			},
			[]string{"step"},
		),
	}

	registry.MustRegister(
		tm.tablesTotal,
		tm.tableDuration,
		tm.rowsTotal,
		tm.statements,
		tm.stepErrorTotal,
	)

	return tm
}

// RecordTable records a finished table.
func (tm *TableMetrics) RecordTable(archetype, outcome string, duration time.Duration, total, kept int64) {
	tm.tablesTotal.WithLabelValues(archetype, outcome).Inc()
	tm.tableDuration.WithLabelValues(archetype).Observe(duration.Seconds())

	if total > 0 {
		tm.rowsTotal.WithLabelValues(archetype, "total").Add(float64(total))
	}
	if kept > 0 {
		tm.rowsTotal.WithLabelValues(archetype, "kept").Add(float64(kept))
	}
	if removed := total - kept; removed > 0 {
		tm.rowsTotal.WithLabelValues(archetype, "removed").Add(float64(removed))
	}
}

// RecordStatement counts a generated statement.
func (tm *TableMetrics) RecordStatement(step, mode string) {
	tm.statements.WithLabelValues(step, mode).Inc()
}

// RecordStepError counts a failed step.
func (tm *TableMetrics) RecordStepError(step string) {
	tm.stepErrorTotal.WithLabelValues(step).Inc()
}
