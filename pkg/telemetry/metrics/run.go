package metrics

import (
	"time"

	"erpsweep/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks whole cleanup runs.
type RunMetrics struct {
	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	lastRun         *prometheus.GaugeVec
	lastFailedCount prometheus.Gauge
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_total",
				Help:      "Total number of cleanup runs",
			},
			[]string{"status", "mode"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of cleanup runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 9), // 1s to ~18h
			},
			[]string{"mode"},
		),

		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the latest run with the given status finished",
			},
			[]string{"status"},
		),

		lastFailedCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_run_failed_tables",
				Help:      "Number of tables that failed in the latest run",
			},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.runDuration,
		rm.lastRun,
		rm.lastFailedCount,
	)

	return rm
}

// RecordRun records a finished run.
func (rm *RunMetrics) RecordRun(status, mode string, duration time.Duration, failedTables int) {
	rm.runsTotal.WithLabelValues(status, mode).Inc()
	rm.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
	rm.lastRun.WithLabelValues(status).SetToCurrentTime()
	rm.lastFailedCount.Set(float64(failedTables))
}
