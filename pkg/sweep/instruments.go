package sweep

import (
	"context"
	"time"
)

// Metrics receives counters from the executor and the runner.
// *metrics.Collector implements it.
type Metrics interface {
	RecordRun(status string, dryRun bool, duration time.Duration, failedTables int)
	RecordTable(archetype, outcome string, duration time.Duration, total, kept int64)
	RecordStatement(step string, dryRun bool)
	RecordStepError(step string)
}

// Journal persists finished runs.
type Journal interface {
	Record(ctx context.Context, report *Report) error
}

// Progress is notified as tables are processed.
type Progress interface {
	TableStarted(index, total int, table string)
	TableFinished(index, total int, result *TableResult)
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string, bool, time.Duration, int)              {}
func (nopMetrics) RecordTable(string, string, time.Duration, int64, int64) {}
func (nopMetrics) RecordStatement(string, bool)                            {}
func (nopMetrics) RecordStepError(string)                                  {}

type nopProgress struct{}

func (nopProgress) TableStarted(int, int, string)        {}
func (nopProgress) TableFinished(int, int, *TableResult) {}
