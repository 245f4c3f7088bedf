package sweep

import (
	"time"

	"erpsweep/pkg/schema"
)

// TableResult is the record of processing one table.
type TableResult struct {
	Table     string           `json:"table"`
	Archetype schema.Archetype `json:"-"`
	Outcome   Outcome          `json:"outcome"`
	DryRun    bool             `json:"dry_run"`

	// Total is the row count before processing.
	Total int64 `json:"total"`

	// Kept is the number of rows passing the filter.
	Kept int64 `json:"kept"`

	// Filter is the condition used to select kept rows, empty when the table
	// was skipped before the filter was built.
	Filter string `json:"filter,omitempty"`

	Statements []Statement `json:"statements,omitempty"`

	// FailedStep and Err are set when Outcome is OutcomeFailed.
	FailedStep Step  `json:"failed_step,omitempty"`
	Err        error `json:"-"`

	Duration  time.Duration  `json:"duration"`
	Subtables []*TableResult `json:"subtables,omitempty"`
}

// Removed returns the number of rows the rewrite deletes.
func (r *TableResult) Removed() int64 {
	switch r.Outcome {
	case OutcomeTruncated, OutcomeRewritten:
		return r.Total - r.Kept
	default:
		return 0
	}
}

// Failed reports whether the table failed.
func (r *TableResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Error returns the failure message, or "".
func (r *TableResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report is the outcome of one run over a whole database.
type Report struct {
	RunID    string `json:"run_id"`
	Database string `json:"database"`
	DryRun   bool   `json:"dry_run"`
	OnError  string `json:"on_error"`

	// Window describes the retention window the filters were built with.
	Window string `json:"window"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status  string         `json:"status"`
	Results []*TableResult `json:"results"`

	// Failed counts failed tables, subtables included.
	Failed int `json:"failed"`
}

// Run statuses.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Flatten returns every table result, subtables before their document.
func (r *Report) Flatten() []*TableResult {
	var out []*TableResult
	var walk func(res *TableResult)
	walk = func(res *TableResult) {
		for _, sub := range res.Subtables {
			walk(sub)
		}
		out = append(out, res)
	}
	for _, res := range r.Results {
		walk(res)
	}
	return out
}

// Totals sums rows over every table of the run.
func (r *Report) Totals() (total, kept, removed int64) {
	for _, res := range r.Flatten() {
		total += res.Total
		kept += res.Kept
		removed += res.Removed()
	}
	return total, kept, removed
}
