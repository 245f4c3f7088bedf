package sweep

// Step names one stage of a table rewrite.
type Step string

const (
	StepSubtables     Step = "subtables"
	StepCount         Step = "count"
	StepFilter        Step = "filter"
	StepCountFiltered Step = "count_filtered"
	StepCleanupPre    Step = "cleanup_pre"
	StepStage         Step = "stage"
	StepTruncate      Step = "truncate"
	StepReinsert      Step = "reinsert"
	StepCleanupPost   Step = "cleanup_post"
)

// Outcome is the final state of a table after processing.
type Outcome string

const (
	// OutcomeSkippedEmpty means the table had no rows and was left alone.
	OutcomeSkippedEmpty Outcome = "skipped_empty"

	// OutcomeTruncated means no row passed the filter and the table was
	// emptied with a single truncate.
	OutcomeTruncated Outcome = "truncated"

	// OutcomeRewritten means the table went through the full stage swap.
	OutcomeRewritten Outcome = "rewritten"

	OutcomeFailed Outcome = "failed"
)

// Statement is one generated DDL/DML statement.
type Statement struct {
	Step Step   `json:"step"`
	SQL  string `json:"sql"`

	// Executed is false in dry-run mode and for a statement that failed.
	Executed bool `json:"executed"`
}
