package sweep

import (
	"fmt"
)

// StepError reports the step at which a table rewrite stopped.
type StepError struct {
	Table string
	Step  Step

	// SourceTruncated is true when the source table had already been
	// truncated. The kept rows are then only in the stage table.
	SourceTruncated bool

	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.SourceTruncated {
		return fmt.Sprintf("table %s: step %s failed after truncate (kept rows remain in stage table): %v", e.Table, e.Step, e.Err)
	}
	return fmt.Sprintf("table %s: step %s failed: %v", e.Table, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// RunError summarizes the failed tables of a run.
type RunError struct {
	RunID  string
	Failed int

	// First is the first table failure of the run.
	First error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %d table(s) failed, first: %v", e.RunID, e.Failed, e.First)
}

// Unwrap returns the first table failure.
func (e *RunError) Unwrap() error {
	return e.First
}
