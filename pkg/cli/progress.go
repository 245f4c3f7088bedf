package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"erpsweep/pkg/sweep"
)

// TableProgress prints one line per table as a run advances.
type TableProgress struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewTableProgress creates a progress reporter that writes to w.
// If w is nil, it defaults to os.Stdout.
func NewTableProgress(w io.Writer) *TableProgress {
	if w == nil {
		w = os.Stdout
	}
	return &TableProgress{writer: w}
}

// TableStarted implements sweep.Progress.
func (p *TableProgress) TableStarted(index, total int, table string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "[%d/%d] %s ...", index, total, table)
}

// TableFinished implements sweep.Progress.
func (p *TableProgress) TableFinished(index, total int, res *sweep.TableResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, " %s\n", describe(res))
	for _, sub := range res.Subtables {
		fmt.Fprintf(p.writer, "      %s %s\n", sub.Table, describe(sub))
	}
}

func describe(res *sweep.TableResult) string {
	prefix := ""
	if res.DryRun {
		prefix = "(dry run) "
	}

	switch res.Outcome {
	case sweep.OutcomeSkippedEmpty:
		return prefix + "empty, skipped"
	case sweep.OutcomeTruncated:
		return fmt.Sprintf("%struncated (%d rows removed)", prefix, res.Total)
	case sweep.OutcomeRewritten:
		return fmt.Sprintf("%skept %d of %d rows", prefix, res.Kept, res.Total)
	case sweep.OutcomeFailed:
		return fmt.Sprintf("✗ failed at %s: %v", res.FailedStep, res.Err)
	default:
		return string(res.Outcome)
	}
}
