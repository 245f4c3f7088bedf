package sweep

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"erpsweep/pkg/retention"
	"erpsweep/pkg/schema"
)

var (
	documentColumns = []string{"_IDRRef", "_Version", "_Date_Time", "_Marked"}
	recorderColumns = []string{"_Period", "_RecorderTRef", "_RecorderRRef", "_Active"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testWindow() retention.Window {
	return retention.NewWindow(date(2024, 1, 1), 2000, date(2024, 10, 19))
}

func mustTable(t *testing.T, name string, columns []string, archetype schema.Archetype) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("dbo", name, columns, archetype)
	if err != nil {
		t.Fatalf("NewTable(%s) error = %v", name, err)
	}
	return tbl
}

// documentWithSubtable returns _Document123 owning _Document123_VT1.
func documentWithSubtable(t *testing.T) *schema.Table {
	t.Helper()
	doc := mustTable(t, "_Document123", documentColumns, schema.Document)
	sub := mustTable(t, "_Document123_VT1", []string{"_Document123_IDRRef", "_KeyField", "_LineNo"}, schema.Subtable)
	doc.Subtables = []*schema.Table{sub}
	return doc
}

// stubFilters returns fixed filters and counts Build calls.
type stubFilters struct {
	filters map[string]retention.Filter
	calls   []string
}

func (s *stubFilters) Build(ctx context.Context, t *schema.Table, totalRows int64) (retention.Filter, error) {
	s.calls = append(s.calls, t.Name)
	return s.filters[t.Name], nil
}

type recordingMetrics struct {
	mu         sync.Mutex
	runs       []string
	tables     map[string]int
	statements map[string]int
	stepErrors map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		tables:     make(map[string]int),
		statements: make(map[string]int),
		stepErrors: make(map[string]int),
	}
}

func (m *recordingMetrics) RecordRun(status string, dryRun bool, duration time.Duration, failedTables int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func (m *recordingMetrics) RecordTable(archetype, outcome string, duration time.Duration, total, kept int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[archetype+"/"+outcome]++
}

func (m *recordingMetrics) RecordStatement(step string, dryRun bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements[step]++
}

func (m *recordingMetrics) RecordStepError(step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepErrors[step]++
}

type recordingJournal struct {
	reports []*Report
}

func (j *recordingJournal) Record(ctx context.Context, report *Report) error {
	j.reports = append(j.reports, report)
	return nil
}

type recordingProgress struct {
	started  []string
	finished []Outcome
}

func (p *recordingProgress) TableStarted(index, total int, table string) {
	p.started = append(p.started, table)
}

func (p *recordingProgress) TableFinished(index, total int, res *TableResult) {
	p.finished = append(p.finished, res.Outcome)
}

func statementSQL(res *TableResult) []string {
	out := make([]string, len(res.Statements))
	for i, s := range res.Statements {
		out[i] = s.SQL
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
