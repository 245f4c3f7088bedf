package sweep

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"erpsweep/internal/dbtest"
	"erpsweep/pkg/retention"
	"erpsweep/pkg/schema"
)

func newBuilderExecutor(sess *dbtest.Session, model *schema.Model, dryRun bool) *Executor {
	builder := retention.NewBuilder(sess, model, testWindow(), discardLogger())
	return NewExecutor(sess, builder, ExecutorOptions{DryRun: dryRun}, discardLogger())
}

func TestExecutor_EmptyTableIssuesNoStatements(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document7", 0, 0)
	filters := &stubFilters{}
	exec := NewExecutor(sess, filters, ExecutorOptions{}, discardLogger())

	res, err := exec.Process(context.Background(), mustTable(t, "_Document7", documentColumns, schema.Document))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Outcome != OutcomeSkippedEmpty {
		t.Errorf("Outcome = %s, want %s", res.Outcome, OutcomeSkippedEmpty)
	}
	if n := len(sess.Execs()); n != 0 {
		t.Errorf("expected no executed statements, got %d", n)
	}
	if len(res.Statements) != 0 {
		t.Errorf("expected no generated statements, got %v", res.Statements)
	}
	if len(filters.calls) != 0 {
		t.Errorf("filter should not be built for an empty table, got %v", filters.calls)
	}
}

func TestExecutor_ZeroKeptTruncatesOnce(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document7", 100, 0)
	exec := newBuilderExecutor(sess, &schema.Model{Database: "erp", YearOffset: 2000}, false)

	res, err := exec.Process(context.Background(), mustTable(t, "_Document7", documentColumns, schema.Document))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []string{"TRUNCATE TABLE [dbo].[_Document7]"}
	if got := sess.Execs(); !equalStrings(got, want) {
		t.Errorf("Execs() = %v, want %v", got, want)
	}
	if res.Outcome != OutcomeTruncated || res.Removed() != 100 {
		t.Errorf("got outcome %s removed %d, want truncated/100", res.Outcome, res.Removed())
	}
	if sess.Tables["_Document7"].Rows != 0 {
		t.Errorf("table should be empty, has %d rows", sess.Tables["_Document7"].Rows)
	}
}

func TestExecutor_SequenceKeepsNothing(t *testing.T) {
	for _, rows := range []int64{1, 50, 10000} {
		sess := dbtest.NewSession("erp")
		sess.AddTable("_Seq12", rows, rows)
		exec := newBuilderExecutor(sess, &schema.Model{Database: "erp"}, false)

		res, err := exec.Process(context.Background(), mustTable(t, "_Seq12", []string{"_Period", "_Number"}, schema.Sequence))
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if res.Kept != 0 {
			t.Errorf("rows=%d: Kept = %d, want 0", rows, res.Kept)
		}
		if got := sess.Queries(); len(got) != 1 {
			t.Errorf("rows=%d: expected only the total count, got %v", rows, got)
		}
		if got := sess.Execs(); !equalStrings(got, []string{"TRUNCATE TABLE [dbo].[_Seq12]"}) {
			t.Errorf("rows=%d: Execs() = %v", rows, got)
		}
	}
}

func TestExecutor_KeepAllRoundTrip(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_AccRg5", 25, 25)
	filters := &stubFilters{filters: map[string]retention.Filter{"_AccRg5": retention.KeepAll()}}
	exec := NewExecutor(sess, filters, ExecutorOptions{}, discardLogger())

	res, err := exec.Process(context.Background(), mustTable(t, "_AccRg5", recorderColumns, schema.Register))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Outcome != OutcomeRewritten {
		t.Errorf("Outcome = %s, want rewritten", res.Outcome)
	}
	if got := sess.Tables["_AccRg5"].Rows; got != 25 {
		t.Errorf("row count after round trip = %d, want 25", got)
	}
	if !strings.Contains(res.Statements[1].SQL, "WHERE 1=1") {
		t.Errorf("stage statement should use the keep-all condition: %s", res.Statements[1].SQL)
	}
}

// TestExecutor_ScenarioDocument tests a document keeping 400 of 1000 rows
func TestExecutor_ScenarioDocument(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document123", 1000, 400)
	exec := newBuilderExecutor(sess, &schema.Model{Database: "erp", YearOffset: 2000}, false)

	res, err := exec.Process(context.Background(), mustTable(t, "_Document123", documentColumns, schema.Document))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	cols := "[_IDRRef], [_Date_Time], [_Marked]"
	want := []string{
		"DROP TABLE IF EXISTS [dbo].[_Document123_tmp_cleanup]",
		"SELECT " + cols + " INTO [dbo].[_Document123_tmp_cleanup] FROM [dbo].[_Document123] WHERE [_Date_Time] >= '40240101' AND [_Marked] = 0",
		"TRUNCATE TABLE [dbo].[_Document123]",
		"INSERT INTO [dbo].[_Document123] (" + cols + ") SELECT " + cols + " FROM [dbo].[_Document123_tmp_cleanup]",
		"DROP TABLE IF EXISTS [dbo].[_Document123_tmp_cleanup]",
	}
	if got := sess.Execs(); !equalStrings(got, want) {
		t.Errorf("Execs() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	if res.Total != 1000 || res.Kept != 400 || res.Removed() != 600 {
		t.Errorf("got total=%d kept=%d removed=%d", res.Total, res.Kept, res.Removed())
	}
	if got := sess.Tables["_Document123"].Rows; got != 400 {
		t.Errorf("final row count = %d, want 400", got)
	}
}

// TestExecutor_ScenarioEmptyRegister tests that an empty register with
// recorder columns is skipped without scanning it
func TestExecutor_ScenarioEmptyRegister(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_AccRg45", 0, 0)
	exec := newBuilderExecutor(sess, &schema.Model{Database: "erp"}, false)

	reg := mustTable(t, "_AccRg45", recorderColumns, schema.Register)
	if reg.FullTruncate() {
		t.Fatal("register with recorder columns should not be full truncate")
	}

	res, err := exec.Process(context.Background(), reg)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Outcome != OutcomeSkippedEmpty {
		t.Errorf("Outcome = %s, want skipped_empty", res.Outcome)
	}
	if got := sess.Queries(); !equalStrings(got, []string{reg.CountSQL()}) {
		t.Errorf("expected only the total count, got %v", got)
	}
	if n := len(sess.Execs()); n != 0 {
		t.Errorf("expected no statements, got %d", n)
	}
}

// TestExecutor_ScenarioSubtableBeforeParent tests that a subtable is staged
// while its document's rows are still present
func TestExecutor_ScenarioSubtableBeforeParent(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document123", 1000, 400)
	sess.AddTable("_Document123_VT1", 5000, 2100)

	doc := documentWithSubtable(t)
	model := &schema.Model{Database: "erp", YearOffset: 2000, Documents: []*schema.Table{doc}}
	exec := newBuilderExecutor(sess, model, false)

	res, err := exec.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	subStage := sess.Index("INTO [dbo].[_Document123_VT1_tmp_cleanup] FROM [dbo].[_Document123_VT1] WHERE [_Document123_IDRRef] IN (SELECT [_IDRRef] FROM [dbo].[_Document123]")
	subDone := sess.Index("INSERT INTO [dbo].[_Document123_VT1]")
	parentCount := sess.Index("query: SELECT COUNT(*) FROM [dbo].[_Document123]")
	parentTruncate := sess.Index("TRUNCATE TABLE [dbo].[_Document123]")

	if subStage < 0 || parentTruncate < 0 {
		t.Fatalf("missing statements in log:\n%s", strings.Join(sess.Log(), "\n"))
	}
	if subStage > parentTruncate {
		t.Error("subtable must be staged before the parent is truncated")
	}
	if subDone > parentCount {
		t.Error("subtable must be finished before the parent is counted")
	}

	if len(res.Subtables) != 1 || res.Subtables[0].Kept != 2100 {
		t.Fatalf("unexpected subtable results: %+v", res.Subtables)
	}
	if sess.Tables["_Document123_VT1"].Rows != 2100 || sess.Tables["_Document123"].Rows != 400 {
		t.Errorf("final rows: doc=%d sub=%d", sess.Tables["_Document123"].Rows, sess.Tables["_Document123_VT1"].Rows)
	}
}

func TestExecutor_FullTruncateRegisterNeverScans(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_InfoRg9", 20, 20)
	exec := newBuilderExecutor(sess, &schema.Model{Database: "erp"}, false)

	reg := mustTable(t, "_InfoRg9", []string{"_Period", "_Fld10"}, schema.Register)
	if !reg.FullTruncate() {
		t.Fatal("register without recorder columns should be full truncate")
	}

	if _, err := exec.Process(context.Background(), reg); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for _, q := range sess.Queries() {
		if strings.Contains(q, "GROUP BY") {
			t.Errorf("unexpected content scan: %s", q)
		}
	}
	if got := sess.Execs(); !equalStrings(got, []string{"TRUNCATE TABLE [dbo].[_InfoRg9]"}) {
		t.Errorf("Execs() = %v", got)
	}
}

func TestExecutor_RegisterScansOnce(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_AccRg45", 30, 12)

	reg := mustTable(t, "_AccRg45", recorderColumns, schema.Register)
	sess.SetResult(retention.RecorderScanSQL(reg), []string{"ref_tab"}, []any{"0000007B"}, []any{nil})

	model := &schema.Model{
		Database:   "erp",
		YearOffset: 2000,
		Documents:  []*schema.Table{mustTable(t, "_Document123", documentColumns, schema.Document)},
	}
	exec := newBuilderExecutor(sess, model, false)

	res, err := exec.Process(context.Background(), reg)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	scans := 0
	for _, q := range sess.Queries() {
		if q == retention.RecorderScanSQL(reg) {
			scans++
		}
	}
	if scans != 1 {
		t.Errorf("recorder scan issued %d times, want 1", scans)
	}
	if !strings.Contains(res.Filter, "FROM [dbo].[_Document123] WHERE [_Date_Time] >= '40240101'") {
		t.Errorf("unexpected register filter: %s", res.Filter)
	}
	if res.Outcome != OutcomeRewritten || sess.Tables["_AccRg45"].Rows != 12 {
		t.Errorf("outcome %s rows %d", res.Outcome, sess.Tables["_AccRg45"].Rows)
	}
}

func TestExecutor_UnknownReferenceFailsAtFilter(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_AccRg45", 30, 12)

	reg := mustTable(t, "_AccRg45", recorderColumns, schema.Register)
	sess.SetResult(retention.RecorderScanSQL(reg), []string{"ref_tab"}, []any{"ZZ"})
	exec := newBuilderExecutor(sess, &schema.Model{Database: "erp"}, false)

	res, err := exec.Process(context.Background(), reg)

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepFilter {
		t.Fatalf("expected filter StepError, got %v", err)
	}
	var refErr *retention.ReferenceError
	if !errors.As(err, &refErr) {
		t.Errorf("expected wrapped ReferenceError, got %v", err)
	}
	if res.Outcome != OutcomeFailed || res.FailedStep != StepFilter {
		t.Errorf("result = %s/%s", res.Outcome, res.FailedStep)
	}
	if n := len(sess.Execs()); n != 0 {
		t.Errorf("no statement should run after a filter failure, got %d", n)
	}
}

func TestExecutor_ReinsertFailure(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document123", 1000, 400)
	sess.FailOn = func(stmt string) error {
		if strings.HasPrefix(stmt, "INSERT INTO") {
			return errors.New("transaction log full")
		}
		return nil
	}
	metrics := newRecordingMetrics()
	builder := retention.NewBuilder(sess, &schema.Model{YearOffset: 2000}, testWindow(), discardLogger())
	exec := NewExecutor(sess, builder, ExecutorOptions{Metrics: metrics}, discardLogger())

	res, err := exec.Process(context.Background(), mustTable(t, "_Document123", documentColumns, schema.Document))

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != StepReinsert || !stepErr.SourceTruncated {
		t.Errorf("got step %s truncated %v, want reinsert/true", stepErr.Step, stepErr.SourceTruncated)
	}
	if res.FailedStep != StepReinsert || res.Outcome != OutcomeFailed {
		t.Errorf("result = %s/%s", res.Outcome, res.FailedStep)
	}
	if n := len(sess.Execs()); n != 4 {
		t.Errorf("expected 4 attempted statements, got %d", n)
	}
	if sess.Tables["_Document123"].Rows != 0 {
		t.Error("source should be left truncated")
	}
	if metrics.stepErrors["reinsert"] != 1 || metrics.tables["document/failed"] != 1 {
		t.Errorf("unexpected metrics: %+v %+v", metrics.stepErrors, metrics.tables)
	}
}

func TestExecutor_SubtableFailureAbortsParent(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document123", 1000, 400)
	sess.AddTable("_Document123_VT1", 5000, 2100)
	sess.FailOn = func(stmt string) error {
		if strings.Contains(stmt, "INTO [dbo].[_Document123_VT1_tmp_cleanup]") {
			return errors.New("disk full")
		}
		return nil
	}

	doc := documentWithSubtable(t)
	model := &schema.Model{YearOffset: 2000, Documents: []*schema.Table{doc}}
	metrics := newRecordingMetrics()
	builder := retention.NewBuilder(sess, model, testWindow(), discardLogger())
	exec := NewExecutor(sess, builder, ExecutorOptions{Metrics: metrics}, discardLogger())

	res, err := exec.Process(context.Background(), doc)
	if err == nil {
		t.Fatal("expected error")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepSubtables || stepErr.Table != "_Document123" {
		t.Fatalf("expected parent subtables error, got %v", err)
	}
	var child *StepError
	if !errors.As(stepErr.Err, &child) || child.Step != StepStage || child.Table != "_Document123_VT1" {
		t.Errorf("expected wrapped stage failure of subtable, got %v", stepErr.Err)
	}
	if sess.Index("query: SELECT COUNT(*) FROM [dbo].[_Document123]") >= 0 || sess.Index("TRUNCATE TABLE [dbo].[_Document123]") >= 0 {
		t.Error("parent must not be touched after a subtable failure")
	}
	if res.Subtables[0].Outcome != OutcomeFailed {
		t.Errorf("subtable outcome = %s", res.Subtables[0].Outcome)
	}
	if metrics.stepErrors["stage"] != 1 || metrics.stepErrors["subtables"] != 0 {
		t.Errorf("step errors = %v", metrics.stepErrors)
	}
}

func TestExecutor_DryRunParity(t *testing.T) {
	setup := func() (*dbtest.Session, *schema.Model, *schema.Table) {
		sess := dbtest.NewSession("erp")
		sess.AddTable("_Document123", 1000, 400)
		sess.AddTable("_Document123_VT1", 5000, 2100)
		doc := documentWithSubtable(t)
		return sess, &schema.Model{YearOffset: 2000, Documents: []*schema.Table{doc}}, doc
	}

	run := func(dryRun bool) (*dbtest.Session, []string, *TableResult) {
		sess, model, doc := setup()
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		builder := retention.NewBuilder(sess, model, testWindow(), discardLogger())
		exec := NewExecutor(sess, builder, ExecutorOptions{DryRun: dryRun}, logger)

		res, err := exec.Process(context.Background(), doc)
		if err != nil {
			t.Fatalf("Process(dryRun=%v) error = %v", dryRun, err)
		}
		return sess, loggedStatements(t, &buf), res
	}

	liveSess, liveLog, liveRes := run(false)
	drySess, dryLog, dryRes := run(true)

	if len(liveLog) == 0 || !equalStrings(liveLog, dryLog) {
		t.Errorf("logged statements differ:\nlive: %v\ndry:  %v", liveLog, dryLog)
	}
	if !equalStrings(statementSQL(liveRes), statementSQL(dryRes)) {
		t.Error("generated statements differ between live and dry run")
	}
	if n := len(drySess.Execs()); n != 0 {
		t.Errorf("dry run executed %d statements", n)
	}
	if len(liveSess.Execs()) == 0 {
		t.Error("live run executed nothing")
	}
	if drySess.Tables["_Document123"].Rows != 1000 {
		t.Error("dry run changed data")
	}
	for _, s := range dryRes.Statements {
		if s.Executed {
			t.Errorf("dry run statement marked executed: %s", s.SQL)
		}
	}
}

func loggedStatements(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var out []string
	scanner := bufio.NewScanner(buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry struct {
			Msg string `json:"msg"`
			SQL string `json:"sql"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", scanner.Text(), err)
		}
		if entry.Msg == "statement" {
			out = append(out, entry.SQL)
		}
	}
	return out
}

func TestStepError_Message(t *testing.T) {
	err := &StepError{Table: "_AccRg1", Step: StepReinsert, SourceTruncated: true, Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "after truncate") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, err.Err) {
		t.Error("StepError should unwrap to its cause")
	}
}

// infoSteps returns the step attribute of every info line in buf.
func infoSteps(t *testing.T, buf *bytes.Buffer) (steps []string, lines int) {
	t.Helper()
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry struct {
			Level string `json:"level"`
			Msg   string `json:"msg"`
			Step  string `json:"step"`
			Stage string `json:"stage_table"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", scanner.Text(), err)
		}
		if entry.Level != "INFO" {
			t.Errorf("unexpected %s line at info level: %s", entry.Level, entry.Msg)
		}
		lines++
		if entry.Step != "" {
			if entry.Stage == "" {
				t.Errorf("phase line %q has no stage table", entry.Msg)
			}
			steps = append(steps, entry.Step)
		}
	}
	return steps, lines
}

func TestExecutor_PhaseInfoLines(t *testing.T) {
	tests := []struct {
		name      string
		rows      int64
		kept      int64
		wantSteps []string
	}{
		{
			name:      "rewrite",
			rows:      1000,
			kept:      400,
			wantSteps: []string{"cleanup_pre", "stage", "truncate", "reinsert", "cleanup_post"},
		},
		{
			name:      "nothing kept",
			rows:      1000,
			kept:      0,
			wantSteps: []string{"truncate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := dbtest.NewSession("erp")
			sess.AddTable("_Document123", tt.rows, tt.kept)

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			builder := retention.NewBuilder(sess, &schema.Model{YearOffset: 2000}, testWindow(), discardLogger())
			exec := NewExecutor(sess, builder, ExecutorOptions{}, logger)

			if _, err := exec.Process(context.Background(), mustTable(t, "_Document123", documentColumns, schema.Document)); err != nil {
				t.Fatalf("Process() error = %v", err)
			}

			steps, lines := infoSteps(t, &buf)
			if !equalStrings(steps, tt.wantSteps) {
				t.Errorf("phase lines = %v, want %v", steps, tt.wantSteps)
			}
			if lines <= len(steps) {
				t.Errorf("expected the counting line besides the phase lines, got %d lines", lines)
			}
		})
	}
}

func TestExecutor_FailedStatementNotExecuted(t *testing.T) {
	sess := dbtest.NewSession("erp")
	sess.AddTable("_Document123", 1000, 400)
	sess.FailOn = func(stmt string) error {
		if strings.HasPrefix(stmt, "INSERT INTO") {
			return errors.New("transaction log full")
		}
		return nil
	}
	exec := newBuilderExecutor(sess, &schema.Model{YearOffset: 2000}, false)

	res, err := exec.Process(context.Background(), mustTable(t, "_Document123", documentColumns, schema.Document))
	if err == nil {
		t.Fatal("expected error")
	}

	want := []bool{true, true, true, false}
	if len(res.Statements) != len(want) {
		t.Fatalf("got %d statements, want %d", len(res.Statements), len(want))
	}
	for i, s := range res.Statements {
		if s.Executed != want[i] {
			t.Errorf("statement %d (%s) executed = %v, want %v", i, s.Step, s.Executed, want[i])
		}
	}
}
