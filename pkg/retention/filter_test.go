package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"erpsweep/internal/dbtest"
	"erpsweep/pkg/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustTable(t *testing.T, name string, columns []string, archetype schema.Archetype) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("dbo", name, columns, archetype)
	if err != nil {
		t.Fatalf("NewTable(%s) error = %v", name, err)
	}
	return tbl
}

func testModel(t *testing.T, docs ...string) *schema.Model {
	t.Helper()
	m := &schema.Model{Database: "erp_main", YearOffset: 2000}
	for _, d := range docs {
		m.Documents = append(m.Documents, mustTable(t, d, []string{"_IDRRef", "_Date_Time", "_Marked"}, schema.Document))
	}
	return m
}

func testWindow() Window {
	return NewWindow(date(2024, 1, 1), 2000, date(2024, 10, 19))
}

func TestBuild_FixedArchetypes(t *testing.T) {
	sess := dbtest.NewSession("erp_main")
	b := NewBuilder(sess, testModel(t, "_Document1"), testWindow(), discardLogger())

	tests := []struct {
		name  string
		table *schema.Table
		want  string
	}{
		{
			name:  "document",
			table: mustTable(t, "_Document1", []string{"_IDRRef", "_Date_Time", "_Marked"}, schema.Document),
			want:  "WHERE [_Date_Time] >= '40240101' AND [_Marked] = 0",
		},
		{
			name:  "subtable",
			table: mustTable(t, "_Document1_VT2", []string{"_Document1_IDRRef", "_LineNo"}, schema.Subtable),
			want:  "WHERE [_Document1_IDRRef] IN (SELECT [_IDRRef] FROM [dbo].[_Document1] WHERE [_Date_Time] >= '40240101' AND [_Marked] = 0)",
		},
		{
			name:  "register total",
			table: mustTable(t, "_AccumRgT5", []string{"_Period", "_Fld1"}, schema.RegisterTotal),
			want:  "WHERE [_Period] > '41241019'",
		},
		{
			name:  "sequence",
			table: mustTable(t, "_Seq3", []string{"_Period"}, schema.Sequence),
			want:  "WHERE 1<>1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := b.Build(context.Background(), tt.table, 10)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := f.Clause(); got != tt.want {
				t.Errorf("Clause()\n got  %s\n want %s", got, tt.want)
			}
		})
	}

	if n := len(sess.Queries()); n != 0 {
		t.Errorf("fixed archetypes issued %d queries, want 0", n)
	}
}

func TestBuild_SequenceKeepsNothing(t *testing.T) {
	b := NewBuilder(dbtest.NewSession("x"), testModel(t), testWindow(), discardLogger())

	f, err := b.Build(context.Background(), mustTable(t, "_Seq1", []string{"_Period"}, schema.Sequence), 100)
	if err != nil {
		t.Fatal(err)
	}
	if !f.KeepNone || f.KeepAll {
		t.Errorf("sequence filter = %+v, want KeepNone", f)
	}
}

func TestBuild_RegisterWithoutRecorder(t *testing.T) {
	sess := dbtest.NewSession("erp_main")
	b := NewBuilder(sess, testModel(t, "_Document1"), testWindow(), discardLogger())
	reg := mustTable(t, "_InfoRg9", []string{"_Period", "_Fld1"}, schema.Register)

	f, err := b.Build(context.Background(), reg, 500)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !f.KeepNone {
		t.Errorf("filter = %+v, want KeepNone", f)
	}
	if n := len(sess.Queries()); n != 0 {
		t.Errorf("recorder-less register issued %d queries, want 0", n)
	}
}

func TestBuild_EmptyRegister(t *testing.T) {
	sess := dbtest.NewSession("erp_main")
	b := NewBuilder(sess, testModel(t, "_Document1"), testWindow(), discardLogger())
	reg := mustTable(t, "_AccumRg10", []string{"_RecorderTRef", "_RecorderRRef"}, schema.Register)

	f, err := b.Build(context.Background(), reg, 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !f.KeepAll || f.Clause() != "WHERE 1=1" {
		t.Errorf("filter = %+v, want KeepAll", f)
	}
	if n := len(sess.Queries()); n != 0 {
		t.Errorf("empty register issued %d queries, want 0", n)
	}
}

func TestBuild_RegisterWithRecorder(t *testing.T) {
	sess := dbtest.NewSession("erp_main")
	b := NewBuilder(sess, testModel(t, "_Document26", "_Document31"), testWindow(), discardLogger())
	reg := mustTable(t, "_AccumRg10", []string{"_Period", "_RecorderTRef", "_RecorderRRef"}, schema.Register)

	// Returned out of order, with a NULL.
	sess.SetResult(RecorderScanSQL(reg), []string{"ref_tab"},
		[]any{"0000001F"},
		[]any{nil},
		[]any{"0000001A"},
	)

	f, err := b.Build(context.Background(), reg, 42)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := "concat(convert(varchar(16), [_RecorderTRef], 2), '|', convert(char(36), cast([_RecorderRRef] as uniqueidentifier))) IN (" +
		"SELECT concat('0000001A', '|', convert(char(36), cast([_IDRRef] as uniqueidentifier))) FROM [dbo].[_Document26] WHERE [_Date_Time] >= '40240101'" +
		" UNION ALL " +
		"SELECT concat('0000001F', '|', convert(char(36), cast([_IDRRef] as uniqueidentifier))) FROM [dbo].[_Document31] WHERE [_Date_Time] >= '40240101'" +
		")"
	if f.Where != want {
		t.Errorf("Where\n got  %s\n want %s", f.Where, want)
	}
	if f.KeepAll || f.KeepNone {
		t.Errorf("filter flags = %+v, want neither", f)
	}

	if n := len(sess.Queries()); n != 1 {
		t.Errorf("register issued %d queries, want exactly 1", n)
	}
}

func TestBuild_RegisterOnlyNullReferences(t *testing.T) {
	sess := dbtest.NewSession("erp_main")
	b := NewBuilder(sess, testModel(t, "_Document26"), testWindow(), discardLogger())
	reg := mustTable(t, "_AccumRg10", []string{"_RecorderTRef", "_RecorderRRef"}, schema.Register)
	sess.SetResult(RecorderScanSQL(reg), []string{"ref_tab"}, []any{nil})

	f, err := b.Build(context.Background(), reg, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !f.KeepNone {
		t.Errorf("filter = %+v, want KeepNone", f)
	}
}

func TestBuild_RegisterUnresolvableReference(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{name: "not hex", ref: "ZZ"},
		{name: "unknown document", ref: "000000FF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := dbtest.NewSession("erp_main")
			b := NewBuilder(sess, testModel(t, "_Document26"), testWindow(), discardLogger())
			reg := mustTable(t, "_AccumRg10", []string{"_RecorderTRef", "_RecorderRRef"}, schema.Register)
			sess.SetResult(RecorderScanSQL(reg), []string{"ref_tab"}, []any{tt.ref})

			_, err := b.Build(context.Background(), reg, 3)

			var re *ReferenceError
			if !errors.As(err, &re) {
				t.Fatalf("Build() error = %v, want *ReferenceError", err)
			}
			if re.Table != "_AccumRg10" || re.Reference != tt.ref {
				t.Errorf("ReferenceError = %+v", re)
			}
		})
	}
}

func TestBuild_RegisterScanFailure(t *testing.T) {
	sess := dbtest.NewSession("erp_main")
	sess.FailOn = func(stmt string) error {
		if strings.Contains(stmt, "GROUP BY") {
			return errors.New("deadlock victim")
		}
		return nil
	}
	b := NewBuilder(sess, testModel(t, "_Document26"), testWindow(), discardLogger())
	reg := mustTable(t, "_AccumRg10", []string{"_RecorderTRef", "_RecorderRRef"}, schema.Register)

	if _, err := b.Build(context.Background(), reg, 3); err == nil {
		t.Fatal("Build() should fail when the recorder scan fails")
	}
}

func TestBuild_Unclassified(t *testing.T) {
	b := NewBuilder(dbtest.NewSession("x"), testModel(t), testWindow(), discardLogger())

	if _, err := b.Build(context.Background(), mustTable(t, "_Reference1", []string{"_IDRRef"}, schema.Unclassified), 1); err == nil {
		t.Fatal("Build() should reject unclassified tables")
	}
}

func TestRecorderScanSQL(t *testing.T) {
	reg := mustTable(t, "_AccRg4", []string{"_Recorder_RTRef", "_Recorder_RRRef"}, schema.Register)

	want := "SELECT convert(varchar(16), [_Recorder_RTRef], 2) AS ref_tab FROM [dbo].[_AccRg4] GROUP BY convert(varchar(16), [_Recorder_RTRef], 2)"
	if got := RecorderScanSQL(reg); got != want {
		t.Errorf("RecorderScanSQL()\n got  %s\n want %s", got, want)
	}
}
