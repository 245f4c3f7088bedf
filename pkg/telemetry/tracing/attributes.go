package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. Database attributes follow OpenTelemetry conventions;
// cleanup specific keys use the "erpsweep.*" namespace.
const (
	AttrDBSystem    = "db.system"
	AttrDBName      = "db.name"
	AttrDBStatement = "db.statement"

	AttrRunID     = "erpsweep.run_id"
	AttrDryRun    = "erpsweep.dry_run"
	AttrTable     = "erpsweep.table"
	AttrArchetype = "erpsweep.archetype"
	AttrStep      = "erpsweep.step"
	AttrOutcome   = "erpsweep.outcome"
	AttrRowsTotal = "erpsweep.rows.total"
	AttrRowsKept  = "erpsweep.rows.kept"

	AttrErrorMessage = "error.message"
)

// RunAttributes returns the attributes of a run span.
func RunAttributes(runID, database string, dryRun bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrDBSystem, "mssql"),
		attribute.String(AttrDBName, database),
		attribute.String(AttrRunID, runID),
		attribute.Bool(AttrDryRun, dryRun),
	}
}

// TableAttributes returns the attributes of a table span.
func TableAttributes(table, archetype string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrTable, table),
		attribute.String(AttrArchetype, archetype),
	}
}

// SetResultAttributes records the outcome of a table on its span.
func SetResultAttributes(span trace.Span, outcome string, total, kept int64) {
	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int64(AttrRowsTotal, total),
		attribute.Int64(AttrRowsKept, kept),
	)
}

// AddStatementEvent records a generated statement on the span.
func AddStatementEvent(span trace.Span, step, statement string, executed bool) {
	span.AddEvent("statement", trace.WithAttributes(
		attribute.String(AttrStep, step),
		attribute.String(AttrDBStatement, statement),
		attribute.Bool("executed", executed),
	))
}
