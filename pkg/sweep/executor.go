package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"erpsweep/pkg/database"
	"erpsweep/pkg/retention"
	"erpsweep/pkg/schema"
	"erpsweep/pkg/telemetry/logging"
	"erpsweep/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/trace"
)

// FilterSource builds the retention filter of a table. *retention.Builder
// implements it.
type FilterSource interface {
	Build(ctx context.Context, t *schema.Table, totalRows int64) (retention.Filter, error)
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// DryRun generates and logs every statement without executing it.
	// Counts and the recorder scan still run.
	DryRun bool

	Metrics Metrics
	Tracer  *tracing.Tracer
}

// Executor runs the stage swap on one table at a time.
type Executor struct {
	session database.Session
	filters FilterSource
	dryRun  bool
	metrics Metrics
	tracer  *tracing.Tracer
	logger  *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(session database.Session, filters FilterSource, opts ExecutorOptions, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	return &Executor{
		session: session,
		filters: filters,
		dryRun:  opts.DryRun,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		logger:  logger.With("component", "sweep.executor"),
	}
}

// DryRun reports whether statements are only logged.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Process rewrites t, its subtables first. The returned error is the
// result's Err, a *StepError.
func (e *Executor) Process(ctx context.Context, t *schema.Table) (*TableResult, error) {
	start := time.Now()
	ctx = logging.WithTable(ctx, t.Name)
	ctx, span := e.tracer.Start(ctx, "sweep.table",
		trace.WithAttributes(tracing.TableAttributes(t.Name, t.Archetype.String())...))
	defer span.End()

	res := &TableResult{
		Table:     t.Name,
		Archetype: t.Archetype,
		DryRun:    e.dryRun,
	}

	err := e.process(ctx, t, res, span)
	res.Duration = time.Since(start)

	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err

		var stepErr *StepError
		if errors.As(err, &stepErr) {
			res.FailedStep = stepErr.Step
			if stepErr.Step != StepSubtables {
				e.metrics.RecordStepError(string(stepErr.Step))
			}
		}
		e.logger.ErrorContext(ctx, "table failed",
			"table", t.Name,
			"step", res.FailedStep,
			"error", err,
		)
	}

	e.metrics.RecordTable(t.Archetype.String(), string(res.Outcome), res.Duration, res.Total, res.Kept)
	tracing.SetResultAttributes(span, string(res.Outcome), res.Total, res.Kept)
	tracing.SetStatus(span, err)

	return res, err
}

func (e *Executor) process(ctx context.Context, t *schema.Table, res *TableResult, span trace.Span) error {
	for _, sub := range t.Subtables {
		subRes, err := e.Process(ctx, sub)
		res.Subtables = append(res.Subtables, subRes)
		if err != nil {
			return &StepError{Table: t.Name, Step: StepSubtables, Err: err}
		}
	}

	e.logger.InfoContext(ctx, "counting rows", "table", t.Name, "archetype", t.Archetype.String())
	total, err := database.Count(ctx, e.session, t.CountSQL())
	if err != nil {
		return &StepError{Table: t.Name, Step: StepCount, Err: err}
	}
	res.Total = total

	if total == 0 {
		res.Outcome = OutcomeSkippedEmpty
		e.logger.InfoContext(ctx, "table is empty, skipping", "table", t.Name)
		return nil
	}

	filter, err := e.filters.Build(ctx, t, total)
	if err != nil {
		return &StepError{Table: t.Name, Step: StepFilter, Err: err}
	}
	res.Filter = filter.Where

	switch {
	case filter.KeepNone:
		res.Kept = 0
	case filter.KeepAll:
		res.Kept = total
	default:
		stmt := t.CountWhereSQL(filter.Where)
		e.logger.DebugContext(ctx, "counting kept rows", "table", t.Name, "sql", stmt)
		kept, err := database.Count(ctx, e.session, stmt)
		if err != nil {
			return &StepError{Table: t.Name, Step: StepCountFiltered, Err: err}
		}
		res.Kept = kept
	}

	if res.Kept == 0 {
		e.logger.InfoContext(ctx, "no rows kept, truncating",
			"table", t.Name,
			"total", total,
			"dry_run", e.dryRun,
		)
		if err := e.exec(ctx, t, res, span, StepTruncate, t.TruncateSQL(), false); err != nil {
			return err
		}
		res.Outcome = OutcomeTruncated
		return nil
	}

	e.logger.InfoContext(ctx, "rewriting table",
		"table", t.Name,
		"total", total,
		"kept", res.Kept,
		"dry_run", e.dryRun,
	)

	steps := []struct {
		step      Step
		sql       string
		truncated bool
	}{
		{StepCleanupPre, t.DropStageSQL(), false},
		{StepStage, t.SelectIntoStageSQL(filter.Where), false},
		{StepTruncate, t.TruncateSQL(), false},
		{StepReinsert, t.InsertBackSQL(), true},
		{StepCleanupPost, t.DropStageSQL(), false},
	}
	for _, s := range steps {
		if err := e.exec(ctx, t, res, span, s.step, s.sql, s.truncated); err != nil {
			return err
		}
	}

	res.Outcome = OutcomeRewritten
	return nil
}

// exec logs a statement and runs it unless in dry-run mode. truncated tells
// whether the source table is already empty when the statement runs.
func (e *Executor) exec(ctx context.Context, t *schema.Table, res *TableResult, span trace.Span, step Step, stmt string, truncated bool) error {
	e.logger.InfoContext(ctx, phaseMessage(step),
		"table", t.Name,
		"step", string(step),
		"stage_table", t.StageName(),
		"dry_run", e.dryRun,
	)
	e.logger.DebugContext(ctx, "statement",
		"table", t.Name,
		"step", string(step),
		"sql", stmt,
		"dry_run", e.dryRun,
	)
	e.metrics.RecordStatement(string(step), e.dryRun)

	var err error
	executed := false
	if !e.dryRun {
		err = e.session.Exec(ctx, stmt)
		executed = err == nil
	}

	res.Statements = append(res.Statements, Statement{Step: step, SQL: stmt, Executed: executed})
	tracing.AddStatementEvent(span, string(step), stmt, executed)

	if err != nil {
		return &StepError{Table: t.Name, Step: step, SourceTruncated: truncated, Err: err}
	}
	return nil
}

// phaseMessage is the info line announcing step.
func phaseMessage(step Step) string {
	switch step {
	case StepCleanupPre:
		return "dropping leftover stage table"
	case StepStage:
		return "selecting kept rows into stage table"
	case StepTruncate:
		return "truncating table"
	case StepReinsert:
		return "inserting kept rows back"
	case StepCleanupPost:
		return "dropping stage table"
	default:
		return string(step)
	}
}
