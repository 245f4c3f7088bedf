package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"erpsweep/pkg/config"
	"erpsweep/pkg/database"
	"erpsweep/pkg/retention"
	"erpsweep/pkg/schema"
	"erpsweep/pkg/telemetry/logging"
	"erpsweep/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// journalTimeout bounds recording a run once processing has ended.
const journalTimeout = 30 * time.Second

// Options configures a Runner.
type Options struct {
	// Start is the configured retention start date before the year offset.
	Start time.Time

	DryRun bool

	// OnError is config.OnErrorAbort or config.OnErrorContinue.
	OnError string

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time

	Metrics  Metrics
	Tracer   *tracing.Tracer
	Journal  Journal
	Progress Progress
}

// Runner processes every classified table of a model in the fixed group
// order.
type Runner struct {
	session database.Session
	opts    Options
	logger  *slog.Logger
}

// NewRunner creates a runner over session.
func NewRunner(session database.Session, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.OnError == "" {
		opts.OnError = config.OnErrorAbort
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}

	return &Runner{
		session: session,
		opts:    opts,
		logger:  logger,
	}
}

// Window returns the retention window for model.
func (r *Runner) Window(model *schema.Model) retention.Window {
	return retention.NewWindow(r.opts.Start, model.YearOffset, r.opts.Now())
}

// Executor returns an executor whose filters are built for model.
func (r *Runner) Executor(model *schema.Model) *Executor {
	builder := retention.NewBuilder(r.session, model, r.Window(model), r.logger)
	return NewExecutor(r.session, builder, ExecutorOptions{
		DryRun:  r.opts.DryRun,
		Metrics: r.opts.Metrics,
		Tracer:  r.opts.Tracer,
	}, r.logger)
}

// Run processes every group of model. The report is returned even when
// the run fails; the error is a *RunError when tables failed, or the
// context error when the run was cancelled.
func (r *Runner) Run(ctx context.Context, model *schema.Model) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		Database:  model.Database,
		DryRun:    r.opts.DryRun,
		OnError:   r.opts.OnError,
		StartedAt: r.opts.Now(),
	}

	ctx = logging.WithRunID(ctx, report.RunID)
	ctx = logging.WithDatabase(ctx, model.Database)
	ctx, span := r.opts.Tracer.Start(ctx, "sweep.run",
		trace.WithAttributes(tracing.RunAttributes(report.RunID, model.Database, r.opts.DryRun)...))
	defer span.End()
	if id := tracing.TraceID(ctx); id != "" {
		ctx = logging.WithTraceID(ctx, id)
	}

	window := r.Window(model)
	report.Window = window.String()
	executor := r.Executor(model)

	r.logger.InfoContext(ctx, "cleanup run started",
		"run_id", report.RunID,
		"database", model.Database,
		"window", report.Window,
		"tables", model.TableCount(),
		"dry_run", r.opts.DryRun,
		"on_error", r.opts.OnError,
	)

	runErr := r.runGroups(ctx, model, executor, report)

	report.FinishedAt = r.opts.Now()
	switch {
	case ctx.Err() != nil:
		report.Status = StatusCancelled
	case report.Failed > 0:
		report.Status = StatusFailed
	default:
		report.Status = StatusSuccess
	}

	r.opts.Metrics.RecordRun(report.Status, report.DryRun, report.Duration(), report.Failed)
	tracing.SetStatus(span, runErr)

	if r.opts.Journal != nil {
		// An interrupted run is still recorded.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
		if err := r.opts.Journal.Record(recordCtx, report); err != nil {
			r.logger.ErrorContext(ctx, "failed to record run in journal", "run_id", report.RunID, "error", err)
		}
		cancel()
	}

	total, kept, removed := report.Totals()
	r.logger.InfoContext(ctx, "cleanup run finished",
		"run_id", report.RunID,
		"status", report.Status,
		"failed", report.Failed,
		"rows_total", total,
		"rows_kept", kept,
		"rows_removed", removed,
		"duration", report.Duration(),
	)

	return report, runErr
}

func (r *Runner) runGroups(ctx context.Context, model *schema.Model, executor *Executor, report *Report) error {
	var first error
	count := len(model.Registers) + len(model.RegisterTotals) + len(model.Documents) + len(model.Sequences)
	index := 0

	for _, group := range model.Groups() {
		if len(group.Tables) == 0 {
			continue
		}
		r.logger.InfoContext(ctx, "processing group", "group", group.Name, "tables", len(group.Tables))

		for _, t := range group.Tables {
			if err := ctx.Err(); err != nil {
				r.logger.WarnContext(ctx, "run cancelled", "next_table", t.Name)
				return err
			}

			index++
			r.opts.Progress.TableStarted(index, count, t.Name)
			res, err := executor.Process(ctx, t)
			report.Results = append(report.Results, res)
			r.opts.Progress.TableFinished(index, count, res)

			if err == nil {
				continue
			}
			report.Failed += countFailed(res)
			if first == nil {
				first = err
			}
			if r.opts.OnError != config.OnErrorContinue {
				r.logger.ErrorContext(ctx, "aborting run after table failure", "table", t.Name)
				return &RunError{RunID: report.RunID, Failed: report.Failed, First: first}
			}
		}
	}

	if first != nil {
		return &RunError{RunID: report.RunID, Failed: report.Failed, First: first}
	}
	return nil
}

// ProcessTable runs a single classified table of model, subtables included.
func (r *Runner) ProcessTable(ctx context.Context, model *schema.Model, name string) (*TableResult, error) {
	t, ok := model.Find(name)
	if !ok {
		return nil, fmt.Errorf("table %s is not a classified table of %s", name, model.Database)
	}
	return r.Executor(model).Process(ctx, t)
}

func countFailed(res *TableResult) int {
	n := 0
	if res.Failed() {
		n++
	}
	for _, sub := range res.Subtables {
		n += countFailed(sub)
	}
	return n
}
