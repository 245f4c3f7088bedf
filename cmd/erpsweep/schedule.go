package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"erpsweep/pkg/cli"
	"erpsweep/pkg/config"
	"erpsweep/pkg/sweep"
	"erpsweep/pkg/telemetry/health"

	"github.com/spf13/cobra"
)

var scheduleFlags struct {
	yes    bool
	runNow bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the cleanup on the configured cron schedule",
	Long: `Run the cleanup every time schedule.cron fires until interrupted. A trigger
that fires while a run is still in progress is skipped.

Scheduled runs are unattended and must be confirmed up front with --yes.
Each run reconnects and reads the current configuration, so edits to the
file apply to the next run; with schedule.watch_config the cron expression
is also updated without a restart.

When metrics are enabled, the metrics endpoint is served on
telemetry.metrics.listen_address together with /health, /ready and /version.

Examples:
  # Weekly cleanup with the configured settings
  erpsweep schedule --yes

  # Run once immediately, then on schedule
  erpsweep schedule --yes --now`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().BoolVarP(&scheduleFlags.yes, "yes", "y", false, "confirm unattended runs")
	scheduleCmd.Flags().BoolVar(&scheduleFlags.runNow, "now", false, "run once immediately after starting")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if !scheduleFlags.yes {
		return cli.NewConfigError("--yes", "scheduled runs cannot be confirmed interactively; pass --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, true)
	if err != nil {
		return cli.NewCommandError("schedule", err)
	}
	defer a.Close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	last := &lastRun{}
	job := func(ctx context.Context) error {
		run, err := a.withRunLogger(time.Now())
		if err != nil {
			last.set(nil, err)
			return err
		}
		defer run.logger.Close()

		report, err := runScheduled(ctx, run, config.GetConfig())
		last.set(report, err)
		a.writeTextfile()
		a.flushSpans(ctx)
		return err
	}

	scheduler := sweep.NewScheduler(cfg.Schedule.Cron, job, a.logger.Logger)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("schedule", err)
	}
	defer scheduler.Stop()

	if a.metrics != nil {
		srv := newStatusServer(a, scheduler, last)
		go func() {
			a.logger.Info("status server listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("status server shutdown failed", "error", err)
			}
		}()
	}

	if cfg.Schedule.WatchConfig && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, 0, a.logger.Logger)
		if err != nil {
			return cli.NewCommandError("schedule", err)
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func(updated *config.Config) {
				if err := scheduler.Reschedule(ctx, updated.Schedule.Cron); err != nil {
					a.logger.Error("failed to apply new schedule", "error", err)
				}
			})
			if err != nil {
				a.logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scheduled %q", scheduler.Schedule())
	if next := scheduler.NextRun(); next != nil {
		fmt.Fprintf(out, ", next run at %s", next.Local().Format(time.DateTime))
	}
	fmt.Fprintln(out, ". Press Ctrl+C to stop.")

	if scheduleFlags.runNow {
		go scheduler.RunOnce(ctx)
	}

	<-ctx.Done()
	a.logger.Info("shutting down, waiting for a running cleanup to stop")
	return nil
}

// runScheduled performs one unattended run with cfg. Each run logs to its
// own file.
func runScheduled(ctx context.Context, a *app, cfg *config.Config) (*sweep.Report, error) {
	session, err := a.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	model, err := a.introspect(ctx, cfg, session)
	if err != nil {
		return nil, err
	}

	runner, err := a.runner(session, cfg, cfg.Run.DryRun, cfg.Run.OnError, nil)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, model)
}

// lastRun remembers the outcome of the most recent scheduled run.
type lastRun struct {
	mu       sync.Mutex
	runID    string
	status   string
	err      error
	finished time.Time
}

func (l *lastRun) set(report *sweep.Report, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.err = err
	l.finished = time.Now()
	l.runID = ""
	l.status = sweep.StatusFailed
	if report != nil {
		l.runID = report.RunID
		l.status = report.Status
	}
}

// check fails when the most recent run did not succeed.
func (l *lastRun) check(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finished.IsZero() || l.status == sweep.StatusSuccess {
		return nil
	}
	if l.runID == "" {
		return fmt.Errorf("last run at %s did not start: %v", l.finished.Format(time.RFC3339), l.err)
	}
	return fmt.Errorf("last run %s %s: %v", l.runID, l.status, l.err)
}

// newStatusServer serves metrics and health probes on the metrics listen
// address.
func newStatusServer(a *app, scheduler *sweep.Scheduler, last *lastRun) *http.Server {
	checker := health.New(0)
	checker.RegisterCheck("scheduler", func(ctx context.Context) error {
		if !scheduler.IsRunning() {
			return errors.New("scheduler is stopped")
		}
		return nil
	})
	checker.RegisterCheck("last_run", last.check)

	mux := http.NewServeMux()
	mux.Handle(a.cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	health.Mount(mux, checker, Version, GitCommit, BuildDate)

	return &http.Server{
		Addr:              a.cfg.Telemetry.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
