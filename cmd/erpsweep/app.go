package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"erpsweep/pkg/cli"
	"erpsweep/pkg/config"
	"erpsweep/pkg/database"
	"erpsweep/pkg/journal"
	"erpsweep/pkg/retention"
	"erpsweep/pkg/schema"
	"erpsweep/pkg/secrets"
	"erpsweep/pkg/sweep"
	"erpsweep/pkg/telemetry/logging"
	"erpsweep/pkg/telemetry/metrics"
	"erpsweep/pkg/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
)

// app holds the services built from the configuration that every database
// command shares.
type app struct {
	cfg     *config.Config
	logCfg  logging.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	journal *journal.Store
}

// loadConfig loads the global configuration from --config and the
// environment.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return config.GetConfig(), nil
}

// newApp builds logging, metrics, tracing and, when withJournal is set and
// the journal is enabled, the run journal. Close releases all of them.
func newApp(cfg *config.Config, withJournal bool) (*app, error) {
	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		logCfg.ConsoleLevel = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger.Logger)

	a := &app{cfg: cfg, logCfg: logCfg, logger: logger}

	if cfg.Telemetry.Metrics.Enabled {
		a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	}

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if withJournal && cfg.Journal.Enabled {
		a.journal, err = journal.Open(journal.Config{Path: cfg.Journal.Path}, logger.Logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	if path := logger.FilePath(); path != "" {
		logger.Info("logging to file", "path", path)
	}
	return a, nil
}

// Close flushes spans and closes the journal and the log file.
func (a *app) Close() {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shut down tracer", "error", err)
		}
		cancel()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("failed to close journal", "error", err)
		}
	}
	a.logger.Close()
}

// withRunLogger returns a copy of a logging to its own file, named after
// started, in the log directory. The caller closes the copy's logger.
func (a *app) withRunLogger(started time.Time) (*app, error) {
	cfg := a.logCfg
	cfg.Now = func() time.Time { return started }
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	run := *a
	run.logger = logger
	if path := logger.FilePath(); path != "" {
		a.logger.Info("run logging to file", "path", path)
	}
	return &run, nil
}

// flushSpans exports the spans of a finished run without stopping the
// tracer.
func (a *app) flushSpans(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.tracer.ForceFlush(ctx); err != nil {
		a.logger.Warn("failed to flush spans", "error", err)
	}
}

// connect opens the SQL Server session described by cfg. Secret references
// in the credentials are resolved on a copy, so they never reach the shared
// configuration.
func (a *app) connect(ctx context.Context, cfg *config.Config) (*database.SQLSession, error) {
	a.logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	resolver, err := secrets.FromConfig(cfg.Secrets, a.logger.Logger)
	if err != nil {
		return nil, err
	}
	db := cfg.Database
	if err := resolver.ResolveDatabase(ctx, &db); err != nil {
		return nil, err
	}

	session, err := database.Open(ctx, databaseConfig(db))
	if err != nil {
		return nil, err
	}
	a.logger.Info("connected", "database", session.DatabaseName())
	return session, nil
}

// introspect classifies the catalog of session.
func (a *app) introspect(ctx context.Context, cfg *config.Config, session database.Session) (*schema.Model, error) {
	introspector := schema.NewIntrospector(session, schema.IntrospectorConfig{
		Schema:      cfg.Database.Schema,
		OffsetTable: cfg.Retention.OffsetTable,
	}, a.logger.Logger)

	model, err := introspector.Introspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", cfg.Database.Name, err)
	}
	return model, nil
}

// runner builds a runner with the telemetry of a. progress may be nil.
func (a *app) runner(session database.Session, cfg *config.Config, dryRun bool, onError string, progress sweep.Progress) (*sweep.Runner, error) {
	start, err := retention.ParseStartDate(cfg.Retention.StartDate)
	if err != nil {
		return nil, cli.NewConfigError("retention.start_date", err.Error())
	}

	opts := sweep.Options{
		Start:    start,
		DryRun:   dryRun,
		OnError:  onError,
		Tracer:   a.tracer,
		Progress: progress,
	}
	if a.metrics != nil {
		opts.Metrics = a.metrics
	}
	if a.journal != nil {
		opts.Journal = a.journal
	}
	return sweep.NewRunner(session, opts, a.logger.Logger), nil
}

// writeTextfile exports the metrics for the node_exporter textfile
// collector when configured. Failures are logged only.
func (a *app) writeTextfile() {
	path := a.cfg.Telemetry.Metrics.Textfile
	if a.metrics == nil || path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Error("failed to write metrics textfile", "error", err)
		return
	}
	a.logger.Debug("metrics textfile written", "path", path)
}

func databaseConfig(c config.DatabaseConfig) database.Config {
	return database.Config{
		Host:                   c.Host,
		Port:                   c.Port,
		Name:                   c.Name,
		User:                   c.User,
		Password:               c.Password,
		AppName:                c.AppName,
		Encrypt:                c.Encrypt,
		TrustServerCertificate: c.TrustServerCertificate,
		ConnectTimeout:         c.ConnectTimeout,
	}
}

// printModel writes the classification counts of model.
func printModel(w io.Writer, model *schema.Model) {
	subtables := 0
	for _, doc := range model.Documents {
		subtables += len(doc.Subtables)
	}

	fmt.Fprintf(w, "Database %s (year offset %d)\n", model.Database, model.YearOffset)
	fmt.Fprintf(w, "  documents:       %d (%d subtables)\n", len(model.Documents), subtables)
	fmt.Fprintf(w, "  registers:       %d\n", len(model.Registers))
	fmt.Fprintf(w, "  register totals: %d\n", len(model.RegisterTotals))
	fmt.Fprintf(w, "  sequences:       %d\n", len(model.Sequences))
	fmt.Fprintf(w, "  unclassified:    %d\n", len(model.Unclassified))
	if len(model.LeftoverStages) > 0 {
		fmt.Fprintf(w, "  ⚠ leftover stage tables: %v\n", model.LeftoverStages)
	}
}
