package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"erpsweep/pkg/sweep"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Config configures the journal store.
type Config struct {
	// Path is the database file path; ":memory:" keeps the journal in memory.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Run is one journaled cleanup run.
type Run struct {
	ID          string    `json:"id"`
	Database    string    `json:"database"`
	DryRun      bool      `json:"dry_run"`
	OnError     string    `json:"on_error"`
	Window      string    `json:"window"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Tables      int       `json:"tables"`
	Failed      int       `json:"failed"`
	RowsTotal   int64     `json:"rows_total"`
	RowsKept    int64     `json:"rows_kept"`
	RowsRemoved int64     `json:"rows_removed"`
}

// Duration returns the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// TableRecord is one table of a journaled run.
type TableRecord struct {
	RunID       string        `json:"run_id"`
	Seq         int           `json:"seq"`
	Table       string        `json:"table"`
	Parent      string        `json:"parent,omitempty"`
	Archetype   string        `json:"archetype"`
	Outcome     string        `json:"outcome"`
	RowsTotal   int64         `json:"rows_total"`
	RowsKept    int64         `json:"rows_kept"`
	RowsRemoved int64         `json:"rows_removed"`
	Statements  int           `json:"statements"`
	FailedStep  string        `json:"failed_step,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Store is the SQLite journal.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the journal at cfg.Path.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, storageError("open", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
			cfg.Path, cfg.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageError("open", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		path:   cfg.Path,
		logger: logger.With("component", "journal"),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("journal opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return storageError("create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return storageError("insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Record stores a finished run and its table results in one transaction.
func (s *Store) Record(ctx context.Context, report *sweep.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin", err)
	}
	defer tx.Rollback()

	results := report.Flatten()
	total, kept, removed := report.Totals()

	if _, err := tx.ExecContext(ctx, insertRun,
		report.RunID,
		report.Database,
		report.DryRun,
		report.OnError,
		report.Window,
		report.Status,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		len(results),
		report.Failed,
		total,
		kept,
		removed,
	); err != nil {
		return storageError("insert_run", err)
	}

	parents := parentNames(report)
	for i, res := range results {
		if _, err := tx.ExecContext(ctx, insertTableResult,
			report.RunID,
			i+1,
			res.Table,
			parents[res],
			res.Archetype.String(),
			string(res.Outcome),
			res.Total,
			res.Kept,
			res.Removed(),
			len(res.Statements),
			string(res.FailedStep),
			res.Error(),
			res.Duration.Milliseconds(),
		); err != nil {
			return storageError("insert_table_result", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError("commit", err)
	}

	s.logger.Debug("run recorded", "run_id", report.RunID, "tables", len(results))
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := selectRuns + " ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list_runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list_runs", err)
	}
	return runs, nil
}

// Run returns one run by ID.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// Results returns the table records of a run in processing order.
func (s *Store) Results(ctx context.Context, runID string) ([]*TableRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectTableResults, runID)
	if err != nil {
		return nil, storageError("results", err)
	}
	defer rows.Close()

	var out []*TableRecord
	for rows.Next() {
		var (
			r          TableRecord
			durationMS int64
		)
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Table, &r.Parent, &r.Archetype, &r.Outcome,
			&r.RowsTotal, &r.RowsKept, &r.RowsRemoved, &r.Statements, &r.FailedStep, &r.Error,
			&durationMS); err != nil {
			return nil, storageError("results", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("results", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep runs and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be >= 0, got %d", keep)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, storageError("prune", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM table_results WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
		return 0, storageError("prune", err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("journal pruned", "deleted_runs", n, "kept", keep)
	}
	return n, nil
}

// Path returns the journal file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r                 Run
		started, finished string
	)
	err := row.Scan(&r.ID, &r.Database, &r.DryRun, &r.OnError, &r.Window, &r.Status,
		&started, &finished, &r.Tables, &r.Failed, &r.RowsTotal, &r.RowsKept, &r.RowsRemoved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageError("scan_run", err)
	}

	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, storageError("scan_run", err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, storageError("scan_run", err)
	}
	return &r, nil
}

// parentNames maps every subtable result to its document's name.
func parentNames(report *sweep.Report) map[*sweep.TableResult]string {
	parents := make(map[*sweep.TableResult]string)
	var walk func(res *sweep.TableResult)
	walk = func(res *sweep.TableResult) {
		for _, sub := range res.Subtables {
			parents[sub] = res.Table
			walk(sub)
		}
	}
	for _, res := range report.Results {
		walk(res)
	}
	return parents
}
