package journal

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

// Schema creates the journal tables.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    database_name TEXT NOT NULL,
    dry_run INTEGER NOT NULL,
    on_error TEXT NOT NULL,
    retention_window TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    tables INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    rows_total INTEGER NOT NULL,
    rows_kept INTEGER NOT NULL,
    rows_removed INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS table_results (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    table_name TEXT NOT NULL,
    parent TEXT NOT NULL DEFAULT '',
    archetype TEXT NOT NULL,
    outcome TEXT NOT NULL,
    rows_total INTEGER NOT NULL,
    rows_kept INTEGER NOT NULL,
    rows_removed INTEGER NOT NULL,
    statements INTEGER NOT NULL,
    failed_step TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

const getSchemaVersion = `SELECT MAX(version) FROM schema_version`

const insertRun = `
INSERT INTO runs (
    id, database_name, dry_run, on_error, retention_window, status, started_at, finished_at,
    tables, failed, rows_total, rows_kept, rows_removed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertTableResult = `
INSERT INTO table_results (
    run_id, seq, table_name, parent, archetype, outcome, rows_total, rows_kept,
    rows_removed, statements, failed_step, error, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRuns = `
SELECT id, database_name, dry_run, on_error, retention_window, status, started_at, finished_at,
       tables, failed, rows_total, rows_kept, rows_removed
FROM runs`

const selectTableResults = `
SELECT run_id, seq, table_name, parent, archetype, outcome, rows_total, rows_kept,
       rows_removed, statements, failed_step, error, duration_ms
FROM table_results
WHERE run_id = ?
ORDER BY seq`
