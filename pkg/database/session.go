package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// Session is the capability the cleanup core consumes: execute a statement,
// run a query and report which database it is attached to.
type Session interface {
	// Exec runs a DDL/DML statement. Each call commits independently.
	Exec(ctx context.Context, statement string) error

	// Query runs a statement and materializes every row it returns.
	Query(ctx context.Context, statement string) (*Rows, error)

	// DatabaseName returns the name of the database the session is bound to.
	DatabaseName() string
}

// Rows is a fully materialized query result.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Len returns the number of rows.
func (r *Rows) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// SQLSession implements Session on top of database/sql.
type SQLSession struct {
	db   *sql.DB
	name string
}

// NewSQLSession wraps an open database handle. The caller keeps ownership of
// the handle's pool settings; Close closes it.
func NewSQLSession(db *sql.DB, name string) *SQLSession {
	return &SQLSession{db: db, name: name}
}

// Exec runs a statement that returns no rows.
func (s *SQLSession) Exec(ctx context.Context, statement string) error {
	if _, err := s.db.ExecContext(ctx, statement); err != nil {
		return &QueryError{Operation: "exec", Statement: statement, Cause: err}
	}
	return nil
}

// Query runs a statement and reads all resulting rows into memory.
func (s *SQLSession) Query(ctx context.Context, statement string) (*Rows, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, &QueryError{Operation: "query", Statement: statement, Cause: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Operation: "columns", Statement: statement, Cause: err}
	}

	result := &Rows{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Operation: "scan", Statement: statement, Cause: err}
		}
		result.Values = append(result.Values, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Operation: "iterate", Statement: statement, Cause: err}
	}

	return result, nil
}

// DatabaseName returns the database name resolved when the session was opened.
func (s *SQLSession) DatabaseName() string {
	return s.name
}

// DB exposes the underlying handle.
func (s *SQLSession) DB() *sql.DB {
	return s.db
}

// Close closes the underlying handle.
func (s *SQLSession) Close() error {
	return s.db.Close()
}

// Count runs a scalar query and returns its first column as an int64.
func Count(ctx context.Context, s Session, statement string) (int64, error) {
	rows, err := s.Query(ctx, statement)
	if err != nil {
		return 0, err
	}
	if rows.Len() == 0 || len(rows.Values[0]) == 0 {
		return 0, &QueryError{Operation: "count", Statement: statement, Cause: fmt.Errorf("query returned no rows")}
	}

	n, err := AsInt64(rows.Values[0][0])
	if err != nil {
		return 0, &QueryError{Operation: "count", Statement: statement, Cause: err}
	}
	return n, nil
}

// Strings runs a query and returns the first column of every row. NULL
// values are skipped.
func Strings(ctx context.Context, s Session, statement string) ([]string, error) {
	rows, err := s.Query(ctx, statement)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, rows.Len())
	for _, row := range rows.Values {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		out = append(out, AsString(row[0]))
	}
	return out, nil
}

// AsInt64 converts a scanned driver value to int64.
func AsInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, fmt.Errorf("unexpected NULL value")
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// AsString converts a scanned driver value to its string form.
func AsString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
