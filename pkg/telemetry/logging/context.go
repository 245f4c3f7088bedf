package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for cleanup run identifiers.
	RunIDKey contextKey = "run_id"

	// DatabaseKey is the context key for the target database.
	DatabaseKey contextKey = "database"

	// TableKey is the context key for the table being processed.
	TableKey contextKey = "table"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// contextKeys lists the keys copied into every record, in output order.
var contextKeys = []contextKey{RunIDKey, DatabaseKey, TableKey, TraceIDKey}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	return getString(ctx, RunIDKey)
}

// WithDatabase adds the target database name to the context.
func WithDatabase(ctx context.Context, database string) context.Context {
	return context.WithValue(ctx, DatabaseKey, database)
}

// GetDatabase retrieves the target database name from the context.
func GetDatabase(ctx context.Context) string {
	return getString(ctx, DatabaseKey)
}

// WithTable adds the current table name to the context.
func WithTable(ctx context.Context, table string) context.Context {
	return context.WithValue(ctx, TableKey, table)
}

// GetTable retrieves the current table name from the context.
func GetTable(ctx context.Context) string {
	return getString(ctx, TableKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// contextAttrs returns the context fields present on ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
