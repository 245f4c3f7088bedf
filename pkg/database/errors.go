package database

import "fmt"

// ConnectionError is returned when the database cannot be reached. It is
// fatal: no table is touched when it occurs.
type ConnectionError struct {
	Host     string
	Database string
	Cause    error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error [host=%s, database=%s]: %v", e.Host, e.Database, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// QueryError wraps a driver error together with the statement that caused it.
type QueryError struct {
	Operation string // "exec", "query", "scan", ...
	Statement string
	Cause     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}
