package schema

import "fmt"

// IntegrityError reports a catalog snapshot that cannot be turned into a
// consistent model. It aborts the run before any table is processed.
type IntegrityError struct {
	Table  string
	Reason string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("schema integrity error [table=%s]: %s", e.Table, e.Reason)
}
