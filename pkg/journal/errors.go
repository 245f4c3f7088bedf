package journal

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// StorageError wraps a failed journal operation.
type StorageError struct {
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("journal %s failed: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(op string, cause error) error {
	return &StorageError{Operation: op, Cause: cause}
}
