package retention

import "fmt"

// ReferenceError reports a recorder value that cannot be resolved to a
// document table of the model.
type ReferenceError struct {
	Table     string
	Reference string
	Reason    string
	Cause     error
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	msg := fmt.Sprintf("unresolvable recorder reference %q in %s: %s", e.Reference, e.Table, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}
