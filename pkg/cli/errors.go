package cli

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when the operator declines the confirmation prompt.
// Commands treat it as a clean exit.
var ErrAborted = errors.New("aborted by operator")

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError wraps err with the command name. Aborts and nil errors
// pass through unchanged.
func NewCommandError(command string, err error) error {
	if err == nil || errors.Is(err, ErrAborted) {
		return err
	}
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrAborted) {
		return 0
	}
	return 1
}
