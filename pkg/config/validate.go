package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartDateLayout is the layout of retention.start_date.
const StartDateLayout = "20060102"

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "database.host").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Has reports whether field failed validation.
func (e ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateRun(&cfg.Run)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	required := []struct{ field, value string }{
		{"database.host", cfg.Host},
		{"database.name", cfg.Name},
		{"database.user", cfg.User},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "field is required"})
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "database.port",
			Message: fmt.Sprintf("invalid port %d: must be between 1 and 65535", cfg.Port),
		})
	}

	if !identifierRe.MatchString(cfg.Schema) {
		errs = append(errs, FieldError{
			Field:   "database.schema",
			Message: fmt.Sprintf("invalid schema name %q", cfg.Schema),
		})
	}

	validEncrypt := map[string]bool{"": true, "disable": true, "false": true, "true": true, "strict": true}
	if !validEncrypt[cfg.Encrypt] {
		errs = append(errs, FieldError{
			Field:   "database.encrypt",
			Message: fmt.Sprintf("invalid encrypt mode %q: must be 'disable', 'false', 'true', or 'strict'", cfg.Encrypt),
		})
	}

	if cfg.ConnectTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "database.connect_timeout",
			Message: "connect timeout must be positive",
		})
	}

	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.StartDate == "" {
		errs = append(errs, FieldError{Field: "retention.start_date", Message: "field is required"})
	} else if _, err := time.Parse(StartDateLayout, cfg.StartDate); err != nil {
		errs = append(errs, FieldError{
			Field:   "retention.start_date",
			Message: fmt.Sprintf("invalid date %q: expected YYYYMMDD", cfg.StartDate),
		})
	}

	if !identifierRe.MatchString(cfg.OffsetTable) {
		errs = append(errs, FieldError{
			Field:   "retention.offset_table",
			Message: fmt.Sprintf("invalid table name %q", cfg.OffsetTable),
		})
	}

	return errs
}

func validateRun(cfg *RunConfig) []FieldError {
	if cfg.OnError != OnErrorAbort && cfg.OnError != OnErrorContinue {
		return []FieldError{{
			Field:   "run.on_error",
			Message: fmt.Sprintf("invalid failure policy %q: must be 'abort' or 'continue'", cfg.OnError),
		}}
	}
	return nil
}

func validateSchedule(cfg *ScheduleConfig) []FieldError {
	if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		return []FieldError{{
			Field:   "schedule.cron",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Cron, err),
		}}
	}
	return nil
}

func validateJournal(cfg *JournalConfig) []FieldError {
	if cfg.Enabled && cfg.Path == "" {
		return []FieldError{{
			Field:   "journal.path",
			Message: "journal path is required when the journal is enabled",
		}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	levels := []struct{ field, value string }{
		{"telemetry.logging.level", cfg.Logging.Level},
		{"telemetry.logging.console_level", cfg.Logging.ConsoleLevel},
	}
	for _, l := range levels {
		if !validLevels[l.value] {
			errs = append(errs, FieldError{
				Field:   l.field,
				Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", l.value),
			})
		}
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address %q: %v", cfg.Metrics.ListenAddress, err),
			})
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
