package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ERPSWEEP_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are ignored; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention ERPSWEEP_SECTION_FIELD (e.g., ERPSWEEP_DATABASE_PASSWORD) and
// always take precedence over the file.
//
// An empty path skips the file entirely, so a run can be configured from
// the environment alone.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Decode the YAML file on top
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	cfg := NewDefault()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("configuration file %q not found: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// envSetter applies one environment value.
type envSetter func(cfg *Config, val string) error

func setString(field func(*Config) *string) envSetter {
	return func(cfg *Config, val string) error {
		*field(cfg) = val
		return nil
	}
}

func setInt(field func(*Config) *int) envSetter {
	return func(cfg *Config, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*field(cfg) = i
		return nil
	}
}

func setBool(field func(*Config) *bool) envSetter {
	return func(cfg *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

func setFloat(field func(*Config) *float64) envSetter {
	return func(cfg *Config, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*field(cfg) = f
		return nil
	}
}

func setDuration(field func(*Config) *time.Duration) envSetter {
	return func(cfg *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}
}

// envOverrides maps variable suffixes (after EnvPrefix) to fields.
var envOverrides = []struct {
	name string
	set  envSetter
}{
	// Database overrides
	{"DATABASE_HOST", setString(func(c *Config) *string { return &c.Database.Host })},
	{"DATABASE_PORT", setInt(func(c *Config) *int { return &c.Database.Port })},
	{"DATABASE_NAME", setString(func(c *Config) *string { return &c.Database.Name })},
	{"DATABASE_USER", setString(func(c *Config) *string { return &c.Database.User })},
	{"DATABASE_PASSWORD", setString(func(c *Config) *string { return &c.Database.Password })},
	{"DATABASE_SCHEMA", setString(func(c *Config) *string { return &c.Database.Schema })},
	{"DATABASE_APP_NAME", setString(func(c *Config) *string { return &c.Database.AppName })},
	{"DATABASE_ENCRYPT", setString(func(c *Config) *string { return &c.Database.Encrypt })},
	{"DATABASE_TRUST_SERVER_CERTIFICATE", setBool(func(c *Config) *bool { return &c.Database.TrustServerCertificate })},
	{"DATABASE_CONNECT_TIMEOUT", setDuration(func(c *Config) *time.Duration { return &c.Database.ConnectTimeout })},

	// Secrets overrides
	{"SECRETS_DIR", setString(func(c *Config) *string { return &c.Secrets.Dir })},

	// Retention overrides
	{"RETENTION_START_DATE", setString(func(c *Config) *string { return &c.Retention.StartDate })},
	{"RETENTION_OFFSET_TABLE", setString(func(c *Config) *string { return &c.Retention.OffsetTable })},

	// Run overrides
	{"RUN_DRY_RUN", setBool(func(c *Config) *bool { return &c.Run.DryRun })},
	{"RUN_ON_ERROR", setString(func(c *Config) *string { return &c.Run.OnError })},

	// Schedule overrides
	{"SCHEDULE_CRON", setString(func(c *Config) *string { return &c.Schedule.Cron })},
	{"SCHEDULE_WATCH_CONFIG", setBool(func(c *Config) *bool { return &c.Schedule.WatchConfig })},

	// Journal overrides
	{"JOURNAL_ENABLED", setBool(func(c *Config) *bool { return &c.Journal.Enabled })},
	{"JOURNAL_PATH", setString(func(c *Config) *string { return &c.Journal.Path })},

	// Telemetry overrides
	{"TELEMETRY_LOGGING_LEVEL", setString(func(c *Config) *string { return &c.Telemetry.Logging.Level })},
	{"TELEMETRY_LOGGING_FORMAT", setString(func(c *Config) *string { return &c.Telemetry.Logging.Format })},
	{"TELEMETRY_LOGGING_CONSOLE_LEVEL", setString(func(c *Config) *string { return &c.Telemetry.Logging.ConsoleLevel })},
	{"TELEMETRY_LOGGING_DIR", setString(func(c *Config) *string { return &c.Telemetry.Logging.Dir })},
	{"TELEMETRY_LOGGING_REDACT", setBool(func(c *Config) *bool { return &c.Telemetry.Logging.Redact })},
	{"TELEMETRY_METRICS_ENABLED", setBool(func(c *Config) *bool { return &c.Telemetry.Metrics.Enabled })},
	{"TELEMETRY_METRICS_LISTEN_ADDRESS", setString(func(c *Config) *string { return &c.Telemetry.Metrics.ListenAddress })},
	{"TELEMETRY_METRICS_PATH", setString(func(c *Config) *string { return &c.Telemetry.Metrics.Path })},
	{"TELEMETRY_METRICS_TEXTFILE", setString(func(c *Config) *string { return &c.Telemetry.Metrics.Textfile })},
	{"TELEMETRY_TRACING_ENABLED", setBool(func(c *Config) *bool { return &c.Telemetry.Tracing.Enabled })},
	{"TELEMETRY_TRACING_ENDPOINT", setString(func(c *Config) *string { return &c.Telemetry.Tracing.Endpoint })},
	{"TELEMETRY_TRACING_INSECURE", setBool(func(c *Config) *bool { return &c.Telemetry.Tracing.Insecure })},
	{"TELEMETRY_TRACING_SAMPLE_RATIO", setFloat(func(c *Config) *float64 { return &c.Telemetry.Tracing.SampleRatio })},
}

// applyEnvOverrides applies ERPSWEEP_* variables. A value that cannot be
// parsed is reported as a validation error instead of being ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError
	for _, o := range envOverrides {
		val, ok := os.LookupEnv(EnvPrefix + o.name)
		if !ok || val == "" {
			continue
		}
		if err := o.set(cfg, val); err != nil {
			errs = append(errs, FieldError{
				Field:   EnvPrefix + o.name,
				Message: fmt.Sprintf("invalid value %q: %v", val, err),
			})
		}
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
