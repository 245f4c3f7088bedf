package config

import "time"

// Config is the root configuration structure for erpsweep.
type Config struct {
	// Database contains the SQL Server connection settings.
	Database DatabaseConfig `yaml:"database"`

	// Secrets configures how ${secret:name} references in the database
	// credentials are resolved.
	Secrets SecretsConfig `yaml:"secrets"`

	// Retention defines the retention window.
	Retention RetentionConfig `yaml:"retention"`

	// Run controls how a cleanup run behaves.
	Run RunConfig `yaml:"run"`

	// Schedule configures periodic runs for the schedule command.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Journal configures the local run history.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig contains connection parameters for the target database.
type DatabaseConfig struct {
	// Host is the SQL Server host name or address.
	Host string `yaml:"host"`

	// Port is the SQL Server TCP port.
	// Default: 1433
	Port int `yaml:"port"`

	// Name is the database to clean up.
	Name string `yaml:"name"`

	// User and Password authenticate the session.
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Schema is the owner of the cleaned tables.
	// Default: "dbo"
	Schema string `yaml:"schema"`

	// AppName is reported to the server as the client application.
	// Default: "erpsweep"
	AppName string `yaml:"app_name"`

	// Encrypt is the driver's encryption mode.
	// Options: "disable", "false", "true", "strict"
	Encrypt string `yaml:"encrypt"`

	// TrustServerCertificate disables certificate validation.
	TrustServerCertificate bool `yaml:"trust_server_certificate"`

	// ConnectTimeout bounds connection establishment.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// SecretsConfig lists the secret sources, tried in order: the directory
// first, then the environment.
type SecretsConfig struct {
	// Dir holds one file per secret, as mounted by Docker or Kubernetes.
	// Empty disables file secrets.
	Dir string `yaml:"dir"`

	// EnvPrefix prefixes environment variables holding secrets; secret
	// "db-password" is read from <EnvPrefix>DB_PASSWORD.
	EnvPrefix string `yaml:"env_prefix"`
}

// RetentionConfig defines what is kept.
type RetentionConfig struct {
	// StartDate is the first day to keep, as YYYYMMDD.
	StartDate string `yaml:"start_date"`

	// OffsetTable is the control table holding the year offset.
	// Default: "_YearOffset"
	OffsetTable string `yaml:"offset_table"`
}

// RunConfig controls execution.
type RunConfig struct {
	// DryRun logs every statement without executing any of them.
	// Default: true
	DryRun bool `yaml:"dry_run"`

	// OnError is the failure policy of a batch.
	// Options: "abort", "continue"
	// Default: "abort"
	OnError string `yaml:"on_error"`
}

// ScheduleConfig configures periodic runs.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression.
	// Default: "0 2 * * 0" (Sundays at 2 AM)
	Cron string `yaml:"cron"`

	// WatchConfig reloads this file when it changes on disk.
	// Default: false
	WatchConfig bool `yaml:"watch_config"`
}

// JournalConfig configures the run history store.
type JournalConfig struct {
	// Enabled records every run in the journal.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "data/erpsweep.db"
	Path string `yaml:"path"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum level written to the run log file.
	// Options: "debug", "info", "warn", "error"
	// Default: "debug"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// ConsoleLevel is the minimum level written to the console.
	// Default: "info"
	ConsoleLevel string `yaml:"console_level"`

	// Dir receives one log file per run. Empty disables file logging.
	// Default: "logs"
	Dir string `yaml:"dir"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// Redact masks credentials in log messages and attributes.
	// Default: true
	Redact bool `yaml:"redact"`

	// RedactPatterns adds custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress serves the metrics endpoint during scheduled runs.
	// Default: "127.0.0.1:9109"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Textfile, when set, receives the metrics after every run in the
	// node_exporter textfile format.
	Textfile string `yaml:"textfile"`

	// Namespace is the metric name prefix.
	// Default: "erpsweep"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets for table durations (seconds).
	// Default: [0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of runs to trace (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "erpsweep"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds span exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
