package config

import "time"

// Default values for configuration fields.
const (
	// Database defaults
	DefaultDatabasePort           = 1433
	DefaultDatabaseSchema         = "dbo"
	DefaultDatabaseAppName        = "erpsweep"
	DefaultDatabaseConnectTimeout = 30 * time.Second

	// Secrets defaults
	DefaultSecretsEnvPrefix = "ERPSWEEP_SECRET_"

	// Retention defaults
	DefaultOffsetTable = "_YearOffset"

	// Run defaults
	DefaultDryRun  = true
	DefaultOnError = OnErrorAbort

	// Schedule defaults
	DefaultScheduleCron = "0 2 * * 0"

	// Journal defaults
	DefaultJournalPath = "data/erpsweep.db"

	// Telemetry defaults
	DefaultLoggingLevel         = "debug"
	DefaultLoggingFormat        = "text"
	DefaultLoggingConsoleLevel  = "info"
	DefaultLoggingDir           = "logs"
	DefaultLoggingRedact        = true
	DefaultMetricsListenAddress = "127.0.0.1:9109"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "erpsweep"
	DefaultTracingSampleRatio   = 1.0
	DefaultTracingServiceName   = "erpsweep"
	DefaultTracingTimeout       = 10 * time.Second
)

// Failure policies.
const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

// DefaultDurationBuckets spans quick sequence truncates to hour-long
// register rewrites.
var DefaultDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}

// NewDefault returns a configuration holding every default. Files are
// decoded on top of it so that defaults which are valid zero values (dry run,
// log directory, redaction) survive absent keys and can still be turned off.
func NewDefault() *Config {
	cfg := &Config{
		Run: RunConfig{
			DryRun: DefaultDryRun,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Dir:    DefaultLoggingDir,
				Redact: DefaultLoggingRedact,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every empty field with its default value.
func ApplyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDatabasePort
	}
	if cfg.Database.Schema == "" {
		cfg.Database.Schema = DefaultDatabaseSchema
	}
	if cfg.Database.AppName == "" {
		cfg.Database.AppName = DefaultDatabaseAppName
	}
	if cfg.Database.ConnectTimeout == 0 {
		cfg.Database.ConnectTimeout = DefaultDatabaseConnectTimeout
	}

	// Secrets defaults
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	// Retention defaults
	if cfg.Retention.OffsetTable == "" {
		cfg.Retention.OffsetTable = DefaultOffsetTable
	}

	// Run defaults
	if cfg.Run.OnError == "" {
		cfg.Run.OnError = DefaultOnError
	}

	// Schedule defaults
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultScheduleCron
	}

	// Journal defaults
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}

	// Telemetry defaults
	log := &cfg.Telemetry.Logging
	if log.Level == "" {
		log.Level = DefaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = DefaultLoggingFormat
	}
	if log.ConsoleLevel == "" {
		log.ConsoleLevel = DefaultLoggingConsoleLevel
	}

	m := &cfg.Telemetry.Metrics
	if m.ListenAddress == "" {
		m.ListenAddress = DefaultMetricsListenAddress
	}
	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}
	if len(m.DurationBuckets) == 0 {
		m.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	tr := &cfg.Telemetry.Tracing
	if tr.SampleRatio == 0 {
		tr.SampleRatio = DefaultTracingSampleRatio
	}
	if tr.ServiceName == "" {
		tr.ServiceName = DefaultTracingServiceName
	}
	if tr.Timeout == 0 {
		tr.Timeout = DefaultTracingTimeout
	}
}
