package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"erpsweep/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in logfmt-style text.
	FormatText LogFormat = "text"
)

// FileTimeLayout names per-run log files.
const FileTimeLayout = "20060102_150405"

// Logger is a slog.Logger writing to the console and, optionally, to a
// per-run log file with its own level.
type Logger struct {
	*slog.Logger

	file *os.File
	path string
}

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum level written to the log file ("debug", "info",
	// "warn", "error").
	Level string

	// ConsoleLevel is the minimum level written to the console.
	ConsoleLevel string

	// Format is the output format ("json", "text").
	Format string

	// Dir receives one <YYYYMMDD_HHMMSS>.log file per logger. Empty
	// disables file output.
	Dir string

	// AddSource includes file and line number in logs.
	AddSource bool

	// Redact masks credentials.
	Redact bool

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []config.RedactPattern

	// Console is the console writer (defaults to os.Stderr).
	Console io.Writer

	// Now stamps the log file name (defaults to time.Now).
	Now func() time.Time
}

// FromConfig converts the telemetry logging section.
func FromConfig(cfg config.LoggingConfig) Config {
	return Config{
		Level:          cfg.Level,
		ConsoleLevel:   cfg.ConsoleLevel,
		Format:         cfg.Format,
		Dir:            cfg.Dir,
		AddSource:      cfg.AddSource,
		Redact:         cfg.Redact,
		RedactPatterns: cfg.RedactPatterns,
	}
}

// New creates a Logger. When Dir is set the directory is created and a new
// log file is opened; Close releases it.
func New(cfg Config) (*Logger, error) {
	fileLevel, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	consoleLevel, err := ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid console log level: %w", err)
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	handlers := []slog.Handler{
		newHandler(console, format, consoleLevel, cfg.AddSource),
	}

	l := &Logger{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %q: %w", cfg.Dir, err)
		}
		l.path = filepath.Join(cfg.Dir, now().Format(FileTimeLayout)+".log")
		l.file, err = os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %q: %w", l.path, err)
		}
		handlers = append(handlers, newHandler(l.file, format, fileLevel, cfg.AddSource))
	}

	var redactor *Redactor
	if cfg.Redact {
		redactor = NewRedactor(cfg.RedactPatterns)
	}

	l.Logger = slog.New(&contextHandler{
		next:     newFanout(handlers...),
		redactor: redactor,
	})
	return l, nil
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// FilePath returns the log file path, or "" when file output is disabled.
func (l *Logger) FilePath() string {
	return l.path
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

func newHandler(w io.Writer, format LogFormat, level slog.Level, addSource bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// ParseFormat parses a log format string into LogFormat.
func ParseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
