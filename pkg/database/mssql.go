package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

// Config contains connection parameters for SQL Server.
type Config struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string

	// AppName is reported to the server as the client application name.
	AppName string

	// Encrypt is passed through to the driver ("disable", "false", "true", "strict").
	Encrypt string

	// TrustServerCertificate skips server certificate validation.
	TrustServerCertificate bool

	// ConnectTimeout bounds the initial dial and login.
	ConnectTimeout time.Duration
}

// DSN builds the sqlserver:// connection URL for the driver.
func (c Config) DSN() string {
	query := url.Values{}
	query.Set("database", c.Name)
	if c.AppName != "" {
		query.Set("app name", c.AppName)
	}
	if c.Encrypt != "" {
		query.Set("encrypt", c.Encrypt)
	}
	if c.TrustServerCertificate {
		query.Set("TrustServerCertificate", "true")
	}
	if c.ConnectTimeout > 0 {
		query.Set("connection timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Open connects to SQL Server and returns a session bound to a single
// connection. The current database name is resolved with DB_NAME() so logs
// show where the session actually landed.
func Open(ctx context.Context, cfg Config) (*SQLSession, error) {
	logger := slog.Default().With("component", "database.mssql")

	connector, err := mssql.NewConnector(cfg.DSN())
	if err != nil {
		return nil, &ConnectionError{Host: cfg.Host, Database: cfg.Name, Cause: err}
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Host: cfg.Host, Database: cfg.Name, Cause: err}
	}

	var name string
	if err := db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&name); err != nil {
		db.Close()
		return nil, &ConnectionError{Host: cfg.Host, Database: cfg.Name, Cause: fmt.Errorf("resolve database name: %w", err)}
	}

	logger.Info("database connection established",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", name,
	)

	return NewSQLSession(db, name), nil
}
