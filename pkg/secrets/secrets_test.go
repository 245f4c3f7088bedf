package secrets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"erpsweep/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSecret(t *testing.T, dir, name, value string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(value), perm); err != nil {
		t.Fatal(err)
	}
	// WriteFile is subject to the umask.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatal(err)
	}
}

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Setenv("ERPSWEEP_SECRET_DB_PASSWORD", "hunter2")
	p := NewEnvProvider("ERPSWEEP_SECRET_")

	value, err := p.GetSecret(context.Background(), "db-password")
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if value != "hunter2" {
		t.Errorf("GetSecret() = %q, want hunter2", value)
	}

	_, err = p.GetSecret(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSecret(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFileProvider_GetSecret(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "db-password", "hunter2\n", 0o600)
	writeSecret(t, dir, "loose", "x", 0o644)

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}

	tests := []struct {
		name     string
		secret   string
		want     string
		notFound bool
		wantErr  string
	}{
		{name: "trimmed", secret: "db-password", want: "hunter2"},
		{name: "missing", secret: "nope", notFound: true},
		{name: "insecure permissions", secret: "loose", wantErr: "insecure permissions"},
		{name: "traversal", secret: "../etc/passwd", wantErr: "directory traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.GetSecret(context.Background(), tt.secret)
			switch {
			case tt.notFound:
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
			case tt.wantErr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want %q", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if got != tt.want {
					t.Errorf("GetSecret() = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestNewFileProvider_MissingDir(t *testing.T) {
	if _, err := NewFileProvider(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("NewFileProvider() should fail for a missing directory")
	}
}

func TestResolver_FirstProviderWins(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "db-password", "from-file", 0o400)
	t.Setenv("TEST_SECRET_DB_PASSWORD", "from-env")
	t.Setenv("TEST_SECRET_DB_USER", "sweeper")

	r, err := FromConfig(config.SecretsConfig{Dir: dir, EnvPrefix: "TEST_SECRET_"}, discardLogger())
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}

	got, err := r.Resolve(context.Background(), "${secret:db-user}:${secret:db-password}")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "sweeper:from-file" {
		t.Errorf("Resolve() = %q, want sweeper:from-file", got)
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("TEST_SECRET_TOKEN", "abc")
	r := NewResolver(discardLogger(), NewEnvProvider("TEST_SECRET_"))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain value untouched", input: "p@ss${word", want: "p@ss${word"},
		{name: "reference", input: "${secret:token}", want: "abc"},
		{name: "embedded", input: "pre-${secret:token}-post", want: "pre-abc-post"},
		{name: "unresolved", input: "${secret:absent}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Resolve() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_ResolveDatabase(t *testing.T) {
	t.Setenv("TEST_SECRET_DB_PASSWORD", "hunter2")
	r := NewResolver(discardLogger(), NewEnvProvider("TEST_SECRET_"))

	db := config.DatabaseConfig{User: "sweeper", Password: "${secret:db-password}"}
	if err := r.ResolveDatabase(context.Background(), &db); err != nil {
		t.Fatalf("ResolveDatabase() error = %v", err)
	}
	if db.User != "sweeper" || db.Password != "hunter2" {
		t.Errorf("database credentials = %q/%q", db.User, db.Password)
	}

	bad := config.DatabaseConfig{Password: "${secret:nope}"}
	err := r.ResolveDatabase(context.Background(), &bad)
	if err == nil || !strings.Contains(err.Error(), "database.password") {
		t.Errorf("ResolveDatabase() error = %v, want database.password error", err)
	}
	if bad.Password != "${secret:nope}" {
		t.Error("failed resolution must leave the config untouched")
	}
}

func TestRedactName(t *testing.T) {
	if got := redactName("db-password"); got != "db...rd" {
		t.Errorf("redactName() = %q", got)
	}
	if got := redactName("key"); got != "***" {
		t.Errorf("redactName(short) = %q", got)
	}
}
