package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestSession(t *testing.T) *SQLSession {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	s := NewSQLSession(db, "main")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLSession_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)

	if err := s.Exec(ctx, "CREATE TABLE refs (ref_tab TEXT, rows INTEGER)"); err != nil {
		t.Fatalf("Exec() create error = %v", err)
	}
	if err := s.Exec(ctx, "INSERT INTO refs VALUES ('0000007B', 3), (NULL, 1), ('000001C8', 2)"); err != nil {
		t.Fatalf("Exec() insert error = %v", err)
	}

	rows, err := s.Query(ctx, "SELECT ref_tab, rows FROM refs ORDER BY rows")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if rows.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rows.Len())
	}
	if len(rows.Columns) != 2 || rows.Columns[0] != "ref_tab" {
		t.Errorf("Columns = %v, want [ref_tab rows]", rows.Columns)
	}
	if s.DatabaseName() != "main" {
		t.Errorf("DatabaseName() = %q, want %q", s.DatabaseName(), "main")
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)

	if err := s.Exec(ctx, "CREATE TABLE t (a INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if err := s.Exec(ctx, "INSERT INTO t VALUES (1), (2), (3)"); err != nil {
		t.Fatal(err)
	}

	n, err := Count(ctx, s, "SELECT COUNT(*) FROM t")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	n, err = Count(ctx, s, "SELECT COUNT(*) FROM t WHERE 1<>1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestStrings_SkipsNull(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)

	if err := s.Exec(ctx, "CREATE TABLE r (v TEXT)"); err != nil {
		t.Fatal(err)
	}
	if err := s.Exec(ctx, "INSERT INTO r VALUES ('b'), (NULL), ('a')"); err != nil {
		t.Fatal(err)
	}

	got, err := Strings(ctx, s, "SELECT v FROM r ORDER BY v")
	if err != nil {
		t.Fatalf("Strings() error = %v", err)
	}
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("Strings() = %v, want [a b]", got)
	}
}

func TestSQLSession_ErrorsCarryStatement(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)

	err := s.Exec(ctx, "TRUNCATE TABLE missing")
	if err == nil {
		t.Fatal("Exec() expected error for invalid statement")
	}

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("error type = %T, want *QueryError", err)
	}
	if qe.Operation != "exec" {
		t.Errorf("Operation = %q, want %q", qe.Operation, "exec")
	}
	if qe.Statement != "TRUNCATE TABLE missing" {
		t.Errorf("Statement = %q", qe.Statement)
	}
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{name: "int64", in: int64(42), want: 42},
		{name: "int32", in: int32(7), want: 7},
		{name: "bytes", in: []byte("1000"), want: 1000},
		{name: "string", in: "12", want: 12},
		{name: "nil", in: nil, wantErr: true},
		{name: "bool", in: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsInt64(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AsInt64() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("AsInt64() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host:                   "sql01",
		Port:                   1433,
		Name:                   "erp",
		User:                   "cleanup",
		Password:               "p@ss word",
		AppName:                "erpsweep",
		TrustServerCertificate: true,
	}

	dsn := cfg.DSN()

	if !strings.HasPrefix(dsn, "sqlserver://cleanup:") {
		t.Errorf("DSN() = %q, want sqlserver:// scheme with user", dsn)
	}
	if !strings.Contains(dsn, "@sql01:1433") {
		t.Errorf("DSN() = %q, want host:port", dsn)
	}
	if !strings.Contains(dsn, "database=erp") {
		t.Errorf("DSN() = %q, want database parameter", dsn)
	}
	if strings.Contains(dsn, "p@ss word") {
		t.Errorf("DSN() = %q, password must be escaped", dsn)
	}
}
