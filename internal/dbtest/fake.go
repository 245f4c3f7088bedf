// Package dbtest provides an in-memory stand-in for database.Session that
// understands the statements the cleanup generates.
package dbtest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"erpsweep/pkg/database"
)

// Table is the simulated state of one table.
type Table struct {
	// Rows is the current row count.
	Rows int64

	// Kept is the number of rows any filtered count or stage select returns
	// while the table is populated.
	Kept int64

	staged   int64
	hasStage bool
}

// Session is a fake database.Session. It records every call in order and
// keeps row counts in sync with stage, truncate and insert-back statements.
type Session struct {
	Name string

	// Tables holds the simulated tables by name.
	Tables map[string]*Table

	// Results maps an exact query text to its rows.
	Results map[string]*database.Rows

	// FailOn returns an error for statements that should fail.
	FailOn func(statement string) error

	mu      sync.Mutex
	log     []string
	execs   []string
	queries []string
}

// NewSession creates an empty fake session for database name.
func NewSession(name string) *Session {
	return &Session{
		Name:    name,
		Tables:  make(map[string]*Table),
		Results: make(map[string]*database.Rows),
	}
}

var (
	countRe    = regexp.MustCompile(`^SELECT COUNT\(\*\) FROM \[[^\]]+\]\.\[([^\]]+)\]( WHERE .*)?$`)
	stageRe    = regexp.MustCompile(`^SELECT .* INTO \[[^\]]+\]\.\[[^\]]+\] FROM \[[^\]]+\]\.\[([^\]]+)\]`)
	truncateRe = regexp.MustCompile(`^TRUNCATE TABLE \[[^\]]+\]\.\[([^\]]+)\]$`)
	insertRe   = regexp.MustCompile(`^INSERT INTO \[[^\]]+\]\.\[([^\]]+)\] `)
	dropRe     = regexp.MustCompile(`^DROP TABLE IF EXISTS \[[^\]]+\]\.\[([^\]]+)\]$`)
)

// AddTable registers a table with its total and kept row counts.
func (s *Session) AddTable(name string, rows, kept int64) *Table {
	t := &Table{Rows: rows, Kept: kept}
	s.Tables[name] = t
	return t
}

// SetResult registers rows returned for an exact query.
func (s *Session) SetResult(statement string, columns []string, values ...[]any) {
	s.Results[statement] = &database.Rows{Columns: columns, Values: values}
}

// Exec implements database.Session.
func (s *Session) Exec(ctx context.Context, statement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, "exec: "+statement)
	s.execs = append(s.execs, statement)

	if s.FailOn != nil {
		if err := s.FailOn(statement); err != nil {
			return err
		}
	}

	switch {
	case dropRe.MatchString(statement):
		stage := dropRe.FindStringSubmatch(statement)[1]
		if t := s.Tables[strings.TrimSuffix(stage, "_tmp_cleanup")]; t != nil {
			t.hasStage = false
			t.staged = 0
		}
	case stageRe.MatchString(statement):
		t, err := s.table(stageRe.FindStringSubmatch(statement)[1])
		if err != nil {
			return err
		}
		t.staged = s.kept(t)
		t.hasStage = true
	case truncateRe.MatchString(statement):
		t, err := s.table(truncateRe.FindStringSubmatch(statement)[1])
		if err != nil {
			return err
		}
		t.Rows = 0
	case insertRe.MatchString(statement):
		t, err := s.table(insertRe.FindStringSubmatch(statement)[1])
		if err != nil {
			return err
		}
		if !t.hasStage {
			return fmt.Errorf("stage table does not exist")
		}
		t.Rows += t.staged
	}
	return nil
}

// Query implements database.Session.
func (s *Session) Query(ctx context.Context, statement string) (*database.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, "query: "+statement)
	s.queries = append(s.queries, statement)

	if s.FailOn != nil {
		if err := s.FailOn(statement); err != nil {
			return nil, err
		}
	}

	if rows, ok := s.Results[statement]; ok {
		return rows, nil
	}

	if m := countRe.FindStringSubmatch(statement); m != nil {
		t, err := s.table(m[1])
		if err != nil {
			return nil, err
		}
		n := t.Rows
		if m[2] != "" {
			n = s.kept(t)
		}
		return &database.Rows{Columns: []string{""}, Values: [][]any{{n}}}, nil
	}

	return nil, fmt.Errorf("fake session: unexpected query %q", statement)
}

// DatabaseName implements database.Session.
func (s *Session) DatabaseName() string {
	return s.Name
}

// Execs returns every executed statement in order.
func (s *Session) Execs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.execs...)
}

// Queries returns every query in order.
func (s *Session) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Log returns every call in order, prefixed with "exec: " or "query: ".
func (s *Session) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// Index returns the position of the first log entry containing substr, or -1.
func (s *Session) Index(substr string) int {
	for i, entry := range s.Log() {
		if strings.Contains(entry, substr) {
			return i
		}
	}
	return -1
}

func (s *Session) table(name string) (*Table, error) {
	t, ok := s.Tables[name]
	if !ok {
		return nil, fmt.Errorf("fake session: invalid object name %q", name)
	}
	return t, nil
}

func (s *Session) kept(t *Table) int64 {
	if t.Kept > t.Rows {
		return t.Rows
	}
	return t.Kept
}
