package schema

import (
	"context"
	"fmt"
	"log/slog"

	"erpsweep/pkg/database"
)

// DefaultOffsetTable holds the per-database year offset.
const DefaultOffsetTable = "_YearOffset"

// IntrospectorConfig configures catalog reading.
type IntrospectorConfig struct {
	// Schema restricts the catalog to one owner. Default: dbo
	Schema string

	// OffsetTable is the control table holding the year offset.
	// Default: _YearOffset
	OffsetTable string
}

// Introspector reads the live catalog and builds a Model.
type Introspector struct {
	session database.Session
	config  IntrospectorConfig
	logger  *slog.Logger
}

// NewIntrospector creates an introspector over session.
func NewIntrospector(session database.Session, cfg IntrospectorConfig, logger *slog.Logger) *Introspector {
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}
	if cfg.OffsetTable == "" {
		cfg.OffsetTable = DefaultOffsetTable
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Introspector{
		session: session,
		config:  cfg,
		logger:  logger.With("component", "schema.introspector"),
	}
}

// TablesSQL lists base tables of the configured schema.
func (i *Introspector) TablesSQL() string {
	return fmt.Sprintf("SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = '%s' ORDER BY TABLE_NAME", i.config.Schema)
}

// ColumnsSQL lists (table, column) pairs of the configured schema.
func (i *Introspector) ColumnsSQL() string {
	return fmt.Sprintf("SELECT TABLE_NAME, COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = '%s' ORDER BY TABLE_NAME, ORDINAL_POSITION", i.config.Schema)
}

// OffsetSQL reads the year offset.
func (i *Introspector) OffsetSQL() string {
	return fmt.Sprintf("SELECT TOP 1 [Offset] FROM %s", Qualify(i.config.Schema, i.config.OffsetTable))
}

// Introspect snapshots the catalog and classifies every base table.
// A subtable whose parent is not a classified document fails the whole
// snapshot with an IntegrityError.
func (i *Introspector) Introspect(ctx context.Context) (*Model, error) {
	tables, err := database.Strings(ctx, i.session, i.TablesSQL())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	columns, err := i.readColumns(ctx)
	if err != nil {
		return nil, err
	}

	offset, err := database.Count(ctx, i.session, i.OffsetSQL())
	if err != nil {
		return nil, fmt.Errorf("failed to read year offset from %s: %w", i.config.OffsetTable, err)
	}

	model := &Model{
		Database:   i.session.DatabaseName(),
		YearOffset: int(offset),
	}

	if err := i.classify(model, tables, columns); err != nil {
		return nil, err
	}

	i.logger.Info("database model parsed",
		"database", model.Database,
		"year_offset", model.YearOffset,
		"documents", len(model.Documents),
		"registers", len(model.Registers),
		"register_totals", len(model.RegisterTotals),
		"sequences", len(model.Sequences),
		"unclassified", len(model.Unclassified),
	)
	if len(model.LeftoverStages) > 0 {
		i.logger.Warn("stage tables from an interrupted run found",
			"tables", model.LeftoverStages,
		)
	}

	return model, nil
}

func (i *Introspector) readColumns(ctx context.Context) (map[string][]string, error) {
	rows, err := i.session.Query(ctx, i.ColumnsSQL())
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}

	columns := make(map[string][]string)
	for _, row := range rows.Values {
		if len(row) < 2 {
			continue
		}
		table := database.AsString(row[0])
		columns[table] = append(columns[table], database.AsString(row[1]))
	}
	return columns, nil
}

func (i *Introspector) classify(model *Model, tables []string, columns map[string][]string) error {
	docs := make(map[string]*Table)
	var subtables []string

	for _, name := range tables {
		if IsStageName(name) {
			model.LeftoverStages = append(model.LeftoverStages, name)
			continue
		}

		archetype := Classify(name)
		switch archetype {
		case Unclassified:
			model.Unclassified = append(model.Unclassified, name)
			continue
		case Subtable:
			// Attached once every document is known.
			subtables = append(subtables, name)
			continue
		}

		t, err := NewTable(i.config.Schema, name, columns[name], archetype)
		if err != nil {
			return err
		}

		switch archetype {
		case Document:
			docs[name] = t
			model.Documents = append(model.Documents, t)
		case Register:
			model.Registers = append(model.Registers, t)
		case RegisterTotal:
			model.RegisterTotals = append(model.RegisterTotals, t)
		case Sequence:
			model.Sequences = append(model.Sequences, t)
		}
	}

	for _, name := range subtables {
		parent, _ := ParentOf(name)
		doc, ok := docs[parent]
		if !ok {
			return &IntegrityError{
				Table:  name,
				Reason: fmt.Sprintf("parent document %s is not a classified document", parent),
			}
		}

		sub, err := NewTable(i.config.Schema, name, columns[name], Subtable)
		if err != nil {
			return err
		}
		doc.Subtables = append(doc.Subtables, sub)
	}

	return nil
}
