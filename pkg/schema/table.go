package schema

import (
	"fmt"
	"strings"
)

const (
	// DefaultSchema is the owner of every table the cleanup touches.
	DefaultSchema = "dbo"

	// StageSuffix is appended to a table name to form its stage table.
	StageSuffix = "_tmp_cleanup"

	// versionColumn is the row-versioning column; it cannot be inserted
	// explicitly and is left out of every column list.
	versionColumn = "_Version"
)

// Table is an immutable description of one base table and the SQL fragments
// used to rewrite it.
type Table struct {
	Name      string
	Schema    string
	Columns   []string
	Archetype Archetype

	// Parent is the owning document of a subtable.
	Parent string

	// Subtables are the tabular sections of a document, in catalog order.
	Subtables []*Table

	// Recorder is the recorder column pair of a register, nil when absent.
	Recorder *RecorderPair
}

// NewTable builds a table descriptor. The version column is dropped from the
// column list; a table without any remaining column is rejected.
func NewTable(schemaName, name string, columns []string, archetype Archetype) (*Table, error) {
	if schemaName == "" {
		schemaName = DefaultSchema
	}

	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == versionColumn {
			continue
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, &IntegrityError{Table: name, Reason: "table has no insertable columns"}
	}

	t := &Table{
		Name:      name,
		Schema:    schemaName,
		Columns:   cols,
		Archetype: archetype,
	}

	switch archetype {
	case Subtable:
		t.Parent, _ = ParentOf(name)
	case Register:
		t.Recorder = DetectRecorderPair(cols)
	}

	return t, nil
}

// String renders a short description for logs.
func (t *Table) String() string {
	switch t.Archetype {
	case Document:
		return fmt.Sprintf("Document(name=%s, subtables=%d)", t.Name, len(t.Subtables))
	case Subtable:
		return fmt.Sprintf("Subtable(name=%s, parent=%s)", t.Name, t.Parent)
	case Register:
		if t.Recorder == nil {
			return fmt.Sprintf("Register(name=%s, full_truncate=true)", t.Name)
		}
		return fmt.Sprintf("Register(name=%s, recorder=%s/%s)", t.Name, t.Recorder.TableColumn, t.Recorder.RowColumn)
	default:
		return fmt.Sprintf("Table(name=%s, archetype=%s)", t.Name, t.Archetype)
	}
}

// FullTruncate reports whether a register has no recorder pair and is
// therefore always emptied.
func (t *Table) FullTruncate() bool {
	return t.Archetype == Register && t.Recorder == nil
}

// HasColumn reports whether the column list contains name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// QualifiedName returns [schema].[name].
func (t *Table) QualifiedName() string {
	return Qualify(t.Schema, t.Name)
}

// StageName returns the deterministic stage table name.
func (t *Table) StageName() string {
	return t.Name + StageSuffix
}

// QualifiedStageName returns [schema].[stage].
func (t *Table) QualifiedStageName() string {
	return Qualify(t.Schema, t.StageName())
}

// ColumnList returns the quoted, comma separated column list.
func (t *Table) ColumnList() string {
	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// CountSQL counts every row of the table.
func (t *Table) CountSQL() string {
	return "SELECT COUNT(*) FROM " + t.QualifiedName()
}

// CountWhereSQL counts the rows matching predicate.
func (t *Table) CountWhereSQL(predicate string) string {
	return t.CountSQL() + where(predicate)
}

// DropStageSQL removes the stage table if a previous step left it behind.
func (t *Table) DropStageSQL() string {
	return "DROP TABLE IF EXISTS " + t.QualifiedStageName()
}

// SelectIntoStageSQL materializes the rows matching predicate into the stage
// table.
func (t *Table) SelectIntoStageSQL(predicate string) string {
	return fmt.Sprintf("SELECT %s INTO %s FROM %s%s",
		t.ColumnList(), t.QualifiedStageName(), t.QualifiedName(), where(predicate))
}

// TruncateSQL empties the table.
func (t *Table) TruncateSQL() string {
	return "TRUNCATE TABLE " + t.QualifiedName()
}

// InsertBackSQL copies the stage rows back with an explicit column list.
func (t *Table) InsertBackSQL() string {
	cols := t.ColumnList()
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		t.QualifiedName(), cols, cols, t.QualifiedStageName())
}

func where(predicate string) string {
	if predicate == "" {
		return ""
	}
	return " WHERE " + predicate
}

// QuoteIdent brackets a T-SQL identifier.
func QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Qualify returns [schema].[name].
func Qualify(schemaName, name string) string {
	return QuoteIdent(schemaName) + "." + QuoteIdent(name)
}

// IsStageName reports whether name looks like a stage table left behind by
// an interrupted run.
func IsStageName(name string) bool {
	return strings.HasSuffix(name, StageSuffix)
}
