package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"erpsweep/pkg/database"
	"erpsweep/pkg/schema"
)

// Column names the filters depend on.
const (
	dateColumn   = "_Date_Time"
	markedColumn = "_Marked"
	idColumn     = "_IDRRef"
	periodColumn = "_Period"
)

const (
	keepAllCondition  = "1=1"
	keepNoneCondition = "1<>1"
)

// Filter is the condition a row must satisfy to survive a cleanup.
type Filter struct {
	// Where is the boolean condition, without the WHERE keyword.
	Where string

	// KeepAll is set when every row is kept.
	KeepAll bool

	// KeepNone is set when no row is kept; the table is simply truncated.
	KeepNone bool
}

// KeepAll returns the filter that keeps every row.
func KeepAll() Filter {
	return Filter{Where: keepAllCondition, KeepAll: true}
}

// KeepNone returns the filter that keeps no row.
func KeepNone() Filter {
	return Filter{Where: keepNoneCondition, KeepNone: true}
}

// Clause renders the filter as a WHERE clause.
func (f Filter) Clause() string {
	return "WHERE " + f.Where
}

// String implements fmt.Stringer.
func (f Filter) String() string {
	return f.Clause()
}

// Builder derives filters for the tables of one model.
type Builder struct {
	session   database.Session
	window    Window
	documents map[string]bool
	schema    string
	logger    *slog.Logger
}

// NewBuilder creates a builder. The model's document names are the only
// tables a register may reference.
func NewBuilder(session database.Session, model *schema.Model, window Window, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}

	docSchema := schema.DefaultSchema
	if len(model.Documents) > 0 {
		docSchema = model.Documents[0].Schema
	}

	return &Builder{
		session:   session,
		window:    window,
		documents: model.DocumentNames(),
		schema:    docSchema,
		logger:    logger.With("component", "retention.builder"),
	}
}

// Window returns the window the builder was created with.
func (b *Builder) Window() Window {
	return b.window
}

// Build returns the filter of t. totalRows is the table's current row count;
// an empty register is kept as is without scanning it.
func (b *Builder) Build(ctx context.Context, t *schema.Table, totalRows int64) (Filter, error) {
	switch t.Archetype {
	case schema.Document:
		return Filter{Where: b.DocumentCondition()}, nil
	case schema.Subtable:
		return Filter{Where: b.SubtableCondition(t.Parent)}, nil
	case schema.RegisterTotal:
		return Filter{Where: fmt.Sprintf("%s > %s",
			schema.QuoteIdent(periodColumn), Literal(b.window.TotalsBoundary()))}, nil
	case schema.Sequence:
		return KeepNone(), nil
	case schema.Register:
		return b.registerFilter(ctx, t, totalRows)
	default:
		return Filter{}, fmt.Errorf("no retention rule for %s (archetype %s)", t.Name, t.Archetype)
	}
}

// DocumentCondition keeps unmarked documents dated on or after the cutoff.
func (b *Builder) DocumentCondition() string {
	return fmt.Sprintf("%s >= %s AND %s = 0",
		schema.QuoteIdent(dateColumn), Literal(b.window.Cutoff()), schema.QuoteIdent(markedColumn))
}

// SubtableCondition keeps the rows whose owner passes the document filter.
func (b *Builder) SubtableCondition(parent string) string {
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s)",
		schema.QuoteIdent(parent+idColumn),
		schema.QuoteIdent(idColumn),
		schema.Qualify(b.schema, parent),
		b.DocumentCondition())
}

// RecorderScanSQL lists the distinct document table identifiers a register
// references, hex encoded.
func RecorderScanSQL(t *schema.Table) string {
	expr := hexExpr(t.Recorder.TableColumn)
	return fmt.Sprintf("SELECT %s AS ref_tab FROM %s GROUP BY %s", expr, t.QualifiedName(), expr)
}

func (b *Builder) registerFilter(ctx context.Context, t *schema.Table, totalRows int64) (Filter, error) {
	if t.FullTruncate() {
		b.logger.Debug("register has no recorder columns, truncating", "table", t.Name)
		return KeepNone(), nil
	}
	if totalRows == 0 {
		return KeepAll(), nil
	}

	stmt := RecorderScanSQL(t)
	b.logger.Debug("scanning recorder references", "table", t.Name, "sql", stmt)

	refs, err := database.Strings(ctx, b.session, stmt)
	if err != nil {
		return Filter{}, fmt.Errorf("failed to scan recorder references of %s: %w", t.Name, err)
	}

	refs = normalize(refs)
	if len(refs) == 0 {
		b.logger.Debug("register references no documents", "table", t.Name)
		return KeepNone(), nil
	}

	branches := make([]string, 0, len(refs))
	for _, ref := range refs {
		doc, err := b.resolve(t, ref)
		if err != nil {
			return Filter{}, err
		}
		branches = append(branches, b.branch(ref, doc))
	}

	where := fmt.Sprintf("concat(%s, '|', %s) IN (%s)",
		hexExpr(t.Recorder.TableColumn),
		guidExpr(t.Recorder.RowColumn),
		strings.Join(branches, " UNION ALL "))

	b.logger.Debug("register filter built", "table", t.Name, "documents", len(branches))
	return Filter{Where: where}, nil
}

// resolve maps a hex table identifier to the document table it encodes.
func (b *Builder) resolve(t *schema.Table, ref string) (string, error) {
	n, err := strconv.ParseUint(ref, 16, 64)
	if err != nil {
		return "", &ReferenceError{Table: t.Name, Reference: ref, Reason: "not a hexadecimal table identifier", Cause: err}
	}

	doc := schema.DocumentPrefix + strconv.FormatUint(n, 10)
	if !b.documents[doc] {
		return "", &ReferenceError{Table: t.Name, Reference: ref, Reason: fmt.Sprintf("document table %s is not in the model", doc)}
	}
	return doc, nil
}

func (b *Builder) branch(ref, doc string) string {
	return fmt.Sprintf("SELECT concat('%s', '|', %s) FROM %s WHERE %s >= %s",
		ref,
		guidExpr(idColumn),
		schema.Qualify(b.schema, doc),
		schema.QuoteIdent(dateColumn),
		Literal(b.window.Cutoff()))
}

func hexExpr(column string) string {
	return fmt.Sprintf("convert(varchar(16), %s, 2)", schema.QuoteIdent(column))
}

func guidExpr(column string) string {
	return fmt.Sprintf("convert(char(36), cast(%s as uniqueidentifier))", schema.QuoteIdent(column))
}

// normalize drops blank values, upper-cases and sorts the identifiers.
func normalize(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
