package schema

// Model is the classified snapshot of one database, built once per run.
type Model struct {
	// Database is the session's current database name.
	Database string

	// YearOffset is the calendar shift of stored dates, read once from the
	// offset control table.
	YearOffset int

	Documents      []*Table
	Registers      []*Table
	RegisterTotals []*Table
	Sequences      []*Table

	// Unclassified lists tables that match no rule.
	Unclassified []string

	// LeftoverStages lists stage tables of interrupted runs; they are never
	// classified or processed.
	LeftoverStages []string
}

// Group is one step of the fixed processing order.
type Group struct {
	Name   string
	Tables []*Table
}

// Groups returns the processing order: registers, register totals,
// documents (with their subtables) and sequences.
func (m *Model) Groups() []Group {
	return []Group{
		{Name: "registers", Tables: m.Registers},
		{Name: "register_totals", Tables: m.RegisterTotals},
		{Name: "documents", Tables: m.Documents},
		{Name: "sequences", Tables: m.Sequences},
	}
}

// Document returns the top-level document with the given name.
func (m *Model) Document(name string) (*Table, bool) {
	for _, d := range m.Documents {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Find returns any classified table, subtables included.
func (m *Model) Find(name string) (*Table, bool) {
	for _, g := range m.Groups() {
		for _, t := range g.Tables {
			if t.Name == name {
				return t, true
			}
			for _, sub := range t.Subtables {
				if sub.Name == name {
					return sub, true
				}
			}
		}
	}
	return nil, false
}

// DocumentNames returns the set of top-level document names.
func (m *Model) DocumentNames() map[string]bool {
	names := make(map[string]bool, len(m.Documents))
	for _, d := range m.Documents {
		names[d.Name] = true
	}
	return names
}

// TableCount returns the number of tables that will be processed, subtables
// included.
func (m *Model) TableCount() int {
	n := len(m.Registers) + len(m.RegisterTotals) + len(m.Sequences)
	for _, d := range m.Documents {
		n += 1 + len(d.Subtables)
	}
	return n
}

// Names returns the table names of a group, for summaries.
func Names(tables []*Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}
