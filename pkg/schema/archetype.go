package schema

// Archetype is the role a table plays in the cleanup.
type Archetype int

const (
	// Unclassified tables are never processed.
	Unclassified Archetype = iota
	// Document tables hold document headers and carry the retention date.
	Document
	// Subtable tables are tabular sections owned by a document.
	Subtable
	// Register tables hold movements posted by documents.
	Register
	// RegisterTotal tables hold pre-aggregated register balances.
	RegisterTotal
	// Sequence tables hold document sequence boundaries.
	Sequence
)

// String returns the lowercase name used in logs, metrics and the journal.
func (a Archetype) String() string {
	switch a {
	case Document:
		return "document"
	case Subtable:
		return "subtable"
	case Register:
		return "register"
	case RegisterTotal:
		return "register_total"
	case Sequence:
		return "sequence"
	default:
		return "unclassified"
	}
}
