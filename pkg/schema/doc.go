// Package schema describes the tables of an ERP operational database and
// the role each one plays.
//
// # Archetypes
//
// Every base table is classified by its name into one archetype:
//
//   - Document: _Document<n>, the header rows of business documents
//   - Subtable: _Document<n>_VT<m>, tabular sections owned by a document
//   - Register: _AccRg<n>, _AccumRg<n>, _InfoRg<n>, ... and _DocumentJournal*
//   - RegisterTotal: _AccRgAT<n>, _AccumRgT<n>, ... (pre-aggregated totals)
//   - Sequence: _Seq<n>
//
// Anything else is Unclassified and never touched.
//
// Classification is an ordered rule table evaluated first-match-wins, see
// Classify.
//
// # Model
//
// Introspector reads INFORMATION_SCHEMA once per run and assembles a Model:
// documents with their subtables nested under them, registers (with the
// recorder column pair when the table has one), register totals, sequences and
// the per-database year offset. The model is read-only; data only changes via
// SQL generated from a Table's fragments.
package schema
