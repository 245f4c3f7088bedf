package schema

import (
	"regexp"
	"strings"
)

// Naming convention of the source system.
const (
	DocumentPrefix        = "_Document"
	DocumentJournalPrefix = "_DocumentJournal"
	SubtableDelimiter     = "_VT"
)

var (
	registerTotalPrefixes = []string{"_AccRgAT", "_AccRgCT", "_AccumRgT", "_AccumRgTn"}
	registerPrefixes      = []string{"_AccRg", "_AccRgED", "_AccumRg", "_CRg", "_CRgAct", "_CRgRecalc", "_InfoRg"}
	sequencePrefixes      = []string{"_Seq"}

	// Document names excluded from the Document archetype.
	documentExclusions = []string{"Journal", "Chng"}
)

// rule maps a name predicate to an archetype.
type rule struct {
	archetype Archetype
	match     func(name string) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{archetype: Subtable, match: isSubtableName},
	{archetype: Document, match: isDocumentName},
	{archetype: RegisterTotal, match: numbered(registerTotalPrefixes...)},
	{archetype: Register, match: anyOf(numbered(registerPrefixes...), hasPrefix(DocumentJournalPrefix))},
	{archetype: Sequence, match: numbered(sequencePrefixes...)},
}

// Classify returns the archetype of a table name. It is pure and never fails;
// names that match no rule are Unclassified.
func Classify(name string) Archetype {
	for _, r := range rules {
		if r.match(name) {
			return r.archetype
		}
	}
	return Unclassified
}

// ParentOf returns the owning document of a subtable name.
func ParentOf(name string) (string, bool) {
	parent, _, found := strings.Cut(name, SubtableDelimiter)
	if !found {
		return "", false
	}
	return parent, true
}

func isDocumentName(name string) bool {
	if !strings.HasPrefix(name, DocumentPrefix) {
		return false
	}
	for _, excl := range documentExclusions {
		if strings.Contains(name, excl) {
			return false
		}
	}
	return true
}

func isSubtableName(name string) bool {
	return isDocumentName(name) && strings.Contains(name, SubtableDelimiter)
}

// numbered matches <prefix><digits> for any of the prefixes, anchored on both
// ends so that a shorter prefix never swallows a longer one.
func numbered(prefixes ...string) func(string) bool {
	patterns := make([]*regexp.Regexp, 0, len(prefixes))
	for _, p := range prefixes {
		patterns = append(patterns, regexp.MustCompile("^"+regexp.QuoteMeta(p)+"[0-9]+$"))
	}
	return func(name string) bool {
		for _, re := range patterns {
			if re.MatchString(name) {
				return true
			}
		}
		return false
	}
}

func hasPrefix(prefix string) func(string) bool {
	return func(name string) bool {
		return strings.HasPrefix(name, prefix)
	}
}

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(name string) bool {
		for _, p := range preds {
			if p(name) {
				return true
			}
		}
		return false
	}
}
