package schema

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Archetype
	}{
		// Documents
		{name: "_Document123", want: Document},
		{name: "_Document1", want: Document},
		{name: "_DocumentChngR123", want: Unclassified},
		{name: "_Document123_VT1", want: Subtable},
		{name: "_Document123_VT4567", want: Subtable},

		// Register totals
		{name: "_AccRgAT45", want: RegisterTotal},
		{name: "_AccRgCT45", want: RegisterTotal},
		{name: "_AccumRgT12", want: RegisterTotal},
		{name: "_AccumRgTn12", want: RegisterTotal},

		// Registers
		{name: "_AccRg45", want: Register},
		{name: "_AccRgED45", want: Register},
		{name: "_AccumRg12", want: Register},
		{name: "_CRg7", want: Register},
		{name: "_CRgAct7", want: Register},
		{name: "_CRgRecalc7", want: Register},
		{name: "_InfoRg99", want: Register},
		{name: "_DocumentJournal5", want: Register},
		{name: "_DocumentJournal5_VT2", want: Register},

		// Sequences
		{name: "_Seq3", want: Sequence},

		// Near misses
		{name: "_AccRg", want: Unclassified},
		{name: "_AccRg45a", want: Unclassified},
		{name: "_AccRgAT", want: Unclassified},
		{name: "_AccRgOpt45", want: Unclassified},
		{name: "_InfoRgChngR99", want: Unclassified},
		{name: "_SeqChngR3", want: Unclassified},
		{name: "_Seq", want: Unclassified},
		{name: "x_Seq3", want: Unclassified},
		{name: "_Reference12", want: Unclassified},
		{name: "_YearOffset", want: Unclassified},
		{name: "", want: Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

// A register prefix that is a prefix of a register total prefix must not
// pull totals into registers, and the reverse.
func TestClassify_SharedPrefixes(t *testing.T) {
	for _, prefix := range registerPrefixes {
		name := prefix + "101"
		if got := Classify(name); got != Register {
			t.Errorf("Classify(%q) = %s, want register", name, got)
		}
	}
	for _, prefix := range registerTotalPrefixes {
		name := prefix + "101"
		if got := Classify(name); got != RegisterTotal {
			t.Errorf("Classify(%q) = %s, want register_total", name, got)
		}
	}
}

func TestRules_Order(t *testing.T) {
	want := []Archetype{Subtable, Document, RegisterTotal, Register, Sequence}
	if len(rules) != len(want) {
		t.Fatalf("len(rules) = %d, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.archetype != want[i] {
			t.Errorf("rules[%d] = %s, want %s", i, r.archetype, want[i])
		}
	}
}

func TestParentOf(t *testing.T) {
	parent, ok := ParentOf("_Document123_VT1")
	if !ok || parent != "_Document123" {
		t.Errorf("ParentOf() = %q, %v, want _Document123, true", parent, ok)
	}

	if _, ok := ParentOf("_Document123"); ok {
		t.Error("ParentOf() should report false for a document")
	}
}

func TestArchetype_String(t *testing.T) {
	tests := []struct {
		archetype Archetype
		want      string
	}{
		{Unclassified, "unclassified"},
		{Document, "document"},
		{Subtable, "subtable"},
		{Register, "register"},
		{RegisterTotal, "register_total"},
		{Sequence, "sequence"},
		{Archetype(99), "unclassified"},
	}
	for _, tt := range tests {
		if got := tt.archetype.String(); got != tt.want {
			t.Errorf("Archetype(%d).String() = %q, want %q", int(tt.archetype), got, tt.want)
		}
	}
}
