package schema

// RecorderPair names the two register columns that identify the document
// that posted a row: the encoded document table and the document row.
type RecorderPair struct {
	TableColumn string
	RowColumn   string
}

// knownRecorderPairs are checked in order; the first pair fully present wins.
var knownRecorderPairs = []RecorderPair{
	{TableColumn: "_RecorderTRef", RowColumn: "_RecorderRRef"},
	{TableColumn: "_Recorder_RTRef", RowColumn: "_Recorder_RRRef"},
	{TableColumn: "_DocumentTRef", RowColumn: "_DocumentRRef"},
}

// DetectRecorderPair returns the first known pair whose both columns exist.
func DetectRecorderPair(columns []string) *RecorderPair {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, pair := range knownRecorderPairs {
		if present[pair.TableColumn] && present[pair.RowColumn] {
			p := pair
			return &p
		}
	}
	return nil
}
