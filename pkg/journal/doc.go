// Package journal keeps the history of cleanup runs in a local SQLite file.
//
// Every run is stored with its status and row totals, and every processed
// table with its outcome, counts and the step it failed at. The journal is
// written once at the end of a run and read by "erpsweep history".
//
//	store, err := journal.Open(journal.Config{Path: "data/erpsweep.db"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	runs, err := store.ListRuns(ctx, 20)
package journal
