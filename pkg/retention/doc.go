// Package retention computes the row filter each table keeps during a
// cleanup.
//
// A Window anchors every date comparison: the configured start date shifted
// by the database's year offset. The Builder turns a classified table into a
// Filter:
//
//	window := retention.NewWindow(start, model.YearOffset, time.Now())
//	builder := retention.NewBuilder(session, model, window, logger)
//	filter, err := builder.Build(ctx, table, total)
//
// Registers with a recorder pair are the only tables whose filter depends on
// their own contents; their recorder column is scanned once to find which
// document tables posted rows.
package retention
