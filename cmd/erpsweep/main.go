// erpsweep trims an ERP SQL Server database down to a rolling retention
// window.
//
// Every table of the database is classified by name (documents, their
// subtables, registers, register totals, sequences). Each classified table is
// rewritten in place: the rows to keep are staged in a side table, the
// source is truncated and the staged rows are copied back.
//
// Usage:
//
//	# Show what a run would do, without touching data
//	erpsweep plan
//
//	# Run with the configured mode (dry run by default)
//	erpsweep run --config /etc/erpsweep/erpsweep.yaml
//
//	# Rewrite tables for real, without the confirmation prompt
//	erpsweep run --live --yes
//
//	# Run on the configured cron schedule
//	erpsweep schedule --yes
//
//	# Inspect past runs
//	erpsweep history --limit 5
package main

func main() {
	Execute()
}
