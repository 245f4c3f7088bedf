// Package sweep rewrites tables so that only the rows passing their
// retention filter remain.
//
// Each table goes through a fixed sequence of steps:
//
//	count → (empty: done)
//	      → filter → count_filtered → (zero kept: truncate → done)
//	      → cleanup_pre → stage → truncate → reinsert → cleanup_post → done
//
// The stage swap is not atomic. Every statement commits on its own, so a
// failure is reported as a StepError naming the step and whether the source
// table had already been truncated when it happened.
//
// A document's subtables are processed to completion before the document
// itself, because the subtable filters read the document's rows.
//
// Runner drives a whole model in the order registers, register totals,
// documents and sequences. Scheduler repeats runs on a cron expression.
package sweep
