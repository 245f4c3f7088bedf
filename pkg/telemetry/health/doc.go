// Package health serves liveness and readiness probes for the long-running
// "erpsweep schedule" process.
//
// Readiness aggregates named checks. The schedule command registers one that
// pings the database and one that reports whether the last cleanup failed:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("database", func(ctx context.Context) error {
//	    _, err := database.Count(ctx, session, "SELECT 1")
//	    return err
//	})
//	health.Mount(mux, checker, version)
//
// Endpoints:
//   - /health: process is alive, always 200
//   - /ready: 200 when every check passes, 503 otherwise
//   - /version: build information
package health
