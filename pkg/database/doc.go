// Package database is the query-execution collaborator used by the cleanup
// core.
//
// The core never opens connections itself. It receives a Session that can
// execute a statement, run a query returning rows and report the current
// database name:
//
//	sess, err := database.Open(ctx, database.Config{
//	    Host:     "sql01",
//	    Port:     1433,
//	    Name:     "erp_copy",
//	    User:     "cleanup",
//	    Password: os.Getenv("ERPSWEEP_DATABASE_PASSWORD"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	n, err := database.Count(ctx, sess, "SELECT COUNT(*) FROM [dbo].[_Seq12]")
//
// Open talks to SQL Server through github.com/microsoft/go-mssqldb and pins the
// pool to a single connection, so exactly one statement is in flight at a
// time. Every statement commits on its own (autocommit).
//
// NewSQLSession wraps any *sql.DB, which is how tests run the session against
// an in-memory SQLite database.
package database
