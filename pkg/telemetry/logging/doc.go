// Package logging builds the structured logger used by every command.
//
// It wraps log/slog with:
//   - a console handler and an optional per-run log file, each with its own
//     level (typically info on the console, debug in the file)
//   - run, database and table fields copied from the context
//   - credential redaction for connection URLs and password pairs
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:        "debug",
//	    ConsoleLevel: "info",
//	    Dir:          "logs",
//	    Redact:       true,
//	})
//	defer logger.Close()
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "processing group", "group", "registers")
//
// Logger embeds *slog.Logger, so library packages receive logger.Logger and
// never depend on this package.
package logging
