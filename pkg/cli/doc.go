/*
Package cli provides command-line helpers for the erpsweep command.

Output Formatting:

Command results can be printed as text, JSON or CSV. Values that implement
Table are rendered as aligned columns in text mode and as rows in CSV mode:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, runs); err != nil {
		return err
	}

Progress Reporting:

TableProgress prints one line per processed table and satisfies the
sweep.Progress interface:

	runner := sweep.NewRunner(session, sweep.Options{
		Progress: cli.NewTableProgress(os.Stdout),
	}, logger)

Confirmation:

Confirm blocks for a single key press before anything destructive happens:

	ok, err := cli.Confirm(os.Stdin, os.Stdout, "Press 'Y' to continue or any other key to exit.")

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
