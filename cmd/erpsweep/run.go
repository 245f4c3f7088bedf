package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"erpsweep/pkg/cli"
	"erpsweep/pkg/config"
	"erpsweep/pkg/schema"
	"erpsweep/pkg/sweep"

	"github.com/spf13/cobra"
)

var runFlags struct {
	dryRun  bool
	live    bool
	yes     bool
	onError string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cleanup once",
	Long: `Connect to the configured database, classify its tables and rewrite every
classified table down to the retention window.

The configuration summary is printed and must be confirmed with 'Y' unless
--yes is given. Without --live the run is dry: statements are logged but
never executed.

Examples:
  # Dry run with the configured settings
  erpsweep run

  # Live run, keep going after a table fails
  erpsweep run --live --on-error continue

  # Unattended live run
  erpsweep run --live --yes`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "log statements without executing them")
	runCmd.Flags().BoolVar(&runFlags.live, "live", false, "execute statements (overrides run.dry_run)")
	runCmd.Flags().BoolVarP(&runFlags.yes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().StringVar(&runFlags.onError, "on-error", "", "failure policy: abort, continue (overrides run.on_error)")
	runCmd.MarkFlagsMutuallyExclusive("dry-run", "live")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun := resolveDryRun(cfg.Run.DryRun, runFlags.dryRun, runFlags.live)
	onError, err := resolveOnError(cfg.Run.OnError, runFlags.onError)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, true)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	session, err := a.connect(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer session.Close()

	model, err := a.introspect(ctx, cfg, session)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	printSummary(out, cfg, model, dryRun, onError)

	if !runFlags.yes {
		ok, err := cli.Confirm(os.Stdin, out, "Press 'Y' to continue or any other key to exit.")
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			a.logger.Info("run aborted by operator")
			return cli.ErrAborted
		}
	}

	runner, err := a.runner(session, cfg, dryRun, onError, cli.NewTableProgress(out))
	if err != nil {
		return err
	}

	report, runErr := runner.Run(ctx, model)
	printReport(out, report)
	if path := a.logger.FilePath(); path != "" {
		fmt.Fprintf(out, "Log: %s\n", path)
	}
	a.writeTextfile()

	if ctx.Err() != nil {
		return cli.NewCommandError("run", fmt.Errorf("interrupted: %w", ctx.Err()))
	}
	return cli.NewCommandError("run", runErr)
}

// resolveDryRun applies the --dry-run and --live flags on top of the
// configured mode.
func resolveDryRun(configured, dryRunFlag, liveFlag bool) bool {
	switch {
	case dryRunFlag:
		return true
	case liveFlag:
		return false
	default:
		return configured
	}
}

// resolveOnError applies the --on-error flag on top of the configured
// failure policy.
func resolveOnError(configured, flag string) (string, error) {
	if flag == "" {
		return configured, nil
	}
	switch flag {
	case config.OnErrorAbort, config.OnErrorContinue:
		return flag, nil
	default:
		return "", cli.NewConfigError("--on-error", fmt.Sprintf("must be %s or %s, got %q", config.OnErrorAbort, config.OnErrorContinue, flag))
	}
}

// printSummary shows what the operator is about to confirm.
func printSummary(w io.Writer, cfg *config.Config, model *schema.Model, dryRun bool, onError string) {
	fmt.Fprintf(w, "erpsweep %s\n\n", Version)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range cfg.Summary() {
		fmt.Fprintf(tw, "  %s\t%s\n", item.Key, item.Value)
	}
	tw.Flush()
	fmt.Fprintln(w)

	printModel(w, model)
	fmt.Fprintln(w)

	if dryRun {
		fmt.Fprintln(w, "DRY RUN: statements are logged, nothing is executed.")
	} else {
		fmt.Fprintln(w, "LIVE RUN: tables will be truncated and rewritten.")
	}
	fmt.Fprintf(w, "On error: %s\n\n", onError)
}

// printReport prints the run totals.
func printReport(w io.Writer, report *sweep.Report) {
	if report == nil {
		return
	}
	total, kept, removed := report.Totals()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s %s in %s\n", report.RunID, report.Status, report.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  tables:  %d (%d failed)\n", len(report.Flatten()), report.Failed)
	fmt.Fprintf(w, "  rows:    %d total, %d kept, %d removed\n", total, kept, removed)
	if report.DryRun {
		fmt.Fprintln(w, "  (dry run, no data was changed)")
	}
}
