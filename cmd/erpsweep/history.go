package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"erpsweep/pkg/cli"
	"erpsweep/pkg/journal"
	"erpsweep/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	limit   int
	runID   string
	format  string
	journal string
	prune   int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled runs",
	Long: `List past runs recorded in the run journal, or the per-table results of
one run.

Examples:
  # Last 10 runs
  erpsweep history

  # Tables of one run as CSV
  erpsweep history --run 6f1c... --format csv

  # Read a journal file without loading the configuration
  erpsweep history --journal /var/lib/erpsweep/erpsweep.db

  # Keep only the 50 most recent runs
  erpsweep history --prune 50`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 10, "number of runs to list (0 lists all)")
	historyCmd.Flags().StringVar(&historyFlags.runID, "run", "", "show the tables of one run")
	historyCmd.Flags().StringVarP(&historyFlags.format, "format", "f", "text", "output format: text, json, csv")
	historyCmd.Flags().StringVar(&historyFlags.journal, "journal", "", "journal file (defaults to journal.path)")
	historyCmd.Flags().IntVar(&historyFlags.prune, "prune", 0, "delete all but the N most recent runs")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return err
	}

	path := historyFlags.journal
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Journal.Path
	}

	store, err := journal.Open(journal.Config{Path: path}, logging.Discard().Logger)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	formatter := cli.NewFormatter(format)

	if historyFlags.prune > 0 {
		n, err := store.Prune(ctx, historyFlags.prune)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		fmt.Fprintf(out, "Pruned %d runs\n", n)
		return nil
	}

	if historyFlags.runID != "" {
		if _, err := store.Run(ctx, historyFlags.runID); err != nil {
			if errors.Is(err, journal.ErrRunNotFound) {
				return cli.NewCommandError("history", fmt.Errorf("run %s not found in %s", historyFlags.runID, path))
			}
			return cli.NewCommandError("history", err)
		}
		records, err := store.Results(ctx, historyFlags.runID)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		if format == cli.FormatJSON {
			return formatter.FormatTo(out, records)
		}
		return formatter.FormatTo(out, recordTable(records))
	}

	runs, err := store.ListRuns(ctx, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if format == cli.FormatJSON {
		return formatter.FormatTo(out, runs)
	}
	if len(runs) == 0 && format == cli.FormatText {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	return formatter.FormatTo(out, runTable(runs))
}

// runTable renders journaled runs.
type runTable []*journal.Run

func (t runTable) Header() []string {
	return []string{"RUN", "STARTED", "DATABASE", "MODE", "STATUS", "TABLES", "FAILED", "REMOVED", "DURATION"}
}

func (t runTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Database,
			mode,
			r.Status,
			strconv.Itoa(r.Tables),
			strconv.Itoa(r.Failed),
			strconv.FormatInt(r.RowsRemoved, 10),
			r.Duration().Round(time.Second).String(),
		})
	}
	return rows
}

// recordTable renders the tables of one run.
type recordTable []*journal.TableRecord

func (t recordTable) Header() []string {
	return []string{"SEQ", "TABLE", "PARENT", "ARCHETYPE", "OUTCOME", "TOTAL", "KEPT", "REMOVED", "FAILED_STEP", "ERROR"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			strconv.Itoa(r.Seq),
			r.Table,
			r.Parent,
			r.Archetype,
			r.Outcome,
			strconv.FormatInt(r.RowsTotal, 10),
			strconv.FormatInt(r.RowsKept, 10),
			strconv.FormatInt(r.RowsRemoved, 10),
			r.FailedStep,
			r.Error,
		})
	}
	return rows
}
