package main

import (
	"fmt"
	"io"
	"strconv"

	"erpsweep/pkg/cli"
	"erpsweep/pkg/config"
	"erpsweep/pkg/sweep"

	"github.com/spf13/cobra"
)

var planFlags struct {
	format string
	table  string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would do",
	Long: `Run the cleanup in dry-run mode and print, for every classified table, the
row counts and the outcome a live run would have.

Counts and recorder scans are read from the database; nothing is written
and the run is not journaled.

Examples:
  # Plan every table
  erpsweep plan

  # Show the filter and statements of one table
  erpsweep plan --table _AccumRg1234

  # Machine-readable plan
  erpsweep plan --format json`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFlags.format, "format", "f", "text", "output format: text, json, csv")
	planCmd.Flags().StringVarP(&planFlags.table, "table", "t", "", "plan a single table (subtables included)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(planFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, false)
	if err != nil {
		return cli.NewCommandError("plan", err)
	}
	defer a.Close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	session, err := a.connect(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("plan", err)
	}
	defer session.Close()

	model, err := a.introspect(ctx, cfg, session)
	if err != nil {
		return cli.NewCommandError("plan", err)
	}

	runner, err := a.runner(session, cfg, true, config.OnErrorContinue, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	formatter := cli.NewFormatter(format)

	if planFlags.table != "" {
		res, err := runner.ProcessTable(ctx, model, planFlags.table)
		if res == nil {
			return cli.NewCommandError("plan", err)
		}
		if format == cli.FormatJSON {
			if ferr := formatter.FormatTo(out, res); ferr != nil {
				return ferr
			}
			return cli.NewCommandError("plan", err)
		}
		if ferr := formatter.FormatTo(out, planTable(flattenResult(res))); ferr != nil {
			return ferr
		}
		if format == cli.FormatText {
			printStatements(out, res)
		}
		return cli.NewCommandError("plan", err)
	}

	report, runErr := runner.Run(ctx, model)
	if report == nil {
		return cli.NewCommandError("plan", runErr)
	}
	if format == cli.FormatJSON {
		if err := formatter.FormatTo(out, report); err != nil {
			return err
		}
		return cli.NewCommandError("plan", runErr)
	}
	if err := formatter.FormatTo(out, planTable(report.Flatten())); err != nil {
		return err
	}
	if format == cli.FormatText {
		total, kept, removed := report.Totals()
		fmt.Fprintf(out, "\n%d tables, %d failed: %d rows total, %d kept, %d would be removed\n",
			len(report.Flatten()), report.Failed, total, kept, removed)
	}
	return cli.NewCommandError("plan", runErr)
}

// planTable renders table results as rows.
type planTable []*sweep.TableResult

func (p planTable) Header() []string {
	return []string{"TABLE", "ARCHETYPE", "OUTCOME", "TOTAL", "KEPT", "REMOVED", "ERROR"}
}

func (p planTable) Rows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, res := range p {
		rows = append(rows, []string{
			res.Table,
			res.Archetype.String(),
			string(res.Outcome),
			strconv.FormatInt(res.Total, 10),
			strconv.FormatInt(res.Kept, 10),
			strconv.FormatInt(res.Removed(), 10),
			res.Error(),
		})
	}
	return rows
}

// flattenResult lists subtables before their document, like
// sweep.Report.Flatten.
func flattenResult(res *sweep.TableResult) []*sweep.TableResult {
	var out []*sweep.TableResult
	for _, sub := range res.Subtables {
		out = append(out, flattenResult(sub)...)
	}
	return append(out, res)
}

func printStatements(w io.Writer, res *sweep.TableResult) {
	for _, r := range flattenResult(res) {
		fmt.Fprintf(w, "\n%s\n", r.Table)
		if r.Filter != "" {
			fmt.Fprintf(w, "  filter: %s\n", r.Filter)
		}
		for _, stmt := range r.Statements {
			fmt.Fprintf(w, "  [%s] %s\n", stmt.Step, stmt.SQL)
		}
	}
}
