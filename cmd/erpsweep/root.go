package main

import (
	"errors"
	"fmt"
	"os"

	"erpsweep/pkg/cli"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "erpsweep",
	Short: "erpsweep - rolling window cleanup for ERP SQL Server databases",
	Long: `erpsweep keeps an ERP database to a rolling retention window.

Tables are classified by their generated names and rewritten in place:
  - Documents keep rows dated on or after the start date
  - Subtables keep the rows of kept documents
  - Registers keep the movements of kept documents
  - Register totals keep only their service rows
  - Sequences are emptied

Runs are dry by default: every statement is logged and nothing is executed.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cli.ErrAborted) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "erpsweep.yaml", "config file path (empty reads the environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages to the console")
}
