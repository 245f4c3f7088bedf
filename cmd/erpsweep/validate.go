package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"erpsweep/pkg/cli"
	"erpsweep/pkg/config"

	"github.com/spf13/cobra"
)

var validateFlags struct {
	connect bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and environment overrides, report every
invalid setting and print the effective configuration.

With --connect the database is also reached and its tables are classified,
without reading or writing any row.

Examples:
  # Check a configuration file
  erpsweep validate --config /etc/erpsweep/erpsweep.yaml

  # Check connectivity and classification too
  erpsweep validate --connect`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.connect, "connect", false, "connect and classify the database")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		printValidationErrors(out, err)
		return cli.NewConfigError(cfgFile, "configuration is invalid")
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, item := range cfg.Summary() {
		fmt.Fprintf(tw, "  %s\t%s\n", item.Key, item.Value)
	}
	tw.Flush()

	if !validateFlags.connect {
		return nil
	}

	a, err := newApp(cfg, false)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer a.Close()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	session, err := a.connect(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer session.Close()

	model, err := a.introspect(ctx, cfg, session)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Database reachable")
	printModel(out, model)
	return nil
}

// printValidationErrors lists every invalid field, or the load error when
// the file could not be read.
func printValidationErrors(w io.Writer, err error) {
	var ve config.ValidationError
	if !errors.As(err, &ve) {
		fmt.Fprintf(w, "✗ %v\n", err)
		return
	}

	fmt.Fprintf(w, "✗ %d invalid settings:\n", len(ve.Errors))
	for _, fe := range ve.Errors {
		fmt.Fprintf(w, "  - %s: %s\n", fe.Field, fe.Message)
	}
}
