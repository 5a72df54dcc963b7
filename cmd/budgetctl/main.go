// Command budgetctl inspects and maintains budget accounts from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"budget/internal/cli"
	applog "budget/internal/log"

	"github.com/spf13/cobra"
)

var (
	flagAt      string
	flagJSON    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "budgetctl",
	Short:         "Budget engine administration CLI",
	Long:          "Inspect overviews, daily limits and forecasts, record ledger entries and run the daily job.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAt, "at", "", "Evaluate as of this RFC3339 instant instead of now")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// evalTime is --at when given, otherwise the wall clock.
func evalTime() (time.Time, error) {
	if flagAt == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, flagAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", flagAt, err)
	}
	return t.UTC(), nil
}

// withRuntime loads configuration, opens the store and hands the runtime to
// fn. Logs go to stderr so stdout stays clean for tables and JSON.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *cli.Runtime) error) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if !flagVerbose {
		cfg.LogLevel = "warn"
	} else {
		cfg.LogLevel = "debug"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	rt, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
