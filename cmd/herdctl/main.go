// Package main implements herdctl, the command-line front end to the herd
// analytics engine. It works offline against a SQLite database or, with
// --server, against a running API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "dev"

type options struct {
	dbPath   string
	server   string
	owner    string
	strategy string
	price    float64
	timeout  time.Duration
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "herdctl",
		Short: "Herd production analytics from the command line",
		Long: `herdctl runs trend, forecast, anomaly, performance, recommendation and
revenue analytics over daily production records.

Examples:
  # Import a logbook, then rank the herd
  herdctl import --owner farm-1 logbook.csv
  herdctl performance --owner farm-1

  # Forecast two weeks for one animal against a running server
  herdctl forecast cow-7 --owner farm-1 --days 14 --server http://localhost:8080`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dbPath, "db", "data/herdpulse.db", "SQLite database path (offline mode)")
	pf.StringVar(&opts.server, "server", "", "HerdPulse API URL; when set, commands run remotely")
	pf.StringVar(&opts.owner, "owner", "", "Owner (farm) identifier (required)")
	pf.StringVar(&opts.strategy, "strategy", "linear", "Forecast strategy offline: linear or moving_average")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall command timeout")
	_ = root.MarkPersistentFlagRequired("owner")

	root.AddCommand(
		newTrendCmd(opts),
		newForecastCmd(opts),
		newOwnerCmd(opts, "anomalies", "Flag days that deviate more than two standard deviations", func(ctx context.Context, b backend) (interface{}, error) {
			return b.Anomalies(ctx, opts.owner)
		}),
		newOwnerCmd(opts, "performance", "Rank subjects by mean daily yield", func(ctx context.Context, b backend) (interface{}, error) {
			return b.Performance(ctx, opts.owner)
		}),
		newOwnerCmd(opts, "recommend", "Rule-based recommendations for the herd", func(ctx context.Context, b backend) (interface{}, error) {
			return b.Recommendations(ctx, opts.owner)
		}),
		newPricedCmd(opts, "revenue", "Project revenue over a week, a month and a year", func(ctx context.Context, b backend) (interface{}, error) {
			return b.Revenue(ctx, opts.owner, opts.price)
		}),
		newPricedCmd(opts, "insights", "Composite view of every owner-level analysis", func(ctx context.Context, b backend) (interface{}, error) {
			return b.Insights(ctx, opts.owner, opts.price)
		}),
		newImportCmd(opts),
	)
	return root
}

func newTrendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trend <subject>",
		Short: "Classify a subject's production trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, b backend) (interface{}, error) {
				return b.Trend(ctx, opts.owner, args[0])
			})
		},
	}
}

func newForecastCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "forecast <subject>",
		Short: "Predict a subject's daily yield",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, b backend) (interface{}, error) {
				return b.Forecast(ctx, opts.owner, args[0], days)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Days ahead, capped at 30")
	return cmd
}

func newOwnerCmd(opts *options, use, short string, fn func(context.Context, backend) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, fn)
		},
	}
}

func newPricedCmd(opts *options, use, short string, fn func(context.Context, backend) (interface{}, error)) *cobra.Command {
	cmd := newOwnerCmd(opts, use, short, fn)
	cmd.Flags().Float64Var(&opts.price, "price", 0, "Unit price; 0 uses the configured default")
	return cmd
}

// run opens the backend, executes fn and prints its result as indented JSON.
func run(cmd *cobra.Command, opts *options, fn func(context.Context, backend) (interface{}, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	b, err := openBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := fn(ctx, b)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
