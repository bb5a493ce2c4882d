package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/torosent/protobench/internal/export"
	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/stats"
	"github.com/torosent/protobench/internal/store"
)

func newResultsCmd(a *app) *cobra.Command {
	var scenarioName, protocolName string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List saved page-load results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			results := store.Filter(st.All(), scenarioName, protocolName)
			if a.cfg.JSONOutput {
				return output.PrintJSONReport(a.out, results)
			}
			output.PrintResults(a.out, results)
			return nil
		},
	}
	cmd.Flags().StringVar(&scenarioName, "scenario", store.Wildcard, "Only show results of this scenario")
	cmd.Flags().StringVar(&protocolName, "protocol", store.Wildcard, "Only show results of this protocol label, e.g. HTTP/2")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var by string
	var precision int

	cmd := &cobra.Command{
		Use:   "stats [metric]",
		Short: "Summarize saved results per protocol, or one metric per group",
		Long: `Without a metric, stats compares ttfb, domLoad and fullLoad across protocols.
With a metric (ttfb, domLoad, fullLoad, resourceCount, totalSize) it prints
that metric's statistics for each protocol or scenario.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			results := st.All()
			if len(args) == 0 {
				cmp := store.CompareProtocols(results)
				if a.cfg.JSONOutput {
					return output.PrintJSONReport(a.out, cmp)
				}
				output.PrintComparison(a.out, cmp)
				return nil
			}

			metric, err := store.ParseMetric(args[0])
			if err != nil {
				return err
			}
			field := store.Field(by)
			if field != store.FieldProtocol && field != store.FieldScenario {
				return fmt.Errorf("--by must be %q or %q, got %q", store.FieldProtocol, store.FieldScenario, by)
			}

			groups := store.Group(results, field)
			rows := make([]output.GroupStats, 0, len(groups))
			for _, key := range store.Keys(groups) {
				values, err := store.Project(groups[key], metric)
				if err != nil {
					return err
				}
				rows = append(rows, output.GroupStats{Group: key, Stats: stats.Compute(values, precision)})
			}
			if a.cfg.JSONOutput {
				return output.PrintJSONReport(a.out, rows)
			}
			output.PrintGroupStats(a.out, string(metric), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", string(store.FieldProtocol), "Group by 'protocol' or 'scenarioType'")
	cmd.Flags().IntVar(&precision, "precision", stats.BrowserPrecision, "Decimal places of the statistics")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "export <json|csv>",
		Short:     "Write saved results to a JSON or CSV file in the export directory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(export.FormatJSON), string(export.FormatCSV)},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			results := st.All()
			d := export.FileDownloader{
				Dir: a.cfg.ExportDir,
				Saved: func(path string) {
					abs, err := filepath.Abs(path)
					if err != nil {
						abs = path
					}
					fmt.Fprintf(a.out, "Exported %d results to %s\n", len(results), abs)
				},
			}
			return export.Save(d, results, export.Format(args[0]))
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			n := len(st.All())
			if err := st.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Cleared %d results\n", n)
			return nil
		},
	}
}
