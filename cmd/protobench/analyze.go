package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/torosent/protobench/internal/aggregate"
	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/store"
	"github.com/torosent/protobench/internal/threshold"
)

// analyzeReport is the --json-output form of analyze.
type analyzeReport struct {
	Summary     aggregate.Summary  `json:"summary"`
	SummaryPath string             `json:"summaryPath"`
	Thresholds  []threshold.Result `json:"thresholds,omitempty"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var includeResults bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize the per-protocol trial logs and check thresholds",
		Example: `  protobench analyze --log-dir results/raw
  protobench analyze --threshold 'http2.timeTotal:mean < 0.5' --html-output report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			thresholds, err := threshold.ParseMultiple(a.cfg.Thresholds)
			if err != nil {
				return err
			}

			data, err := aggregate.LoadDir(a.cfg.LogDir, a.logger)
			if err != nil {
				return err
			}
			summary := aggregate.Summarize(data)

			format := aggregate.Format(a.cfg.SummaryFormat)
			if format == "" {
				format = aggregate.FormatFromPath(a.cfg.SummaryPath)
			}
			if err := aggregate.WriteSummary(a.cfg.SummaryPath, summary, format); err != nil {
				return err
			}

			results := threshold.NewEvaluator(thresholds).Evaluate(summary)

			if a.cfg.JSONOutput {
				if err := output.PrintJSONReport(a.out, analyzeReport{
					Summary:     summary,
					SummaryPath: a.cfg.SummaryPath,
					Thresholds:  results,
				}); err != nil {
					return err
				}
			} else {
				output.PrintLoadCounts(a.out, data)
				output.PrintAggregate(a.out, summary)
				fmt.Fprintf(a.out, "\nDetailed results saved to %s\n", a.cfg.SummaryPath)
				output.PrintThresholds(a.out, results)
			}

			if a.cfg.HTMLOutput != "" {
				var comparison []store.ProtocolStats
				if includeResults {
					st, release, err := a.openStore(cmd.Context())
					if err != nil {
						return err
					}
					comparison = store.CompareProtocols(st.All())
					release()
				}
				if err := writeHTMLReport(a.cfg.HTMLOutput, summary, comparison, results); err != nil {
					return err
				}
				a.logger.Info("HTML report written", "path", a.cfg.HTMLOutput)
			}

			if !threshold.AllPassed(results) {
				return errThresholdsFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeResults, "include-results", false, "Add the saved page-load results to the HTML report")
	return cmd
}

func writeHTMLReport(path string, summary aggregate.Summary, comparison []store.ProtocolStats, results []threshold.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, summary, comparison, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
