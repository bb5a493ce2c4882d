package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/protobench/internal/capture"
	"github.com/torosent/protobench/internal/httpclient"
	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/runner"
	"github.com/torosent/protobench/internal/scenario"
)

func newCaptureCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run repeated page loads and append curl-style rows to the trial logs",
		Example: `  protobench capture --target https://localhost:3000 --trials 20
  protobench capture --modes http2 --scenarios heavy --rate 0.5 --arrival poisson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			profiles := make([]scenario.Profile, 0, len(a.cfg.Capture.Scenarios))
			for _, name := range a.cfg.Capture.Scenarios {
				p, err := scenario.Parse(name)
				if err != nil {
					return err
				}
				profiles = append(profiles, p)
			}
			modes := make([]httpclient.Mode, 0, len(a.cfg.Capture.Modes))
			for _, m := range a.cfg.Capture.Modes {
				modes = append(modes, httpclient.Mode(m))
			}

			provider, shutdown, err := a.startTracing(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			var progress io.Writer
			if !a.cfg.JSONOutput {
				progress = a.out
			}

			report, err := capture.Run(ctx, capture.Options{
				Target:           a.cfg.Probe.Target,
				LogDir:           a.cfg.LogDir,
				Scenarios:        profiles,
				Modes:            modes,
				Trials:           a.cfg.Capture.Trials,
				Rate:             a.cfg.Capture.Rate,
				Arrival:          runner.ArrivalModel(a.cfg.Capture.Arrival),
				Retries:          a.cfg.Capture.Retries,
				Concurrency:      concurrency,
				Timeout:          a.cfg.Probe.Timeout,
				Insecure:         a.cfg.Probe.Insecure,
				FetchConcurrency: a.cfg.Probe.Concurrency,
				Tracer:           provider.Tracer(),
				Propagate:        provider.ShouldPropagate(),
				Logger:           a.logger,
				Progress:         progress,
			})
			if a.cfg.JSONOutput {
				if perr := output.PrintJSONReport(a.out, report); perr != nil {
					return perr
				}
			} else if len(report.Runs) > 0 {
				printCaptureReport(a.out, report)
			}
			if err != nil {
				return err
			}
			if n := report.Failures(); n > 0 {
				a.logger.Warn("some trials failed", "failures", n)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Trials run in parallel (1 keeps page loads from competing)")
	return cmd
}

func printCaptureReport(w io.Writer, report capture.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-6s %-8s %-7s %-9s %-10s %-10s %-10s %s\n",
		"MODE", "SCENARIO", "TRIALS", "FAILURES", "P50", "P90", "P99", "LOG")
	for _, run := range report.Runs {
		fmt.Fprintf(w, "%-6s %-8s %-7d %-9d %-10s %-10s %-10s %s\n",
			run.Mode, run.Scenario, run.Trials, run.Failures,
			fmt.Sprintf("%.1fms", run.Latency.P50Ms),
			fmt.Sprintf("%.1fms", run.Latency.P90Ms),
			fmt.Sprintf("%.1fms", run.Latency.P99Ms),
			run.LogPath,
		)
	}
	fmt.Fprintf(w, "\nCaptured in %s. Run 'protobench analyze' to summarize.\n", report.Duration.Round(time.Millisecond))
}
