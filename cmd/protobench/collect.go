package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/protobench/internal/har"
	"github.com/torosent/protobench/internal/metrics"
	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/probe"
	"github.com/torosent/protobench/internal/scenario"
	"github.com/torosent/protobench/internal/timing"
	"github.com/torosent/protobench/internal/tracing"
)

func newCollectCmd(a *app) *cobra.Command {
	var harPath, pageID string

	cmd := &cobra.Command{
		Use:   "collect <scenario>",
		Short: "Load a scenario page, or read a HAR capture, and save its metrics",
		Example: `  protobench collect light --target https://localhost:3000 --mode http2
  protobench collect heavy --har capture.har`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: scenario.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := scenario.Parse(args[0])
			if err != nil {
				return err
			}

			rec, err := a.collectRecord(ctx, profile, harPath, pageID)
			if err != nil {
				return err
			}

			st, release, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			saved, err := st.Append(rec, profile.Name)
			if err != nil {
				return err
			}
			if a.cfg.JSONOutput {
				return output.PrintJSONReport(a.out, saved)
			}
			output.PrintRecord(a.out, rec)
			fmt.Fprintf(a.out, "\nSaved result %s (%d stored)\n", saved.ID, len(st.All()))
			return nil
		},
	}
	cmd.Flags().StringVar(&harPath, "har", "", "Read timings from a HAR capture instead of loading the page")
	cmd.Flags().StringVar(&pageID, "page", "", "HAR page id to read (default: first page)")
	return cmd
}

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "probe <scenario>",
		Short:     "Load a scenario page once and print its metrics without saving",
		Args:      cobra.ExactArgs(1),
		ValidArgs: scenario.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := scenario.Parse(args[0])
			if err != nil {
				return err
			}

			provider, shutdown, err := a.startTracing(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			load, err := probe.Start(ctx, a.probeOptions(profile, provider))
			if err != nil {
				return err
			}
			rec := a.collector(load).CollectAfterLoad(ctx)
			if a.cfg.JSONOutput {
				return output.PrintJSONReport(a.out, rec)
			}
			output.PrintRecord(a.out, rec)

			if summary, err := load.Summary(); err == nil {
				fmt.Fprintf(a.out, "\nConnect %s | First byte %s | Total %s | Body %s",
					summary.Connect.Round(time.Microsecond),
					summary.StartTransfer.Round(time.Microsecond),
					summary.Total.Round(time.Microsecond),
					metrics.FormatBytes(summary.BodyBytes),
				)
				if summary.FailedAssets > 0 {
					fmt.Fprintf(a.out, " | %d assets failed", summary.FailedAssets)
				}
				fmt.Fprintln(a.out)
			}
			return nil
		},
	}
}

// collectRecord produces one record, from a HAR capture when harPath is set
// and from a live page load otherwise.
func (a *app) collectRecord(ctx context.Context, profile scenario.Profile, harPath, pageID string) (metrics.Record, error) {
	if harPath != "" {
		opts := har.DefaultOptions()
		opts.PageID = pageID
		src, err := har.LoadSource(harPath, opts)
		if err != nil {
			return metrics.Record{}, fmt.Errorf("read HAR capture: %w", err)
		}
		a.logger.Debug("collecting from HAR capture", "path", harPath, "page", pageID)
		return a.collector(src).CollectAfterLoad(ctx), nil
	}

	provider, shutdown, err := a.startTracing(ctx)
	if err != nil {
		return metrics.Record{}, err
	}
	defer shutdown()

	load, err := probe.Start(ctx, a.probeOptions(profile, provider))
	if err != nil {
		return metrics.Record{}, err
	}
	return a.collector(load).CollectAfterLoad(ctx), nil
}

func (a *app) collector(src timing.Source) *metrics.Collector {
	return &metrics.Collector{Source: src, Settle: a.cfg.Probe.Settle, Logger: a.logger}
}

func (a *app) probeOptions(profile scenario.Profile, provider *tracing.Provider) probe.Options {
	return probe.Options{
		Target:      a.cfg.Probe.Target,
		Scenario:    profile,
		Mode:        a.probeMode(),
		Timeout:     a.cfg.Probe.Timeout,
		Insecure:    a.cfg.Probe.Insecure,
		Concurrency: a.cfg.Probe.Concurrency,
		Tracer:      provider.Tracer(),
		Propagate:   provider.ShouldPropagate(),
		Logger:      a.logger,
	}
}
