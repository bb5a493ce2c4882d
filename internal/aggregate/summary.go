package aggregate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/protobench/internal/protocol"
	"github.com/torosent/protobench/internal/stats"
)

// Metric names used in the summary.
const (
	TimeTotal         = "timeTotal"
	TimeConnect       = "timeConnect"
	TimeStartTransfer = "timeStartTransfer"
	SizeDownload      = "sizeDownload"
)

// Metrics lists the summarized metrics.
var Metrics = []string{TimeTotal, TimeConnect, TimeStartTransfer, SizeDownload}

// MetricStats maps a metric name to its statistics.
type MetricStats map[string]stats.Stats

// ProtocolSummary holds the statistics for one protocol's trials. Overall is
// empty when the protocol has no trials.
type ProtocolSummary struct {
	Overall    MetricStats            `json:"overall" yaml:"overall"`
	ByScenario map[string]MetricStats `json:"byScenario" yaml:"byScenario"`
}

// Summary maps a protocol log name to its statistics.
type Summary map[string]ProtocolSummary

// HasData reports whether the protocol contributed any trials.
func (p ProtocolSummary) HasData() bool {
	return p.Overall[TimeTotal].Count > 0
}

// Summarize computes statistics per protocol, overall and per scenario. Every
// protocol in protocol.LogNames is present in the result.
func Summarize(data map[string][]Trial) Summary {
	summary := make(Summary, len(protocol.LogNames))
	for _, name := range protocol.LogNames {
		summary[name] = summarizeTrials(data[name])
	}
	for name, trials := range data {
		if _, ok := summary[name]; !ok {
			summary[name] = summarizeTrials(trials)
		}
	}
	return summary
}

func summarizeTrials(trials []Trial) ProtocolSummary {
	ps := ProtocolSummary{
		Overall:    MetricStats{},
		ByScenario: map[string]MetricStats{},
	}
	if len(trials) == 0 {
		return ps
	}
	ps.Overall = metricStats(trials)

	byScenario := make(map[string][]Trial)
	for _, t := range trials {
		byScenario[t.Scenario] = append(byScenario[t.Scenario], t)
	}
	for scenario, group := range byScenario {
		ps.ByScenario[scenario] = metricStats(group)
	}
	return ps
}

func metricStats(trials []Trial) MetricStats {
	total := make([]float64, len(trials))
	connect := make([]float64, len(trials))
	start := make([]float64, len(trials))
	size := make([]float64, len(trials))
	for i, t := range trials {
		total[i] = t.TimeTotal
		connect[i] = t.TimeConnect
		start[i] = t.TimeStartTransfer
		size[i] = float64(t.SizeDownload)
	}
	return MetricStats{
		TimeTotal:         stats.Compute(total, stats.OfflinePrecision),
		TimeConnect:       stats.Compute(connect, stats.OfflinePrecision),
		TimeStartTransfer: stats.Compute(start, stats.OfflinePrecision),
		SizeDownload:      stats.Compute(size, stats.OfflinePrecision),
	}
}

// Winner is the protocol with the lowest positive mean for a metric.
type Winner struct {
	Metric   string
	Label    string
	Protocol string
	Mean     float64
}

var winnerLabels = map[string]string{
	TimeTotal:         "Fastest Overall",
	TimeConnect:       "Fastest Connect",
	TimeStartTransfer: "Fastest TTFB",
}

// Winners picks, for timeTotal, timeConnect and timeStartTransfer, the
// protocol whose overall mean is lowest and positive. Metrics with no
// positive mean are omitted. Ties keep the earlier protocol.
func Winners(summary Summary) []Winner {
	var winners []Winner
	for _, metric := range []string{TimeTotal, TimeConnect, TimeStartTransfer} {
		var best Winner
		found := false
		for _, name := range protocol.LogNames {
			st, ok := summary[name].Overall[metric]
			if !ok || st.Mean <= 0 {
				continue
			}
			if !found || st.Mean < best.Mean {
				best = Winner{Metric: metric, Label: winnerLabels[metric], Protocol: name, Mean: st.Mean}
				found = true
			}
		}
		if found {
			winners = append(winners, best)
		}
	}
	return winners
}

// Format is a summary file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultSummaryPath is where the summary is written unless configured.
const DefaultSummaryPath = "results/summary.json"

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode renders summary in format.
func Encode(summary Summary, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(summary, "", "  ")
	case FormatYAML:
		return yaml.Marshal(summary)
	default:
		return nil, fmt.Errorf("unsupported summary format %q", format)
	}
}

// WriteSummary writes summary to path, creating parent directories.
func WriteSummary(path string, summary Summary, format Format) error {
	data, err := Encode(summary, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
