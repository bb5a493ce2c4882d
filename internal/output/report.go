package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/torosent/protobench/internal/aggregate"
	"github.com/torosent/protobench/internal/metrics"
	"github.com/torosent/protobench/internal/protocol"
	"github.com/torosent/protobench/internal/scenario"
	"github.com/torosent/protobench/internal/stats"
	"github.com/torosent/protobench/internal/store"
	"github.com/torosent/protobench/internal/threshold"
)

const noData = "No data available"

type styles struct {
	heading lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	info    lipgloss.Style
	faint   lipgloss.Style
}

// newStyles binds colour styles to w. Writers that are not terminals get
// plain text.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true),
		good:    r.NewStyle().Foreground(lipgloss.Color("2")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("1")),
		info:    r.NewStyle().Foreground(lipgloss.Color("6")),
		faint:   r.NewStyle().Faint(true),
	}
}

// PrintLoadCounts reports how many trials were read per protocol.
func PrintLoadCounts(w io.Writer, data map[string][]aggregate.Trial) {
	st := newStyles(w)
	for _, name := range protocol.LogNames {
		fmt.Fprintln(w, st.info.Render(fmt.Sprintf("Loaded %d results for %s", len(data[name]), strings.ToUpper(name))))
	}
	fmt.Fprintln(w)
}

// PrintAggregate outputs the offline comparison tables and winners.
func PrintAggregate(w io.Writer, summary aggregate.Summary) {
	st := newStyles(w)

	fmt.Fprintln(w, st.heading.Render("=== Overall Performance Comparison ==="))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Protocol    | Avg Total Time | Avg TTFB       | Avg Connect    | Tests")
	fmt.Fprintln(w, "------------|----------------|----------------|----------------|-------")
	for _, name := range protocol.LogNames {
		label := pad(strings.ToUpper(name), 11)
		ps := summary[name]
		if !ps.HasData() {
			fmt.Fprintf(w, "%s | %s\n", label, noData)
			continue
		}
		o := ps.Overall
		fmt.Fprintf(w, "%s | %s | %s | %s | %s\n",
			label,
			pad(meanWithSpread(o[aggregate.TimeTotal]), 14),
			pad(meanWithSpread(o[aggregate.TimeStartTransfer]), 14),
			pad(meanWithSpread(o[aggregate.TimeConnect]), 14),
			pad(strconv.Itoa(o[aggregate.TimeTotal].Count), 6),
		)
	}
	fmt.Fprintln(w)

	for _, name := range scenario.Names {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.heading.Render(fmt.Sprintf("=== %s Scenario ===", strings.ToUpper(name))))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Protocol    | Avg Total Time | Avg TTFB       | Tests")
		fmt.Fprintln(w, "------------|----------------|----------------|-------")
		for _, proto := range protocol.LogNames {
			label := pad(strings.ToUpper(proto), 11)
			ms, ok := summary[proto].ByScenario[name]
			if !ok || ms[aggregate.TimeTotal].Count == 0 {
				fmt.Fprintf(w, "%s | %s\n", label, noData)
				continue
			}
			fmt.Fprintf(w, "%s | %s | %s | %s\n",
				label,
				pad(meanWithSpread(ms[aggregate.TimeTotal]), 14),
				pad(meanWithSpread(ms[aggregate.TimeStartTransfer]), 14),
				pad(strconv.Itoa(ms[aggregate.TimeTotal].Count), 6),
			)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.heading.Render("=== Performance Winners ==="))
	fmt.Fprintln(w)
	for _, winner := range aggregate.Winners(summary) {
		fmt.Fprintln(w, st.good.Render(fmt.Sprintf("%s: %s (%sms)", winner.Label, strings.ToUpper(winner.Protocol), secondsToMs(winner.Mean))))
	}
}

// meanWithSpread renders a seconds statistic as "250ms (±12)".
func meanWithSpread(s stats.Stats) string {
	return fmt.Sprintf("%sms (±%s)", secondsToMs(s.Mean), secondsToMs(s.StdDev))
}

func secondsToMs(v float64) string {
	return strconv.FormatInt(int64(math.Round(v*1000)), 10)
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PrintRecord outputs the metric cards and resource table of one page load.
func PrintRecord(w io.Writer, rec metrics.Record) {
	st := newStyles(w)
	if rec.Failed() {
		fmt.Fprintln(w, st.bad.Render("Failed to collect metrics: "+rec.Error))
		return
	}

	fmt.Fprintln(w, st.heading.Render("--- Page Load Metrics ---"))
	fmt.Fprintf(w, "TTFB:              %s\n", metrics.FormatMillis(rec.TTFB))
	fmt.Fprintf(w, "DOM Load Time:     %s\n", metrics.FormatMillis(rec.DOMLoad))
	fmt.Fprintf(w, "Total Load Time:   %s\n", metrics.FormatMillis(rec.FullLoad))
	fmt.Fprintf(w, "Total Resources:   %d\n", rec.ResourceCount)
	fmt.Fprintf(w, "Transferred Size:  %s\n", metrics.FormatBytes(rec.TotalSize))
	fmt.Fprintf(w, "HTTP Protocol:     %s\n", strings.ToUpper(rec.Protocol))

	if len(rec.Resources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Resource Details (%d items):\n", len(rec.Resources))
	fmt.Fprintf(w, "  %-8s %-24s %-10s %-10s %s\n", "TYPE", "NAME", "DURATION", "SIZE", "PROTOCOL")
	for _, r := range rec.Resources {
		fmt.Fprintf(w, "  %-8s %-24s %-10s %-10s %s\n",
			r.Type,
			path.Base(r.Name),
			metrics.FormatMillis(r.Duration),
			metrics.FormatBytes(r.Size),
			r.Protocol,
		)
	}
}

// PrintResults outputs saved results as a table.
func PrintResults(w io.Writer, results []store.SavedResult) {
	st := newStyles(w)
	fmt.Fprintf(w, "Total Results: %d\n", len(results))
	if len(results) == 0 {
		fmt.Fprintln(w, st.faint.Render("No results yet. Run a test scenario to collect data."))
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-26s %-8s %-10s %-10s %-10s %-10s %-9s %s\n",
		"TIMESTAMP", "SCENARIO", "PROTOCOL", "TTFB", "DOM LOAD", "FULL LOAD", "RESOURCES", "SIZE")
	for _, r := range results {
		line := fmt.Sprintf("%-26s %-8s %-10s %-10s %-10s %-10s %-9d %s",
			r.Timestamp,
			r.ScenarioType,
			r.Protocol,
			metrics.FormatMillis(r.TTFB),
			metrics.FormatMillis(r.DOMLoad),
			metrics.FormatMillis(r.FullLoad),
			r.ResourceCount,
			metrics.FormatBytes(r.TotalSize),
		)
		if r.Failed() {
			line = st.bad.Render(line + "  (" + r.Error + ")")
		}
		fmt.Fprintln(w, line)
	}
}

// PrintComparison outputs per-protocol statistics of saved results in ms.
func PrintComparison(w io.Writer, cmp []store.ProtocolStats) {
	st := newStyles(w)
	if len(cmp) == 0 {
		fmt.Fprintln(w, st.faint.Render(noData))
		return
	}
	fmt.Fprintln(w, st.heading.Render("--- Protocol Comparison (ms) ---"))
	fmt.Fprintf(w, "%-10s %-8s %-26s %-26s %-26s\n", "PROTOCOL", "TESTS", "TTFB mean/median (sd)", "DOM LOAD mean/median (sd)", "FULL LOAD mean/median (sd)")
	for _, p := range cmp {
		fmt.Fprintf(w, "%-10s %-8d %-26s %-26s %-26s\n",
			p.Protocol, p.Count, describe(p.TTFB), describe(p.DOMLoad), describe(p.FullLoad))
	}
}

func describe(s stats.Stats) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("%s/%s (%s)", f(s.Mean), f(s.Median), f(s.StdDev))
}

// GroupStats is one row of a grouped statistics table.
type GroupStats struct {
	Group string      `json:"group"`
	Stats stats.Stats `json:"stats"`
}

// PrintGroupStats outputs the statistics of one metric per group.
func PrintGroupStats(w io.Writer, metric string, rows []GroupStats) {
	st := newStyles(w)
	if len(rows) == 0 {
		fmt.Fprintln(w, st.faint.Render(noData))
		return
	}
	fmt.Fprintln(w, st.heading.Render("--- "+metric+" ---"))
	fmt.Fprintf(w, "%-12s %-6s %-10s %-10s %-10s %-10s %s\n", "GROUP", "COUNT", "MEAN", "MEDIAN", "MIN", "MAX", "STDDEV")
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s %-6d %-10s %-10s %-10s %-10s %s\n",
			r.Group, r.Stats.Count, f(r.Stats.Mean), f(r.Stats.Median), f(r.Stats.Min), f(r.Stats.Max), f(r.Stats.StdDev))
	}
}

// PrintThresholds outputs threshold results and returns whether all passed.
func PrintThresholds(w io.Writer, results []threshold.Result) bool {
	if len(results) == 0 {
		return true
	}
	st := newStyles(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.heading.Render("=== Thresholds ==="))
	for _, r := range results {
		if r.Pass {
			fmt.Fprintln(w, st.good.Render(r.Message))
		} else {
			fmt.Fprintln(w, st.bad.Render(r.Message))
		}
	}
	return threshold.AllPassed(results)
}

// PrintJSONReport outputs v as indented JSON.
func PrintJSONReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
