package output

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/torosent/protobench/internal/aggregate"
	"github.com/torosent/protobench/internal/protocol"
	"github.com/torosent/protobench/internal/scenario"
	"github.com/torosent/protobench/internal/stats"
	"github.com/torosent/protobench/internal/store"
	"github.com/torosent/protobench/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Title            string
	Protocols        []ProtocolRow
	Scenarios        []ScenarioTable
	Winners          []aggregate.Winner
	ThresholdSummary *ThresholdSummary
	Comparison       []ComparisonRow
}

// ProtocolRow is one protocol's overall offline statistics.
type ProtocolRow struct {
	Name      string
	HasData   bool
	Total     stats.Stats
	TTFB      stats.Stats
	Connect   stats.Stats
	Size      stats.Stats
	BarWidth  float64 // percent of the slowest protocol's mean total time
	TestCount int
}

// ScenarioTable is the per-protocol breakdown for one scenario.
type ScenarioTable struct {
	Name string
	Rows []ProtocolRow
}

// ComparisonRow is one protocol's statistics over saved page-load results.
type ComparisonRow struct {
	store.ProtocolStats
	BarWidth float64
}

// ThresholdSummary counts threshold outcomes for the report.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []threshold.Result
}

// GenerateHTMLReport writes a standalone HTML report. Either summary or
// comparison may be empty; their sections are then omitted.
func GenerateHTMLReport(w io.Writer, summary aggregate.Summary, comparison []store.ProtocolStats, thresholdResults []threshold.Result) error {
	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Title:       "HTTP Protocol Performance Report",
	}

	if len(summary) > 0 {
		data.Protocols = protocolRows(summary, func(ps aggregate.ProtocolSummary) aggregate.MetricStats { return ps.Overall })
		for _, name := range scenario.Names {
			data.Scenarios = append(data.Scenarios, ScenarioTable{
				Name: name,
				Rows: protocolRows(summary, func(ps aggregate.ProtocolSummary) aggregate.MetricStats { return ps.ByScenario[name] }),
			})
		}
		data.Winners = aggregate.Winners(summary)
	}

	if len(thresholdResults) > 0 {
		ts := &ThresholdSummary{Total: len(thresholdResults), Results: thresholdResults}
		for _, r := range thresholdResults {
			if r.Pass {
				ts.Passed++
			} else {
				ts.Failed++
			}
		}
		data.ThresholdSummary = ts
	}

	var slowest float64
	for _, c := range comparison {
		if c.FullLoad.Mean > slowest {
			slowest = c.FullLoad.Mean
		}
	}
	for _, c := range comparison {
		data.Comparison = append(data.Comparison, ComparisonRow{ProtocolStats: c, BarWidth: percentOf(c.FullLoad.Mean, slowest)})
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"ms": func(seconds float64) string {
			return secondsToMs(seconds) + "ms"
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"upper": strings.ToUpper,
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

func protocolRows(summary aggregate.Summary, pick func(aggregate.ProtocolSummary) aggregate.MetricStats) []ProtocolRow {
	rows := make([]ProtocolRow, 0, len(protocol.LogNames))
	var slowest float64
	for _, name := range protocol.LogNames {
		ms := pick(summary[name])
		row := ProtocolRow{Name: name}
		if ms != nil && ms[aggregate.TimeTotal].Count > 0 {
			row.HasData = true
			row.Total = ms[aggregate.TimeTotal]
			row.TTFB = ms[aggregate.TimeStartTransfer]
			row.Connect = ms[aggregate.TimeConnect]
			row.Size = ms[aggregate.SizeDownload]
			row.TestCount = row.Total.Count
			if row.Total.Mean > slowest {
				slowest = row.Total.Mean
			}
		}
		rows = append(rows, row)
	}
	for i := range rows {
		rows[i].BarWidth = percentOf(rows[i].Total.Mean, slowest)
	}
	return rows
}

func percentOf(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max * 100
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace;
            background: #f5f5f5;
            color: #1a1a1a;
            line-height: 1.6;
            padding: 20px;
        }
        .container { max-width: 1200px; margin: 0 auto; background: white; border: 1px solid #d4d4d4; }
        header { background: #000; color: white; padding: 30px 40px; }
        header h1 { font-size: 1.6rem; margin-bottom: 10px; }
        header .meta { opacity: 0.8; font-size: 0.85rem; }
        .content { padding: 40px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 20px; margin-bottom: 40px; }
        .card { background: #f5f5f5; padding: 20px; border-left: 4px solid #404040; }
        .card h3 { font-size: 0.85rem; color: #737373; text-transform: uppercase; margin-bottom: 10px; }
        .card .value { font-size: 1.8rem; font-weight: bold; }
        .card .subvalue { font-size: 0.85rem; color: #737373; margin-top: 5px; }
        .card.winner { border-left-color: #10b981; }
        .section { margin-bottom: 40px; }
        .section h2 { font-size: 1.2rem; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #e5e5e5; text-transform: uppercase; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e5e5e5; }
        th { background: #f5f5f5; font-size: 0.8rem; text-transform: uppercase; color: #525252; }
        .bar { height: 12px; background: #404040; }
        .badge { display: inline-block; padding: 2px 10px; font-size: 0.8rem; font-weight: 600; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
        .no-data { color: #a3a3a3; font-style: italic; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{.Title}}</h1>
            <div class="meta">Generated: {{.GeneratedAt}}</div>
        </header>

        <div class="content">
            {{if .Winners}}
            <div class="grid">
                {{range .Winners}}
                <div class="card winner">
                    <h3>{{.Label}}</h3>
                    <div class="value">{{upper .Protocol}}</div>
                    <div class="subvalue">{{ms .Mean}}</div>
                </div>
                {{end}}
            </div>
            {{end}}

            {{if .Protocols}}
            <div class="section">
                <h2>Overall Performance Comparison</h2>
                <table>
                    <thead>
                        <tr><th>Protocol</th><th>Avg Total Time</th><th>Avg TTFB</th><th>Avg Connect</th><th>Tests</th><th></th></tr>
                    </thead>
                    <tbody>
                        {{range .Protocols}}
                        <tr>
                            <td><strong>{{upper .Name}}</strong></td>
                            {{if .HasData}}
                            <td>{{ms .Total.Mean}} (±{{ms .Total.StdDev}})</td>
                            <td>{{ms .TTFB.Mean}} (±{{ms .TTFB.StdDev}})</td>
                            <td>{{ms .Connect.Mean}} (±{{ms .Connect.StdDev}})</td>
                            <td>{{.TestCount}}</td>
                            <td style="width: 30%"><div class="bar" style="width: {{formatFloat .BarWidth}}%"></div></td>
                            {{else}}
                            <td colspan="5" class="no-data">No data available</td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{range .Scenarios}}
            <div class="section">
                <h2>{{upper .Name}} Scenario</h2>
                <table>
                    <thead>
                        <tr><th>Protocol</th><th>Avg Total Time</th><th>Avg TTFB</th><th>Tests</th><th></th></tr>
                    </thead>
                    <tbody>
                        {{range .Rows}}
                        <tr>
                            <td><strong>{{upper .Name}}</strong></td>
                            {{if .HasData}}
                            <td>{{ms .Total.Mean}} (±{{ms .Total.StdDev}})</td>
                            <td>{{ms .TTFB.Mean}} (±{{ms .TTFB.StdDev}})</td>
                            <td>{{.TestCount}}</td>
                            <td style="width: 30%"><div class="bar" style="width: {{formatFloat .BarWidth}}%"></div></td>
                            {{else}}
                            <td colspan="4" class="no-data">No data available</td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .Comparison}}
            <div class="section">
                <h2>Saved Results by Protocol (ms)</h2>
                <table>
                    <thead>
                        <tr><th>Protocol</th><th>Tests</th><th>TTFB</th><th>DOM Load</th><th>Full Load</th><th></th></tr>
                    </thead>
                    <tbody>
                        {{range .Comparison}}
                        <tr>
                            <td><strong>{{.Protocol}}</strong></td>
                            <td>{{.Count}}</td>
                            <td>{{formatFloat .TTFB.Mean}} (±{{formatFloat .TTFB.StdDev}})</td>
                            <td>{{formatFloat .DOMLoad.Mean}} (±{{formatFloat .DOMLoad.StdDev}})</td>
                            <td>{{formatFloat .FullLoad.Mean}} (±{{formatFloat .FullLoad.StdDev}})</td>
                            <td style="width: 30%"><div class="bar" style="width: {{formatFloat .BarWidth}}%"></div></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr><th>Threshold</th><th>Expected</th><th>Actual</th><th>Status</th></tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{.Threshold.Operator}} {{.Threshold.Value}}</td>
                            <td>{{.Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
