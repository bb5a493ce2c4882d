package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/torosent/protobench/internal/aggregate"
	"github.com/torosent/protobench/internal/metrics"
	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/store"
	"github.com/torosent/protobench/internal/threshold"
)

func sampleSummary() aggregate.Summary {
	return aggregate.Summarize(map[string][]aggregate.Trial{
		"http1": {
			{Scenario: "light", TimeTotal: 0.5, TimeConnect: 0.04, TimeStartTransfer: 0.2, SizeDownload: 1000},
		},
		"http2": {
			{Scenario: "light", TimeTotal: 0.25, TimeConnect: 0.05, TimeStartTransfer: 0.1, SizeDownload: 1000},
			{Scenario: "heavy", TimeTotal: 0.75, TimeConnect: 0.05, TimeStartTransfer: 0.1, SizeDownload: 9000},
		},
	})
}

func TestGenerateHTMLReport(t *testing.T) {
	ths, err := threshold.ParseMultiple([]string{"http2.timeTotal:mean < 1", "http1.timeTotal:mean < 0.1"})
	if err != nil {
		t.Fatalf("parse thresholds: %v", err)
	}
	summary := sampleSummary()
	results := threshold.NewEvaluator(ths).Evaluate(summary)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, summary, nil, results); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()

	checks := []string{
		"<!DOCTYPE html>",
		"HTTP Protocol Performance Report",
		"Overall Performance Comparison",
		"LIGHT Scenario",
		"MANY Scenario",
		"HTTP3",
		"No data available",
		"Fastest Overall",
		"500ms (±0ms)",
		"Thresholds (1/2 Passed)",
		"✗ FAIL",
	}
	for _, want := range checks {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
	if strings.Contains(html, "Saved Results by Protocol") {
		t.Errorf("comparison section should be omitted without saved results")
	}
}

func TestGenerateHTMLReportComparisonOnly(t *testing.T) {
	cmp := store.CompareProtocols([]store.SavedResult{
		{Record: metrics.Record{Protocol: "HTTP/2", TTFB: 10, DOMLoad: 50, FullLoad: 100}},
		{Record: metrics.Record{Protocol: "HTTP/3", TTFB: 8, DOMLoad: 40, FullLoad: 50}},
	})

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, nil, cmp, nil); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "Saved Results by Protocol") {
		t.Errorf("expected comparison section")
	}
	if !strings.Contains(html, "width: 50.00%") || !strings.Contains(html, "width: 100.00%") {
		t.Errorf("expected relative bar widths in comparison chart")
	}
	if strings.Contains(html, "Overall Performance Comparison") || strings.Contains(html, "Thresholds (") {
		t.Errorf("offline sections should be omitted without a summary")
	}
}
