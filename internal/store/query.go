package store

import (
	"fmt"
	"sort"

	"github.com/torosent/protobench/internal/stats"
)

// Field names a SavedResult attribute results can be grouped by.
type Field string

const (
	FieldProtocol Field = "protocol"
	FieldScenario Field = "scenarioType"
)

// Wildcard matches every value in Filter.
const Wildcard = "all"

// Metric names a numeric SavedResult attribute.
type Metric string

const (
	MetricTTFB          Metric = "ttfb"
	MetricDOMLoad       Metric = "domLoad"
	MetricFullLoad      Metric = "fullLoad"
	MetricResourceCount Metric = "resourceCount"
	MetricTotalSize     Metric = "totalSize"
)

// Metrics lists the projectable metrics in display order.
var Metrics = []Metric{MetricTTFB, MetricDOMLoad, MetricFullLoad, MetricResourceCount, MetricTotalSize}

// Group partitions results by field, preserving order within each group.
// Unknown fields produce an empty map.
func Group(results []SavedResult, field Field) map[string][]SavedResult {
	groups := make(map[string][]SavedResult)
	for _, r := range results {
		var k string
		switch field {
		case FieldProtocol:
			k = r.Protocol
		case FieldScenario:
			k = r.ScenarioType
		default:
			return map[string][]SavedResult{}
		}
		groups[k] = append(groups[k], r)
	}
	return groups
}

// Filter keeps results matching scenario and protocol. Empty or "all" matches
// anything.
func Filter(results []SavedResult, scenario, protocol string) []SavedResult {
	out := make([]SavedResult, 0, len(results))
	for _, r := range results {
		if scenario != "" && scenario != Wildcard && r.ScenarioType != scenario {
			continue
		}
		if protocol != "" && protocol != Wildcard && r.Protocol != protocol {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Keys returns the sorted group keys.
func Keys(groups map[string][]SavedResult) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", name)
}

// Project extracts metric from each result.
func Project(results []SavedResult, metric Metric) ([]float64, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(results))
	for _, r := range results {
		switch metric {
		case MetricTTFB:
			values = append(values, r.TTFB)
		case MetricDOMLoad:
			values = append(values, r.DOMLoad)
		case MetricFullLoad:
			values = append(values, r.FullLoad)
		case MetricResourceCount:
			values = append(values, float64(r.ResourceCount))
		case MetricTotalSize:
			values = append(values, float64(r.TotalSize))
		}
	}
	return values, nil
}

// ProtocolStats compares page-load timings for one protocol.
type ProtocolStats struct {
	Protocol string      `json:"protocol"`
	TTFB     stats.Stats `json:"ttfb"`
	DOMLoad  stats.Stats `json:"domLoad"`
	FullLoad stats.Stats `json:"fullLoad"`
	Count    int         `json:"count"`
}

// CompareProtocols computes ttfb, domLoad and fullLoad statistics per
// protocol, in order of first appearance.
func CompareProtocols(results []SavedResult) []ProtocolStats {
	groups := Group(results, FieldProtocol)
	var order []string
	seen := make(map[string]bool, len(groups))
	for _, r := range results {
		if !seen[r.Protocol] {
			seen[r.Protocol] = true
			order = append(order, r.Protocol)
		}
	}

	out := make([]ProtocolStats, 0, len(order))
	for _, proto := range order {
		group := groups[proto]
		ttfb, _ := Project(group, MetricTTFB)
		dom, _ := Project(group, MetricDOMLoad)
		full, _ := Project(group, MetricFullLoad)
		out = append(out, ProtocolStats{
			Protocol: proto,
			TTFB:     stats.Compute(ttfb, stats.BrowserPrecision),
			DOMLoad:  stats.Compute(dom, stats.BrowserPrecision),
			FullLoad: stats.Compute(full, stats.BrowserPrecision),
			Count:    len(group),
		})
	}
	return out
}
