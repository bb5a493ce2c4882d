package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/protobench/internal/aggregate"
	"github.com/torosent/protobench/internal/protocol"
	"github.com/torosent/protobench/internal/stats"
)

// Threshold is an assertion on one statistic of an offline summary.
type Threshold struct {
	Protocol  string  // log name, e.g. "http2"
	Scenario  string  // optional; empty means overall
	Metric    string  // e.g. "timeTotal", "sizeDownload"
	Aggregate string  // e.g. "mean", "median", "max", "stddev", "count"
	Operator  string  // e.g. "<", "<=", ">", ">=", "=="
	Value     float64 // the threshold value to compare against
	Raw       string  // original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against an offline summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against summary.
func (e *Evaluator) Evaluate(summary aggregate.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, summary))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateOne(t Threshold, summary aggregate.Summary) Result {
	actual, err := extractValue(t, summary)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.3f %s %.3f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z0-9]+)(?:\.([a-z]+))?\.([a-zA-Z]+):([a-zA-Z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "http2.timeTotal:mean < 0.5"          (overall mean total time in seconds)
// - "http3.light.timeStartTransfer:p50 < 0.1" (median TTFB for one scenario)
// - "http1.sizeDownload:max <= 5000000"   (largest download in bytes)
// - "http2.timeTotal:count >= 10"         (number of successful trials)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: protocol[.scenario].metric:aggregate operator value, e.g., 'http2.timeTotal:mean < 0.5')", s)
	}

	proto := matches[1]
	scenario := matches[2]
	metric := matches[3]
	agg := strings.ToLower(matches[4])
	operator := matches[5]
	valueStr := matches[6]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !contains(protocol.LogNames, proto) {
		return Threshold{}, fmt.Errorf("unsupported protocol: %q (supported: %s)", proto, strings.Join(protocol.LogNames, ", "))
	}

	if !contains(aggregate.Metrics, metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(aggregate.Metrics, ", "))
	}

	if !isValidAggregate(agg) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: mean, avg, median, p50, min, max, stddev, count)", agg)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Protocol:  proto,
		Scenario:  scenario,
		Metric:    metric,
		Aggregate: agg,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func isValidAggregate(agg string) bool {
	return contains([]string{"mean", "avg", "median", "p50", "min", "max", "stddev", "count"}, agg)
}

func isValidOperator(operator string) bool {
	return contains([]string{"<", "<=", ">", ">=", "=="}, operator)
}

func extractValue(t Threshold, summary aggregate.Summary) (float64, error) {
	ps, ok := summary[t.Protocol]
	if !ok || !ps.HasData() {
		return 0, fmt.Errorf("no data for %s", t.Protocol)
	}

	metrics := ps.Overall
	if t.Scenario != "" {
		metrics, ok = ps.ByScenario[t.Scenario]
		if !ok {
			return 0, fmt.Errorf("no data for %s scenario %q", t.Protocol, t.Scenario)
		}
	}
	st, ok := metrics[t.Metric]
	if !ok {
		return 0, fmt.Errorf("no %s statistics for %s", t.Metric, t.Protocol)
	}
	return aggregateValue(t.Aggregate, st)
}

func aggregateValue(agg string, st stats.Stats) (float64, error) {
	switch agg {
	case "mean", "avg":
		return st.Mean, nil
	case "median", "p50":
		return st.Median, nil
	case "min":
		return st.Min, nil
	case "max":
		return st.Max, nil
	case "stddev":
		return st.StdDev, nil
	case "count":
		return float64(st.Count), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q", agg)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
