// Package stats computes descriptive statistics over numeric samples.
package stats

import (
	"math"
	"sort"
)

// Precisions used by the two aggregation sites.
const (
	BrowserPrecision = 2
	OfflinePrecision = 3
)

// Stats summarises a numeric sample. Count is the number of finite values
// that contributed.
type Stats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`
	Count  int     `json:"count" yaml:"count"`
}

// Compute returns mean, median, min, max and population standard deviation of
// values, each rounded to precision decimals. NaN and infinite values are
// ignored; an empty input yields zero Stats. The result does not depend on
// the order of values.
func Compute(values []float64, precision int) Stats {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	n := len(sorted)
	if n == 0 {
		return Stats{}
	}
	sort.Float64s(sorted)

	// Summing the sorted copy keeps float addition order fixed across permutations.
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}
	stdDev := math.Sqrt(sq / float64(n))

	return Stats{
		Mean:   Round(mean, precision),
		Median: Round(median, precision),
		Min:    Round(sorted[0], precision),
		Max:    Round(sorted[n-1], precision),
		StdDev: Round(stdDev, precision),
		Count:  n,
	}
}

// ComputeAny is Compute over heterogeneous input; values that are not
// numbers are dropped.
func ComputeAny(values []any, precision int) Stats {
	numeric := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			numeric = append(numeric, f)
		}
	}
	return Compute(numeric, precision)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
