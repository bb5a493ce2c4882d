package stats

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func TestComputeEmpty(t *testing.T) {
	if got := Compute(nil, BrowserPrecision); got != (Stats{}) {
		t.Fatalf("Compute(nil) = %+v, want zero Stats", got)
	}
	if got := Compute([]float64{math.NaN(), math.Inf(1)}, BrowserPrecision); got != (Stats{}) {
		t.Fatalf("Compute(non-finite) = %+v, want zero Stats", got)
	}
}

func TestStatsJSONCarriesCount(t *testing.T) {
	for _, values := range [][]float64{nil, {1.5, 2.5}} {
		data, err := json.Marshal(Compute(values, OfflinePrecision))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		for _, key := range []string{"mean", "median", "min", "max", "stdDev", "count"} {
			if _, ok := fields[key]; !ok {
				t.Errorf("%s missing from %s", key, data)
			}
		}
		if fields["count"] != float64(len(values)) {
			t.Errorf("count = %v, want %d", fields["count"], len(values))
		}
	}
}

func TestComputeKnownValues(t *testing.T) {
	got := Compute([]float64{2, 4, 4, 4, 5, 5, 7, 9}, BrowserPrecision)
	want := Stats{Mean: 5, Median: 4.5, Min: 2, Max: 9, StdDev: 2, Count: 8}
	if got != want {
		t.Fatalf("Compute() = %+v, want %+v", got, want)
	}
}

func TestComputeOddMedian(t *testing.T) {
	got := Compute([]float64{30, 10, 20}, BrowserPrecision)
	if got.Median != 20 {
		t.Errorf("median = %v, want 20", got.Median)
	}
	if got.Mean != 20 {
		t.Errorf("mean = %v, want 20", got.Mean)
	}
	if got.StdDev != 8.16 {
		t.Errorf("stdDev = %v, want 8.16", got.StdDev)
	}
}

func TestComputePrecision(t *testing.T) {
	values := []float64{0.1234, 0.2346, 0.3456}
	two := Compute(values, BrowserPrecision)
	three := Compute(values, OfflinePrecision)

	if two.Mean != 0.23 {
		t.Errorf("2-decimal mean = %v, want 0.23", two.Mean)
	}
	if three.Mean != 0.235 {
		t.Errorf("3-decimal mean = %v, want 0.235", three.Mean)
	}
	if three.Min != 0.123 || three.Max != 0.346 {
		t.Errorf("3-decimal min/max = %v/%v, want 0.123/0.346", three.Min, three.Max)
	}
}

func TestComputeSingleValue(t *testing.T) {
	got := Compute([]float64{0.25}, OfflinePrecision)
	want := Stats{Mean: 0.25, Median: 0.25, Min: 0.25, Max: 0.25, StdDev: 0, Count: 1}
	if got != want {
		t.Fatalf("Compute() = %+v, want %+v", got, want)
	}
}

func TestComputeBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 1 + rnd.Intn(40)
		values := make([]float64, n)
		for j := range values {
			values[j] = rnd.Float64()*1000 - 100
		}
		s := Compute(values, 6)
		if s.Min > s.Median || s.Median > s.Max {
			t.Fatalf("median out of bounds: %+v", s)
		}
		if s.Min > s.Mean || s.Mean > s.Max {
			t.Fatalf("mean out of bounds: %+v", s)
		}
		if s.StdDev < 0 {
			t.Fatalf("negative stdDev: %+v", s)
		}
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	values := make([]float64, 25)
	for i := range values {
		values[i] = rnd.Float64() * 3000
	}
	base := Compute(values, BrowserPrecision)

	for i := 0; i < 50; i++ {
		shuffled := append([]float64(nil), values...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Compute(shuffled, BrowserPrecision); got != base {
			t.Fatalf("permutation changed stats: %+v != %+v", got, base)
		}
	}
}

func TestComputeAnyFiltersNonNumeric(t *testing.T) {
	got := ComputeAny([]any{10, "20", nil, 30.0, true, int64(20), math.NaN()}, BrowserPrecision)
	want := Compute([]float64{10, 30, 20}, BrowserPrecision)
	if got != want {
		t.Fatalf("ComputeAny() = %+v, want %+v", got, want)
	}
	if got.Count != 3 {
		t.Fatalf("count = %d, want 3", got.Count)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v         float64
		precision int
		want      float64
	}{
		{1.005, 0, 1},
		{1.2345, 2, 1.23},
		{1.2357, 3, 1.236},
		{-0.5, 0, -1},
		{12.5, -1, 13},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.precision); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.precision, got, tt.want)
		}
	}
}
