package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyRecorder records per-trial latencies in a thread-safe manner.
type LatencyRecorder struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	errorsByType map[string]int64
}

// LatencySummary is the aggregated view of a LatencyRecorder.
type LatencySummary struct {
	Total      int64         `json:"total"`
	Successes  int64         `json:"successes"`
	Failures   int64         `json:"failures"`
	MinLatency time.Duration `json:"-"`
	MaxLatency time.Duration `json:"-"`
	Mean       time.Duration `json:"-"`
	P50        time.Duration `json:"-"`
	P90        time.Duration `json:"-"`
	P99        time.Duration `json:"-"`

	MinLatencyMs float64        `json:"min_latency_ms"`
	MaxLatencyMs float64        `json:"max_latency_ms"`
	MeanMs       float64        `json:"mean_latency_ms"`
	P50Ms        float64        `json:"p50_latency_ms"`
	P90Ms        float64        `json:"p90_latency_ms"`
	P99Ms        float64        `json:"p99_latency_ms"`
	Errors       map[string]int `json:"errors,omitempty"`
}

func NewLatencyRecorder() *LatencyRecorder {
	// 1µs up to 5 minutes; large pages over slow links can take a while.
	return &LatencyRecorder{
		hist:         hdrhistogram.New(1, 300_000_000, 3),
		errorsByType: make(map[string]int64),
	}
}

// Record adds one trial's latency and outcome.
func (r *LatencyRecorder) Record(latency time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.failures++
		r.errorsByType[fmt.Sprintf("%T", err)]++
		return
	}

	r.successes++
	us := latency.Microseconds()
	if us < r.hist.LowestTrackableValue() {
		us = r.hist.LowestTrackableValue()
	}
	if us > r.hist.HighestTrackableValue() {
		us = r.hist.HighestTrackableValue()
	}
	_ = r.hist.RecordValue(us)
	r.sumLatency += latency

	if r.minLatency == 0 || latency < r.minLatency {
		r.minLatency = latency
	}
	if latency > r.maxLatency {
		r.maxLatency = latency
	}
}

// Summary returns the current aggregate. Latency figures cover successful
// trials only.
func (r *LatencyRecorder) Summary() LatencySummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := LatencySummary{
		Total:      r.successes + r.failures,
		Successes:  r.successes,
		Failures:   r.failures,
		MinLatency: r.minLatency,
		MaxLatency: r.maxLatency,
	}
	if r.successes > 0 {
		s.Mean = time.Duration(int64(r.sumLatency) / r.successes)
	}
	if r.hist.TotalCount() > 0 {
		s.P50 = time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond
		s.P90 = time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond
		s.P99 = time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	s.MinLatencyMs = durationMs(s.MinLatency)
	s.MaxLatencyMs = durationMs(s.MaxLatency)
	s.MeanMs = durationMs(s.Mean)
	s.P50Ms = durationMs(s.P50)
	s.P90Ms = durationMs(s.P90)
	s.P99Ms = durationMs(s.P99)

	if len(r.errorsByType) > 0 {
		s.Errors = make(map[string]int, len(r.errorsByType))
		for k, v := range r.errorsByType {
			s.Errors[k] = int(v)
		}
	}
	return s
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
