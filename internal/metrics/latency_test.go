package metrics_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/torosent/protobench/internal/metrics"
)

func TestLatencyRecorderSummary(t *testing.T) {
	r := metrics.NewLatencyRecorder()

	r.Record(10*time.Millisecond, nil)
	r.Record(20*time.Millisecond, nil)
	r.Record(30*time.Millisecond, nil)
	r.Record(40*time.Millisecond, nil)
	r.Record(50*time.Millisecond, nil)
	r.Record(0, errors.New("connection reset"))

	s := r.Summary()
	if s.Total != 6 || s.Successes != 5 || s.Failures != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.MinLatency != 10*time.Millisecond {
		t.Errorf("expected min 10ms, got %s", s.MinLatency)
	}
	if s.MaxLatency != 50*time.Millisecond {
		t.Errorf("expected max 50ms, got %s", s.MaxLatency)
	}
	if s.Mean != 30*time.Millisecond {
		t.Errorf("expected mean 30ms, got %s", s.Mean)
	}
	if s.Errors["*errors.errorString"] != 1 {
		t.Errorf("expected error breakdown, got %v", s.Errors)
	}
}

func TestLatencyRecorderPercentiles(t *testing.T) {
	r := metrics.NewLatencyRecorder()
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i)*time.Millisecond, nil)
	}

	s := r.Summary()
	if s.P50 < 49*time.Millisecond || s.P50 > 51*time.Millisecond {
		t.Errorf("expected P50 ~50ms, got %s", s.P50)
	}
	if s.P90 < 89*time.Millisecond || s.P90 > 91*time.Millisecond {
		t.Errorf("expected P90 ~90ms, got %s", s.P90)
	}
	if s.P99 < 98*time.Millisecond || s.P99 > 100*time.Millisecond {
		t.Errorf("expected P99 ~99ms, got %s", s.P99)
	}
	if s.P50Ms < 49 || s.P50Ms > 51 {
		t.Errorf("expected P50Ms ~50, got %v", s.P50Ms)
	}
}

func TestLatencyRecorderConcurrent(t *testing.T) {
	r := metrics.NewLatencyRecorder()

	var wg sync.WaitGroup
	workers, perWorker := 8, 50
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				r.Record(time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	if got := r.Summary().Total; got != int64(workers*perWorker) {
		t.Fatalf("expected total %d, got %d", workers*perWorker, got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:          "0 B",
		512:        "512 B",
		1024:       "1 KB",
		1536:       "1.5 KB",
		10 * 1024:  "10 KB",
		1048576:    "1 MB",
		5368709120: "5 GB",
		-20:        "0 B",
	}
	for in, want := range tests {
		if got := metrics.FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMillis(t *testing.T) {
	tests := map[float64]string{
		0:      "0 ms",
		12.6:   "13 ms",
		999.4:  "999 ms",
		1000:   "1 s",
		1234.5: "1.23 s",
	}
	for in, want := range tests {
		if got := metrics.FormatMillis(in); got != want {
			t.Errorf("FormatMillis(%v) = %q, want %q", in, got, want)
		}
	}
}
