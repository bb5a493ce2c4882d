package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/protobench/internal/metrics"
)

// ProgressReporter displays trial progress while a capture runs.
type ProgressReporter struct {
	recorder *metrics.LatencyRecorder
	planned  int64
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. planned is the expected number of trials; 0 hides the total.
func NewProgressReporter(recorder *metrics.LatencyRecorder, planned int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		recorder: recorder,
		planned:  int64(planned),
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and ends the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprint(p.writer, p.line(), "\n")
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	s := p.recorder.Summary()
	line := fmt.Sprintf("\rTrials: %d", s.Total)
	if p.planned > 0 {
		line += fmt.Sprintf("/%d", p.planned)
	}
	line += fmt.Sprintf(" | Failures: %d | Elapsed: %s", s.Failures, time.Since(p.start).Round(time.Second))
	if s.Successes > 0 {
		line += fmt.Sprintf(" | P50 %.1fms | P99 %.1fms", s.P50Ms, s.P99Ms)
	}
	return line
}
