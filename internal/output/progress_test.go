package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/torosent/protobench/internal/metrics"
)

func TestProgressReporterStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(metrics.NewLatencyRecorder(), 3, 100*time.Millisecond, &buf)
	if reporter == nil {
		t.Fatal("Expected non-nil reporter")
	}
	reporter.Stop()
	if buf.Len() != 0 {
		t.Errorf("expected no output from an idle reporter, got %q", buf.String())
	}
}

func TestProgressReporterFormatting(t *testing.T) {
	recorder := metrics.NewLatencyRecorder()
	recorder.Record(50*time.Millisecond, nil)
	recorder.Record(0, errors.New("timeout"))

	var buf bytes.Buffer
	reporter := NewProgressReporter(recorder, 6, 20*time.Millisecond, &buf)
	reporter.Start()
	reporter.Start() // second start is a no-op

	time.Sleep(60 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Trials: 2/6") {
		t.Errorf("expected trial counter in progress output, got %q", output)
	}
	if !strings.Contains(output, "Failures: 1") {
		t.Errorf("expected failure count in progress output, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected Stop to end the progress line")
	}
}
