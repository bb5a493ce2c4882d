// Package capture runs repeated page loads against a target and appends one
// row per trial to the per-protocol logs read by the offline aggregator.
package capture

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/protobench/internal/httpclient"
	"github.com/torosent/protobench/internal/metrics"
	"github.com/torosent/protobench/internal/output"
	"github.com/torosent/protobench/internal/probe"
	"github.com/torosent/protobench/internal/runner"
	"github.com/torosent/protobench/internal/scenario"
)

const (
	progressInterval = time.Second
	baseRetryDelay   = 100 * time.Millisecond
	maxRetryDelay    = 5 * time.Second
)

// Options configures a capture.
type Options struct {
	Target      string
	LogDir      string
	Scenarios   []scenario.Profile
	Modes       []httpclient.Mode // http1 and/or http2
	Trials      int               // per scenario and mode
	Rate        float64           // trials per second, 0 = back to back
	Arrival     runner.ArrivalModel
	Retries     int
	Concurrency int // parallel trials, default 1

	Timeout          time.Duration
	Insecure         bool
	RootCAs          *x509.CertPool
	FetchConcurrency int
	Tracer           trace.Tracer
	Propagate        bool

	Logger   *slog.Logger
	Progress io.Writer // nil disables the progress line
}

// RunResult describes the trials of one scenario over one transport.
type RunResult struct {
	Mode     httpclient.Mode        `json:"mode"`
	Scenario string                 `json:"scenario"`
	LogPath  string                 `json:"logPath"`
	Trials   int64                  `json:"trials"`
	Failures int64                  `json:"failures"`
	Latency  metrics.LatencySummary `json:"latency"`
}

// Report is the outcome of a capture, one RunResult per scenario and mode.
type Report struct {
	Runs     []RunResult   `json:"runs"`
	Duration time.Duration `json:"durationNs"`
}

// Failures sums failed trials across all runs.
func (r Report) Failures() int64 {
	var n int64
	for _, run := range r.Runs {
		n += run.Failures
	}
	return n
}

func (o *Options) validate() error {
	if o.Target == "" {
		return errors.New("capture target is required")
	}
	if o.LogDir == "" {
		return errors.New("capture log dir is required")
	}
	if len(o.Scenarios) == 0 {
		return errors.New("capture needs at least one scenario")
	}
	if len(o.Modes) == 0 {
		return errors.New("capture needs at least one mode")
	}
	for _, m := range o.Modes {
		if m != httpclient.ModeHTTP1 && m != httpclient.ModeHTTP2 {
			return fmt.Errorf("capture mode must be http1 or http2, got %q", m)
		}
	}
	if o.Trials < 1 {
		return errors.New("capture trials must be >= 1")
	}
	return nil
}

// Run captures every scenario over every mode, in order. Each mode appends to
// <LogDir>/<mode>.txt. The returned report covers the runs that started
// before ctx was cancelled.
func Run(ctx context.Context, opts Options) (Report, error) {
	if err := opts.validate(); err != nil {
		return Report{}, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	start := time.Now()
	var report Report
	for _, mode := range opts.Modes {
		lw, err := openLog(opts.LogDir, string(mode))
		if err != nil {
			return report, err
		}
		for _, profile := range opts.Scenarios {
			if ctx.Err() != nil {
				break
			}
			report.Runs = append(report.Runs, runScenario(ctx, opts, lw, mode, profile))
		}
		if err := lw.Close(); err != nil {
			return report, fmt.Errorf("close %s log: %w", mode, err)
		}
	}
	report.Duration = time.Since(start)
	return report, ctx.Err()
}

func runScenario(ctx context.Context, opts Options, lw *logWriter, mode httpclient.Mode, profile scenario.Profile) RunResult {
	logger := opts.Logger.With("mode", string(mode), "scenario", profile.Name)
	recorder := metrics.NewLatencyRecorder()

	trial := &trialRequester{
		opts:     opts,
		mode:     mode,
		profile:  profile,
		log:      lw,
		recorder: recorder,
	}

	var requester runner.Requester = trial
	requester = runner.WithLogging(requester, &slogFailureLogger{logger: logger})
	if opts.Retries > 0 {
		requester = runner.WithRetry(requester, newRetryPolicy(opts.Retries))
	}
	requester = &resultRecorder{next: requester, trial: trial}

	var progress *output.ProgressReporter
	if opts.Progress != nil {
		fmt.Fprintf(opts.Progress, "%s / %s\n", mode, profile.Name)
		progress = output.NewProgressReporter(recorder, opts.Trials, progressInterval, opts.Progress)
		progress.Start()
	}

	logger.Info("capture started", "trials", opts.Trials)
	result := runner.New(runner.Options{
		Concurrency:   opts.Concurrency,
		TotalRequests: opts.Trials,
		RatePerSecond: opts.Rate,
		ArrivalModel:  opts.Arrival,
		Requester:     requester,
	}).Run(ctx)

	if progress != nil {
		progress.Stop()
	}

	summary := recorder.Summary()
	logger.Info("capture finished",
		"trials", result.Total,
		"failures", result.Errors,
		"p50_ms", summary.P50Ms,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return RunResult{
		Mode:     mode,
		Scenario: profile.Name,
		LogPath:  lw.path,
		Trials:   result.Total,
		Failures: result.Errors,
		Latency:  summary,
	}
}

// trialRequester performs one page load per attempt. Rows are written by
// resultRecorder once retries are exhausted, so a trial produces one row.
type trialRequester struct {
	opts     Options
	mode     httpclient.Mode
	profile  scenario.Profile
	log      *logWriter
	recorder *metrics.LatencyRecorder
}

type slotKey struct{}

// trialSlot carries the summary of the successful attempt back to
// resultRecorder.
type trialSlot struct {
	summary probe.Summary
	ok      bool
}

func (t *trialRequester) Do(ctx context.Context) error {
	load, err := probe.Load(ctx, probe.Options{
		Target:      t.opts.Target,
		Scenario:    t.profile,
		Mode:        t.mode,
		Timeout:     t.opts.Timeout,
		Insecure:    t.opts.Insecure,
		RootCAs:     t.opts.RootCAs,
		Concurrency: t.opts.FetchConcurrency,
		Tracer:      t.opts.Tracer,
		Propagate:   t.opts.Propagate,
		Logger:      t.opts.Logger,
	})
	if err != nil {
		return err
	}
	summary, err := load.Summary()
	if err != nil {
		return err
	}
	if slot, ok := ctx.Value(slotKey{}).(*trialSlot); ok {
		slot.summary, slot.ok = summary, true
	}
	return nil
}

// resultRecorder records the final outcome of a trial in the latency
// recorder and the log.
type resultRecorder struct {
	next  runner.Requester
	trial *trialRequester
}

func (r *resultRecorder) Do(ctx context.Context) error {
	slot := &trialSlot{}
	err := r.next.Do(context.WithValue(ctx, slotKey{}, slot))
	if err == nil && !slot.ok {
		err = errors.New("trial finished without a summary")
	}

	if err != nil {
		r.trial.recorder.Record(0, err)
		if ctx.Err() == nil {
			if werr := r.trial.log.writeFailure(r.trial.profile.Name); werr != nil {
				return fmt.Errorf("%w (log: %v)", err, werr)
			}
		}
		return err
	}

	r.trial.recorder.Record(slot.summary.Total, nil)
	return r.trial.log.writeTrial(r.trial.profile.Name, slot.summary)
}

type slogFailureLogger struct {
	logger *slog.Logger
}

func (l *slogFailureLogger) LogFailure(err error) {
	l.logger.Warn("trial failed", "error", err)
}

// newRetryPolicy retries transient network failures and 5xx/429 documents
// with exponential backoff and jitter.
func newRetryPolicy(retries int) runner.RetryPolicy {
	source := &jitterSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}

	return runner.RetryPolicy{
		MaxAttempts: retries + 1,
		ShouldRetry: shouldRetry,
		DelayFunc: func(attempt int, err error) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			backoff := time.Duration(1<<uint(attempt-1)) * baseRetryDelay
			if backoff > maxRetryDelay {
				backoff = maxRetryDelay
			}
			return backoff + source.jitter(backoff/2)
		},
	}
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var docErr *probe.DocumentError
	if errors.As(err, &docErr) {
		if docErr.Err != nil {
			return true
		}
		return docErr.Status == http.StatusTooManyRequests || docErr.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}
