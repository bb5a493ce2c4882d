// Package probe loads a scenario page and every asset it references over a
// pinned HTTP transport, and exposes the result as navigation and resource
// timing samples.
//
// The model follows what a browser records: the document fetch becomes the
// navigation entry, each asset becomes a resource entry, DOMContentLoaded
// fires once the document body has arrived (the scenario pages load their
// scripts async), and the load event fires when the last asset completes.
package probe

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/protobench/internal/httpclient"
	"github.com/torosent/protobench/internal/scenario"
	"github.com/torosent/protobench/internal/timing"
	"github.com/torosent/protobench/internal/tracing"
)

// DefaultConcurrency matches the per-origin connection limit browsers apply
// over HTTP/1.1.
const DefaultConcurrency = 6

// ErrNotLoaded is returned by Snapshot before the page finished loading.
var ErrNotLoaded = errors.New("page load still in progress")

// Options configures one page load.
type Options struct {
	Target      string // origin, e.g. https://localhost:3000
	Scenario    scenario.Profile
	Mode        httpclient.Mode
	Timeout     time.Duration
	Insecure    bool
	RootCAs     *x509.CertPool
	Concurrency int
	Tracer      trace.Tracer
	Propagate   bool
	Logger      *slog.Logger
}

// DocumentError reports a scenario document that could not be loaded.
type DocumentError struct {
	URL    string
	Status int
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("load %s: unexpected status %d", e.URL, e.Status)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Summary condenses a page load into curl-style trial figures.
type Summary struct {
	Total         time.Duration // navigation start to load event
	Connect       time.Duration // document connection established (0 if none was made)
	StartTransfer time.Duration // first byte of the document
	BodyBytes     int64         // bodies of the document and every asset
	Protocol      string        // ALPN id of the document connection
	FailedAssets  int
}

// PageLoad is a single page load in progress. It implements timing.Source.
type PageLoad struct {
	opts   Options
	tracer trace.Tracer
	logger *slog.Logger

	done chan struct{}

	mu      sync.Mutex
	snap    timing.Snapshot
	summary Summary
	err     error
}

var _ timing.Source = (*PageLoad)(nil)

// Start begins loading the scenario page in the background. The load is
// bounded by ctx and Options.Timeout.
func Start(ctx context.Context, opts Options) (*PageLoad, error) {
	if strings.TrimSpace(opts.Target) == "" {
		return nil, errors.New("probe target is required")
	}
	if opts.Scenario.Name == "" {
		return nil, errors.New("probe scenario is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	opts.Target = strings.TrimRight(opts.Target, "/")

	client, err := httpclient.NewClient(httpclient.Options{
		Mode:            opts.Mode,
		Timeout:         opts.Timeout,
		Insecure:        opts.Insecure,
		RootCAs:         opts.RootCAs,
		MaxConnsPerHost: maxConns(opts),
	})
	if err != nil {
		return nil, err
	}

	l := &PageLoad{
		opts:   opts,
		tracer: opts.Tracer,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
	if l.tracer == nil {
		l.tracer = noop.NewTracerProvider().Tracer("")
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		go func() {
			<-l.done
			cancel()
		}()
	}

	go func() {
		defer client.CloseIdleConnections()
		l.run(ctx, client)
	}()
	return l, nil
}

// Load starts a page load and blocks until it completes.
func Load(ctx context.Context, opts Options) (*PageLoad, error) {
	l, err := Start(ctx, opts)
	if err != nil {
		return nil, err
	}
	if _, err := l.WaitLoad(ctx); err != nil {
		return nil, err
	}
	if err := l.Err(); err != nil {
		return l, err
	}
	return l, nil
}

// maxConns caps HTTP/1.1 connections at the fetch concurrency. HTTP/2
// multiplexes over one connection, which the transport reuses on its own.
func maxConns(opts Options) int {
	if opts.Mode == httpclient.ModeHTTP1 {
		return opts.Concurrency
	}
	return 0
}

func (l *PageLoad) run(ctx context.Context, client *http.Client) {
	defer close(l.done)

	ctx, span := tracing.StartPageLoadSpan(ctx, l.tracer, l.opts.Scenario.Name, string(l.opts.Mode))
	origin := time.Now()

	url := l.opts.Target + l.opts.Scenario.PagePath()
	doc, err := l.fetch(ctx, client, "navigation", url)
	if err == nil && (doc.status < 200 || doc.status > 299) {
		err = &DocumentError{URL: url, Status: doc.status}
	} else if err != nil {
		err = &DocumentError{URL: url, Err: err}
	}
	if err != nil {
		l.finish(timing.Snapshot{}, Summary{}, err)
		tracing.EndSpan(span, err)
		return
	}
	domContentLoaded := offset(origin, doc.end, 0)

	assets := l.opts.Scenario.Assets()
	resources := make([]timing.ResourceEntry, len(assets))
	var (
		wg       sync.WaitGroup
		failMu   sync.Mutex
		failed   int
		bodySum  = doc.bodyLen
		lastDone = doc.end
	)
	sem := make(chan struct{}, l.opts.Concurrency)
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset scenario.Asset) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				failMu.Lock()
				failed++
				failMu.Unlock()
				resources[i] = timing.ResourceEntry{Name: l.opts.Target + asset.Path, InitiatorType: asset.InitiatorType()}
				return
			}
			defer func() { <-sem }()

			assetURL := l.opts.Target + asset.Path
			ft, err := l.fetch(ctx, client, asset.InitiatorType(), assetURL)
			if err != nil {
				l.logger.Debug("asset fetch failed", "url", assetURL, "error", err)
			}
			res := timing.ResourceEntry{Name: assetURL, InitiatorType: asset.InitiatorType()}
			if ft != nil {
				ft.mu.Lock()
				start, end := ft.start, ft.end
				ft.mu.Unlock()
				res.StartTime = offset(origin, start, 0)
				res.Duration = float64(end.Sub(start)) / float64(time.Millisecond)
				res.RequestStart = ft.requestStart(origin)
				res.ResponseStart = ft.responseStart(origin)
				if err == nil {
					res.TransferSize = ft.headerLen + ft.bodyLen
					res.EncodedBodySize = ft.bodyLen
					res.NextHopProtocol = ft.protocol
				}
			}
			resources[i] = res

			failMu.Lock()
			defer failMu.Unlock()
			if err != nil {
				failed++
				return
			}
			bodySum += ft.bodyLen
			if ft.end.After(lastDone) {
				lastDone = ft.end
			}
		}(i, asset)
	}
	wg.Wait()

	loadEnd := offset(origin, lastDone, domContentLoaded)
	nav := timing.NavigationEntry{
		Name:                     url,
		FetchStart:               0,
		RequestStart:             doc.requestStart(origin),
		ResponseStart:            doc.responseStart(origin),
		DOMContentLoadedEventEnd: domContentLoaded,
		LoadEventEnd:             loadEnd,
		TransferSize:             doc.headerLen + doc.bodyLen,
		NextHopProtocol:          doc.protocol,
	}

	summary := Summary{
		Total:         lastDone.Sub(origin),
		StartTransfer: doc.firstByte.Sub(origin),
		BodyBytes:     bodySum,
		Protocol:      doc.protocol,
		FailedAssets:  failed,
	}
	if !doc.connectDone.IsZero() {
		summary.Connect = doc.connectDone.Sub(origin)
	}
	if doc.firstByte.IsZero() {
		summary.StartTransfer = 0
	}

	l.finish(timing.Snapshot{
		Navigation: timing.PresentNavigation(nav),
		Resources:  resources,
	}, summary, nil)

	l.logger.Debug("page loaded",
		"scenario", l.opts.Scenario.Name,
		"mode", l.opts.Mode,
		"protocol", doc.protocol,
		"resources", len(resources),
		"failed", failed,
		"load_ms", loadEnd,
	)
	tracing.EndSpan(span, nil,
		attribute.String("network.protocol.name", doc.protocol),
		attribute.Int("protobench.resources", len(resources)),
		attribute.Int("protobench.failed_assets", failed),
	)
}

func (l *PageLoad) finish(snap timing.Snapshot, summary Summary, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = snap
	l.summary = summary
	l.err = err
}

// WaitLoad blocks until every fetch finished. alreadyLoaded reports whether
// that had happened before the call.
func (l *PageLoad) WaitLoad(ctx context.Context) (bool, error) {
	select {
	case <-l.done:
		return true, nil
	default:
	}
	select {
	case <-l.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Snapshot returns the timing samples of a finished load.
func (l *PageLoad) Snapshot() (timing.Snapshot, error) {
	select {
	case <-l.done:
	default:
		return timing.Snapshot{}, ErrNotLoaded
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return timing.Snapshot{}, l.err
	}
	return l.snap, nil
}

// Summary returns the curl-style figures of a finished load.
func (l *PageLoad) Summary() (Summary, error) {
	select {
	case <-l.done:
	default:
		return Summary{}, ErrNotLoaded
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary, l.err
}

// Err returns the document error of a finished load, if any.
func (l *PageLoad) Err() error {
	select {
	case <-l.done:
	default:
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
