package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/protobench/internal/httpclient"
	"github.com/torosent/protobench/internal/metrics"
	"github.com/torosent/protobench/internal/probe"
	"github.com/torosent/protobench/internal/protocol"
	"github.com/torosent/protobench/internal/scenario"
)

func newScenarioServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewUnstartedServer(h)
	server.EnableHTTP2 = true
	server.StartTLS()
	t.Cleanup(server.Close)
	return server
}

func baseOptions(t *testing.T, server *httptest.Server, name string, mode httpclient.Mode) probe.Options {
	t.Helper()
	profile, err := scenario.Parse(name)
	if err != nil {
		t.Fatalf("scenario.Parse(%q) error = %v", name, err)
	}
	return probe.Options{
		Target:   server.URL,
		Scenario: profile,
		Mode:     mode,
		Timeout:  10 * time.Second,
		RootCAs:  server.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs,
	}
}

func TestProbeLightScenarioFeedsCollector(t *testing.T) {
	server := newScenarioServer(t, scenario.Handler())

	tests := []struct {
		mode         httpclient.Mode
		wantProtocol string
	}{
		{httpclient.ModeHTTP1, protocol.HTTP1},
		{httpclient.ModeHTTP2, protocol.HTTP2},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			load, err := probe.Start(context.Background(), baseOptions(t, server, scenario.Light, tt.mode))
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			c := &metrics.Collector{Source: load, Settle: time.Millisecond}
			rec := c.CollectAfterLoad(context.Background())
			if rec.Error != "" {
				t.Fatalf("unexpected collection error: %s", rec.Error)
			}
			if rec.ResourceCount != 10 {
				t.Errorf("resourceCount = %d, want 10", rec.ResourceCount)
			}
			if rec.Protocol != tt.wantProtocol {
				t.Errorf("protocol = %q, want %q", rec.Protocol, tt.wantProtocol)
			}
			if rec.TotalSize <= 0 {
				t.Errorf("totalSize = %d, want > 0", rec.TotalSize)
			}
			if rec.FullLoad < rec.DOMLoad {
				t.Errorf("fullLoad %v should not precede domLoad %v", rec.FullLoad, rec.DOMLoad)
			}
			for _, res := range rec.Resources {
				if res.Size <= 0 {
					t.Errorf("resource %s has no size", res.Name)
				}
			}
		})
	}
}

func TestProbeSummary(t *testing.T) {
	server := newScenarioServer(t, scenario.Handler())

	load, err := probe.Load(context.Background(), baseOptions(t, server, scenario.Light, httpclient.ModeHTTP2))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	summary, err := load.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Protocol != "h2" {
		t.Errorf("Protocol = %q, want h2", summary.Protocol)
	}
	if summary.Connect <= 0 || summary.StartTransfer < summary.Connect || summary.Total < summary.StartTransfer {
		t.Errorf("phases out of order: %+v", summary)
	}
	if summary.FailedAssets != 0 {
		t.Errorf("FailedAssets = %d, want 0", summary.FailedAssets)
	}

	profile, _ := scenario.Parse(scenario.Light)
	var minBody int64
	for _, a := range profile.Assets() {
		minBody += int64(len(a.Content()))
	}
	if summary.BodyBytes < minBody {
		t.Errorf("BodyBytes = %d, want at least the asset bodies %d", summary.BodyBytes, minBody)
	}
}

func TestProbeMissingDocument(t *testing.T) {
	server := newScenarioServer(t, http.NotFoundHandler())

	_, err := probe.Load(context.Background(), baseOptions(t, server, scenario.Light, httpclient.ModeAuto))
	var docErr *probe.DocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("expected DocumentError, got %v", err)
	}
	if docErr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", docErr.Status)
	}
}

func TestProbeFailedDocumentFoldsIntoRecord(t *testing.T) {
	server := newScenarioServer(t, http.NotFoundHandler())

	load, err := probe.Start(context.Background(), baseOptions(t, server, scenario.Light, httpclient.ModeAuto))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	rec := (&metrics.Collector{Source: load, Settle: time.Millisecond}).CollectAfterLoad(context.Background())
	if rec.Error == "" || rec.Protocol != protocol.Unknown {
		t.Fatalf("expected failure record, got %+v", rec)
	}
}

func TestProbeSnapshotBeforeLoad(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		scenario.Handler().ServeHTTP(w, r)
	})
	server := newScenarioServer(t, handler)

	load, err := probe.Start(context.Background(), baseOptions(t, server, scenario.Light, httpclient.ModeHTTP2))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := load.Snapshot(); !errors.Is(err, probe.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}

	type waitResult struct {
		already bool
		err     error
	}
	waited := make(chan waitResult, 1)
	go func() {
		already, err := load.WaitLoad(context.Background())
		waited <- waitResult{already, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	res := <-waited
	if res.err != nil {
		t.Fatalf("WaitLoad() error = %v", res.err)
	}
	if res.already {
		t.Error("expected WaitLoad to report it had to wait")
	}
	if already, _ := load.WaitLoad(context.Background()); !already {
		t.Error("second WaitLoad should report alreadyLoaded")
	}
}

func TestProbeEmitsSpans(t *testing.T) {
	server := newScenarioServer(t, scenario.Handler())

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	opts := baseOptions(t, server, scenario.Light, httpclient.ModeHTTP2)
	opts.Tracer = tp.Tracer("test")
	if _, err := probe.Load(context.Background(), opts); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	spans := exporter.GetSpans()
	// one page span plus the document and ten assets
	if len(spans) != 12 {
		t.Fatalf("got %d spans, want 12", len(spans))
	}
	last := spans[len(spans)-1]
	if last.Name != "page load light" {
		t.Errorf("last span = %q, want the page load span", last.Name)
	}
}

func TestStartValidatesOptions(t *testing.T) {
	profile, _ := scenario.Parse(scenario.Light)
	if _, err := probe.Start(context.Background(), probe.Options{Scenario: profile}); err == nil {
		t.Error("expected error without target")
	}
	if _, err := probe.Start(context.Background(), probe.Options{Target: "http://localhost"}); err == nil {
		t.Error("expected error without scenario")
	}
	if _, err := probe.Start(context.Background(), probe.Options{Target: "http://localhost", Scenario: profile, Mode: "spdy"}); err == nil {
		t.Error("expected error for unsupported mode")
	}
}
