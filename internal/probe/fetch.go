package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/protobench/internal/httpclient"
	"github.com/torosent/protobench/internal/tracing"
)

// fetchTiming holds the instants of one request's lifecycle. Zero instants
// mean the phase did not happen (e.g. no connect on a reused connection).
type fetchTiming struct {
	mu          sync.Mutex
	start       time.Time
	connectDone time.Time
	gotConn     time.Time
	firstByte   time.Time
	end         time.Time
	reused      bool

	status    int
	protocol  string
	headerLen int64
	bodyLen   int64
}

func (f *fetchTiming) clientTrace() *httptrace.ClientTrace {
	mark := func(t *time.Time) {
		f.mu.Lock()
		*t = time.Now()
		f.mu.Unlock()
	}
	return &httptrace.ClientTrace{
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				mark(&f.connectDone)
			}
		},
		TLSHandshakeDone: func(cs tls.ConnectionState, err error) {
			if err == nil {
				mark(&f.connectDone)
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			f.mu.Lock()
			f.gotConn = time.Now()
			f.reused = info.Reused
			f.mu.Unlock()
		},
		GotFirstResponseByte: func() { mark(&f.firstByte) },
	}
}

// fetch GETs url and drains the body, recording timing and sizes.
func (l *PageLoad) fetch(ctx context.Context, client *http.Client, initiator, url string) (*fetchTiming, error) {
	ft := &fetchTiming{}

	ctx, span := tracing.StartFetchSpan(ctx, l.tracer, initiator, url)
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, ft.clientTrace()), http.MethodGet, url, nil)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	if l.opts.Propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	ft.start = time.Now()
	resp, err := client.Do(req)
	if err != nil {
		ft.end = time.Now()
		tracing.EndSpan(span, err)
		return ft, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)

	ft.mu.Lock()
	ft.end = time.Now()
	ft.status = resp.StatusCode
	ft.protocol = httpclient.NegotiatedProtocol(resp)
	ft.headerLen = headerBytes(resp)
	ft.bodyLen = n
	ft.mu.Unlock()

	endFetchSpan(span, ft, err)
	if err != nil {
		return ft, fmt.Errorf("read body: %w", err)
	}
	return ft, nil
}

func endFetchSpan(span trace.Span, ft *fetchTiming, err error) {
	tracing.EndSpan(span, err,
		attribute.Int("http.response.status_code", ft.status),
		attribute.String("network.protocol.name", ft.protocol),
		attribute.Int64("http.response.body.size", ft.bodyLen),
		attribute.Bool("protobench.connection_reused", ft.reused),
	)
}

// headerBytes approximates the response header size as serialized in
// HTTP/1.1 form. HPACK-compressed HTTP/2 headers are smaller on the wire.
func headerBytes(resp *http.Response) int64 {
	n := int64(len(resp.Proto) + len(resp.Status) + 3)
	for k, vs := range resp.Header {
		for _, v := range vs {
			n += int64(len(k) + len(v) + 4)
		}
	}
	return n + 2
}

// offset converts t into milliseconds since origin. Zero instants map to the
// fallback offset.
func offset(origin, t time.Time, fallback float64) float64 {
	if t.IsZero() {
		return fallback
	}
	return float64(t.Sub(origin)) / float64(time.Millisecond)
}

// requestStart is when the request was handed to a connection.
func (f *fetchTiming) requestStart(origin time.Time) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return offset(origin, f.gotConn, offset(origin, f.start, 0))
}

// responseStart is the first response byte, or the request start when no
// response arrived.
func (f *fetchTiming) responseStart(origin time.Time) float64 {
	f.mu.Lock()
	firstByte := f.firstByte
	f.mu.Unlock()
	return offset(origin, firstByte, f.requestStart(origin))
}
