package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartPageLoadSpan starts the parent span covering one scenario page load.
func StartPageLoadSpan(ctx context.Context, tracer trace.Tracer, scenario, mode string) (context.Context, trace.Span) {
	spanName := "page load"
	if scenario != "" {
		spanName = "page load " + scenario
	}
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("protobench.scenario", scenario),
		attribute.String("protobench.mode", mode),
	)
	return ctx, span
}

// StartFetchSpan starts a child span for a single document or asset fetch.
func StartFetchSpan(ctx context.Context, tracer trace.Tracer, initiator, url string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "GET "+initiator,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodGet),
		attribute.String("url.full", url),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
