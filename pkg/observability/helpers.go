package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apostle "github.com/sallliisa/apostle-http/pkg/http"
)

// SpanFromContext retrieves the current span from context
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanAttributes adds attributes to the current span
func AddSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// RecordSpanError records an error on the current span
func RecordSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SpanEventEffect wraps next so the hooks leave a trace on the dispatch
// span: an "apostle.response" event on success, the surfaced error on
// failure. A nil next behaves like apostle.NopEffect.
func SpanEventEffect(next apostle.Effect) apostle.Effect {
	if next == nil {
		next = apostle.NopEffect
	}
	return apostle.EffectFuncs{
		Success: func(ctx context.Context, resp *apostle.Response) {
			AddSpanEvent(ctx, "apostle.response",
				AttrHTTPStatusCode.Int(resp.StatusCode()),
				attribute.String("http.content_type", resp.ContentType()),
			)
			next.OnSuccess(ctx, resp)
		},
		Error: func(ctx context.Context, err error) error {
			surfaced := next.OnError(ctx, err)
			if surfaced == nil {
				surfaced = err
			}
			RecordSpanError(ctx, surfaced)
			return surfaced
		},
	}
}

// Common span attribute keys
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPURL        = attribute.Key("http.url")
	AttrOutcome        = attribute.Key("apostle.outcome")
	AttrRequestID      = attribute.Key("request.id")
)
