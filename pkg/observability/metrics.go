package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apostle "github.com/sallliisa/apostle-http/pkg/http"
)

const meterName = "github.com/sallliisa/apostle-http"

// OTelRecorder reports dispatches as OpenTelemetry instruments.
type OTelRecorder struct {
	dispatches metric.Int64Counter
	duration   metric.Float64Histogram
	inFlight   metric.Int64UpDownCounter
}

// NewOTelRecorder creates the instruments on mp. A nil mp uses the
// global meter provider.
func NewOTelRecorder(mp metric.MeterProvider) (*OTelRecorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	dispatches, err := meter.Int64Counter(
		"apostle.dispatches",
		metric.WithDescription("Dispatches by method and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"apostle.dispatch.duration",
		metric.WithDescription("Dispatch duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	inFlight, err := meter.Int64UpDownCounter(
		"apostle.dispatches.in_flight",
		metric.WithDescription("Dispatches currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-flight counter: %w", err)
	}
	return &OTelRecorder{dispatches: dispatches, duration: duration, inFlight: inFlight}, nil
}

// MustNewOTelRecorder panics if the instruments cannot be created.
func MustNewOTelRecorder(mp metric.MeterProvider) *OTelRecorder {
	r, err := NewOTelRecorder(mp)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize metrics: %v", err))
	}
	return r
}

func (r *OTelRecorder) DispatchStarted(ctx context.Context, method string) {
	r.inFlight.Add(ctx, 1, metric.WithAttributes(AttrHTTPMethod.String(method)))
}

func (r *OTelRecorder) DispatchFinished(ctx context.Context, method string, outcome apostle.Outcome, status int, elapsed time.Duration) {
	methodAttr := AttrHTTPMethod.String(method)
	r.inFlight.Add(ctx, -1, metric.WithAttributes(methodAttr))

	attrs := []attribute.KeyValue{methodAttr, AttrOutcome.String(string(outcome))}
	if status > 0 {
		attrs = append(attrs, AttrHTTPStatusCode.Int(status))
	}
	r.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(methodAttr, AttrOutcome.String(string(outcome))))
}

// Recorders fans every event out to rs in order.
type Recorders []apostle.Recorder

func (rs Recorders) DispatchStarted(ctx context.Context, method string) {
	for _, r := range rs {
		r.DispatchStarted(ctx, method)
	}
}

func (rs Recorders) DispatchFinished(ctx context.Context, method string, outcome apostle.Outcome, status int, elapsed time.Duration) {
	for _, r := range rs {
		r.DispatchFinished(ctx, method, outcome, status, elapsed)
	}
}

var (
	_ apostle.Recorder = (*OTelRecorder)(nil)
	_ apostle.Recorder = Recorders(nil)
)
