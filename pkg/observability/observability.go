package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sallliisa/apostle-http/pkg/config"
	apostle "github.com/sallliisa/apostle-http/pkg/http"
	"github.com/sallliisa/apostle-http/pkg/logger"
	"github.com/sallliisa/apostle-http/pkg/version"
)

// Config keys read by New.
const (
	KeyServiceName   = "observability.service_name"
	KeyOTLPEndpoint  = "observability.otlp_endpoint"
	KeyOTLPInsecure  = "observability.otlp_insecure"
	KeySampleRatio   = "observability.sample_ratio"
	KeySetGlobal     = "observability.set_global"
	defaultService   = "apostle"
	defaultEndpoint  = "localhost:4318"
	shutdownDeadline = 5 * time.Second
)

// ObservabilityIface is what dispatch code needs from tracing.
type ObservabilityIface interface {
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
	Shutdown(ctx context.Context) error
	// ForceFlush exports every finished span still buffered.
	ForceFlush(ctx context.Context) error
	GetTracer() trace.Tracer
	Propagator() propagation.TextMapPropagator
	// ClientOption wires the tracer and propagator into an apostle client.
	ClientOption() apostle.ClientOption
}

// Observability owns a tracer provider and the tracer handed to clients.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
	log            logger.LogManager
	serviceName    string
}

// New builds an OTLP/HTTP exporting tracer provider from cfg.
func New(log logger.LogManager, cfg *config.Config) (ObservabilityIface, error) {
	var opts []otlptracehttp.Option
	opts = append(opts, otlptracehttp.WithEndpoint(cfg.GetStringD(KeyOTLPEndpoint, defaultEndpoint)))
	if cfg.GetBoolD(KeyOTLPInsecure, true) {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return NewWithExporter(log, cfg, exporter)
}

// NewWithExporter is New with a caller supplied span exporter.
func NewWithExporter(log logger.LogManager, cfg *config.Config, exporter sdktrace.SpanExporter) (ObservabilityIface, error) {
	if log == nil {
		log = logger.NewNop()
	}
	serviceName := cfg.GetStringD(KeyServiceName, defaultService)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.IsSet(KeySampleRatio) {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.GetFloat64(KeySampleRatio)))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)

	if cfg.GetBoolD(KeySetGlobal, false) {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	}

	obs := &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName, trace.WithInstrumentationVersion(version.Version)),
		propagator:     prop,
		log:            log,
		serviceName:    serviceName,
	}
	log.InfoF("Observability initialized: service=%s, version=%s", serviceName, version.Version)
	return obs, nil
}

// MustNew creates a new Observability instance and panics on error
func MustNew(log logger.LogManager, cfg *config.Config) ObservabilityIface {
	obs, err := New(log, cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize observability: %v", err))
	}
	return obs
}

// StartSpan creates a new span for tracing
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and stops the provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownDeadline)
	defer cancel()

	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.ErrorF("failed to shutdown tracer provider: %v", err)
		return err
	}
	o.log.InfoF("Observability shutdown completed")
	return nil
}

func (o *Observability) ForceFlush(ctx context.Context) error {
	return o.tracerProvider.ForceFlush(ctx)
}

// GetTracer returns the tracer instance
func (o *Observability) GetTracer() trace.Tracer {
	return o.tracer
}

func (o *Observability) Propagator() propagation.TextMapPropagator {
	return o.propagator
}

func (o *Observability) ClientOption() apostle.ClientOption {
	return apostle.WithTracer(o.tracer, o.propagator)
}
