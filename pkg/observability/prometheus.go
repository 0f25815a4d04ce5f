package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apostle "github.com/sallliisa/apostle-http/pkg/http"
)

// PrometheusRecorder holds dispatch metrics in its own registry.
type PrometheusRecorder struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   prometheus.Gauge
	registry   *prometheus.Registry
}

// NewPrometheusRecorder creates and registers the dispatch metrics.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	dispatches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Total number of dispatched requests",
		},
		[]string{"method", "outcome", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Histogram of dispatch durations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatches_in_flight",
		Help:      "Current number of in-flight dispatches",
	})

	reg.MustRegister(dispatches, duration, inFlight)

	return &PrometheusRecorder{
		dispatches: dispatches,
		duration:   duration,
		inFlight:   inFlight,
		registry:   reg,
	}
}

func (p *PrometheusRecorder) DispatchStarted(_ context.Context, _ string) {
	p.inFlight.Inc()
}

func (p *PrometheusRecorder) DispatchFinished(_ context.Context, method string, outcome apostle.Outcome, status int, elapsed time.Duration) {
	p.inFlight.Dec()
	p.dispatches.WithLabelValues(method, string(outcome), strconv.Itoa(status)).Inc()
	p.duration.WithLabelValues(method, string(outcome)).Observe(elapsed.Seconds())
}

// Registry exposes the registry for scraping or tests.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

var _ apostle.Recorder = (*PrometheusRecorder)(nil)
