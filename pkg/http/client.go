package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/sallliisa/apostle-http/pkg/logger"
	"github.com/sallliisa/apostle-http/pkg/version"
)

// Recorder observes dispatch outcomes. Implementations live in
// pkg/observability.
type Recorder interface {
	DispatchStarted(ctx context.Context, method string)
	DispatchFinished(ctx context.Context, method string, outcome Outcome, status int, elapsed time.Duration)
}

// Outcome classifies how a dispatch ended, before the error hook ran.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeBuildError     Outcome = "build_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeStatusError    Outcome = "status_error"
	OutcomeDecodeError    Outcome = "decode_error"
)

// Client dispatches requests against a base URL. Everything it holds is
// fixed at construction, so a Client is safe for concurrent use.
type Client struct {
	fetcher      Fetcher
	rawBaseURL   string
	baseURL      *url.URL
	baseInit     Init
	effect       Effect
	transformer  Transformer
	interceptors []Interceptor
	interceptor  Interceptor
	config       Configuration
	logger       logger.LogManager
	recorder     Recorder
	tracer       trace.Tracer
	propagator   propagation.TextMapPropagator
	userAgent    string
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithFetcher sets the network primitive. Defaults to a plain *http.Client
// without a timeout.
func WithFetcher(f Fetcher) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithHTTPClient sets a *http.Client as the network primitive.
func WithHTTPClient(hc *http.Client) ClientOption {
	return WithFetcher(hc)
}

// WithBaseURL sets the URL every path is joined onto.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.rawBaseURL = strings.TrimSpace(baseURL)
	}
}

// WithBaseInit sets the default request options merged under every call.
func WithBaseInit(init Init) ClientOption {
	return func(c *Client) {
		c.baseInit = init.Clone()
	}
}

// WithEffect sets the success and error hooks.
func WithEffect(e Effect) ClientOption {
	return func(c *Client) {
		if e != nil {
			c.effect = e
		}
	}
}

// WithTransformer sets the request and response body mappers.
func WithTransformer(t Transformer) ClientOption {
	return func(c *Client) {
		c.transformer = t
	}
}

// WithInterceptor appends an interceptor. Interceptors run in the order
// they were added.
func WithInterceptor(ic Interceptor) ClientOption {
	return func(c *Client) {
		if ic != nil {
			c.interceptors = append(c.interceptors, ic)
		}
	}
}

// WithConfiguration sets the content negotiation flags.
func WithConfiguration(cfg Configuration) ClientOption {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithLogger sets a logger for the client.
func WithLogger(l logger.LogManager) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRecorder sets a metrics recorder.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithTracer wraps every dispatch in a client span and injects the trace
// context into the outgoing headers. A nil propagator means W3C trace context.
func WithTracer(t trace.Tracer, p propagation.TextMapPropagator) ClientOption {
	return func(c *Client) {
		c.tracer = t
		if p == nil {
			p = propagation.TraceContext{}
		}
		c.propagator = p
	}
}

// WithUserAgent overrides the default User-Agent header. An empty value
// stops the client from setting one.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new dispatch client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		fetcher:   &http.Client{},
		effect:    NopEffect,
		config:    DefaultConfiguration(),
		userAgent: version.UserAgent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.rawBaseURL != "" {
		parsed, err := url.Parse(c.rawBaseURL)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidBaseURL, "%s: %v", c.rawBaseURL, err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return nil, errors.Wrapf(ErrInvalidBaseURL, "%s: scheme and host are required", c.rawBaseURL)
		}
		c.baseURL = parsed
	}

	if len(c.interceptors) > 0 {
		c.interceptor = chainInterceptors(c.interceptors)
	}

	return c, nil
}

// Configuration returns the client's negotiation flags.
func (c *Client) Configuration() Configuration { return c.config }

// BaseURL returns the parsed base URL, or nil.
func (c *Client) BaseURL() *url.URL {
	if c.baseURL == nil {
		return nil
	}
	u := *c.baseURL
	return &u
}
