package http

import (
	"context"
	stdErrors "errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Dispatch runs one request through the pipeline: build, send, classify,
// decode, transform. Exactly one effect hook runs. On failure the error
// returned is whatever Effect.OnError returned.
//
// With ResponseRaw the returned *Response body is left open and must be
// closed by the caller.
func (c *Client) Dispatch(ctx context.Context, req *Request) (any, error) {
	var r Request
	if req != nil {
		r = *req
	}
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	req = &r

	start := time.Now()
	ctx, span := c.startSpan(ctx, req)
	defer span.End()
	if c.recorder != nil {
		c.recorder.DispatchStarted(ctx, req.Method)
	}
	if c.logger != nil {
		c.logger.DebugFCtx(ctx, "dispatch %s %s", req.Method, req.Path)
	}

	value, resp, cleanup, err := c.roundTrip(ctx, req)
	if err != nil {
		outcome, status := classify(err)
		surfaced := c.fail(ctx, err)
		cleanup()
		c.finish(ctx, span, req.Method, outcome, status, start, err)
		return nil, surfaced
	}

	c.effect.OnSuccess(ctx, resp)
	cleanup()
	c.finish(ctx, span, req.Method, OutcomeSuccess, resp.StatusCode(), start, nil)
	return value, nil
}

// roundTrip performs Building, InFlight and Decoding. cleanup is never nil
// and must run once the effect hook has returned.
func (c *Client) roundTrip(ctx context.Context, req *Request) (value any, resp *Response, cleanup func(), err error) {
	cleanup = func() {}

	httpReq, cancel, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, nil, cleanup, err
	}
	if c.tracer != nil {
		c.propagator.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	}

	raw, err := c.fetcher.Do(httpReq)
	if err != nil {
		return nil, nil, cancel, &TransportError{Method: req.Method, URL: httpReq.URL.String(), Err: err}
	}

	resp = newResponse(raw)
	if !resp.OK() {
		resp.buffer(maxErrorBody)
		return nil, nil, cancel, &StatusError{Response: resp}
	}

	rt := ResolveResponseType(c.config, req.ResponseType, resp.ContentType())
	if rt == ResponseRaw {
		if raw.Body != nil {
			raw.Body = &cancelOnClose{ReadCloser: raw.Body, cancel: cancel}
		} else {
			cleanup = cancel
		}
		return c.transformer.response(resp), resp, cleanup, nil
	}

	decoded, err := resp.decode(rt)
	resp.Close()
	if err != nil {
		return nil, nil, cancel, &DecodeError{ResponseType: rt, StatusCode: resp.StatusCode(), Err: err}
	}
	return c.transformer.response(decoded), resp, cancel, nil
}

// fail hands err to the error hook and returns what the caller observes.
func (c *Client) fail(ctx context.Context, err error) error {
	if c.logger != nil {
		c.logger.WarnFCtx(ctx, "dispatch failed: %v", err)
	}
	if surfaced := c.effect.OnError(ctx, err); surfaced != nil {
		return surfaced
	}
	return err
}

func classify(err error) (Outcome, int) {
	var (
		te *TransportError
		se *StatusError
		de *DecodeError
	)
	switch {
	case stdErrors.As(err, &te):
		return OutcomeTransportError, 0
	case stdErrors.As(err, &se):
		return OutcomeStatusError, se.Response.StatusCode()
	case stdErrors.As(err, &de):
		return OutcomeDecodeError, de.StatusCode
	}
	return OutcomeBuildError, 0
}

func (c *Client) startSpan(ctx context.Context, req *Request) (context.Context, trace.Span) {
	if c.tracer == nil {
		// non-recording span; ending it leaves the caller's span alone
		return ctx, trace.SpanFromContext(context.Background())
	}
	return c.tracer.Start(ctx, "apostle "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", req.Path),
		),
	)
}

func (c *Client) finish(ctx context.Context, span trace.Span, method string, outcome Outcome, status int, start time.Time, err error) {
	elapsed := time.Since(start)
	if c.recorder != nil {
		c.recorder.DispatchFinished(ctx, method, outcome, status, elapsed)
	}
	if c.tracer == nil {
		return
	}
	span.SetAttributes(
		attribute.String("apostle.outcome", string(outcome)),
		attribute.Int64("http.duration_ms", elapsed.Milliseconds()),
	)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(outcome))
		return
	}
	span.SetStatus(codes.Ok, "")
}
