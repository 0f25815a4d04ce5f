package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Request describes one dispatch. It is consumed by a single Dispatch call.
type Request struct {
	Method string
	// Path is joined onto the client's base URL. It may carry its own
	// query string, which is merged with Query.
	Path  string
	Query Query
	Body  Body
	// ResponseType, when set, overrides content-type inference and the default.
	ResponseType *ResponseType
	// Init overrides the client's base init for this call.
	Init Init
}

// CallOption configures a Request built by the verb helpers.
type CallOption func(*Request)

// WithQuery sets the query parameters of the call.
func WithQuery(q Query) CallOption {
	return func(r *Request) { r.Query = q }
}

// WithResponseType forces the decode strategy of the call.
func WithResponseType(rt ResponseType) CallOption {
	return func(r *Request) { r.ResponseType = &rt }
}

// WithInit sets per-call request options.
func WithInit(init Init) CallOption {
	return func(r *Request) { r.Init = init }
}

// WithHeader adds a single per-call header.
func WithHeader(key, value string) CallOption {
	return func(r *Request) {
		if r.Init.Header == nil {
			r.Init.Header = make(http.Header)
		}
		r.Init.Header.Set(key, value)
	}
}

// WithBody sets the body of the call. Useful for DELETE, which takes no
// positional body.
func WithBody(body Body) CallOption {
	return func(r *Request) { r.Body = body }
}

// buildRequest merges inferred headers, base init, per-call init and the
// interceptor result into the concrete request. The returned cancel func
// is never nil.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, context.CancelFunc, error) {
	noop := func() {}

	body, inferred, err := negotiateRequestBody(c.config, c.transformer, req.Body)
	if err != nil {
		return nil, noop, err
	}

	var defaults Init
	if c.userAgent != "" {
		defaults.Header = http.Header{"User-Agent": {c.userAgent}}
	}
	init := mergeInit(defaults, Init{Header: inferred}, c.baseInit, req.Init)
	if c.interceptor != nil {
		if init, err = c.interceptor(ctx, init); err != nil {
			return nil, noop, errors.Wrap(err, "interceptor")
		}
	}

	target, err := c.resolveURL(req.Path, SanitizeQuery(req.Query))
	if err != nil {
		return nil, noop, err
	}

	cancel := noop
	if init.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, init.Timeout)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		cancel()
		return nil, noop, errors.Wrap(err, "creating request")
	}
	if init.Header != nil {
		httpReq.Header = init.Header
	}
	for _, cookie := range init.Cookies {
		httpReq.AddCookie(cookie)
	}
	if init.Host != "" {
		httpReq.Host = init.Host
	}
	httpReq.Close = init.Close
	return httpReq, cancel, nil
}

// resolveURL joins path onto the base URL and appends the query. An
// absolute path is used as is, base URL or not. An empty query adds no
// trailing "?".
func (c *Client) resolveURL(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrapf(err, "parsing path %q", path)
	}

	var u url.URL
	switch {
	case ref.IsAbs():
		u = *ref
	case c.baseURL == nil:
		return "", errors.Errorf("path %q is relative and the client has no base URL", path)
	default:
		u = *c.baseURL
		u.Path = joinPath(c.baseURL.Path, ref.Path)
		u.RawPath = ""
		u.RawQuery = c.baseURL.RawQuery
		if ref.RawQuery != "" {
			if u.RawQuery != "" {
				u.RawQuery += "&"
			}
			u.RawQuery += ref.RawQuery
		}
		u.Fragment = ""
	}

	if len(query) > 0 {
		existing, err := url.ParseQuery(u.RawQuery)
		if err != nil {
			return "", errors.Wrap(err, "parsing existing query")
		}
		for key, values := range query {
			for _, v := range values {
				existing.Add(key, v)
			}
		}
		u.RawQuery = existing.Encode()
	}
	return u.String(), nil
}

func joinPath(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
