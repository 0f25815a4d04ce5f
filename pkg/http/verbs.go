package http

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) call(ctx context.Context, method, path string, body Body, opts []CallOption) (any, error) {
	req := &Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(req)
	}
	return c.Dispatch(ctx, req)
}

// Get dispatches a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodGet, path, nil, opts)
}

// Post dispatches a POST request.
func (c *Client) Post(ctx context.Context, path string, body Body, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodPost, path, body, opts)
}

// Put dispatches a PUT request.
func (c *Client) Put(ctx context.Context, path string, body Body, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodPut, path, body, opts)
}

// Patch dispatches a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body Body, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodPatch, path, body, opts)
}

// Delete dispatches a DELETE request. Use WithBody to send a payload.
func (c *Client) Delete(ctx context.Context, path string, opts ...CallOption) (any, error) {
	return c.call(ctx, http.MethodDelete, path, nil, opts)
}

// As asserts the result of a dispatch to T.
//
//	user, err := http.As[map[string]any](client.Get(ctx, "users/1"))
func As[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("dispatch result is %T, not %T", v, zero)
	}
	return out, nil
}
