package http

import "context"

// Dispatcher defines the interface for dispatch operations.
// This interface allows for mocking and alternative implementations.
type Dispatcher interface {
	// Dispatch runs a fully described request.
	Dispatch(ctx context.Context, req *Request) (any, error)

	// Get dispatches a GET request.
	Get(ctx context.Context, path string, opts ...CallOption) (any, error)

	// Post dispatches a POST request.
	Post(ctx context.Context, path string, body Body, opts ...CallOption) (any, error)

	// Put dispatches a PUT request.
	Put(ctx context.Context, path string, body Body, opts ...CallOption) (any, error)

	// Patch dispatches a PATCH request.
	Patch(ctx context.Context, path string, body Body, opts ...CallOption) (any, error)

	// Delete dispatches a DELETE request.
	Delete(ctx context.Context, path string, opts ...CallOption) (any, error)
}

// Ensure Client implements Dispatcher interface.
var _ Dispatcher = (*Client)(nil)

// Ensure Reloadable implements Dispatcher interface.
var _ Dispatcher = (*Reloadable)(nil)
