package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sallliisa/apostle-http/pkg/logger"
)

// HeaderRequestID is the header RequestIDInterceptor writes.
const HeaderRequestID = "X-Request-ID"

func withHeader(init Init) Init {
	if init.Header == nil {
		init.Header = make(http.Header)
	}
	return init
}

// BearerInterceptor sets "Authorization: Bearer <token>" from ts.
// A failing token source fails the dispatch before it is sent.
func BearerInterceptor(ts TokenSource) Interceptor {
	return func(ctx context.Context, init Init) (Init, error) {
		token, err := ts.Token(ctx)
		if err != nil {
			return Init{}, fmt.Errorf("failed to get token: %w", err)
		}
		if token == "" {
			return init, nil
		}
		init = withHeader(init)
		init.Header.Set("Authorization", "Bearer "+token)
		return init, nil
	}
}

// RequestIDInterceptor forwards the request id stored in ctx under
// logger.RequestIDKey, or generates a new one. An id already present
// in the headers is kept.
func RequestIDInterceptor() Interceptor {
	return func(ctx context.Context, init Init) (Init, error) {
		init = withHeader(init)
		if init.Header.Get(HeaderRequestID) != "" {
			return init, nil
		}
		id, _ := ctx.Value(logger.RequestIDKey).(string)
		if id == "" {
			id = uuid.NewString()
		}
		init.Header.Set(HeaderRequestID, id)
		return init, nil
	}
}

// RateLimitInterceptor blocks until l admits the request or ctx is done.
func RateLimitInterceptor(l *rate.Limiter) Interceptor {
	return func(ctx context.Context, init Init) (Init, error) {
		if err := l.Wait(ctx); err != nil {
			return Init{}, fmt.Errorf("rate limit: %w", err)
		}
		return init, nil
	}
}

// StaticHeadersInterceptor sets the given headers, replacing existing values.
func StaticHeadersInterceptor(headers map[string]string) Interceptor {
	return func(ctx context.Context, init Init) (Init, error) {
		init = withHeader(init)
		for k, v := range headers {
			init.Header.Set(k, v)
		}
		return init, nil
	}
}
