package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sallliisa/apostle-http/pkg/logger"
)

type tokenFunc func(ctx context.Context) (string, error)

func (f tokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

func TestBearerInterceptor(t *testing.T) {
	ic := BearerInterceptor(tokenFunc(func(context.Context) (string, error) { return "abc", nil }))
	init, err := ic(context.Background(), Init{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", init.Header.Get("Authorization"))

	empty := BearerInterceptor(tokenFunc(func(context.Context) (string, error) { return "", nil }))
	init, err = empty(context.Background(), Init{})
	require.NoError(t, err)
	assert.Empty(t, init.Header.Get("Authorization"))

	boom := errors.New("boom")
	failing := BearerInterceptor(tokenFunc(func(context.Context) (string, error) { return "", boom }))
	_, err = failing(context.Background(), Init{})
	assert.ErrorIs(t, err, boom)
}

func TestRequestIDInterceptor(t *testing.T) {
	ic := RequestIDInterceptor()

	init, err := ic(logger.WithRequestID(context.Background(), "req-1"), Init{})
	require.NoError(t, err)
	assert.Equal(t, "req-1", init.Header.Get(HeaderRequestID))

	init, err = ic(context.Background(), Init{})
	require.NoError(t, err)
	assert.Len(t, init.Header.Get(HeaderRequestID), 36)

	init, err = ic(logger.WithRequestID(context.Background(), "req-2"), Init{Header: http.Header{HeaderRequestID: {"keep"}}})
	require.NoError(t, err)
	assert.Equal(t, "keep", init.Header.Get(HeaderRequestID))
}

func TestRateLimitInterceptor(t *testing.T) {
	ic := RateLimitInterceptor(rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := ic(context.Background(), Init{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = ic(ctx, Init{})
	assert.Error(t, err)
}

func TestStaticHeadersInterceptor(t *testing.T) {
	ic := StaticHeadersInterceptor(map[string]string{"X-Tenant": "acme"})
	init, err := ic(context.Background(), Init{Header: http.Header{"X-Tenant": {"other"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, init.Header.Values("X-Tenant"))
}
