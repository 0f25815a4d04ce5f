package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingProvider(clk clock.Clock, ttl time.Duration) (*CustomTokenProvider, *int) {
	calls := 0
	return NewCustomTokenProvider(func(ctx context.Context) (string, time.Time, error) {
		calls++
		return fmt.Sprintf("token-%d", calls), clk.Now().Add(ttl), nil
	}), &calls
}

func TestTokenCacheRefreshesBeforeExpiry(t *testing.T) {
	mock := clock.NewMock()
	provider, calls := countingProvider(mock, time.Minute)
	tc := NewTokenCache(provider, 10*time.Second, WithTokenClock(mock))

	token, err := tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	mock.Add(45 * time.Second)
	token, _ = tc.Token(context.Background())
	assert.Equal(t, "token-1", token)
	assert.True(t, tc.IsValid())

	mock.Add(10 * time.Second)
	assert.False(t, tc.IsValid())
	token, _ = tc.Token(context.Background())
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, *calls)
}

func TestTokenCacheShortLivedTokenIsReused(t *testing.T) {
	mock := clock.NewMock()
	provider, calls := countingProvider(mock, 20*time.Second)
	tc := NewTokenCache(provider, 0, WithTokenClock(mock))

	_, err := tc.Token(context.Background())
	require.NoError(t, err)

	mock.Add(5 * time.Second)
	token, _ := tc.Token(context.Background())
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, *calls)

	mock.Add(5 * time.Second)
	assert.False(t, tc.IsValid(), "refresh starts halfway through a short lifetime")
	token, _ = tc.Token(context.Background())
	assert.Equal(t, "token-2", token)
}

func TestTokenCacheInvalidate(t *testing.T) {
	mock := clock.NewMock()
	provider, calls := countingProvider(mock, time.Hour)
	tc := NewTokenCache(provider, 0, WithTokenClock(mock))

	_, _ = tc.Token(context.Background())
	tc.Invalidate()
	assert.False(t, tc.IsValid())

	token, _ := tc.Token(context.Background())
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, *calls)
}

func TestTokenCacheSingleFetchUnderConcurrency(t *testing.T) {
	mock := clock.NewMock()
	var mu sync.Mutex
	calls := 0
	provider := NewCustomTokenProvider(func(ctx context.Context) (string, time.Time, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return "shared", mock.Now().Add(time.Hour), nil
	})
	tc := NewTokenCache(provider, 0, WithTokenClock(mock))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tc.Token(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestTokenCacheProviderError(t *testing.T) {
	boom := errors.New("idp down")
	tc := NewTokenCache(NewCustomTokenProvider(func(context.Context) (string, time.Time, error) {
		return "", time.Time{}, boom
	}), 0)

	_, err := tc.Token(context.Background())
	assert.ErrorIs(t, err, boom)

	_, _, err = (&CustomTokenProvider{}).FetchToken(context.Background())
	assert.Error(t, err)
}

func TestInvalidateOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mock := clock.NewMock()
	provider, calls := countingProvider(mock, time.Hour)
	tc := NewTokenCache(provider, 0, WithTokenClock(mock))
	c := mustClient(t,
		WithBaseURL(srv.URL),
		WithInterceptor(BearerInterceptor(tc)),
		WithEffect(InvalidateOnUnauthorized(tc, nil)),
	)

	_, err := c.Get(context.Background(), "/")
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.False(t, tc.IsValid())

	_, err = c.Get(context.Background(), "/")
	assert.NoError(t, err)
	assert.Equal(t, 2, *calls)
}
