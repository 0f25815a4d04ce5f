package http

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// TokenProvider defines the interface for fetching access tokens.
type TokenProvider interface {
	// FetchToken retrieves a new token together with its expiration time.
	// If the token doesn't have an explicit expiration, return a reasonable TTL.
	FetchToken(ctx context.Context) (token string, expiresAt time.Time, err error)
}

// TokenSource hands out a currently valid token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenCache keeps the last token of a provider until shortly before it
// expires. It owns the token lifecycle so interceptors only inject.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	refreshAt time.Time
	provider  TokenProvider
	clock     clock.Clock
	// refreshBuffer is the time before expiration to refresh the token,
	// capped at half the token's lifetime
	refreshBuffer time.Duration
}

// TokenCacheOption configures a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithTokenClock sets the clock used for expiry checks.
func WithTokenClock(clk clock.Clock) TokenCacheOption {
	return func(tc *TokenCache) {
		if clk != nil {
			tc.clock = clk
		}
	}
}

// NewTokenCache creates a new token cache with the given provider.
func NewTokenCache(provider TokenProvider, refreshBuffer time.Duration, opts ...TokenCacheOption) *TokenCache {
	if refreshBuffer <= 0 {
		refreshBuffer = 30 * time.Second // default: refresh 30s before expiration
	}
	tc := &TokenCache{
		provider:      provider,
		refreshBuffer: refreshBuffer,
		clock:         clock.New(),
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

func (tc *TokenCache) fresh() bool {
	return tc.token != "" && tc.clock.Now().Before(tc.refreshAt)
}

// Token returns a valid token, fetching a new one if needed.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.RLock()
	if tc.fresh() {
		token := tc.token
		tc.mu.RUnlock()
		return token, nil
	}
	tc.mu.RUnlock()

	return tc.refresh(ctx)
}

func (tc *TokenCache) refresh(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	// another goroutine may have refreshed it meanwhile
	if tc.fresh() {
		return tc.token, nil
	}

	token, expiresAt, err := tc.provider.FetchToken(ctx)
	if err != nil {
		return "", err
	}

	buffer := min(tc.refreshBuffer, expiresAt.Sub(tc.clock.Now())/2)
	tc.token = token
	tc.refreshAt = expiresAt.Add(-buffer)
	return token, nil
}

// Invalidate clears the cached token, forcing a refresh on next Token call.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.token = ""
	tc.refreshAt = time.Time{}
}

// IsValid checks if the current cached token is still valid.
func (tc *TokenCache) IsValid() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.fresh()
}

// InvalidateOnUnauthorized wraps next so that a 401 response clears the
// cache before next.OnError runs. The failed dispatch is not retried.
func InvalidateOnUnauthorized(tc *TokenCache, next Effect) Effect {
	if next == nil {
		next = NopEffect
	}
	return EffectFuncs{
		Success: next.OnSuccess,
		Error: func(ctx context.Context, err error) error {
			if StatusCode(err) == 401 {
				tc.Invalidate()
			}
			return next.OnError(ctx, err)
		},
	}
}
