package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Fetcher is the network primitive a Client dispatches through.
// *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(req *http.Request) (*http.Response, error)

func (f FetcherFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// BreakerSettings configures a BreakerFetcher.
type BreakerSettings struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker. Defaults to 5.
	ConsecutiveFailures uint32
	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// BreakerFetcher wraps a Fetcher with a circuit breaker. Only transport
// failures count against the breaker; any received response is a success
// at this layer, status classification stays with the dispatcher.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerFetcher creates a BreakerFetcher around next.
func NewBreakerFetcher(next Fetcher, s BreakerSettings) *BreakerFetcher {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: s.OnStateChange,
		IsSuccessful: func(err error) bool {
			// caller cancellation does not count as a failure
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerFetcher{next: next, cb: gobreaker.NewCircuitBreaker[*http.Response](settings)}
}

// Do runs the request through the breaker. An open breaker fails fast
// with gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (b *BreakerFetcher) Do(req *http.Request) (*http.Response, error) {
	return b.cb.Execute(func() (*http.Response, error) {
		return b.next.Do(req)
	})
}

// State returns the current breaker state.
func (b *BreakerFetcher) State() gobreaker.State { return b.cb.State() }

// cancelOnClose releases the request context once a raw body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
