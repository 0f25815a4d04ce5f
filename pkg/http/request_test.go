package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClient(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()
	c, err := NewClient(opts...)
	require.NoError(t, err)
	return c
}

func TestResolveURL(t *testing.T) {
	c := mustClient(t, WithBaseURL("https://api.example.com/v1/"))

	tests := []struct {
		name  string
		path  string
		query Query
		want  string
	}{
		{"relative", "users", nil, "https://api.example.com/v1/users"},
		{"leading slash", "/users", nil, "https://api.example.com/v1/users"},
		{"empty query", "/users", Query{"role": nil}, "https://api.example.com/v1/users"},
		{"query", "/users", Query{"active": Value("true"), "role": nil}, "https://api.example.com/v1/users?active=true"},
		{"path query merged", "/users?page=2", Query{"active": Value("true")}, "https://api.example.com/v1/users?active=true&page=2"},
		{"empty path", "", nil, "https://api.example.com/v1/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.resolveURL(tt.path, SanitizeQuery(tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURLWithoutBase(t *testing.T) {
	c := mustClient(t)

	got, err := c.resolveURL("https://other.example.com/x?y=1", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/x?y=1", got)

	_, err = c.resolveURL("/relative", nil)
	assert.Error(t, err)
}

func TestResolveURLAbsolutePathKeepsItsHost(t *testing.T) {
	c := mustClient(t, WithBaseURL("https://api.example.com/v1"))

	got, err := c.resolveURL("https://auth.example.com/oauth/token", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/oauth/token", got)

	got, err = c.resolveURL("https://auth.example.com/oauth/token?aud=api", SanitizeQuery(Query{"grant": Value("x")}))
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/oauth/token?aud=api&grant=x", got)
}

func TestBuildRequestCallerUserAgentWins(t *testing.T) {
	c := mustClient(t,
		WithBaseURL("https://api.example.com"),
		WithBaseInit(Init{Header: http.Header{"user-agent": {"mine/1.0"}}}),
	)

	for i := 0; i < 50; i++ {
		httpReq, cancel, err := c.buildRequest(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
		require.NoError(t, err)
		cancel()
		assert.Equal(t, []string{"mine/1.0"}, httpReq.Header.Values("User-Agent"))
	}

	httpReq, cancel, err := c.buildRequest(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/",
		Init:   Init{Header: http.Header{"USER-AGENT": {"call/2.0"}}},
	})
	require.NoError(t, err)
	defer cancel()
	assert.Equal(t, []string{"call/2.0"}, httpReq.Header.Values("User-Agent"))
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(WithBaseURL("not a url"))
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = NewClient(WithBaseURL("/only/path"))
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestBuildRequestPrecedence(t *testing.T) {
	c := mustClient(t,
		WithBaseURL("https://api.example.com"),
		WithBaseInit(Init{Header: http.Header{"Content-Type": {"application/vnd.base"}, "X-Env": {"prod"}}}),
		WithInterceptor(func(ctx context.Context, init Init) (Init, error) {
			init.Header.Set("X-Seen-Content-Type", init.Header.Get("Content-Type"))
			return init, nil
		}),
	)

	req := &Request{
		Method: http.MethodPost,
		Path:   "/things",
		Body:   Structured{"a": 1},
		Init:   Init{Header: http.Header{"X-Env": {"test"}}},
	}
	httpReq, cancel, err := c.buildRequest(context.Background(), req)
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, "application/vnd.base", httpReq.Header.Get("Content-Type"), "base init beats inferred")
	assert.Equal(t, "test", httpReq.Header.Get("X-Env"), "call init beats base init")
	assert.Equal(t, "application/vnd.base", httpReq.Header.Get("X-Seen-Content-Type"), "interceptor sees merged init")
	assert.Equal(t, "https://api.example.com/things", httpReq.URL.String())
	assert.NotEmpty(t, httpReq.Header.Get("User-Agent"))
}

func TestBuildRequestInterceptorFailure(t *testing.T) {
	boom := errors.New("boom")
	c := mustClient(t,
		WithBaseURL("https://api.example.com"),
		WithInterceptor(func(ctx context.Context, init Init) (Init, error) { return Init{}, boom }),
	)

	_, cancel, err := c.buildRequest(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
	cancel()
	assert.ErrorIs(t, err, boom)
}

func TestBuildRequestAppliesInit(t *testing.T) {
	c := mustClient(t, WithBaseURL("https://api.example.com"), WithUserAgent(""))

	req := &Request{
		Method: http.MethodGet,
		Path:   "/",
		Init: Init{
			Timeout: time.Minute,
			Host:    "virtual.example.com",
			Close:   true,
			Cookies: []*http.Cookie{{Name: "session", Value: "abc"}},
		},
	}
	httpReq, cancel, err := c.buildRequest(context.Background(), req)
	require.NoError(t, err)
	defer cancel()

	_, hasDeadline := httpReq.Context().Deadline()
	assert.True(t, hasDeadline)
	assert.Equal(t, "virtual.example.com", httpReq.Host)
	assert.True(t, httpReq.Close)
	cookie, err := httpReq.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "abc", cookie.Value)
	assert.Empty(t, httpReq.Header.Get("User-Agent"))
}

func TestInterceptorsRunInOrder(t *testing.T) {
	var order []string
	tag := func(name string) Interceptor {
		return func(ctx context.Context, init Init) (Init, error) {
			order = append(order, name)
			return init, nil
		}
	}
	c := mustClient(t, WithBaseURL("https://api.example.com"), WithInterceptor(tag("a")), WithInterceptor(tag("b")))

	_, cancel, err := c.buildRequest(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)
	cancel()
	assert.Equal(t, []string{"a", "b"}, order)
}
