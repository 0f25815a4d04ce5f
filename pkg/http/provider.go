package http

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

// OAuth2ClientCredentialsProvider implements TokenProvider for OAuth2 client credentials flow.
// The token request itself is dispatched as a form body.
type OAuth2ClientCredentialsProvider struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	// Dispatcher sends the token request. Defaults to a client without base URL.
	Dispatcher Dispatcher
}

// NewOAuth2ClientCredentialsProvider creates a new OAuth2 client credentials token provider.
func NewOAuth2ClientCredentialsProvider(tokenURL, clientID, clientSecret, scope string) *OAuth2ClientCredentialsProvider {
	return &OAuth2ClientCredentialsProvider{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scope:        scope,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds until expiration
	ExpiresAt   string `json:"expires_at"` // RFC3339, service token APIs only
	Scope       string `json:"scope"`
}

// FetchToken retrieves a token using OAuth2 client credentials flow.
func (p *OAuth2ClientCredentialsProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	d, err := dispatcherOrDefault(p.Dispatcher)
	if err != nil {
		return "", time.Time{}, err
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", p.ClientID)
	data.Set("client_secret", p.ClientSecret)
	if p.Scope != "" {
		data.Set("scope", p.Scope)
	}

	var tr tokenResponse
	if err := postForToken(ctx, d, p.TokenURL, Form(data), &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to fetch token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty access token in response")
	}

	return tr.AccessToken, expiration(time.Now(), tr.ExpiresAt, tr.ExpiresIn), nil
}

// ServiceTokenProvider exchanges a service id and API key for a token
// by posting them as JSON to a token endpoint.
type ServiceTokenProvider struct {
	// TokenURL is the absolute URL of the token endpoint.
	TokenURL   string
	ServiceID  string
	APIKey     string
	Scope      string
	Audience   []string
	Dispatcher Dispatcher
}

// FetchToken retrieves a token from the service token endpoint.
func (p *ServiceTokenProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	if p.TokenURL == "" {
		return "", time.Time{}, fmt.Errorf("token URL is required")
	}
	if p.ServiceID == "" {
		return "", time.Time{}, fmt.Errorf("service ID is required")
	}
	if p.APIKey == "" {
		return "", time.Time{}, fmt.Errorf("API key is required")
	}
	d, err := dispatcherOrDefault(p.Dispatcher)
	if err != nil {
		return "", time.Time{}, err
	}

	body := Structured{
		"service_id": p.ServiceID,
		"api_key":    p.APIKey,
		"scope":      p.Scope,
		"audience":   p.Audience,
	}

	var tr tokenResponse
	if err := postForToken(ctx, d, p.TokenURL, body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to call service token API: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty access token in response")
	}
	return tr.AccessToken, expiration(time.Now(), tr.ExpiresAt, tr.ExpiresIn), nil
}

// StaticTokenProvider provides a static token that never expires.
// Useful for testing or when tokens are managed externally.
type StaticTokenProvider struct {
	Token string
}

// NewStaticTokenProvider creates a new static token provider.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{Token: token}
}

// FetchToken returns the static token with a far-future expiration.
func (p *StaticTokenProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	return p.Token, time.Now().Add(24 * 365 * time.Hour), nil
}

// CustomTokenProvider allows you to provide a custom function for fetching tokens.
type CustomTokenProvider struct {
	FetchFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)
}

// NewCustomTokenProvider creates a new custom token provider.
func NewCustomTokenProvider(fetchFunc func(ctx context.Context) (string, time.Time, error)) *CustomTokenProvider {
	return &CustomTokenProvider{FetchFunc: fetchFunc}
}

// FetchToken calls the custom fetch function.
func (p *CustomTokenProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	if p.FetchFunc == nil {
		return "", time.Time{}, fmt.Errorf("fetch function is nil")
	}
	return p.FetchFunc(ctx)
}

// SignedTokenProvider mints short-lived HS256 JWTs locally.
type SignedTokenProvider struct {
	Issuer   string
	Subject  string
	Audience []string
	TTL      time.Duration
	Key      []byte
	Clock    clock.Clock
}

// FetchToken signs a new token valid for TTL (default 5 minutes).
func (p *SignedTokenProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	if len(p.Key) == 0 {
		return "", time.Time{}, fmt.Errorf("signing key is required")
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	now := clk.Now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    p.Issuer,
		Subject:   p.Subject,
		Audience:  jwt.ClaimStrings(p.Audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func dispatcherOrDefault(d Dispatcher) (Dispatcher, error) {
	if d != nil {
		return d, nil
	}
	return NewClient()
}

// postForToken posts body to tokenURL and decodes the JSON reply into out.
// A dispatcher whose response transformer replaces the raw *Response is
// rejected; the value is closed when it can be.
func postForToken(ctx context.Context, d Dispatcher, tokenURL string, body Body, out *tokenResponse) error {
	v, err := d.Post(ctx, tokenURL, body, WithResponseType(ResponseRaw))
	if err != nil {
		return err
	}
	resp, ok := v.(*Response)
	if !ok {
		if c, ok := v.(io.Closer); ok {
			_ = c.Close()
		}
		return fmt.Errorf("token dispatch returned %T, not a raw *Response", v)
	}
	defer resp.Close()
	return resp.DecodeJSON(out)
}

// expiration prefers an RFC3339 expires_at, then expires_in seconds,
// then one hour. A margin of 10 seconds, at most half of expires_in, is
// taken off expires_in.
func expiration(now time.Time, expiresAt string, expiresIn int) time.Time {
	if expiresAt != "" {
		if parsed, err := time.Parse(time.RFC3339, expiresAt); err == nil {
			return parsed
		}
	}
	if expiresIn > 0 {
		lifetime := time.Duration(expiresIn) * time.Second
		return now.Add(lifetime - min(10*time.Second, lifetime/2))
	}
	return now.Add(1 * time.Hour)
}
