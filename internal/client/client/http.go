package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/common"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RequestOptions describes one API call.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    any

	// Token overrides the session token for this call.
	Token string

	// NoAuth disables session tokens and refresh; only Token is sent.
	NoAuth bool
}

// HTTPClient talks JSON to the sales API. Bearer tokens come from the
// Session; expired tokens are refreshed before the call and a 401 triggers
// one refresh-and-retry. Concurrent refreshes are collapsed into one call.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	session *Session
	log     logging.Logger
	now     func() time.Time

	refreshGroup singleflight.Group
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func WithNow(now func() time.Time) Option {
	return func(c *HTTPClient) { c.now = now }
}

func NewHTTPClient(baseURL string, session *Session, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: session,
		log:     logging.Discard(),
		now:     time.Now,
	}
	if c.session == nil {
		c.session = NewSession()
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns the token state the client reads from.
func (c *HTTPClient) Session() *Session {
	return c.session
}

// SetAuthTokens replaces the session token state.
func (c *HTTPClient) SetAuthTokens(tokens *models.Tokens, onChange TokenChangeFunc) {
	c.session.Set(tokens, onChange)
}

// Do performs the request and decodes a non-empty JSON response into out
// (which may be nil). Every error is an *APIError.
func (c *HTTPClient) Do(ctx context.Context, path string, opts RequestOptions, out any) error {
	token := opts.Token
	if !opts.NoAuth && token == "" {
		t, err := c.validToken(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	resp, err := c.send(ctx, path, opts, token)
	if err != nil {
		return err
	}

	if !opts.NoAuth && resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		refreshed, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}
		c.log.Debug(ctx, "retrying after token refresh", "path", path)
		resp, err = c.send(ctx, path, opts, refreshed)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return unauthorized(resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return unknownError(fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

// validToken returns the access token to send, refreshing it first when it
// is about to expire. No stored token means the call goes out unauthenticated.
func (c *HTTPClient) validToken(ctx context.Context) (string, error) {
	tokens, ok := c.session.Tokens()
	if !ok || tokens.Token == "" {
		return "", nil
	}
	if !tokens.AccessExpired(c.now()) {
		return tokens.Token, nil
	}
	return c.refresh(ctx, tokens.Token)
}

// refresh exchanges the refresh token for a new bundle. stale is the access
// token the caller found unusable: if the session already carries a different,
// unexpired token (another call refreshed meanwhile) that token is returned
// without a new round trip.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		if cur, ok := c.session.Tokens(); ok && cur.Token != "" && cur.Token != stale && !cur.AccessExpired(c.now()) {
			return cur.Token, nil
		}
		// one caller giving up must not fail the others waiting on this flight
		return c.performRefresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *HTTPClient) performRefresh(ctx context.Context) (string, error) {
	prev, ok := c.session.Tokens()
	if !ok || prev.RefreshToken == "" || prev.RefreshExpired(c.now()) {
		return "", unauthorized(0)
	}

	resp, err := c.send(ctx, RefreshPath, RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"refreshToken": prev.RefreshToken},
	}, prev.RefreshToken)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", unauthorized(resp.StatusCode)
	}

	var env models.Envelope[models.RefreshPayload]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Payload == nil || env.Payload.Token == "" {
		return "", unauthorized(0)
	}
	p := env.Payload
	received := c.now()

	updated := models.Tokens{
		Token:                 p.Token,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  expiresAt(received, p.AccessTokenExpiry, p.Token, prev.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: expiresAt(received, p.RefreshTokenExpiry, p.RefreshToken, prev.RefreshTokenExpiresAt),
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = prev.RefreshToken
	}

	onChange, ok := c.session.swap(prev.RefreshToken, updated)
	if !ok {
		// logged out while the refresh was in flight
		return "", unauthorized(0)
	}
	c.log.Debug(ctx, "access token refreshed", "expires_at", updated.AccessTokenExpiresAt)

	if onChange != nil {
		if err := onChange(ctx, updated); err != nil {
			c.log.Warn(ctx, "failed to persist refreshed tokens", "error", err)
		}
	}
	return updated.Token, nil
}

// expiresAt prefers the server lifetime, then the JWT exp claim, then the
// previous instant.
func expiresAt(received time.Time, lifetime models.Millis, token string, prev int64) int64 {
	if lifetime > 0 {
		return models.ExpiresAt(received, lifetime)
	}
	if exp, ok := tokenExpiry(token); ok {
		return exp
	}
	return prev
}

// tokenExpiry reads the exp claim of a JWT without verifying it. The client
// never holds the signing key; the value only schedules refreshes.
func tokenExpiry(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, false
	}
	if claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.UnixMilli(), true
}

func (c *HTTPClient) send(ctx context.Context, path string, opts RequestOptions, token string) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, unknownError(fmt.Errorf("encode request body: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, unknownError(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, unknownError(ctx.Err())
		}
		return nil, networkError(err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
