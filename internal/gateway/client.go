// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package gateway is the HTTP client for the external aquarium backend.

Every call obtains a bearer token from a TokenProvider immediately before
sending. A missing token fails with *AuthError and nothing is sent. The
Authorization header is set on each request; the underlying resty client
carries no per-user state, so one Client is shared by all sessions via
WithTokenProvider.

Calls pass through an optional rate limiter and a circuit breaker. 4xx
responses are the caller's problem and do not count against the breaker.
*/
package gateway

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aquascape/internal/config"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
)

// BreakerName labels the backend circuit breaker in metrics and logs.
const BreakerName = "aquarium-backend"

// TokenProvider supplies a bearer token for the current caller.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client calls the aquarium backend.
type Client struct {
	http    *resty.Client
	tokens  TokenProvider
	timeout time.Duration
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*resty.Response]
}

// New creates a backend client from configuration. tokens may be nil when
// every caller derives its own client with WithTokenProvider.
func New(cfg *config.BackendConfig, tokens TokenProvider) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(newRestyLogger())

	c := &Client{
		http:    httpClient,
		tokens:  tokens,
		timeout: cfg.Timeout,
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.Breaker.Enabled {
		c.cb = newBreaker(&cfg.Breaker)
	}
	return c
}

// WithTokenProvider returns a client sharing this client's connection pool,
// limiter and breaker but drawing tokens from p.
func (c *Client) WithTokenProvider(p TokenProvider) *Client {
	clone := *c
	clone.tokens = p
	return &clone
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() string {
	if c.cb == nil {
		return "disabled"
	}
	return stateToString(c.cb.State())
}

// Do performs one backend call. body, when non-nil, is sent as JSON. out,
// when non-nil, receives the decoded JSON response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeBody(method, path, resp, out)
}

// do sends the request and returns the raw response of a 2xx/3xx call.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*resty.Response, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &GatewayError{Method: method, Path: path, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	route := routeLabel(path)
	start := time.Now()
	resp, err := c.execute(func() (*resty.Response, error) {
		return c.send(ctx, method, path, token, body)
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	metrics.RecordBackendRequest(method, route, status, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &GatewayError{Method: method, Path: path, Err: err}
		}
		logging.Ctx(ctx).Debug().
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Err(err).
			Msg("backend call failed")
		return resp, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body interface{}) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		req.SetHeader("X-Request-ID", requestID)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return resp, &GatewayError{Method: method, Path: path, Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return resp, &GatewayError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode(),
			Message: backendMessage(resp.Body()),
		}
	}
	return resp, nil
}

// token fetches a fresh token for this call.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		metrics.BackendAuthFailures.WithLabelValues(AuthReasonMissing).Inc()
		return "", &AuthError{Reason: AuthReasonMissing}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			authErr = &AuthError{Reason: AuthReasonInvalid, Err: err}
		}
		metrics.BackendAuthFailures.WithLabelValues(authErr.Reason).Inc()
		return "", authErr
	}
	if token == "" {
		metrics.BackendAuthFailures.WithLabelValues(AuthReasonMissing).Inc()
		return "", &AuthError{Reason: AuthReasonMissing}
	}
	return token, nil
}

func decodeBody(method, path string, resp *resty.Response, out interface{}) error {
	if out == nil || resp == nil {
		return nil
	}
	raw := bytes.TrimSpace(resp.Body())
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode(),
			Message: "invalid response from backend",
			Err:     err,
		}
	}
	return nil
}

// backendMessage extracts a human-readable message from an error body.
// Backends in the wild use message, error or detail.
func backendMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	for _, raw := range []json.RawMessage{payload.Error, payload.Detail} {
		var s string
		if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// routeLabel replaces identifier segments so metrics keep a bounded label set.
//
//	/aquariums/42/schedule-id -> /aquariums/{id}/schedule-id
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.ContainsAny(seg, "0123456789") {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
