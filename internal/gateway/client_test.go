// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/aquascape/internal/config"
)

func staticToken(token string) TokenProvider {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

func testConfig(url string) *config.BackendConfig {
	return &config.BackendConfig{
		URL:     url,
		Timeout: 2 * time.Second,
	}
}

// newTestServer starts a fake backend that counts requests.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func checkAuthError(t *testing.T, err error, reason string) {
	t.Helper()
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if authErr.Reason != reason {
		t.Errorf("AuthError.Reason = %q, want %q", authErr.Reason, reason)
	}
}

func checkGatewayError(t *testing.T, err error, status int) *GatewayError {
	t.Helper()
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GatewayError, got %T: %v", err, err)
	}
	if ge.Status != status {
		t.Errorf("GatewayError.Status = %d, want %d", ge.Status, status)
	}
	return ge
}

func TestDo_AttachesBearerToken(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotAuth, gotContentType, gotBody string
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = strings.TrimSpace(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	c := New(testConfig(srv.URL), staticToken("tok-123"))
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Do(context.Background(), http.MethodPost, "/sync-user", struct{}{}, &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody != "{}" {
		t.Errorf("body = %q, want {}", gotBody)
	}
	if !out.OK {
		t.Error("response body was not decoded")
	}
}

func TestDo_FreshTokenPerCall(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
	})

	var n atomic.Int32
	provider := TokenFunc(func(context.Context) (string, error) {
		if n.Add(1) == 1 {
			return "first", nil
		}
		return "second", nil
	})

	c := New(testConfig(srv.URL), provider)
	for i := 0; i < 2; i++ {
		if err := c.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "Bearer first" || seen[1] != "Bearer second" {
		t.Errorf("Authorization headers = %v", seen)
	}
}

func TestDo_NoTokenIsNotSent(t *testing.T) {
	t.Parallel()

	srv, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name     string
		provider TokenProvider
		reason   string
	}{
		{"nil provider", nil, AuthReasonMissing},
		{"empty token", staticToken(""), AuthReasonMissing},
		{"provider error", TokenFunc(func(context.Context) (string, error) {
			return "", errors.New("signed out")
		}), AuthReasonInvalid},
		{"expired", TokenFunc(func(context.Context) (string, error) {
			return "", &AuthError{Reason: AuthReasonExpired}
		}), AuthReasonExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testConfig(srv.URL), tt.provider)
			err := c.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil)
			checkAuthError(t, err, tt.reason)
		})
	}

	if hits.Load() != 0 {
		t.Errorf("backend received %d requests, want 0", hits.Load())
	}
}

func TestDo_BackendMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusBadRequest, `{"message":"name is required"}`, "name is required"},
		{"error field", http.StatusConflict, `{"error":"duplicate device"}`, "duplicate device"},
		{"detail field", http.StatusUnprocessableEntity, `{"detail":"bad size"}`, "bad size"},
		{"structured detail ignored", http.StatusUnprocessableEntity, `{"detail":[{"loc":["size"]}]}`, ""},
		{"plain text", http.StatusInternalServerError, `boom`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			c := New(testConfig(srv.URL), staticToken("t"))
			err := c.Do(context.Background(), http.MethodPost, "/aquariums", map[string]any{"name": ""}, nil)
			ge := checkGatewayError(t, err, tt.status)
			if ge.Message != tt.message {
				t.Errorf("Message = %q, want %q", ge.Message, tt.message)
			}
			if ge.UserMessage() == "" {
				t.Error("UserMessage() should never be empty")
			}
		})
	}
}

func TestDo_PerCallTimeout(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := New(cfg, staticToken("t"))

	start := time.Now()
	err := c.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil)
	checkGatewayError(t, err, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("call took %v, timeout not applied", elapsed)
	}
}

func TestDo_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	c := New(testConfig(srv.URL), staticToken("t"))
	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/schedules/1", nil, &out)
	ge := checkGatewayError(t, err, http.StatusOK)
	if ge.Err == nil {
		t.Error("expected wrapped decode error")
	}
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	t.Parallel()

	srv, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	cfg := testConfig(srv.URL)
	cfg.Breaker = config.BreakerConfig{
		Enabled: true, MaxRequests: 1, Interval: time.Minute,
		Timeout: time.Minute, MinRequests: 2, FailureRatio: 0.5,
	}
	c := New(cfg, staticToken("t"))

	for i := 0; i < 5; i++ {
		err := c.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil)
		checkGatewayError(t, err, http.StatusBadRequest)
	}
	if hits.Load() != 5 {
		t.Errorf("hits = %d, want 5", hits.Load())
	}
	if c.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %q, want closed", c.BreakerState())
	}
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	t.Parallel()

	srv, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	cfg := testConfig(srv.URL)
	cfg.Breaker = config.BreakerConfig{
		Enabled: true, MaxRequests: 1, Interval: time.Minute,
		Timeout: time.Minute, MinRequests: 2, FailureRatio: 0.5,
	}
	c := New(cfg, staticToken("t"))

	for i := 0; i < 2; i++ {
		err := c.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil)
		checkGatewayError(t, err, http.StatusBadGateway)
	}

	// A session-scoped copy shares the breaker.
	session := c.WithTokenProvider(staticToken("other"))
	err := session.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil)
	checkGatewayError(t, err, 0)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open state, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2 (rejected call must not reach backend)", hits.Load())
	}
	if c.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q, want open", c.BreakerState())
	}
}

func TestRateLimiter_RespectsContext(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	cfg := testConfig(srv.URL)
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	c := New(cfg, staticToken("t"))

	if err := c.Do(context.Background(), http.MethodGet, "/aquariums", nil, nil); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Do(ctx, http.MethodGet, "/aquariums", nil, nil)
	checkGatewayError(t, err, 0)
}

func TestRouteLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/aquariums", "/aquariums"},
		{"/aquariums/42", "/aquariums/{id}"},
		{"/aquariums/42/schedule-id", "/aquariums/{id}/schedule-id"},
		{"/sensor_data?aquarium_id=42", "/sensor_data"},
		{"/alerts/a1b2/resolve", "/alerts/{id}/resolve"},
		{"/sync-user", "/sync-user"},
	}
	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
