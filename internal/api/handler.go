// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/aquascape/internal/auth"
	"github.com/tomtom215/aquascape/internal/config"
	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/middleware"
	"github.com/tomtom215/aquascape/internal/session"
	"github.com/tomtom215/aquascape/internal/websocket"
)

// Handler serves the dashboard API.
type Handler struct {
	cfg       *config.Config
	backend   *gateway.Client
	verifier  middleware.TokenVerifier
	sessions  *session.Registry
	userSync  *auth.UserSync
	hub       *websocket.Hub
	upgrader  gorillaws.Upgrader
	version   string
	startTime time.Time
}

// NewHandler wires the API to the session registry and push hub. backend
// is the shared client; it is only consulted for the breaker state.
// verifier guards every route except health.
func NewHandler(cfg *config.Config, backend *gateway.Client, verifier middleware.TokenVerifier, sessions *session.Registry, userSync *auth.UserSync, hub *websocket.Hub, version string) *Handler {
	h := &Handler{
		cfg:       cfg,
		backend:   backend,
		verifier:  verifier,
		sessions:  sessions,
		userSync:  userSync,
		hub:       hub,
		version:   version,
		startTime: time.Now(),
	}
	h.upgrader = h.getUpgrader()
	return h
}

// getUpgrader returns a WebSocket upgrader with origin validation.
func (h *Handler) getUpgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin accepts same-host origins and those listed in
// security.cors_origins. Requests without an Origin header are refused.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// session returns the caller's session, creating it on first use. The
// request has passed Authenticate, so a subject is always present.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, *auth.Subject, bool) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == nil {
		respondError(w, http.StatusUnauthorized, CodeAuthentication, "Please sign in", nil)
		return nil, nil, false
	}
	return h.sessions.Acquire(subject), subject, true
}
