// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package auth handles the identity-provider bearer tokens that the
// dashboard presents.
//
// Verifier checks each token's signature against the provider's JWKS
// before its subject is trusted. The subject keys the per-user session.
// The verified token is forwarded unchanged on every backend call.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Subject is the caller identified by a bearer token.
type Subject struct {
	ID        string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// IsExpired reports whether the token is past its expiry at now.
func (s *Subject) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SignInKey identifies one sign-in of the subject. A new token issued
// after signing out and in again yields a new key.
func (s *Subject) SignInKey() string {
	if s.IssuedAt.IsZero() {
		return s.ID
	}
	return s.ID + "@" + s.IssuedAt.UTC().Format(time.RFC3339)
}

// ErrNoSubject is returned when a token has no sub claim.
var ErrNoSubject = errors.New("token has no subject")

// ExtractToken returns the bearer token from the Authorization header, or
// from the access_token query parameter for websocket upgrades where
// browsers cannot set headers.
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if websocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

type contextKey struct{}

// ContextWithSubject stores the request subject.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SubjectFromContext returns the request subject, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(contextKey{}).(*Subject)
	return s
}
