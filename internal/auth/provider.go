// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/aquascape/internal/gateway"
)

// SessionTokens supplies tokens for one session. Calls made while serving a
// request use that request's token. Background work such as alert polling
// uses the most recent token the session has seen. Expiry is checked on
// every call.
type SessionTokens struct {
	mu     sync.RWMutex
	latest *Subject
	now    func() time.Time
}

var _ gateway.TokenProvider = (*SessionTokens)(nil)

// NewSessionTokens creates a provider seeded with s.
func NewSessionTokens(s *Subject) *SessionTokens {
	return &SessionTokens{latest: s, now: time.Now}
}

// Observe records a newer token for the session.
func (p *SessionTokens) Observe(s *Subject) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil || !s.ExpiresAt.Before(p.latest.ExpiresAt) {
		p.latest = s
	}
}

// Token implements gateway.TokenProvider.
func (p *SessionTokens) Token(ctx context.Context) (string, error) {
	subject := SubjectFromContext(ctx)
	if subject == nil {
		p.mu.RLock()
		subject = p.latest
		p.mu.RUnlock()
	}
	if subject == nil || subject.Token == "" {
		return "", &gateway.AuthError{Reason: gateway.AuthReasonMissing}
	}
	if subject.IsExpired(p.now()) {
		return "", &gateway.AuthError{Reason: gateway.AuthReasonExpired}
	}
	return subject.Token, nil
}
