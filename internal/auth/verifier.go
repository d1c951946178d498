// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/aquascape/internal/config"
	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/metrics"
)

// Verifier checks dashboard access tokens against the identity provider's
// published signing keys. Only a verified token yields a Subject, so the
// sub claim can safely key the per-user session.
//
// Checks, in order: JWS structure, sub present, iss matches, aud contains
// the configured audience (when set), signature against the JWKS with an
// allowed algorithm, then exp with the configured leeway. Keys are fetched
// lazily and refetched when a token names an unknown kid.
type Verifier struct {
	issuer   string
	audience string
	algs     []string
	skew     time.Duration
	keys     oidc.KeySet
	now      func() time.Time
}

// NewVerifier creates a verifier for cfg. client fetches the JWKS; nil
// uses a client with a 30s timeout.
func NewVerifier(cfg *config.AuthConfig, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{"RS256"}
	}
	return &Verifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		algs:     algs,
		skew:     cfg.ClockSkew,
		keys:     rp.NewRemoteKeySet(client, cfg.KeySetURL()),
		now:      time.Now,
	}
}

// Verify validates token and returns its subject. Failures are
// *gateway.AuthError with reason missing, invalid or expired.
func (v *Verifier) Verify(ctx context.Context, token string) (*Subject, error) {
	subject, err := v.verify(ctx, token)
	if err != nil {
		metrics.RecordTokenVerification(authReason(err))
		return nil, err
	}
	metrics.RecordTokenVerification("valid")
	return subject, nil
}

func (v *Verifier) verify(ctx context.Context, token string) (*Subject, error) {
	if token == "" {
		return nil, &gateway.AuthError{Reason: gateway.AuthReasonMissing}
	}

	claims := new(oidc.AccessTokenClaims)
	payload, err := oidc.ParseToken(token, claims)
	if err != nil {
		return nil, invalid(err)
	}
	if claims.GetSubject() == "" {
		return nil, invalid(ErrNoSubject)
	}
	if err := oidc.CheckIssuer(claims, v.issuer); err != nil {
		return nil, invalid(err)
	}
	if v.audience != "" {
		if err := oidc.CheckAudience(claims, v.audience); err != nil {
			return nil, invalid(err)
		}
	}
	if err := oidc.CheckSignature(ctx, token, payload, claims, v.algs, v.keys); err != nil {
		return nil, invalid(err)
	}

	subject := &Subject{
		ID:        claims.GetSubject(),
		Token:     token,
		IssuedAt:  claims.GetIssuedAt(),
		ExpiresAt: claims.GetExpiration(),
	}
	if subject.IsExpired(v.now().Add(-v.skew)) {
		return nil, &gateway.AuthError{Reason: gateway.AuthReasonExpired, Err: oidc.ErrExpired}
	}
	return subject, nil
}

func invalid(err error) error {
	return &gateway.AuthError{Reason: gateway.AuthReasonInvalid, Err: err}
}

func authReason(err error) string {
	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return gateway.AuthReasonInvalid
}
