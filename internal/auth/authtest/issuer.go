// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package authtest runs a minimal identity provider for tests: an
// httptest server publishing one RSA signing key as a JWKS, and helpers to
// mint tokens signed by it or by an attacker's key.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/aquascape/internal/config"
)

// Audience is the aud claim on tokens minted by Issuer.
const Audience = "https://api.aquascape.test"

const keyID = "aquascape-test-key"

var (
	keyOnce    sync.Once
	signingKey *rsa.PrivateKey
	otherKey   *rsa.PrivateKey
)

// RSA generation is slow enough to matter across many tests.
func keys(t testing.TB) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		if signingKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
		if otherKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
	})
	return signingKey, otherKey
}

// Issuer is a test OIDC provider.
type Issuer struct {
	URL   string
	key   *rsa.PrivateKey
	other *rsa.PrivateKey
}

// NewIssuer starts the JWKS server. It is closed with the test.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	key, other := keys(t)

	jwks, err := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": keyID,
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	if err != nil {
		t.Fatalf("encode jwks: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwks)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Issuer{URL: srv.URL, key: key, other: other}
}

// Config returns the auth settings that trust this issuer.
func (i *Issuer) Config() config.AuthConfig {
	return config.AuthConfig{
		Issuer:     i.URL,
		JWKSURL:    i.URL + "/.well-known/jwks.json",
		Audience:   Audience,
		Algorithms: []string{"RS256"},
	}
}

// Claims returns registered claims from this issuer for sub. Zero times
// leave iat or exp unset.
func (i *Issuer) Claims(sub string, iat, exp time.Time) jwt.RegisteredClaims {
	claims := jwt.RegisteredClaims{
		Issuer:   i.URL,
		Subject:  sub,
		Audience: jwt.ClaimStrings{Audience},
	}
	if !iat.IsZero() {
		claims.IssuedAt = jwt.NewNumericDate(iat)
	}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	return claims
}

// Token mints a valid token for sub.
func (i *Issuer) Token(t testing.TB, sub string, iat, exp time.Time) string {
	t.Helper()
	return i.Sign(t, i.Claims(sub, iat, exp))
}

// Sign signs claims with the published key.
func (i *Issuer) Sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	return sign(t, jwt.SigningMethodRS256, i.key, claims)
}

// Forge signs claims with a key that is not in the JWKS but under the
// published kid.
func (i *Issuer) Forge(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	return sign(t, jwt.SigningMethodRS256, i.other, claims)
}

// Unsigned returns claims as an alg=none token.
func Unsigned(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	return token
}

// HMAC signs claims with HS256 and secret.
func HMAC(t testing.TB, claims jwt.Claims, secret string) string {
	t.Helper()
	return sign(t, jwt.SigningMethodHS256, []byte(secret), claims)
}

func sign(t testing.TB, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = keyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
