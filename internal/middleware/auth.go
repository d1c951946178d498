// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/aquascape/internal/auth"
	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
)

// TokenVerifier turns a bearer token into a verified subject.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Subject, error)
}

// Authenticate requires a bearer token that verifier accepts. The subject
// is stored with auth.ContextWithSubject and tagged on the request logger.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := verifier.Verify(r.Context(), auth.ExtractToken(r))
			if err != nil {
				reason := gateway.AuthReasonInvalid
				var authErr *gateway.AuthError
				if errors.As(err, &authErr) {
					reason = authErr.Reason
				}
				logging.Ctx(r.Context()).Debug().Str("reason", reason).Msg("request rejected: no usable token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="aquascape"`)
				writeError(w, http.StatusUnauthorized, &models.APIError{
					Code:    "AUTHENTICATION_ERROR",
					Message: authMessage(reason),
					Details: map[string]interface{}{"reason": reason},
				})
				return
			}

			ctx := auth.ContextWithSubject(r.Context(), subject)
			ctx = logging.ContextWithSubject(ctx, subject.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authMessage(reason string) string {
	switch reason {
	case gateway.AuthReasonMissing:
		return "Please sign in"
	case gateway.AuthReasonExpired:
		return "Your session has expired, please sign in again"
	default:
		return "Invalid access token"
	}
}
