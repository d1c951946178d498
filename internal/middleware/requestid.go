// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package middleware

import (
	"net/http"

	"github.com/tomtom215/aquascape/internal/logging"
)

// Tracing headers. An upstream proxy may supply either; missing ones are
// generated.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxTraceIDLen bounds client-supplied trace ids before they reach logs.
const maxTraceIDLen = 128

// RequestID puts a request id and a correlation id on the request context
// for logging.Ctx and echoes both in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := traceHeader(r, HeaderRequestID)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		correlationID := traceHeader(r, HeaderCorrelationID)
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(HeaderRequestID, requestID)
		w.Header().Set(HeaderCorrelationID, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id set by RequestID.
func GetRequestID(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}

func traceHeader(r *http.Request, name string) string {
	v := r.Header.Get(name)
	if len(v) > maxTraceIDLen {
		return ""
	}
	for _, c := range v {
		if c < 0x21 || c > 0x7e {
			return ""
		}
	}
	return v
}
