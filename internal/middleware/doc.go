// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package middleware provides the gateway's own HTTP middleware in chi's
func(http.Handler) http.Handler form.

Key Components:

  - RequestID: request and correlation ids for logging.Ctx, echoed in headers
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled
    by chi route pattern
  - Authenticate: bearer token verification; 401 envelope when the token is
    missing or fails verification
  - Recoverer: turns a handler panic into a fallback panel (HTML for
    browsers, JSON envelope for API callers)

CORS, rate limiting, RealIP and compression come from go-chi packages and are
assembled with these in internal/api:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(...))
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(httprate.Limit(...))
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.Authenticate(verifier))
	    ...
	})

Every middleware is safe for concurrent use; per-request state lives in
the request context or a per-request response writer wrapper.
*/
package middleware
