// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/aquascape/internal/middleware"
)

// NewRouter builds the chi router for the gateway.
//
// Global middleware, in order: request/correlation ids, real client IP,
// panic recovery (fallback panel) and CORS. The /api/v1 group adds rate
// limiting, security headers and request metrics; everything but health
// also requires a bearer token.
func NewRouter(h *Handler, mw *ChiMiddleware) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		})

		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(h.verifier))

			// The upgrade hijacks the connection; keep it out of Compress.
			r.Get("/ws", h.WebSocket)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Compress(5, "application/json"))

				r.Post("/session/sync", h.SyncSession)

				r.Route("/aquariums", func(r chi.Router) {
					r.Get("/", h.ListAquariums)
					r.Post("/", h.CreateAquarium)
					r.Route("/{id}", func(r chi.Router) {
						r.Put("/", h.UpdateAquarium)
						r.Delete("/", h.DeleteAquarium)
						r.Put("/schedule", h.SaveSchedule)
						r.Get("/sensors", h.SensorSeries)
						r.Post("/feed", h.Feed)
						r.Post("/view", h.ViewAquarium)
					})
				})

				r.Delete("/view", h.CloseView)
				r.Get("/alerts", h.ListAlerts)
				r.Post("/alerts/{id}/resolve", h.ResolveAlert)
			})
		})
	})

	if dir := h.cfg.Server.StaticDir; dir != "" {
		r.Get("/*", staticHandler(dir))
	}

	return r
}
