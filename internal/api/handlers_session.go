// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/aquascape/internal/models"
)

// Health reports liveness. It needs no token.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := models.HealthStatus{
		Status:   "healthy",
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Sessions: h.sessions.Len(),
		Breaker:  h.backend.BreakerState(),
	}
	if status.Breaker == "open" {
		status.Status = "degraded"
	}
	respondData(w, http.StatusOK, status, start)
}

// SyncSession reconciles the caller's identity provider account with the
// backend. The backend is called once per sign-in; later calls report the
// remembered outcome.
func (h *Handler) SyncSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, subject, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := h.userSync.Ensure(r.Context(), subject, sess.Client); err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, models.SessionInfo{
		Subject: subject.ID,
		Synced:  h.userSync.Synced(subject),
	}, start)
}
