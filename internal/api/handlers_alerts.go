// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/aquascape/internal/models"
)

// AlertsView is the body of GET /api/v1/alerts.
type AlertsView struct {
	AquariumID models.ID            `json:"aquarium_id"`
	Alerts     []models.DangerAlert `json:"alerts"`
}

// ViewAquarium makes the aquarium the caller's currently viewed one and
// starts polling its alerts. Any previous poller is stopped first.
func (h *Handler) ViewAquarium(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	id := aquariumID(r)
	if _, found, err := lookupAquarium(r.Context(), sess, id); err != nil {
		respondErr(w, r, err)
		return
	} else if !found {
		respondNotFound(w)
		return
	}

	sess.Alerts.View(id)
	respondData(w, http.StatusAccepted, map[string]interface{}{"viewing": id}, start)
}

// CloseView stops alert polling. Closing with nothing viewed is not an error.
func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Alerts.Close()
	respondData(w, http.StatusOK, map[string]interface{}{"viewing": nil}, start)
}

// ListAlerts returns the active alerts of the viewed aquarium.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	viewing, active := sess.Alerts.Active()
	if viewing.IsZero() {
		respondError(w, http.StatusConflict, CodeNoActiveView, "No aquarium is being viewed", nil)
		return
	}
	respondData(w, http.StatusOK, AlertsView{AquariumID: viewing, Alerts: active}, start)
}

// ResolveAlert removes the alert from the active set at once and resolves
// it on the backend in the background.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	id := models.ID(chi.URLParam(r, "id"))
	found := sess.Alerts.Resolve(r.Context(), id)
	respondData(w, http.StatusAccepted, map[string]interface{}{"alert_id": id, "was_active": found}, start)
}
