// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/session"
	"github.com/tomtom215/aquascape/internal/store"
)

// ListAquariums refreshes the caller's aquarium list and returns the
// entries matching ?q= with their stats. When the refresh fails the error
// envelope still carries the (empty) list so the dashboard can render it.
func (h *Handler) ListAquariums(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	_, err := sess.Store.Refresh(r.Context())
	matched, stats := sess.Store.Filter(r.URL.Query().Get("q"))
	list := models.AquariumList{Aquariums: matched, Stats: stats}

	if err != nil {
		status, apiErr := errorResponse(err)
		logRequestError(r, status, apiErr.Code, err)
		respondJSON(w, status, &models.APIResponse{
			Status:   "error",
			Data:     list,
			Metadata: models.Metadata{Timestamp: time.Now(), QueryTimeMS: time.Since(start).Milliseconds()},
			Error:    apiErr,
		})
		return
	}
	respondData(w, http.StatusOK, list, start)
}

// CreateAquarium creates an aquarium from the add form.
func (h *Handler) CreateAquarium(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	var form models.AquariumForm
	if err := decodeJSON(w, r, &form, false); err != nil {
		respondErr(w, r, err)
		return
	}
	draft, err := store.ParseDraft(&form)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	created, err := sess.Store.Create(r.Context(), draft)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, created, start)
}

// UpdateAquarium applies the edit form to the cached record, sends the
// full record, then reconciles the feeding schedule from the edited
// feeding fields. A schedule failure after the aquarium was saved is a
// partial failure.
func (h *Handler) UpdateAquarium(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	var form models.AquariumForm
	if err := decodeJSON(w, r, &form, false); err != nil {
		respondErr(w, r, err)
		return
	}
	current, found, err := lookupAquarium(r.Context(), sess, aquariumID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !found {
		respondNotFound(w)
		return
	}
	record, err := store.ApplyForm(&current, &form)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	result, err := sess.Schedules.SaveRecord(r.Context(), sess.Store, record)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, result, start)
}

// DeleteAquarium deletes an aquarium. The dashboard must pass
// ?confirm=true once the user has confirmed.
func (h *Handler) DeleteAquarium(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	id := aquariumID(r)
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := sess.Store.Delete(r.Context(), id, confirmed); err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": id}, start)
}

// SaveSchedule stores the feeding fields on the aquarium and reconciles
// its feeding schedule.
func (h *Handler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.ScheduleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondErr(w, r, err)
		return
	}
	current, found, err := lookupAquarium(r.Context(), sess, aquariumID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !found {
		respondNotFound(w)
		return
	}

	result, err := sess.Schedules.SaveWithAquarium(r.Context(), sess.Store, &current, &req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, result, start)
}

// SensorSeries returns the chart series for an aquarium. metadata.synthetic
// is set when the backend had no usable readings.
func (h *Handler) SensorSeries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	series, synthetic := sess.Sensors.Series(r.Context(), aquariumID(r))
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   series,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Synthetic:   synthetic,
		},
	})
}

// Feed records a manual feeding. The body is optional; without a volume
// the aquarium's default feed volume is used.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.FeedRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondErr(w, r, err)
		return
	}
	aq, found, err := lookupAquarium(r.Context(), sess, aquariumID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !found {
		respondNotFound(w)
		return
	}

	entry, err := sess.Store.Feed(r.Context(), &aq, req.VolumeGrams)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, entry, start)
}

func aquariumID(r *http.Request) models.ID {
	return models.ID(chi.URLParam(r, "id"))
}

// lookupAquarium finds an aquarium in the session cache, refreshing once
// when it is not there.
func lookupAquarium(ctx context.Context, sess *session.Session, id models.ID) (models.Aquarium, bool, error) {
	if aq, ok := sess.Store.Get(id); ok {
		return aq, true, nil
	}
	if _, err := sess.Store.Refresh(ctx); err != nil {
		return models.Aquarium{}, false, err
	}
	aq, ok := sess.Store.Get(id)
	return aq, ok, nil
}

func respondNotFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, CodeNotFound, "Aquarium not found", nil)
}
