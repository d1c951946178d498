// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package schedule keeps an aquarium's automatic feeding schedule in step
// with its feeding volume and period.
//
// The backend offers no upsert, so a save resolves the existing schedule id
// first and then either updates or creates. Ids returned by creates are
// remembered for the lifetime of the session so a second save updates even
// when the lookup endpoint lags behind.
package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/models"
)

// Backend is the subset of the gateway used for schedules.
type Backend interface {
	ResolveScheduleID(ctx context.Context, aquariumID models.ID) (models.ID, error)
	CreateSchedule(ctx context.Context, payload *models.SchedulePayload) (models.ID, error)
	UpdateSchedule(ctx context.Context, id models.ID, payload *models.SchedulePayload) error
}

// Write actions recorded in metrics.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionSkip   = "skip"
)

// Reconciler creates or updates the single automatic schedule per aquarium.
type Reconciler struct {
	backend Backend

	mu    sync.Mutex
	known map[models.ID]models.ID
	locks map[models.ID]*sync.Mutex
}

// NewReconciler creates a reconciler with an empty session cache.
func NewReconciler(backend Backend) *Reconciler {
	return &Reconciler{
		backend: backend,
		known:   make(map[models.ID]models.ID),
		locks:   make(map[models.ID]*sync.Mutex),
	}
}

// Payload builds the schedule body for an aquarium.
func Payload(aquariumID models.ID, volumeGrams, periodHours float64) *models.SchedulePayload {
	return &models.SchedulePayload{
		AquariumID:      aquariumID,
		Name:            models.ScheduleNameAuto,
		Type:            models.ScheduleTypeInterval,
		IntervalHours:   periodHours,
		FeedVolumeGrams: volumeGrams,
		Enabled:         true,
	}
}

// Save writes the schedule for aquariumID. When volume or period is nil no
// backend call is made and the returned id is empty.
//
// Saves for the same aquarium are serialized so that two concurrent first
// saves cannot both create.
func (r *Reconciler) Save(ctx context.Context, aquariumID models.ID, volumeGrams, periodHours *float64) (models.ID, error) {
	if volumeGrams == nil || periodHours == nil {
		metrics.RecordScheduleWrite(ActionSkip, nil)
		return "", nil
	}

	lock := r.lockFor(aquariumID)
	lock.Lock()
	defer lock.Unlock()

	log := logging.Ctx(ctx).With().Str("aquarium_id", aquariumID.String()).Logger()

	scheduleID, err := r.backend.ResolveScheduleID(ctx, aquariumID)
	if err != nil {
		cached := r.Known(aquariumID)
		log.Warn().Err(err).Str("cached_schedule_id", cached.String()).Msg("schedule id lookup failed")
		scheduleID = cached
	} else if scheduleID.IsZero() {
		scheduleID = r.Known(aquariumID)
	}

	payload := Payload(aquariumID, *volumeGrams, *periodHours)

	if !scheduleID.IsZero() {
		err := r.backend.UpdateSchedule(ctx, scheduleID, payload)
		metrics.RecordScheduleWrite(ActionUpdate, err)
		if err != nil {
			return "", fmt.Errorf("update schedule %s: %w", scheduleID, err)
		}
		r.remember(aquariumID, scheduleID)
		log.Debug().Str("schedule_id", scheduleID.String()).Msg("schedule updated")
		return scheduleID, nil
	}

	created, err := r.backend.CreateSchedule(ctx, payload)
	metrics.RecordScheduleWrite(ActionCreate, err)
	if err != nil {
		return "", fmt.Errorf("create schedule: %w", err)
	}
	r.remember(aquariumID, created)
	log.Info().Str("schedule_id", created.String()).Msg("schedule created")
	return created, nil
}

// Known returns the schedule id remembered for an aquarium, if any.
func (r *Reconciler) Known(aquariumID models.ID) models.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.known[aquariumID]
}

// Forget drops the remembered id, used after the aquarium is deleted.
func (r *Reconciler) Forget(aquariumID models.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.known, aquariumID)
}

func (r *Reconciler) remember(aquariumID, scheduleID models.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[aquariumID] = scheduleID
}

func (r *Reconciler) lockFor(aquariumID models.ID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[aquariumID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[aquariumID] = l
	}
	return l
}
