// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package schedule

import (
	"context"
	"fmt"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/validation"
)

// AquariumUpdater performs the full-record aquarium PUT.
type AquariumUpdater interface {
	Update(ctx context.Context, aq *models.Aquarium) (*models.Aquarium, error)
}

// PartialFailureError means the aquarium was updated but the schedule
// write failed. The aquarium update is not rolled back.
type PartialFailureError struct {
	Aquarium *models.Aquarium
	Err      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("aquarium %s saved but schedule was not: %v", e.Aquarium.ID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// SaveWithAquarium stores the feeding fields on the aquarium and then
// reconciles the schedule. The two phases are independent: a phase one
// failure returns its error and nothing else happens; a phase two failure
// returns *PartialFailureError.
func (r *Reconciler) SaveWithAquarium(ctx context.Context, aquariums AquariumUpdater, current *models.Aquarium, req *models.ScheduleRequest) (*models.ScheduleResult, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	record := *current
	record.FeedingVolumeGrams = req.FeedingVolumeGrams
	record.FeedingPeriodHours = req.FeedingPeriodHours
	return r.SaveRecord(ctx, aquariums, &record)
}

// SaveRecord is the two-phase save for an already edited full record: the
// aquarium PUT, then the schedule for its feeding volume and period. The
// schedule phase is skipped when either value is nil.
func (r *Reconciler) SaveRecord(ctx context.Context, aquariums AquariumUpdater, record *models.Aquarium) (*models.ScheduleResult, error) {
	updated, err := aquariums.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	scheduleID, err := r.Save(ctx, updated.ID, record.FeedingVolumeGrams, record.FeedingPeriodHours)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("aquarium_id", updated.ID.String()).Msg("schedule save failed after aquarium update")
		return nil, &PartialFailureError{Aquarium: updated, Err: err}
	}

	return &models.ScheduleResult{
		Aquarium:   *updated,
		ScheduleID: scheduleID,
		Skipped:    scheduleID.IsZero(),
	}, nil
}
