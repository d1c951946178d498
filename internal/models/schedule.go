// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package models

// Schedule type and name used for every automatic feeding schedule.
const (
	ScheduleTypeInterval = "interval"
	ScheduleNameAuto     = "Auto Feeding"
)

// SchedulePayload is the body of POST /schedules and PUT /schedules/{id}.
type SchedulePayload struct {
	AquariumID      ID      `json:"aquarium_id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	IntervalHours   float64 `json:"interval_hours"`
	FeedVolumeGrams float64 `json:"feed_volume_grams"`
	Enabled         bool    `json:"enabled"`
}

// Schedule is a stored feeding schedule.
type Schedule struct {
	ID ID `json:"id"`
	SchedulePayload
}

// ScheduleIDLookup is the response of GET /aquariums/{id}/schedule-id.
type ScheduleIDLookup struct {
	ScheduleID ID `json:"schedule_id"`
}

// ScheduleRequest is the BFF schedule modal submission.
type ScheduleRequest struct {
	FeedingVolumeGrams *float64 `json:"feeding_volume_grams" validate:"omitempty,gt=0"`
	FeedingPeriodHours *float64 `json:"feeding_period_hours" validate:"omitempty,gt=0"`
}

// ScheduleResult reports what a two-phase save did.
type ScheduleResult struct {
	Aquarium   Aquarium `json:"aquarium"`
	ScheduleID ID       `json:"schedule_id"`
	// Skipped is set when volume or period was missing and no schedule
	// call was made.
	Skipped bool `json:"skipped"`
}
