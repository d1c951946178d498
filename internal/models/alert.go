// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package models

// DangerAlert is an active device alert. Resolved alerts leave the active set.
type DangerAlert struct {
	ID         ID     `json:"id"`
	AquariumID ID     `json:"aquarium_id"`
	Message    string `json:"message"`
	TS         string `json:"ts"`
}

// AlertRecord is the body of POST /alerts, used by devices and for
// command records.
type AlertRecord struct {
	AquariumID ID     `json:"aquarium_id"`
	Type       string `json:"type" validate:"required,max=50"`
	Message    string `json:"message" validate:"max=500"`
	Severity   string `json:"severity,omitempty" validate:"omitempty,oneof=info warning danger"`
}

// FeedingLog is the body of POST /feeding_logs.
type FeedingLog struct {
	AquariumID  ID      `json:"aquarium_id"`
	Mode        string  `json:"mode"`
	VolumeGrams float64 `json:"volume_grams"`
	Actor       string  `json:"actor"`
}

// Manual feed constants.
const (
	FeedModeManual = "MANUAL"
	FeedActorUI    = "manual_ui"
)

// FeedRequest is the BFF manual feed submission. A nil volume uses the
// aquarium default.
type FeedRequest struct {
	VolumeGrams *float64 `json:"volume_grams" validate:"omitempty,gt=0"`
}
