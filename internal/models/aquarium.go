// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package models

// Aquarium is a backend aquarium record. The backend contract for updates
// is a full-record PUT, so callers always send the complete record.
//
// Example:
//
//	{
//	  "id": 42,
//	  "name": "Reef Tank",
//	  "size_litres": 100,
//	  "device_uid": "ABC123",
//	  "feeding_volume_grams": 5,
//	  "feeding_period_hours": 8
//	}
type Aquarium struct {
	ID                 ID       `json:"id"`
	UserID             string   `json:"user_id,omitempty"`
	Name               string   `json:"name" validate:"notblank,max=100"`
	SizeLitres         *float64 `json:"size_litres" validate:"omitempty,gte=0"`
	DeviceUID          *string  `json:"device_uid" validate:"omitempty,device_uid"`
	FeedingVolumeGrams *float64 `json:"feeding_volume_grams" validate:"omitempty,gt=0"`
	FeedingPeriodHours *float64 `json:"feeding_period_hours" validate:"omitempty,gt=0"`
}

// HasDevice reports whether a physical controller is attached.
func (a *Aquarium) HasDevice() bool {
	return a.DeviceUID != nil && *a.DeviceUID != ""
}

// AquariumDraft is the create request: POST /aquariums {name, size_litres, device_uid}.
type AquariumDraft struct {
	Name       string   `json:"name" validate:"notblank,max=100"`
	SizeLitres *float64 `json:"size_litres" validate:"omitempty,gte=0"`
	DeviceUID  *string  `json:"device_uid" validate:"omitempty,device_uid"`
}

// AquariumForm carries raw form text as submitted by the dashboard. Blank
// fields become null when parsed.
type AquariumForm struct {
	Name               string `json:"name"`
	SizeLitres         string `json:"size_litres"`
	DeviceUID          string `json:"device_uid"`
	FeedingVolumeGrams string `json:"feeding_volume_grams"`
	FeedingPeriodHours string `json:"feeding_period_hours"`
}

// AquariumStats is returned alongside a filtered list.
type AquariumStats struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
}

// AquariumList is the BFF list response.
type AquariumList struct {
	Aquariums []Aquarium    `json:"aquariums"`
	Stats     AquariumStats `json:"stats"`
}
