// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package models

// SensorRecord is one raw reading as returned by GET /sensor_data. Field
// names vary between device firmware versions.
type SensorRecord = map[string]any

// SensorPoint is a normalized chart point. Real and synthetic series share
// this shape.
type SensorPoint struct {
	Time        string   `json:"time"`
	PH          *float64 `json:"ph"`
	Temperature *float64 `json:"temperature"`
	Salinity    *float64 `json:"salinity"`
}

// SensorSeries is at most Window points ascending by time.
type SensorSeries []SensorPoint
