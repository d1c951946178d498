// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package sensors

import (
	"math"
	"time"

	"github.com/tomtom215/aquascape/internal/models"
)

// Synthetic returns the placeholder series shown when no real readings are
// available: Window hourly points ending at now.
func (r *Reducer) Synthetic(now time.Time) models.SensorSeries {
	series := make(models.SensorSeries, r.Window)
	for i := range series {
		at := now.Add(-time.Duration(r.Window-1-i) * time.Hour)
		x := float64(i)
		ph := round(6.8+0.3*math.Sin(x/2), 2)
		temp := round(25+1.5*math.Cos(x/3), 2)
		sal := round(30+math.Sin(x/4), 1)
		series[i] = models.SensorPoint{
			Time:        at.In(r.Location).Format("15:04"),
			PH:          &ph,
			Temperature: &temp,
			Salinity:    &sal,
		}
	}
	return series
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
