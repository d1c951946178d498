// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package sensors turns raw sensor readings into the chart series shown for
// an aquarium. Device firmware versions disagree on field names, so every
// field is resolved through an ordered list of accessors.
package sensors

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/aquascape/internal/models"
)

// DefaultWindow is the number of points kept for the chart.
const DefaultWindow = 8

// accessor reads one candidate field from a raw record. ok is false when
// the field is absent or null.
type accessor func(rec models.SensorRecord) (key string, v any, ok bool)

func key(name string) accessor {
	return func(rec models.SensorRecord) (string, any, bool) {
		v, ok := rec[name]
		return name, v, ok && v != nil
	}
}

// Accessors per field in priority order; the first defined value wins.
var (
	timestampFields   = []accessor{key("ts"), key("timestamp"), key("created_at"), key("time"), key("recorded_at")}
	phFields          = []accessor{key("ph"), key("pH"), key("ph_value")}
	temperatureFields = []accessor{key("temperature_c"), key("temperature"), key("temp_c"), key("temp")}
	salinityFields    = []accessor{key("salinity"), key("salinity_psu"), key("specific_gravity")}
)

// timestampLayouts are tried in order for string timestamps. Layouts without
// a zone are read in the reducer's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseError is a record whose timestamp could not be parsed. Such records
// are dropped from the series.
type ParseError struct {
	Key   string
	Value any
}

func (e *ParseError) Error() string {
	if e.Key == "" {
		return "sensor record has no timestamp"
	}
	return fmt.Sprintf("sensor record has unparsable %s %v", e.Key, e.Value)
}

// Reducer normalizes raw readings.
type Reducer struct {
	Window   int
	Location *time.Location
}

// NewReducer creates a reducer keeping window points labelled in loc.
func NewReducer(window int, loc *time.Location) *Reducer {
	if window <= 0 {
		window = DefaultWindow
	}
	if loc == nil {
		loc = time.Local
	}
	return &Reducer{Window: window, Location: loc}
}

type datedPoint struct {
	at    time.Time
	point models.SensorPoint
}

// Reduce resolves fields, drops records without a usable timestamp, sorts
// ascending and keeps the newest Window points. It also returns the records
// that were dropped.
func (r *Reducer) Reduce(raw []models.SensorRecord) (models.SensorSeries, []*ParseError) {
	dated := make([]datedPoint, 0, len(raw))
	var dropped []*ParseError

	for _, rec := range raw {
		at, err := r.timestamp(rec)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		dated = append(dated, datedPoint{
			at: at,
			point: models.SensorPoint{
				Time:        at.In(r.Location).Format("15:04"),
				PH:          number(rec, phFields),
				Temperature: number(rec, temperatureFields),
				Salinity:    number(rec, salinityFields),
			},
		})
	}

	sort.SliceStable(dated, func(i, j int) bool { return dated[i].at.Before(dated[j].at) })
	if len(dated) > r.Window {
		dated = dated[len(dated)-r.Window:]
	}

	series := make(models.SensorSeries, len(dated))
	for i, d := range dated {
		series[i] = d.point
	}
	return series, dropped
}

func first(rec models.SensorRecord, fields []accessor) (string, any, bool) {
	for _, get := range fields {
		if k, v, ok := get(rec); ok {
			return k, v, true
		}
	}
	return "", nil, false
}

func (r *Reducer) timestamp(rec models.SensorRecord) (time.Time, *ParseError) {
	key, v, ok := first(rec, timestampFields)
	if !ok {
		return time.Time{}, &ParseError{}
	}

	switch tv := v.(type) {
	case string:
		s := strings.TrimSpace(tv)
		if s == "" {
			break
		}
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, r.Location); err == nil {
				return t, nil
			}
		}
	case float64:
		// Numeric timestamps are epoch milliseconds. Zero is treated as missing.
		if tv != 0 && !math.IsNaN(tv) && !math.IsInf(tv, 0) {
			return time.UnixMilli(int64(tv)), nil
		}
	case int64:
		if tv != 0 {
			return time.UnixMilli(tv), nil
		}
	case int:
		if tv != 0 {
			return time.UnixMilli(int64(tv)), nil
		}
	case time.Time:
		if !tv.IsZero() {
			return tv, nil
		}
	}
	return time.Time{}, &ParseError{Key: key, Value: v}
}

// number resolves a numeric field. Numeric strings are accepted; anything
// that is not a finite number is nil.
func number(rec models.SensorRecord, fields []accessor) *float64 {
	_, v, ok := first(rec, fields)
	if !ok {
		return nil
	}

	var f float64
	switch tv := v.(type) {
	case float64:
		f = tv
	case float32:
		f = float64(tv)
	case int:
		f = float64(tv)
	case int64:
		f = float64(tv)
	case bool:
		if tv {
			f = 1
		}
	case string:
		s := strings.TrimSpace(tv)
		if s == "" {
			f = 0
			break
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
