// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package store

import (
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/validation"
)

// ParseDraft converts raw form text into a create request. Blank optional
// fields become nil.
func ParseDraft(form *models.AquariumForm) (*models.AquariumDraft, error) {
	size, err := ParseOptionalNumber("size_litres", form.SizeLitres)
	if err != nil {
		return nil, err
	}
	return &models.AquariumDraft{
		Name:       strings.TrimSpace(form.Name),
		SizeLitres: size,
		DeviceUID:  optionalString(form.DeviceUID),
	}, nil
}

// ApplyForm overlays raw edit-form text on current and returns the full
// record for the PUT. Fields the form does not carry, such as id and
// user_id, keep their current values.
func ApplyForm(current *models.Aquarium, form *models.AquariumForm) (*models.Aquarium, error) {
	size, err := ParseOptionalNumber("size_litres", form.SizeLitres)
	if err != nil {
		return nil, err
	}
	volume, err := ParseOptionalNumber("feeding_volume_grams", form.FeedingVolumeGrams)
	if err != nil {
		return nil, err
	}
	period, err := ParseOptionalNumber("feeding_period_hours", form.FeedingPeriodHours)
	if err != nil {
		return nil, err
	}
	record := *current
	record.Name = strings.TrimSpace(form.Name)
	record.SizeLitres = size
	record.DeviceUID = optionalString(form.DeviceUID)
	record.FeedingVolumeGrams = volume
	record.FeedingPeriodHours = period
	return &record, nil
}

// ParseOptionalNumber parses a form number. Blank text is nil; anything
// else must be a finite number.
func ParseOptionalNumber(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, validation.NewFieldError(field, "number", field+" must be a number", raw)
	}
	return &v, nil
}

func optionalString(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}
