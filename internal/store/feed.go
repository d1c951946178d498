// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package store

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/validation"
)

// fallbackFeedGrams is used when an aquarium has neither a configured
// volume nor a size.
const fallbackFeedGrams = 5

// DefaultFeedVolume returns the volume a manual feed uses when the user
// does not supply one: the configured feeding volume if positive, else 20%
// of the tank size rounded (at least 1 g), else 5 g.
func DefaultFeedVolume(aq *models.Aquarium) float64 {
	if aq.FeedingVolumeGrams != nil && *aq.FeedingVolumeGrams > 0 && !math.IsNaN(*aq.FeedingVolumeGrams) {
		return *aq.FeedingVolumeGrams
	}
	if aq.SizeLitres != nil && *aq.SizeLitres > 0 {
		return math.Max(1, math.Round(*aq.SizeLitres*0.2))
	}
	return fallbackFeedGrams
}

// Feed records a manual feeding for an aquarium with an attached device.
// volume may be nil to use DefaultFeedVolume.
func (s *Store) Feed(ctx context.Context, aq *models.Aquarium, volume *float64) (*models.FeedingLog, error) {
	if !aq.HasDevice() {
		return nil, validation.NewFieldError("device_uid", "required", "manual feeding requires an attached device", nil)
	}

	grams := DefaultFeedVolume(aq)
	if volume != nil {
		grams = *volume
	}
	if grams <= 0 || math.IsNaN(grams) || math.IsInf(grams, 0) {
		return nil, validation.NewFieldError("volume_grams", "gt", "volume_grams must be greater than 0", grams)
	}

	entry := &models.FeedingLog{
		AquariumID:  aq.ID,
		Mode:        models.FeedModeManual,
		VolumeGrams: grams,
		Actor:       models.FeedActorUI,
	}
	if err := s.backend.CreateFeedingLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("feed aquarium %s: %w", aq.ID, err)
	}

	logging.Ctx(ctx).Info().
		Str("aquarium_id", aq.ID.String()).
		Float64("volume_grams", grams).
		Msg("manual feed recorded")
	return entry, nil
}
