// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package sensors

import (
	"context"
	"time"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/models"
)

// Source fetches raw readings for an aquarium.
type Source interface {
	ListSensorData(ctx context.Context, aquariumID models.ID) ([]models.SensorRecord, error)
}

// Service produces chart series, falling back to synthetic data.
type Service struct {
	source  Source
	reducer *Reducer
	now     func() time.Time
}

// NewService creates a sensor service.
func NewService(source Source, reducer *Reducer) *Service {
	if reducer == nil {
		reducer = NewReducer(DefaultWindow, nil)
	}
	return &Service{source: source, reducer: reducer, now: time.Now}
}

// SetClock replaces the clock used for synthetic series.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Series returns the chart series for an aquarium and whether it is
// synthetic. A fetch failure is not an error for the caller: it yields the
// synthetic series.
func (s *Service) Series(ctx context.Context, aquariumID models.ID) (models.SensorSeries, bool) {
	raw, err := s.source.ListSensorData(ctx, aquariumID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("aquarium_id", aquariumID.String()).Msg("sensor fetch failed, using synthetic series")
		metrics.RecordSensorSeries(true, 0)
		return s.reducer.Synthetic(s.now()), true
	}

	series, dropped := s.reducer.Reduce(raw)
	if len(dropped) > 0 {
		logging.Ctx(ctx).Debug().
			Str("aquarium_id", aquariumID.String()).
			Int("dropped", len(dropped)).
			Str("first_error", dropped[0].Error()).
			Msg("discarded sensor records with bad timestamps")
	}
	if len(series) == 0 {
		metrics.RecordSensorSeries(true, len(dropped))
		return s.reducer.Synthetic(s.now()), true
	}

	metrics.RecordSensorSeries(false, len(dropped))
	return series, false
}
