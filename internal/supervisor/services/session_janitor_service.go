// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package services

import (
	"context"
	"time"

	"github.com/tomtom215/aquascape/internal/logging"
)

// Sweeper matches (*session.Registry).CleanupExpired.
type Sweeper interface {
	CleanupExpired() int
}

// SessionJanitorService closes idle sessions on a fixed period, which
// also stops their alert pollers.
type SessionJanitorService struct {
	sweeper  Sweeper
	interval time.Duration
	name     string
}

// NewSessionJanitorService sweeps every interval. A non-positive interval
// becomes one minute.
func NewSessionJanitorService(sweeper Sweeper, interval time.Duration) *SessionJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionJanitorService{
		sweeper:  sweeper,
		interval: interval,
		name:     "session-janitor",
	}
}

// Serve implements suture.Service.
func (s *SessionJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.sweeper.CleanupExpired(); n > 0 {
				logging.Info().Int("sessions", n).Msg("closed idle sessions")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *SessionJanitorService) String() string {
	return s.name
}
