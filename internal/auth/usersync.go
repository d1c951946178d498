// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package auth

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/aquascape/internal/cache"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
)

// Syncer posts the sign-in reconciliation call.
type Syncer interface {
	SyncUser(ctx context.Context) error
}

// UserSync reconciles each sign-in with the backend exactly once. A failed
// sync is not remembered, so the next request retries it. Concurrent
// requests for the same sign-in share one backend call.
type UserSync struct {
	synced *cache.LRU[struct{}]
	group  singleflight.Group
}

// NewUserSync creates a tracker remembering up to capacity sign-ins for ttl.
func NewUserSync(capacity int, ttl time.Duration) *UserSync {
	return &UserSync{synced: cache.New[struct{}](capacity, ttl)}
}

// Ensure runs the sync for the subject's sign-in unless it already
// succeeded. It reports whether a backend call was made by this caller.
func (u *UserSync) Ensure(ctx context.Context, s *Subject, client Syncer) (bool, error) {
	key := s.SignInKey()
	if u.synced.Contains(key) {
		return false, nil
	}

	v, err, shared := u.group.Do(key, func() (interface{}, error) {
		if u.synced.Contains(key) {
			return false, nil
		}
		err := client.SyncUser(ctx)
		metrics.RecordUserSync(err)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("subject", s.ID).Msg("user sync failed, will retry on next request")
			return false, err
		}
		u.synced.Add(key, struct{}{})
		logging.Ctx(ctx).Info().Str("subject", s.ID).Msg("user synced with backend")
		return true, nil
	})
	called, _ := v.(bool)
	return called && !shared, err
}

// Synced reports whether the subject's current sign-in has been synced.
func (u *UserSync) Synced(s *Subject) bool {
	return u.synced.Contains(s.SignInKey())
}
