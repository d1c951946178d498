// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package store is the per-session Entity Store: the cached aquarium list and
the CRUD operations against the backend.

The cached list changes only through Refresh. Create, Update and Delete
never merge server responses into it; Create and Delete trigger a Refresh
afterwards. Refresh is the only operation that retries.
*/
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/validation"
)

// Backend is the subset of the gateway the store uses.
type Backend interface {
	ListAquariums(ctx context.Context) ([]models.Aquarium, error)
	CreateAquarium(ctx context.Context, draft *models.AquariumDraft) (*models.Aquarium, error)
	UpdateAquarium(ctx context.Context, aq *models.Aquarium) (*models.Aquarium, error)
	DeleteAquarium(ctx context.Context, id models.ID) error
	CreateFeedingLog(ctx context.Context, entry *models.FeedingLog) error
}

// Notifier is told about newly created aquariums so the dashboard can offer
// schedule setup.
type Notifier interface {
	AquariumCreated(ctx context.Context, aq *models.Aquarium)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, aq *models.Aquarium)

// AquariumCreated implements Notifier.
func (f NotifierFunc) AquariumCreated(ctx context.Context, aq *models.Aquarium) {
	f(ctx, aq)
}

// FetchError is returned by Refresh after every attempt failed.
type FetchError struct {
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch aquariums: failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Store caches one user's aquarium list.
type Store struct {
	backend  Backend
	notifier Notifier
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	mu        sync.RWMutex
	aquariums []models.Aquarium
	loaded    bool
}

// Option configures a Store.
type Option func(*Store)

// WithRetry sets the refresh attempt count and the fixed delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// WithSleep replaces the delay wait, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Store) { s.sleep = sleep }
}

// WithNotifier sets the collaborator told about created aquariums.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// New creates a store. The default policy is 2 attempts 2s apart.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		attempts:  2,
		delay:     2 * time.Second,
		sleep:     sleepContext,
		aquariums: []models.Aquarium{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the full aquarium list, retrying with a fixed delay. When
// every attempt fails the cached list becomes empty and a *FetchError is
// returned; stale data is never kept silently.
func (s *Store) Refresh(ctx context.Context) ([]models.Aquarium, error) {
	var err error
	attempts := 0

	for attempts < s.attempts {
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}

		var list []models.Aquarium
		list, err = s.backend.ListAquariums(ctx)
		attempts++
		metrics.RecordRefreshAttempt(err)
		if err == nil {
			if list == nil {
				list = []models.Aquarium{}
			}
			s.setList(list)
			return s.List(), nil
		}

		if attempts < s.attempts {
			logging.Ctx(ctx).Warn().
				Err(err).
				Int("attempt", attempts).
				Int("max_attempts", s.attempts).
				Dur("delay", s.delay).
				Msg("aquarium fetch failed, retrying")
			if sleepErr := s.sleep(ctx, s.delay); sleepErr != nil {
				err = sleepErr
				break
			}
		}
	}

	metrics.StoreRefreshExhausted.Inc()
	s.setList(nil)
	logging.Ctx(ctx).Error().Err(err).Int("attempts", attempts).Msg("aquarium fetch failed")
	return []models.Aquarium{}, &FetchError{Attempts: attempts, Err: err}
}

// List returns a copy of the cached list.
func (s *Store) List() []models.Aquarium {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Aquarium, len(s.aquariums))
	copy(out, s.aquariums)
	return out
}

// Loaded reports whether a Refresh has succeeded since the last failure.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get returns the cached aquarium with id.
func (s *Store) Get(id models.ID) (models.Aquarium, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, aq := range s.aquariums {
		if aq.ID == id {
			return aq, true
		}
	}
	return models.Aquarium{}, false
}

// Filter returns cached aquariums whose name or device_uid contains query,
// case-insensitively. A blank query matches everything.
func (s *Store) Filter(query string) ([]models.Aquarium, models.AquariumStats) {
	all := s.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, models.AquariumStats{Total: len(all), Filtered: len(all)}
	}

	matched := make([]models.Aquarium, 0, len(all))
	for _, aq := range all {
		device := ""
		if aq.DeviceUID != nil {
			device = *aq.DeviceUID
		}
		if strings.Contains(strings.ToLower(aq.Name), q) || strings.Contains(strings.ToLower(device), q) {
			matched = append(matched, aq)
		}
	}
	return matched, models.AquariumStats{Total: len(all), Filtered: len(matched)}
}

// Create validates and posts a new aquarium, then refreshes the list and
// notifies collaborators. A failed post-create refresh is logged; the
// aquarium was still created.
func (s *Store) Create(ctx context.Context, draft *models.AquariumDraft) (*models.Aquarium, error) {
	if verr := validation.ValidateStruct(draft); verr != nil {
		return nil, verr
	}
	draft.Name = strings.TrimSpace(draft.Name)

	created, err := s.backend.CreateAquarium(ctx, draft)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("name", draft.Name).Msg("create aquarium failed")
		return nil, fmt.Errorf("create aquarium: %w", err)
	}

	if _, err := s.Refresh(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("aquarium_id", created.ID.String()).Msg("refresh after create failed")
	}
	if s.notifier != nil {
		s.notifier.AquariumCreated(ctx, created)
	}
	return created, nil
}

// Update replaces the full aquarium record. Callers supply every field.
func (s *Store) Update(ctx context.Context, aq *models.Aquarium) (*models.Aquarium, error) {
	if aq.ID.IsZero() {
		return nil, validation.NewFieldError("id", "required", "id is required", nil)
	}
	if verr := validation.ValidateStruct(aq); verr != nil {
		return nil, verr
	}

	updated, err := s.backend.UpdateAquarium(ctx, aq)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("aquarium_id", aq.ID.String()).Msg("update aquarium failed")
		return nil, fmt.Errorf("update aquarium %s: %w", aq.ID, err)
	}
	return updated, nil
}

// Delete removes an aquarium. confirmed must be true: the user has to
// confirm before anything is sent.
func (s *Store) Delete(ctx context.Context, id models.ID, confirmed bool) error {
	if !confirmed {
		return validation.NewFieldError("confirm", "required", "delete must be confirmed", false)
	}
	if id.IsZero() {
		return validation.NewFieldError("id", "required", "id is required", nil)
	}

	if err := s.backend.DeleteAquarium(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("aquarium_id", id.String()).Msg("delete aquarium failed")
		return fmt.Errorf("delete aquarium %s: %w", id, err)
	}

	if _, err := s.Refresh(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("aquarium_id", id.String()).Msg("refresh after delete failed")
	}
	return nil
}

func (s *Store) setList(list []models.Aquarium) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list == nil {
		s.aquariums = []models.Aquarium{}
		s.loaded = false
		return
	}
	s.aquariums = list
	s.loaded = true
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsFetchError reports whether err is a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
