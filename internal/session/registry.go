// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/aquascape/internal/auth"
	"github.com/tomtom215/aquascape/internal/cache"
	"github.com/tomtom215/aquascape/internal/config"
	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/sensors"
)

// Options configures the registry and the sessions it creates.
type Options struct {
	TTL      time.Duration
	Capacity int

	RefreshAttempts int
	RefreshDelay    time.Duration

	PollInterval time.Duration
	ResolvedTTL  time.Duration

	Reducer *sensors.Reducer

	// Clock replaces time.Now for session expiry.
	Clock func() time.Time
}

// OptionsFromConfig builds registry options from the runtime configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Sensors.Location()
	if err != nil {
		return Options{}, fmt.Errorf("load sensor timezone %q: %w", cfg.Sensors.Timezone, err)
	}
	return Options{
		TTL:             cfg.Session.TTL,
		Capacity:        cfg.Session.Capacity,
		RefreshAttempts: cfg.Store.RefreshAttempts,
		RefreshDelay:    cfg.Store.RefreshDelay,
		PollInterval:    cfg.Alerts.PollInterval,
		ResolvedTTL:     cfg.Alerts.ResolvedTTL,
		Reducer:         sensors.NewReducer(cfg.Sensors.Window, loc),
	}, nil
}

// Registry maps token subjects to sessions.
type Registry struct {
	base      context.Context
	client    *gateway.Client
	publisher Publisher
	opts      Options

	// mu makes get-or-create atomic so one subject never gets two sessions.
	mu       sync.Mutex
	sessions *cache.LRU[*Session]
}

// NewRegistry creates an empty registry. ctx is the parent of every
// session's background work. publisher may be nil.
func NewRegistry(ctx context.Context, client *gateway.Client, publisher Publisher, opts Options) *Registry {
	if opts.Reducer == nil {
		opts.Reducer = sensors.NewReducer(sensors.DefaultWindow, nil)
	}
	r := &Registry{
		base:      ctx,
		client:    client,
		publisher: publisher,
		opts:      opts,
	}

	cacheOpts := []cache.Option[*Session]{cache.WithEvict(r.evict)}
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock[*Session](opts.Clock))
	}
	r.sessions = cache.New[*Session](opts.Capacity, opts.TTL, cacheOpts...)
	return r
}

// Acquire returns the subject's session, creating it on first use. Every
// call extends the session's lifetime and records the caller's token as the
// newest one seen.
func (r *Registry) Acquire(s *auth.Subject) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions.Get(s.ID); ok {
		r.sessions.Touch(s.ID)
		sess.Tokens.Observe(s)
		return sess
	}

	sess := newSession(r.base, r.client, s, r.publisher, &r.opts)
	r.sessions.Add(s.ID, sess)
	metrics.SessionsActive.Set(float64(r.sessions.Len()))
	logging.Debug().Str("subject", s.ID).Msg("session created")
	return sess
}

// Lookup returns the subject's session without creating one.
func (r *Registry) Lookup(subject string) (*Session, bool) {
	return r.sessions.Get(subject)
}

// Remove closes and forgets the subject's session.
func (r *Registry) Remove(subject string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions.Remove(subject)
}

// Len returns the number of held sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// CleanupExpired closes sessions idle for longer than the TTL and returns
// how many were removed.
func (r *Registry) CleanupExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions.CleanupExpired()
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Clear()
}

func (r *Registry) evict(subject string, sess *Session) {
	sess.Close()
	metrics.SessionEvictions.Inc()
	metrics.SessionsActive.Set(float64(r.sessions.Len()))
	logging.Debug().Str("subject", subject).Msg("session closed")
}
