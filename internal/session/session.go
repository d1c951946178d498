// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package session holds the per-user state of the dashboard gateway.
//
// A session is keyed by the token subject. It owns the user's aquarium
// store, the schedule id cache, the sensor service and the alert viewer,
// all bound to a backend client that draws tokens from the session.
// Sessions live in an LRU with a sliding TTL; evicting one stops its alert
// poller.
package session

import (
	"context"
	"sync"

	"github.com/tomtom215/aquascape/internal/alerts"
	"github.com/tomtom215/aquascape/internal/auth"
	"github.com/tomtom215/aquascape/internal/gateway"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
	"github.com/tomtom215/aquascape/internal/schedule"
	"github.com/tomtom215/aquascape/internal/sensors"
	"github.com/tomtom215/aquascape/internal/store"
)

// Publisher receives session events for the realtime push channel.
// *events.Bus satisfies it.
type Publisher interface {
	AquariumCreated(ctx context.Context, subject string, aq *models.Aquarium) error
	AlertsUpdated(ctx context.Context, subject string, aquariumID models.ID, alerts []models.DangerAlert) error
}

// Session is one signed-in user's view of the backend.
type Session struct {
	Subject   string
	Tokens    *auth.SessionTokens
	Client    *gateway.Client
	Store     *store.Store
	Schedules *schedule.Reconciler
	Sensors   *sensors.Service
	Alerts    *alerts.Viewer

	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newSession(parent context.Context, base *gateway.Client, s *auth.Subject, publisher Publisher, opts *Options) *Session {
	ctx, cancel := context.WithCancel(parent)
	ctx = logging.ContextWithSubject(ctx, s.ID)

	tokens := auth.NewSessionTokens(s)
	client := base.WithTokenProvider(tokens)

	sess := &Session{
		Subject:   s.ID,
		Tokens:    tokens,
		Client:    client,
		Schedules: schedule.NewReconciler(client),
		Sensors:   sensors.NewService(client, opts.Reducer),
		cancel:    cancel,
	}

	storeOpts := []store.Option{store.WithRetry(opts.RefreshAttempts, opts.RefreshDelay)}
	if publisher != nil {
		storeOpts = append(storeOpts, store.WithNotifier(store.NotifierFunc(func(ctx context.Context, aq *models.Aquarium) {
			if err := publisher.AquariumCreated(ctx, sess.Subject, aq); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("failed to publish aquarium created")
			}
		})))
	}
	sess.Store = store.New(client, storeOpts...)

	viewerCfg := alerts.ViewerConfig{
		Interval:    opts.PollInterval,
		ResolvedTTL: opts.ResolvedTTL,
	}
	if publisher != nil {
		viewerCfg.OnUpdate = func(ctx context.Context, aquariumID models.ID, active []models.DangerAlert) {
			if err := publisher.AlertsUpdated(ctx, sess.Subject, aquariumID, active); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("failed to publish alerts update")
			}
		}
	}
	sess.Alerts = alerts.NewViewer(ctx, client, viewerCfg)

	return sess
}

// Close stops the session's alert poller and cancels its background work.
// It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Alerts.Close()
		s.cancel()
	})
}
