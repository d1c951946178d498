// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

/*
Package alerts polls active danger alerts for the aquarium a user is
currently viewing.

A Poller fetches once immediately and then on a fixed period until it is
stopped. A Viewer owns at most one Poller per session: viewing another
aquarium stops the old poller before the new one starts, and closing the
view stops it altogether. Resolving an alert removes it locally first and
tells the backend afterwards.
*/
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/models"
)

// DefaultInterval is the polling period.
const DefaultInterval = 30 * time.Second

// Backend is the subset of the gateway used for alerts.
type Backend interface {
	ListAlerts(ctx context.Context, aquariumID models.ID) ([]models.DangerAlert, error)
	ResolveAlert(ctx context.Context, id models.ID) error
}

// Poller polls alerts for one aquarium.
type Poller struct {
	backend    Backend
	aquariumID models.ID
	interval   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	onPoll func(ctx context.Context, aquariumID models.ID, alerts []models.DangerAlert)
}

// NewPoller creates a stopped poller. onPoll receives every successful
// poll result while the poller is running.
func NewPoller(backend Backend, aquariumID models.ID, interval time.Duration,
	onPoll func(ctx context.Context, aquariumID models.ID, alerts []models.DangerAlert)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		backend:    backend,
		aquariumID: aquariumID,
		interval:   interval,
		onPoll:     onPoll,
	}
}

// AquariumID returns the polled aquarium.
func (p *Poller) AquariumID() models.ID {
	return p.aquariumID
}

// Running reports whether the poll loop is active. It turns false once the
// loop exits, whether through Stop or cancellation of the start context.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins polling. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	metrics.AlertPollersActive.Inc()

	logging.Ctx(ctx).Debug().
		Str("aquarium_id", p.aquariumID.String()).
		Dur("interval", p.interval).
		Msg("starting alert poller")

	p.wg.Add(1)
	go p.pollLoop(ctx)
}

// Stop cancels any in-flight poll, stops the timer and waits for the loop
// to exit. Stopping a stopped poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	metrics.AlertPollersActive.Dec()
	logging.Debug().Str("aquarium_id", p.aquariumID.String()).Msg("alert poller stopped")
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.exited()

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// exited clears running when the loop ends without Stop.
func (p *Poller) exited() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.cancel()
	metrics.AlertPollersActive.Dec()
}

func (p *Poller) poll(ctx context.Context) {
	alerts, err := p.backend.ListAlerts(ctx, p.aquariumID)
	if ctx.Err() != nil {
		// Stopped mid-poll; the result belongs to a view that is gone.
		return
	}
	metrics.RecordAlertPoll(err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("aquarium_id", p.aquariumID.String()).Msg("alert poll failed")
		return
	}
	if p.onPoll != nil {
		p.onPoll(ctx, p.aquariumID, alerts)
	}
}
