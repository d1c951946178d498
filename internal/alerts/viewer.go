// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/aquascape/internal/cache"
	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/models"
)

// resolveTimeout bounds the background resolve call.
const resolveTimeout = 30 * time.Second

// UpdateFunc is told about every change to the active alert set.
type UpdateFunc func(ctx context.Context, aquariumID models.ID, alerts []models.DangerAlert)

// ViewerConfig configures a Viewer.
type ViewerConfig struct {
	Interval time.Duration
	// ResolvedTTL is how long a locally resolved alert is hidden from
	// poll results. Zero disables suppression.
	ResolvedTTL time.Duration
	OnUpdate    UpdateFunc
}

// Viewer tracks the currently viewed aquarium for one session and the
// active alerts shown for it.
type Viewer struct {
	backend Backend
	cfg     ViewerConfig

	// lifecycle serializes View and Close so only one poller ever runs.
	lifecycle sync.Mutex
	poller    *Poller
	baseCtx   context.Context

	mu       sync.Mutex
	viewing  models.ID
	active   []models.DangerAlert
	resolved *cache.LRU[struct{}]

	inflight sync.WaitGroup
}

// NewViewer creates a viewer with nothing viewed. ctx is the parent of
// every poller; cancelling it stops polling. Background resolves are not
// tied to ctx: each one runs detached from its request, bounded by
// resolveTimeout.
func NewViewer(ctx context.Context, backend Backend, cfg ViewerConfig) *Viewer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	v := &Viewer{
		backend: backend,
		cfg:     cfg,
		baseCtx: ctx,
		active:  []models.DangerAlert{},
	}
	if cfg.ResolvedTTL > 0 {
		v.resolved = cache.New[struct{}](1000, cfg.ResolvedTTL)
	}
	return v
}

// View makes aquariumID the currently viewed aquarium. The previous poller
// is stopped before the new one starts. Viewing the same aquarium again
// keeps the running poller.
func (v *Viewer) View(aquariumID models.ID) {
	v.lifecycle.Lock()
	defer v.lifecycle.Unlock()

	if v.poller != nil && v.poller.AquariumID() == aquariumID && v.poller.Running() && v.baseCtx.Err() == nil {
		return
	}
	v.stopLocked()

	v.mu.Lock()
	v.viewing = aquariumID
	v.active = []models.DangerAlert{}
	v.mu.Unlock()

	v.poller = NewPoller(v.backend, aquariumID, v.cfg.Interval, v.apply)
	v.poller.Start(v.baseCtx)
}

// Close stops polling and clears the view.
func (v *Viewer) Close() {
	v.lifecycle.Lock()
	defer v.lifecycle.Unlock()
	v.stopLocked()

	v.mu.Lock()
	v.viewing = ""
	v.active = []models.DangerAlert{}
	v.mu.Unlock()
}

func (v *Viewer) stopLocked() {
	if v.poller != nil {
		v.poller.Stop()
		v.poller = nil
	}
}

// Viewing returns the currently viewed aquarium, or "" when nothing is.
func (v *Viewer) Viewing() models.ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewing
}

// Active returns the viewed aquarium and a copy of its active alerts.
func (v *Viewer) Active() (models.ID, []models.DangerAlert) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.DangerAlert, len(v.active))
	copy(out, v.active)
	return v.viewing, out
}

// Resolve removes an alert from the active set immediately and asks the
// backend to resolve it in the background. It reports whether the alert
// was in the active set. The backend outcome is logged, not returned.
func (v *Viewer) Resolve(ctx context.Context, alertID models.ID) bool {
	v.mu.Lock()
	found := false
	kept := make([]models.DangerAlert, 0, len(v.active))
	for _, a := range v.active {
		if a.ID == alertID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	v.active = kept
	viewing := v.viewing
	snapshot := append([]models.DangerAlert(nil), kept...)
	v.mu.Unlock()

	if v.resolved != nil {
		v.resolved.Add(alertID.String(), struct{}{})
	}
	if found {
		v.notify(ctx, viewing, snapshot)
	}

	// The request outlives the HTTP call that triggered it.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
	v.inflight.Add(1)
	go func() {
		defer v.inflight.Done()
		defer cancel()
		err := v.backend.ResolveAlert(bg, alertID)
		metrics.RecordAlertResolve(err)
		if err != nil {
			logging.Ctx(bg).Warn().Err(err).Str("alert_id", alertID.String()).Msg("alert resolve failed")
		}
	}()
	return found
}

// Wait blocks until background resolves have finished.
func (v *Viewer) Wait() {
	v.inflight.Wait()
}

// apply installs a poll result, dropping recently resolved alerts.
func (v *Viewer) apply(ctx context.Context, aquariumID models.ID, polled []models.DangerAlert) {
	visible := make([]models.DangerAlert, 0, len(polled))
	for _, a := range polled {
		if v.resolved != nil && v.resolved.Contains(a.ID.String()) {
			metrics.AlertsSuppressed.Inc()
			continue
		}
		visible = append(visible, a)
	}

	v.mu.Lock()
	if v.viewing != aquariumID {
		v.mu.Unlock()
		return
	}
	v.active = visible
	v.mu.Unlock()

	v.notify(ctx, aquariumID, visible)
}

func (v *Viewer) notify(ctx context.Context, aquariumID models.ID, alerts []models.DangerAlert) {
	if v.cfg.OnUpdate != nil {
		v.cfg.OnUpdate(ctx, aquariumID, alerts)
	}
}
