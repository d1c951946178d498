// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/models"
)

// Push message types understood by the dashboard.
const (
	PushAlertsUpdated  = "alerts_updated"
	PushSchedulePrompt = "schedule_prompt"
)

// Sink delivers a push message to one user's open connections.
type Sink interface {
	SendTo(subject, messageType string, data interface{})
}

// AlertsPush is the alerts_updated push body.
type AlertsPush struct {
	AquariumID models.ID            `json:"aquarium_id"`
	Alerts     []models.DangerAlert `json:"alerts"`
}

// SchedulePromptPush is the schedule_prompt push body.
type SchedulePromptPush struct {
	AquariumID models.ID        `json:"aquarium_id"`
	Aquarium   *models.Aquarium `json:"aquarium"`
}

// Forwarder relays bus events to the push sink. It is a supervised
// service.
type Forwarder struct {
	bus  *Bus
	sink Sink
}

// NewForwarder creates a forwarder.
func NewForwarder(bus *Bus, sink Sink) *Forwarder {
	return &Forwarder{bus: bus, sink: sink}
}

// routerCloseTimeout bounds how long in-flight pushes may run at shutdown.
const routerCloseTimeout = 5 * time.Second

// Serve runs a Watermill router with one consumer per topic until ctx is
// done. Each call builds a fresh router so the supervisor can restart it.
func (f *Forwarder) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: routerCloseTimeout}, f.bus.logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	for _, topic := range []string{TopicAquariumCreated, TopicAlertsUpdated} {
		router.AddConsumerHandler("push-"+topic, topic, f.bus.pubsub, f.handle)
	}

	go func() {
		<-ctx.Done()
		_ = router.Close()
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// handle pushes one event. Undecodable or unaddressed events are dropped;
// the router acks them either way.
func (f *Forwarder) handle(msg *message.Message) error {
	event, err := Decode(msg)
	if err != nil {
		logging.Warn().Err(err).Msg("dropping undecodable event")
		return nil
	}
	if event.Subject == "" {
		return nil
	}

	switch event.Topic {
	case TopicAlertsUpdated:
		alerts := event.Alerts
		if alerts == nil {
			alerts = []models.DangerAlert{}
		}
		f.sink.SendTo(event.Subject, PushAlertsUpdated, AlertsPush{AquariumID: event.AquariumID, Alerts: alerts})
	case TopicAquariumCreated:
		f.sink.SendTo(event.Subject, PushSchedulePrompt, SchedulePromptPush{AquariumID: event.AquariumID, Aquarium: event.Aquarium})
	default:
		logging.Debug().Str("topic", event.Topic).Msg("ignoring event")
	}
	return nil
}

// String implements fmt.Stringer for supervisor logs.
func (f *Forwarder) String() string {
	return "event-forwarder"
}
