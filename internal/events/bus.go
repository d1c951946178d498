// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package events is the in-process event bus between session components and
// the realtime push layer. It runs on Watermill's gochannel pub/sub.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/aquascape/internal/logging"
	"github.com/tomtom215/aquascape/internal/metrics"
	"github.com/tomtom215/aquascape/internal/models"
)

// Topics
const (
	TopicAquariumCreated = "aquarium.created"
	TopicAlertsUpdated   = "alerts.updated"
)

// Metadata keys set on every message.
const (
	MetadataSubject       = "subject"
	MetadataCorrelationID = "correlation_id"
)

// Event is the payload carried on the bus.
type Event struct {
	ID         string               `json:"id"`
	Topic      string               `json:"topic"`
	Subject    string               `json:"subject"`
	AquariumID models.ID            `json:"aquarium_id"`
	Aquarium   *models.Aquarium     `json:"aquarium,omitempty"`
	Alerts     []models.DangerAlert `json:"alerts,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// Bus publishes and subscribes events.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates an in-process bus. logger may be nil.
func NewBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger),
		logger: logger,
	}
}

// Publish sends an event. The event id and timestamp are filled in when
// empty.
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Topic, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(MetadataSubject, event.Subject)
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set(MetadataCorrelationID, cid)
	}

	if err := b.pubsub.Publish(event.Topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Topic, err)
	}
	metrics.EventsPublished.WithLabelValues(event.Topic).Inc()
	return nil
}

// AquariumCreated publishes a created aquarium for subject.
func (b *Bus) AquariumCreated(ctx context.Context, subject string, aq *models.Aquarium) error {
	return b.Publish(ctx, &Event{
		Topic:      TopicAquariumCreated,
		Subject:    subject,
		AquariumID: aq.ID,
		Aquarium:   aq,
	})
}

// AlertsUpdated publishes the active alert set of an aquarium for subject.
func (b *Bus) AlertsUpdated(ctx context.Context, subject string, aquariumID models.ID, alerts []models.DangerAlert) error {
	return b.Publish(ctx, &Event{
		Topic:      TopicAlertsUpdated,
		Subject:    subject,
		AquariumID: aquariumID,
		Alerts:     alerts,
	})
}

// Subscribe returns the message stream for topic. The channel closes when
// ctx is done or the bus is closed. Messages must be acked.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down. Further publishes fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// Decode parses a bus message.
func Decode(msg *message.Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return &event, nil
}
