package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reflector/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SourceService identifies this service in envelopes and connection names
const SourceService = "reflector"

// EventEnvelope wraps an event published to NATS
type EventEnvelope struct {
	EventID       string           `json:"event_id"`
	EventType     events.EventType `json:"event_type"`
	OccurredAt    time.Time        `json:"occurred_at"`
	SourceService string           `json:"source_service"`
	Payload       json.RawMessage  `json:"payload"`
}

// NATSEventPublisher forwards bus events to NATS
type NATSEventPublisher struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	now           func() time.Time
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(publisher MessagePublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		publisher:     publisher,
		subjectMapper: subjectMapper,
		now:           time.Now,
	}
}

// Publish wraps the event in an envelope and publishes it on its subject
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     event.Type(),
		OccurredAt:    p.now().UTC(),
		SourceService: SourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

// HandleEvent is an events.Handler. Failures are logged since the bus has no one to return them to.
func (p *NATSEventPublisher) HandleEvent(ctx context.Context, event events.Event) {
	if err := p.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to forward event to NATS")
	}
}
