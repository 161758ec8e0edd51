package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/petconnect/internal/shared/domain"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// Publisher sends encoded events to a message broker.
type Publisher interface {
	// Publish sends payload under routingKey.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the broker connection.
	Close() error
}

// QueueResetter is implemented by publishers whose queues can be purged.
type QueueResetter interface {
	ResetQueues(ctx context.Context) error
}

// MarshalEvent wraps event in the envelope consumers decode as ConsumedEvent.
func MarshalEvent(event domain.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event.RoutingKey(), err)
	}

	md := event.Metadata()
	envelope := ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata: EventMetadata{
			CorrelationID: md.CorrelationID,
			Source:        md.Source,
		},
	}
	if md.CausationID != uuid.Nil {
		envelope.Metadata.CausationID = md.CausationID.String()
	}
	return json.Marshal(envelope)
}

// PublishEvent encodes and publishes a domain event.
func PublishEvent(ctx context.Context, p Publisher, event domain.DomainEvent) error {
	body, err := MarshalEvent(event)
	if err != nil {
		return err
	}
	return p.Publish(ctx, event.RoutingKey(), body)
}

// NoopPublisher drops every message. Used in development when no broker runs.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: observability.OrDefault(logger)}
}

// Publish logs the message and discards it.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
