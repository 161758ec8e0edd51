package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// InProcessEventBus delivers published events synchronously to consumers in
// the same process. `petconnect serve` uses it when the broker is disabled,
// so the results logger still sees every decision.
type InProcessEventBus struct {
	mu       sync.Mutex
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates an empty bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	logger = observability.OrDefault(logger)
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it. Consumer failures are
// logged and never reach the publisher.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "in-process dispatch failed", "routing_key", routingKey, "error", err)
	}
	return nil
}

// ResetQueues is a no-op: nothing is ever queued.
func (b *InProcessEventBus) ResetQueues(context.Context) error {
	return nil
}

// Close is a no-op.
func (b *InProcessEventBus) Close() error {
	return nil
}
