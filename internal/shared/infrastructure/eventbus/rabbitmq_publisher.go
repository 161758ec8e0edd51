package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// ErrConnectionClosed is returned when the broker connection has dropped.
var ErrConnectionClosed = errors.New("rabbitmq connection closed")

// RabbitMQPublisher publishes events to a topic exchange.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	topology Topology
	logger   *slog.Logger
}

// NewRabbitMQPublisher connects to url and declares topology.
func NewRabbitMQPublisher(url string, topology Topology, logger *slog.Logger) (*RabbitMQPublisher, error) {
	logger = observability.OrDefault(logger)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := topology.declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ publisher connected",
		"exchange", topology.exchange(),
		"queues", len(topology.Queues),
	)

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  ch,
		topology: topology,
		logger:   logger,
	}, nil
}

// Publish sends payload to the exchange as a persistent JSON message.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx,
		p.topology.exchange(),
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
			CorrelationId: observability.CorrelationIDFromContext(ctx),
			Body:          payload,
		},
	)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish message",
			"routing_key", routingKey,
			"error", err,
		)
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	p.logger.DebugContext(ctx, "message published",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// ResetQueues purges the adoption queues by deleting and redeclaring them.
func (p *RabbitMQPublisher) ResetQueues(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.topology.reset(p.channel); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "RabbitMQ queues reset", "queues", len(p.topology.Queues))
	return nil
}

// Ping reports whether the connection is still open.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}

	p.logger.Info("RabbitMQ publisher closed")
	return nil
}
