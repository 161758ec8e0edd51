package eventbus

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange adoption events are published to.
const DefaultExchange = "petconnect.events"

// QueueBinding binds a named queue to one routing key.
type QueueBinding struct {
	Queue      string
	RoutingKey string
}

// Topology is the exchange plus the queues bound to it.
type Topology struct {
	Exchange string
	Queues   []QueueBinding
}

func (t Topology) exchange() string {
	if t.Exchange == "" {
		return DefaultExchange
	}
	return t.Exchange
}

// declare creates the exchange and every bound queue. All calls are
// idempotent so publisher and consumer can both run it.
func (t Topology) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(t.exchange(), "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	for _, q := range t.Queues {
		if err := declareQueue(ch, t.exchange(), q); err != nil {
			return err
		}
	}
	return nil
}

// reset deletes and redeclares every queue, discarding pending messages.
func (t Topology) reset(ch *amqp.Channel) error {
	for _, q := range t.Queues {
		if _, err := ch.QueueDelete(q.Queue, false, false, false); err != nil {
			return fmt.Errorf("failed to delete queue %s: %w", q.Queue, err)
		}
		if err := declareQueue(ch, t.exchange(), q); err != nil {
			return err
		}
	}
	return nil
}

func declareQueue(ch *amqp.Channel, exchange string, q QueueBinding) error {
	if _, err := ch.QueueDeclare(q.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", q.Queue, err)
	}
	if err := ch.QueueBind(q.Queue, q.RoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", q.Queue, q.RoutingKey, err)
	}
	return nil
}
