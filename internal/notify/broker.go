package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker publishes notifications to a durable RabbitMQ topic exchange.
// The connection is re-established lazily when it drops; a publish during
// an outage fails and the caller's best-effort policy applies.
type Broker struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	url      string
	exchange string
}

// NewBroker dials RabbitMQ and declares the topic exchange.
func NewBroker(url, exchange string) (*Broker, error) {
	b := &Broker{url: url, exchange: exchange}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		b.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %q: %w", b.exchange, err)
	}

	b.conn = conn
	b.channel = ch
	return nil
}

func (b *Broker) ensureConnection() error {
	if b.conn != nil && !b.conn.IsClosed() {
		return nil
	}
	return b.connect()
}

// Publish sends the notification as a JSON message routed by its variant
// key.
func (b *Broker) Publish(ctx context.Context, n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureConnection(); err != nil {
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = b.channel.PublishWithContext(ctx,
		b.exchange,
		n.RoutingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.RoutingKey(), err)
	}
	return nil
}

// Close tears down the channel and connection.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		_ = b.channel.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}

// NopSink drops every notification. Used when no broker is configured, so
// local development works without RabbitMQ.
type NopSink struct{}

// Publish logs the dropped notification and succeeds.
func (NopSink) Publish(_ context.Context, n Notification) error {
	log.Printf("notify: no broker configured, dropping %s", n.RoutingKey())
	return nil
}
