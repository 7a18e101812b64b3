// Package notify publishes domain events after reservation and event
// lifecycle changes commit.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for published domain events.
const (
	EventCreated         = "event.created"
	EventDeleted         = "event.deleted"
	ReservationCreated   = "reservation.created"
	ReservationWithdrawn = "reservation.withdrawn"
)

// Publisher sends JSON payloads to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJSON marshals v and publishes it under key.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", key, err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

// PublishJSON does nothing.
func (Nop) PublishJSON(context.Context, string, any) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// EventPayload is published with EventCreated and EventDeleted.
type EventPayload struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
}

// ReservationPayload is published with ReservationCreated.
type ReservationPayload struct {
	ReservationID string `json:"reservationId"`
	UserID        string `json:"userId"`
	ArrivalID     string `json:"arrivalId"`
	EventID       string `json:"eventId"`
}

// WithdrawalPayload is published with ReservationWithdrawn.
type WithdrawalPayload struct {
	UserID   string `json:"userId"`
	EventID  string `json:"eventId"`
	Canceled int64  `json:"canceled"`
}
