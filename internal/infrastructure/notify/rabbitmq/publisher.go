// Package rabbitmq publishes domain notifications to a RabbitMQ exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ReminderMessage is the body of a reminder.created message.
type ReminderMessage struct {
	Event     string    `json:"event"`
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	Text      string    `json:"text"`
	FireAt    time.Time `json:"datetime"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReminderNotifier implements ports.ReminderNotifier.
type ReminderNotifier struct {
	ch         Channel
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

func NewReminderNotifier(ch Channel, exchange, routingKey string, logger zerolog.Logger) *ReminderNotifier {
	return &ReminderNotifier{ch: ch, exchange: exchange, routingKey: routingKey, logger: logger}
}

func (n *ReminderNotifier) ReminderCreated(_ context.Context, r *domain.Reminder) error {
	msg := ReminderMessage{
		Event:     "reminder.created",
		ID:        r.ID,
		UserEmail: r.UserEmail,
		Text:      r.Text,
		FireAt:    r.FireAt.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := PublishMessage(n.ch, n.exchange, n.routingKey, msg); err != nil {
		return err
	}
	n.logger.Debug().Str("reminder_id", r.ID).Str("routing_key", n.routingKey).Msg("reminder published")
	return nil
}

// PublishMessage sends message as a persistent JSON delivery.
func PublishMessage(ch Channel, exchange, routingKey string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("rabbitmq publish: encode: %w", err)
	}

	err = ch.Publish(exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// NopNotifier drops notifications; used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) ReminderCreated(context.Context, *domain.Reminder) error { return nil }
