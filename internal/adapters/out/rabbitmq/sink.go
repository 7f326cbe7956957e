// Package rabbitmq publishes order events to a topic exchange for external
// consumers, such as the push notification service. Publishing is
// fire-and-forget from the caller's point of view: the command that produced
// the event has already committed.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"dispatch/internal/realtime"
)

const publishTimeout = 5 * time.Second

// statusChangedMessage is the wire format of an order status event.
type statusChangedMessage struct {
	OrderID string    `json:"order_id"`
	Status  string    `json:"status"`
	AgentID *string   `json:"agent_id,omitempty"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`
}

// Sink implements realtime.OutboundSink on top of a RabbitMQ topic exchange.
// Routing keys follow the pattern "order.status.<status>", so consumers can
// bind to a single status or to "order.status.#".
type Sink struct {
	channel  *amqp.Channel
	exchange string
}

// NewSink opens a channel on the given connection and declares the durable
// topic exchange.
func NewSink(conn *amqp.Connection, exchange string) (*Sink, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		_ = channel.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Sink{channel: channel, exchange: exchange}, nil
}

// SendStatusChanged publishes a status event as a persistent JSON message.
func (s *Sink) SendStatusChanged(ctx context.Context, event realtime.StatusEvent) error {
	message := statusChangedMessage{
		OrderID: event.OrderID.String(),
		Status:  event.Status.String(),
		Version: event.Version,
		At:      event.At,
	}
	if event.AgentID != nil {
		agentID := event.AgentID.String()
		message.AgentID = &agentID
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	routingKey := "order.status." + event.Status.String()

	err = s.channel.PublishWithContext(
		publishCtx,
		s.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.At,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	return nil
}

// Close releases the channel. The owning connection is closed by the caller.
func (s *Sink) Close() error {
	return s.channel.Close()
}
