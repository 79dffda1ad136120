package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	publisherAppID = "kanakku-backend"
	publishTimeout = 5 * time.Second
)

// Channel is the subset of *amqp.Channel the publisher needs
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ChannelOpener opens a fresh channel for a single publish
type ChannelOpener func() (Channel, error)

// FromConnection adapts an AMQP connection into a ChannelOpener
func FromConnection(conn *amqp.Connection) ChannelOpener {
	return func() (Channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

// message is the body written to the exchange
type message struct {
	WorkspaceID int32 `json:"workspaceId"`
	websocket.Event
}

// AMQPPublisher forwards workspace events to a RabbitMQ topic exchange.
// The routing key is the event type, e.g. "collection.created".
type AMQPPublisher struct {
	open     ChannelOpener
	exchange string
}

var _ websocket.EventPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher declares the exchange and returns a publisher bound to it
func NewAMQPPublisher(open ChannelOpener, exchange string) (*AMQPPublisher, error) {
	if open == nil {
		return nil, errors.New("amqp channel opener is required")
	}
	if exchange == "" {
		return nil, errors.New("amqp exchange name is required")
	}

	ch, err := open()
	if err != nil {
		return nil, fmt.Errorf("open channel for exchange declaration: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	log.Info().Str("exchange", exchange).Msg("AMQP exchange ready")

	return &AMQPPublisher{open: open, exchange: exchange}, nil
}

// Publish implements websocket.EventPublisher. Failures are logged, never returned.
func (p *AMQPPublisher) Publish(workspaceID int32, event websocket.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.publish(ctx, workspaceID, event); err != nil {
		log.Warn().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to publish event to AMQP")
	}
}

func (p *AMQPPublisher) publish(ctx context.Context, workspaceID int32, event websocket.Event) error {
	body, err := json.Marshal(message{WorkspaceID: workspaceID, Event: event})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		AppId:        publisherAppID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("routing_key", event.Type).
		Int("body_size", len(body)).
		Msg("Published event to AMQP")
	return nil
}
