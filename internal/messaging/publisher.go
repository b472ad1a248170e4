package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// Event is the envelope for everything published to the shop exchange.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher pushes persistent JSON events with routing key
// "shop.<event type>" (shop.order.created, shop.stock.adjusted, ...).
type Publisher struct {
	client *RabbitMQClient
}

func NewPublisher(client *RabbitMQClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(eventType string, payload interface{}) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	event := Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event serialization error: %w", err)
	}

	routingKey := "shop." + eventType

	err = p.client.Channel().Publish(
		p.client.config.Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.OccurredAt,
			Headers: amqp.Table{
				"event_type": eventType,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}

	log.Debug().Str("routing_key", routingKey).Msg("event published")
	return nil
}

// PublishWithRetry retries a failed publish with linear backoff.
func (p *Publisher) PublishWithRetry(eventType string, payload interface{}, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := p.Publish(eventType, payload); err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries).Msg("event publish failed")
			if i < maxRetries-1 {
				time.Sleep(time.Second * time.Duration(i+1))
				continue
			}
		} else {
			return nil
		}
	}
	return fmt.Errorf("event publish failed after %d attempts: %w", maxRetries, lastErr)
}
