package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

// EventPublisher ships outbox messages to a Kafka topic.
type EventPublisher struct {
	producer *Producer
	topic    string
}

// NewEventPublisher wraps the producer as a domain.EventPublisher.
func NewEventPublisher(producer *Producer, topic string) domain.EventPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &EventPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *EventPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka event publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := struct {
		ID            string          `json:"id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
		PublishedAt   time.Time       `json:"published_at"`
	}{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}

	return p.producer.PublishEvent(p.topic, key, envelope)
}

var _ domain.EventPublisher = (*EventPublisher)(nil)
