package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

func TestEventPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		// Events are keyed by aggregate so one order stays on one partition.
		if string(key) != "order-123" {
			t.Errorf("key = %q, want aggregate id %q", key, "order-123")
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var envelope struct {
			ID            string          `json:"id"`
			AggregateType string          `json:"aggregate_type"`
			AggregateID   string          `json:"aggregate_id"`
			EventType     string          `json:"event_type"`
			Payload       json.RawMessage `json:"payload"`
			PublishedAt   time.Time       `json:"published_at"`
		}
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		if envelope.ID != "outbox-1" {
			t.Errorf("envelope id = %q, want %q", envelope.ID, "outbox-1")
		}
		if envelope.AggregateType != "label_order" {
			t.Errorf("aggregate type = %q, want %q", envelope.AggregateType, "label_order")
		}
		if envelope.EventType != "order.completed" {
			t.Errorf("event type = %q, want %q", envelope.EventType, "order.completed")
		}
		if string(envelope.Payload) != `{"status":"completed"}` {
			t.Errorf("payload = %s, want original outbox payload", envelope.Payload)
		}
		if envelope.PublishedAt.IsZero() {
			t.Error("published_at must be set")
		}
		return nil
	})

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-event-publisher-test"),
	}
	publisher := NewEventPublisher(producer, TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: "label_order",
		AggregateID:   "order-123",
		EventType:     "order.completed",
		Payload:       []byte(`{"status":"completed"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEventPublisher_PublishKeyFallsBackToMessageID(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "outbox-2" {
			t.Errorf("key = %q, want message id %q when aggregate id is empty", key, "outbox-2")
		}
		return nil
	})

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-event-publisher-test"),
	}
	publisher := NewEventPublisher(producer, TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:        "outbox-2",
		EventType: "order.created",
		Payload:   []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEventPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-event-publisher-test"),
	}
	publisher := NewEventPublisher(producer, TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:          "outbox-3",
		AggregateID: "order-234",
		EventType:   "order.cancelled",
		Payload:     []byte(`{"status":"cancelled"}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEventPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewEventPublisher(nil, TopicOrderEvents)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-4"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}
