package domain

import "time"

// OutboxMessage holds one "data changed" event awaiting publication.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats describes the current outbox backlog.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository stores events for later publication.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// EventPublisher pushes an event to the outside world. Must be idempotent;
// cached views subscribe to these events to invalidate themselves.
type EventPublisher interface {
	Publish(event OutboxMessage) error
}
