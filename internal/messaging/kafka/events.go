// Package kafka publishes order change events so cached views elsewhere can
// invalidate themselves.
package kafka

// Topics the service publishes to.
const (
	TopicOrderEvents     = "pricetagger.order.events"
	TopicDeadLetterQueue = "pricetagger.dlq"
)
