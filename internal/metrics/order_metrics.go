package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics holds the counters for the order lifecycle operations.
type OrderMetrics struct {
	ordersCreated   prometheus.Counter
	ordersUpdated   prometheus.Counter
	ordersCompleted prometheus.Counter
	ordersCancelled prometheus.Counter
	ordersRejected  *prometheus.CounterVec

	operationDuration *prometheus.HistogramVec

	outboxEvents prometheus.Counter
}

// NewOrderMetrics registers the lifecycle metrics on the default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricetagger_orders_created_total",
			Help: "Total number of label orders created",
		}),
		ordersUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricetagger_orders_updated_total",
			Help: "Total number of label orders edited while pending",
		}),
		ordersCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricetagger_orders_completed_total",
			Help: "Total number of label orders completed",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricetagger_orders_cancelled_total",
			Help: "Total number of label orders cancelled",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pricetagger_orders_rejected_total",
			Help: "Total number of rejected lifecycle operations",
		}, []string{"operation", "reason"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "pricetagger_order_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricetagger_outbox_events_total",
			Help: "Total number of change events handed to the outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated increments the created counter.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderUpdated increments the updated counter.
func (m *OrderMetrics) RecordOrderUpdated() {
	m.ordersUpdated.Inc()
}

// RecordOrderCompleted increments the completed counter.
func (m *OrderMetrics) RecordOrderCompleted() {
	m.ordersCompleted.Inc()
}

// RecordOrderCancelled increments the cancelled counter.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordOrderRejected increments the rejection counter for an operation and
// reason pair.
func (m *OrderMetrics) RecordOrderRejected(operation, reason string) {
	m.ordersRejected.WithLabelValues(operation, reason).Inc()
}

// RecordOperationDuration records how long a lifecycle operation took.
func (m *OrderMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOutboxEvent increments the outbox event counter.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
