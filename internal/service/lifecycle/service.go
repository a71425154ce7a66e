// Package lifecycle implements the order state machine: validation, role and
// ownership checks, and the pending -> completed / cancelled transitions.
// The local pre-checks give fast, friendly errors; the store's conditional
// update (status must still be pending) stays the authoritative rejection.
package lifecycle

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/douglasshinzato/price-tagger/internal/domain"
	"github.com/douglasshinzato/price-tagger/internal/metrics"
	"github.com/douglasshinzato/price-tagger/internal/pricing"
)

const (
	// defaultEmployeeName is the snapshot fallback when the directory entry
	// has no display name.
	defaultEmployeeName = "Funcionário"

	aggregateTypeLabelOrder = "label_order"

	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderCompleted = "order.completed"
	EventOrderCancelled = "order.cancelled"

	opCreate   = "create"
	opUpdate   = "update"
	opCancel   = "cancel"
	opComplete = "complete"
)

// ValidationError aggregates the schema violations of one input.
type ValidationError struct {
	Violations []error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

// Service enforces the lifecycle rules on top of the order store.
type Service struct {
	orders    domain.OrderRepository
	directory domain.EmployeeDirectory
	outbox    domain.OutboxRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// Option tweaks optional service dependencies.
type Option func(*Service)

// WithOutbox enables change-event publication through the outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) { s.outbox = outbox }
}

// WithMetrics enables prometheus counters for lifecycle operations.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the lifecycle service.
func NewService(
	orders domain.OrderRepository,
	directory domain.EmployeeDirectory,
	logger *log.Entry,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	s := &Service{
		orders:    orders,
		directory: directory,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, snapshots the caller's display name and inserts
// a new pending order.
func (s *Service) Create(_ context.Context, callerID string, in domain.OrderInput) (domain.Order, error) {
	start := time.Now()
	defer s.recordDuration(opCreate, start)

	if errs := in.Validate(); len(errs) > 0 {
		s.recordRejection(opCreate, "validation")
		return domain.Order{}, &ValidationError{Violations: errs}
	}

	caller, err := s.resolveCaller(callerID)
	if err != nil {
		s.recordRejection(opCreate, "auth")
		return domain.Order{}, err
	}

	name := caller.Name
	if name == "" {
		name = defaultEmployeeName
	}

	now := s.now()
	order := domain.Order{
		ID:               uuid.NewString(),
		EmployeeID:       caller.ID,
		EmployeeName:     name,
		ProductName:      in.ProductName,
		ProductDetails:   in.ProductDetails,
		CurrentPrice:     in.CurrentPrice,
		NeedsPriceUpdate: in.NeedsPriceUpdate,
		LabelQuantity:    in.LabelQuantity,
		Status:           domain.OrderStatusPending,
		CreatedAt:        now,
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithField("employee_id", caller.ID).Error("failed to create order")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.publishChange(EventOrderCreated, order)

	return order, nil
}

// Update overwrites the mutable fields of the caller's own pending order.
// Ownership is checked before status, so editing someone else's order fails
// with the ownership error regardless of the order's state.
func (s *Service) Update(_ context.Context, callerID, orderID string, in domain.OrderInput) (domain.Order, error) {
	start := time.Now()
	defer s.recordDuration(opUpdate, start)

	caller, err := s.resolveCaller(callerID)
	if err != nil {
		s.recordRejection(opUpdate, "auth")
		return domain.Order{}, err
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		s.recordRejection(opUpdate, "not_found")
		return domain.Order{}, err
	}

	if order.EmployeeID != caller.ID {
		s.recordRejection(opUpdate, "owner")
		return domain.Order{}, domain.ErrNotOrderOwner
	}
	if order.Status != domain.OrderStatusPending {
		s.recordRejection(opUpdate, "not_pending")
		return domain.Order{}, domain.ErrOrderNotPending
	}

	if errs := in.Validate(); len(errs) > 0 {
		s.recordRejection(opUpdate, "validation")
		return domain.Order{}, &ValidationError{Violations: errs}
	}

	// Only the request fields change; owner, status and created_at stay as
	// they are.
	order.ProductName = in.ProductName
	order.ProductDetails = in.ProductDetails
	order.CurrentPrice = in.CurrentPrice
	order.NeedsPriceUpdate = in.NeedsPriceUpdate
	order.LabelQuantity = in.LabelQuantity

	if err := s.orders.UpdatePending(order); err != nil {
		s.logStoreRejection(opUpdate, orderID, err)
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderUpdated()
	}
	s.publishChange(EventOrderUpdated, order)

	return order, nil
}

// Cancel moves a pending order to cancelled. Admins may cancel any order,
// employees only their own.
func (s *Service) Cancel(_ context.Context, callerID, orderID string) error {
	start := time.Now()
	defer s.recordDuration(opCancel, start)

	caller, err := s.resolveCaller(callerID)
	if err != nil {
		s.recordRejection(opCancel, "auth")
		return err
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		s.recordRejection(opCancel, "not_found")
		return err
	}

	switch caller.Role {
	case domain.RoleAdmin:
		// Admins may cancel any pending order.
	case domain.RoleEmployee:
		if order.EmployeeID != caller.ID {
			s.recordRejection(opCancel, "owner")
			return domain.ErrNotOrderOwner
		}
	default:
		s.recordRejection(opCancel, "auth")
		return domain.ErrNotAuthenticated
	}

	if order.Status != domain.OrderStatusPending {
		s.recordRejection(opCancel, "not_pending")
		return domain.ErrOrderNotPending
	}

	if err := s.orders.CancelPending(orderID); err != nil {
		s.logStoreRejection(opCancel, orderID, err)
		return err
	}

	order.Status = domain.OrderStatusCancelled
	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.publishChange(EventOrderCancelled, order)

	return nil
}

// Complete closes a pending order. Admin-only: the role check happens before
// any read or write. When the order was flagged for a price update the new
// shelf price is computed here; otherwise new_price stays unset.
func (s *Service) Complete(_ context.Context, callerID, orderID, observations string) (domain.Order, error) {
	start := time.Now()
	defer s.recordDuration(opComplete, start)

	caller, err := s.resolveCaller(callerID)
	if err != nil {
		s.recordRejection(opComplete, "auth")
		return domain.Order{}, err
	}

	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleEmployee:
		s.recordRejection(opComplete, "role")
		return domain.Order{}, domain.ErrAdminOnly
	default:
		s.recordRejection(opComplete, "role")
		return domain.Order{}, domain.ErrAdminOnly
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		s.recordRejection(opComplete, "not_found")
		return domain.Order{}, err
	}
	if order.Status != domain.OrderStatusPending {
		s.recordRejection(opComplete, "not_pending")
		return domain.Order{}, domain.ErrOrderNotPending
	}

	if order.NeedsPriceUpdate {
		adj := pricing.Adjust(order.CurrentPrice)
		order.NewPrice = &adj.FinalPrice
	}

	now := s.now()
	order.Status = domain.OrderStatusCompleted
	order.CompletedAt = &now
	if observations != "" {
		order.Observations = observations
	}

	if err := s.orders.CompletePending(order); err != nil {
		s.logStoreRejection(opComplete, orderID, err)
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCompleted()
	}
	s.publishChange(EventOrderCompleted, order)

	return order, nil
}

// Get returns one order. Employees may only read their own orders; admins
// may read any.
func (s *Service) Get(_ context.Context, callerID, orderID string) (domain.Order, error) {
	caller, err := s.resolveCaller(callerID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleEmployee:
		if order.EmployeeID != caller.ID {
			return domain.Order{}, domain.ErrNotOrderOwner
		}
	default:
		return domain.Order{}, domain.ErrNotAuthenticated
	}

	return order, nil
}

// List returns the orders visible to the caller: admins see every order
// (optionally filtered by status), employees only their own.
func (s *Service) List(_ context.Context, callerID string, status domain.OrderStatus) ([]domain.Order, error) {
	caller, err := s.resolveCaller(callerID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case domain.RoleAdmin:
		if status != "" {
			return s.orders.ListByStatus(status)
		}
		return s.orders.ListAll()
	case domain.RoleEmployee:
		return s.orders.ListByEmployee(caller.ID)
	default:
		return nil, domain.ErrNotAuthenticated
	}
}

func (s *Service) resolveCaller(callerID string) (domain.Employee, error) {
	if callerID == "" {
		return domain.Employee{}, domain.ErrNotAuthenticated
	}
	caller, err := s.directory.GetByID(callerID)
	if err != nil {
		return domain.Employee{}, domain.ErrNotAuthenticated
	}
	return caller, nil
}

// orderEvent is the payload handed to the outbox after a mutation.
type orderEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// publishChange enqueues the "data changed" signal. Failing to enqueue never
// fails the operation itself; the mutation is already durable.
func (s *Service) publishChange(eventType string, order domain.Order) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(orderEvent{
		EventType:  eventType,
		OrderID:    order.ID,
		EmployeeID: order.EmployeeID,
		Status:     string(order.Status),
		Timestamp:  s.now(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to encode order event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: aggregateTypeLabelOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Warn("failed to enqueue order event")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) logStoreRejection(operation, orderID string, err error) {
	s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  orderID,
	}).Warn("store rejected order mutation")
	s.recordRejection(operation, "store")
}

func (s *Service) recordRejection(operation, reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(operation, reason)
	}
}

func (s *Service) recordDuration(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperationDuration(operation, time.Since(start))
	}
}
