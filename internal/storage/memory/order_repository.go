package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

// orderRepositoryInMemory is a map-backed OrderRepository for local runs and
// tests. The conditional updates mirror the postgres semantics: a row is
// mutated only while it is still pending.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository returns an in-memory order store.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create stores a new order if the ID is not taken yet.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrPermissionDenied
	}
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get returns the order or ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByEmployee returns the employee's orders, newest first.
func (r *orderRepositoryInMemory) ListByEmployee(employeeID string) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.EmployeeID == employeeID })
}

// ListByStatus returns every order with the given status, newest first.
func (r *orderRepositoryInMemory) ListByStatus(status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.Status == status })
}

// ListAll returns every order, newest first.
func (r *orderRepositoryInMemory) ListAll() ([]domain.Order, error) {
	return r.list(func(domain.Order) bool { return true })
}

func (r *orderRepositoryInMemory) list(keep func(domain.Order) bool) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if keep(order) {
			result = append(result, cloneOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// UpdatePending overwrites the mutable fields while the order is pending.
func (r *orderRepositoryInMemory) UpdatePending(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Status != domain.OrderStatusPending {
		return domain.ErrOrderNotPending
	}

	current.ProductName = order.ProductName
	current.ProductDetails = order.ProductDetails
	current.CurrentPrice = order.CurrentPrice
	current.NeedsPriceUpdate = order.NeedsPriceUpdate
	current.LabelQuantity = order.LabelQuantity
	r.items[order.ID] = current
	return nil
}

// CompletePending transitions a pending order to completed.
func (r *orderRepositoryInMemory) CompletePending(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Status != domain.OrderStatusPending {
		return domain.ErrOrderNotPending
	}

	current.Status = domain.OrderStatusCompleted
	current.CompletedAt = cloneTime(order.CompletedAt)
	current.NewPrice = cloneFloat(order.NewPrice)
	current.Observations = order.Observations
	r.items[order.ID] = current
	return nil
}

// CancelPending transitions a pending order to cancelled, touching nothing
// else.
func (r *orderRepositoryInMemory) CancelPending(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Status != domain.OrderStatusPending {
		return domain.ErrOrderNotPending
	}

	current.Status = domain.OrderStatusCancelled
	r.items[id] = current
	return nil
}

// cloneOrder copies the order so callers cannot mutate stored state through
// the shared pointers.
func cloneOrder(o domain.Order) domain.Order {
	o.NewPrice = cloneFloat(o.NewPrice)
	o.CompletedAt = cloneTime(o.CompletedAt)
	return o
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
