package domain

// OrderRepository describes the order store. Implementations must treat the
// conditional updates as compare-and-swap on status: the row is touched only
// while it is still pending, and a zero-row result on an existing row is a
// permission failure, never a silent no-op.
type OrderRepository interface {
	// Create persists a new order.
	Create(order Order) error
	// Get returns an order by id or ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByEmployee returns the employee's own orders, newest first.
	ListByEmployee(employeeID string) ([]Order, error)
	// ListByStatus returns all orders with the given status, newest first.
	ListByStatus(status OrderStatus) ([]Order, error)
	// ListAll returns every order, newest first.
	ListAll() ([]Order, error)
	// UpdatePending overwrites the mutable fields (product_name,
	// product_details, current_price, needs_price_update, label_quantity)
	// of a still-pending order. Returns ErrOrderNotFound, ErrOrderNotPending
	// or ErrPermissionDenied accordingly.
	UpdatePending(order Order) error
	// CompletePending transitions a pending order to completed, setting
	// completed_at, new_price and observations in the same conditional write.
	CompletePending(order Order) error
	// CancelPending transitions a pending order to cancelled, touching no
	// other fields.
	CancelPending(id string) error
}

// EmployeeDirectory resolves user ids and sign-in emails to directory
// entries.
type EmployeeDirectory interface {
	// GetByID returns the entry for a user id or ErrEmployeeNotFound.
	GetByID(id string) (Employee, error)
	// GetByEmail returns the entry for a sign-in email or ErrEmployeeNotFound.
	GetByEmail(email string) (Employee, error)
}
