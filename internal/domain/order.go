package domain

import (
	"strings"
	"time"
)

// OrderStatus describes the lifecycle of a label print order.
type OrderStatus string

const (
	// OrderStatusPending means the order is waiting for an admin to act on it.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusCompleted means an admin printed the labels and closed the order.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled means the order was withdrawn before completion.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsValid reports whether the value is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order is one label print request with its lifecycle state.
type Order struct {
	ID string
	// EmployeeID owns the order; set at creation, never changed.
	EmployeeID string
	// EmployeeName is a display-name snapshot taken at creation time.
	// It is deliberately denormalized and is never repaired if the
	// directory entry is renamed later.
	EmployeeName     string
	ProductName      string
	ProductDetails   string
	CurrentPrice     float64
	NeedsPriceUpdate bool
	// NewPrice is set only at completion, and only when the order was
	// flagged for a price update.
	NewPrice      *float64
	LabelQuantity int
	Status        OrderStatus
	// Observations are free text added by the admin who completes the order.
	Observations string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// OrderInput carries the fields an employee may set when creating or
// editing an order.
type OrderInput struct {
	ProductName      string
	ProductDetails   string
	CurrentPrice     float64
	NeedsPriceUpdate bool
	LabelQuantity    int
}

// Validate checks the input schema and returns every violation found.
func (in OrderInput) Validate() []error {
	var errs []error

	if strings.TrimSpace(in.ProductName) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if in.CurrentPrice <= 0 {
		errs = append(errs, ErrPriceNotPositive)
	}
	if in.LabelQuantity < 1 {
		errs = append(errs, ErrQuantityInvalid)
	}

	return errs
}
