package domain

import "errors"

var (
	// Input validation failures. Always recoverable by correcting the input.
	ErrProductNameRequired = errors.New("product_name is required")
	ErrPriceNotPositive    = errors.New("current_price must be greater than zero")
	ErrQuantityInvalid     = errors.New("label_quantity must be at least 1")

	// ErrNotAuthenticated is returned when the caller carries no resolvable
	// identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotOrderOwner is returned when an employee acts on an order that
	// belongs to someone else.
	ErrNotOrderOwner = errors.New("order belongs to another employee")
	// ErrAdminOnly is returned when a non-admin attempts an admin operation.
	ErrAdminOnly = errors.New("only admins may complete orders")
	// ErrPermissionDenied is returned when the store rejected an update on a
	// row that was expected to be present (zero rows affected). The store-side
	// policy is the authoritative rejection signal, independent of the local
	// pre-checks.
	ErrPermissionDenied = errors.New("permission denied by store policy")
	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPending is returned for any transition attempted on an
	// order that already reached a terminal status.
	ErrOrderNotPending = errors.New("only pending orders may be modified")
	// ErrEmployeeNotFound is returned when a user id has no directory entry.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrInvalidCredentials is returned on a failed sign-in attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrOutboxPublish is returned when an outbox message cannot be
	// published or marked.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsAuthError reports whether the error is an identity or role failure, as
// opposed to a store-side permission rejection.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrNotOrderOwner) ||
		errors.Is(err, ErrAdminOnly) ||
		errors.Is(err, ErrInvalidCredentials)
}
