package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	orderColumns = `
		id, employee_id, employee_name, product_name, product_details,
		current_price, needs_price_update, new_price, label_quantity,
		status, observations, created_at, completed_at`
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates the PostgreSQL implementation of
// OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO label_orders (
			id, employee_id, employee_name, product_name, product_details,
			current_price, needs_price_update, label_quantity,
			status, observations, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		order.ID, order.EmployeeID, order.EmployeeName, order.ProductName,
		order.ProductDetails, order.CurrentPrice, order.NeedsPriceUpdate,
		order.LabelQuantity, string(order.Status), order.Observations,
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPermissionDenied
		}
		return fmt.Errorf("insert label order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM label_orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select label order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListByEmployee(employeeID string) ([]domain.Order, error) {
	return r.list(`WHERE employee_id = $1`, employeeID)
}

func (r *orderRepository) ListByStatus(status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(`WHERE status = $1`, string(status))
}

func (r *orderRepository) ListAll() ([]domain.Order, error) {
	return r.list(``)
}

func (r *orderRepository) list(where string, args ...any) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM label_orders ` + where +
		` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list label orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan label order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label order rows: %w", err)
	}

	return orders, nil
}

// UpdatePending overwrites the request fields while the row is still
// pending. The status predicate makes the write a compare-and-swap: a
// concurrent transition wins and this update affects zero rows.
func (r *orderRepository) UpdatePending(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE label_orders
		SET product_name = $1,
		    product_details = $2,
		    current_price = $3,
		    needs_price_update = $4,
		    label_quantity = $5
		WHERE id = $6
		  AND status = 'pending'
	`,
		order.ProductName, order.ProductDetails, order.CurrentPrice,
		order.NeedsPriceUpdate, order.LabelQuantity, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update label order: %w", err)
	}

	return r.resolveZeroRows(ctx, res, order.ID)
}

// CompletePending finishes a pending order in one conditional write.
func (r *orderRepository) CompletePending(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var newPrice sql.NullFloat64
	if order.NewPrice != nil {
		newPrice = sql.NullFloat64{Float64: *order.NewPrice, Valid: true}
	}
	var completedAt sql.NullTime
	if order.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *order.CompletedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE label_orders
		SET status = 'completed',
		    completed_at = $1,
		    new_price = $2,
		    observations = $3
		WHERE id = $4
		  AND status = 'pending'
	`,
		completedAt, newPrice, order.Observations, order.ID,
	)
	if err != nil {
		return fmt.Errorf("complete label order: %w", err)
	}

	return r.resolveZeroRows(ctx, res, order.ID)
}

// CancelPending flips a pending order to cancelled, touching nothing else.
func (r *orderRepository) CancelPending(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE label_orders
		SET status = 'cancelled'
		WHERE id = $1
		  AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("cancel label order: %w", err)
	}

	return r.resolveZeroRows(ctx, res, id)
}

// resolveZeroRows turns a zero-row conditional update into the right
// rejection: the row is gone (not found), already terminal (not pending) or
// blocked by a row-level policy (permission denied).
func (r *orderRepository) resolveZeroRows(ctx context.Context, res sql.Result, orderID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM label_orders WHERE id = $1`, orderID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrOrderNotFound
	case err != nil:
		return fmt.Errorf("check label order status: %w", err)
	case domain.OrderStatus(status) != domain.OrderStatusPending:
		return domain.ErrOrderNotPending
	default:
		// The row exists and is pending, yet the update touched nothing:
		// a store-side policy rejected the write.
		return domain.ErrPermissionDenied
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order          domain.Order
		productDetails sql.NullString
		newPrice       sql.NullFloat64
		status         string
		observations   sql.NullString
		completedAt    sql.NullTime
	)

	if err := row.Scan(
		&order.ID, &order.EmployeeID, &order.EmployeeName, &order.ProductName,
		&productDetails, &order.CurrentPrice, &order.NeedsPriceUpdate,
		&newPrice, &order.LabelQuantity, &status, &observations,
		&order.CreatedAt, &completedAt,
	); err != nil {
		return domain.Order{}, err
	}

	order.ProductDetails = productDetails.String
	order.Observations = observations.String
	order.Status = domain.OrderStatus(status)
	if newPrice.Valid {
		v := newPrice.Float64
		order.NewPrice = &v
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		order.CompletedAt = &t
	}

	return order, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
