package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates the PostgreSQL implementation of
// EmployeeDirectory.
func NewEmployeeRepository(store *Store) domain.EmployeeDirectory {
	return &employeeRepository{db: store.DB()}
}

func (r *employeeRepository) GetByID(id string) (domain.Employee, error) {
	return r.get(`WHERE id = $1`, id)
}

func (r *employeeRepository) GetByEmail(email string) (domain.Employee, error) {
	return r.get(`WHERE lower(email) = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *employeeRepository) get(where string, arg any) (domain.Employee, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		employee     domain.Employee
		role         string
		passwordHash sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, password_hash
		FROM employees `+where,
		arg,
	).Scan(&employee.ID, &employee.Name, &employee.Email, &role, &passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Employee{}, domain.ErrEmployeeNotFound
		}
		return domain.Employee{}, fmt.Errorf("select employee: %w", err)
	}

	employee.Role = domain.Role(role)
	employee.PasswordHash = passwordHash.String

	return employee, nil
}

var _ domain.EmployeeDirectory = (*employeeRepository)(nil)
