package memory

import (
	"strings"
	"sync"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

// EmployeeRepository is a map-backed EmployeeDirectory used for local runs
// and tests.
type EmployeeRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Employee
	byEmail map[string]string
}

// NewEmployeeRepository returns an in-memory employee directory.
func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{
		byID:    make(map[string]domain.Employee),
		byEmail: make(map[string]string),
	}
}

// Put inserts or replaces a directory entry.
func (r *EmployeeRepository) Put(employee domain.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[employee.ID] = employee
	if employee.Email != "" {
		r.byEmail[normalizeEmail(employee.Email)] = employee.ID
	}
}

// GetByID returns the entry for a user id or ErrEmployeeNotFound.
func (r *EmployeeRepository) GetByID(id string) (domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employee, ok := r.byID[id]
	if !ok {
		return domain.Employee{}, domain.ErrEmployeeNotFound
	}
	return employee, nil
}

// GetByEmail returns the entry for a sign-in email or ErrEmployeeNotFound.
func (r *EmployeeRepository) GetByEmail(email string) (domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.Employee{}, domain.ErrEmployeeNotFound
	}
	return r.byID[id], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ domain.EmployeeDirectory = (*EmployeeRepository)(nil)
