package domain

// Role is the closed set of roles an employee may hold.
type Role string

const (
	// RoleAdmin may complete and cancel any order.
	RoleAdmin Role = "admin"
	// RoleEmployee may create orders and edit or cancel their own.
	RoleEmployee Role = "employee"
)

// IsValid reports whether the value is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEmployee:
		return true
	default:
		return false
	}
}

// Employee is a directory entry mapping a user id to a name and role.
type Employee struct {
	ID    string
	Name  string
	Email string
	Role  Role
	// PasswordHash is a bcrypt hash; empty for entries that cannot sign in.
	PasswordHash string
}
