package domain

// UserRole is the access level of a user.
type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
	RoleAdmin    UserRole = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can submit expenses and, depending on role,
// approve or reject them.
type User struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Email string   `json:"email" yaml:"email"`
	Role  UserRole `json:"role" yaml:"role"`
}

// CanApprove reports whether the user may action expenses.
func (u User) CanApprove() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}
