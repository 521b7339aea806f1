package service

import (
	"context"

	"expensehub/internal/domain"
	"expensehub/internal/entity"
)

// UserService provides user lookup and admin-only role management.
type UserService struct {
	users *entity.Collection[domain.User]
}

// NewUserService creates a new UserService.
func NewUserService(users *entity.Collection[domain.User]) *UserService {
	return &UserService{users: users}
}

// List returns all users in index order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Get returns one user by ID.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.users.Get(ctx, id)
}

// SetRole changes targetID's role. Only admins may change roles; the
// caller-supplied adminID is trusted as the actor's identity.
func (s *UserService) SetRole(ctx context.Context, adminID, targetID string, role domain.UserRole) (domain.User, error) {
	if adminID == "" {
		return domain.User{}, domain.ErrValidation("admin id is required for authorization")
	}
	if !domain.ValidRole(role) {
		return domain.User{}, domain.ErrValidation("invalid role %q", role)
	}

	admin, err := s.users.Get(ctx, adminID)
	if err != nil {
		return domain.User{}, err
	}
	if admin.Role != domain.RoleAdmin {
		return domain.User{}, domain.ErrAccessDenied("only admins can change user roles")
	}

	return s.users.Mutate(ctx, targetID, func(u *domain.User) error {
		u.Role = role
		return nil
	})
}
