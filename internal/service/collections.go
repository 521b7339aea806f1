// Package service implements the business operations of the expense
// application: user administration and the expense approval workflow.
package service

import (
	"log/slog"

	"github.com/google/uuid"

	"expensehub/internal/domain"
	"expensehub/internal/entity"
	"expensehub/internal/kvstore"
)

// NewUserCollection builds the indexed collection for the "user" entity type.
func NewUserCollection(store kvstore.Store, logger *slog.Logger) *entity.Collection[domain.User] {
	return entity.NewCollection(store, entity.Definition[domain.User]{
		Name:  "user",
		ID:    func(u *domain.User) string { return u.ID },
		SetID: func(u *domain.User, id string) { u.ID = id },
	}, logger)
}

// NewExpenseCollection builds the indexed collection for the "expense"
// entity type. Generated IDs carry an "exp-" prefix so they are easy to
// tell apart in logs and URLs.
func NewExpenseCollection(store kvstore.Store, logger *slog.Logger) *entity.Collection[domain.Expense] {
	return entity.NewCollection(store, entity.Definition[domain.Expense]{
		Name:  "expense",
		ID:    func(e *domain.Expense) string { return e.ID },
		SetID: func(e *domain.Expense, id string) { e.ID = id },
		NewID: func() string { return "exp-" + uuid.NewString() },
	}, logger)
}
