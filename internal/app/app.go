// Package app provides application-level wiring and dependency injection
// for the expense service.
package app

import (
	"fmt"
	"log/slog"

	"expensehub/internal/api"
	"expensehub/internal/config"
	"expensehub/internal/domain"
	"expensehub/internal/entity"
	"expensehub/internal/kvstore"
	"expensehub/internal/service"
)

// Deps holds the external dependencies that main() must provide: config,
// the key-value store, and the root logger.
type Deps struct {
	Cfg    *config.Config
	Store  kvstore.Store
	Logger *slog.Logger
}

// App holds the fully-wired application: collections, services, the HTTP
// handler, and the background consistency checker.
type App struct {
	Users    *entity.Collection[domain.User]
	Expenses *entity.Collection[domain.Expense]

	UserService    *service.UserService
	ExpenseService *service.ExpenseService

	Handler *api.Handler
	Checker *entity.Checker
}

// New wires collections, services, seeding, and the API handler from the
// provided deps.
func New(deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	users := service.NewUserCollection(deps.Store, logger)
	expenses := service.NewExpenseCollection(deps.Store, logger)

	var seed api.SeedFunc
	if !deps.Cfg.SeedDisabled {
		var err error
		seed, err = newSeedFunc(users, expenses)
		if err != nil {
			return nil, fmt.Errorf("load seed data: %w", err)
		}
	}

	userSvc := service.NewUserService(users)
	expenseSvc := service.NewExpenseService(expenses, users)

	return &App{
		Users:          users,
		Expenses:       expenses,
		UserService:    userSvc,
		ExpenseService: expenseSvc,
		Handler:        api.NewHandler(userSvc, expenseSvc, seed, logger),
		Checker:        entity.NewChecker(logger, users, expenses),
	}, nil
}
