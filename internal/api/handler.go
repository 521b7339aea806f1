// Package api provides the HTTP handlers for the expense service REST API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expensehub/internal/service"
)

// SeedFunc populates initial data if none exists yet. It must be
// idempotent: the handler invokes it on every API request so an empty
// store self-heals on first contact.
type SeedFunc func(ctx context.Context) error

// Handler exposes the user and expense services over HTTP.
type Handler struct {
	users    *service.UserService
	expenses *service.ExpenseService
	seed     SeedFunc
	logger   *slog.Logger
}

// NewHandler creates a Handler. seed may be nil when the caller seeds at
// startup instead.
func NewHandler(users *service.UserService, expenses *service.ExpenseService, seed SeedFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:    users,
		expenses: expenses,
		seed:     seed,
		logger:   logger.With("component", "api"),
	}
}

// Routes mounts all API routes on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/api/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.ensureSeeded)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Put("/{id}/role", h.setUserRole)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.listExpenses)
			r.Post("/", h.createExpense)
			r.Get("/{id}", h.getExpense)
			r.Put("/{id}", h.updateExpense)
			r.Delete("/{id}", h.deleteExpense)
			r.Post("/{id}/approve", h.approveExpense)
			r.Post("/{id}/reject", h.rejectExpense)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	ok(w, map[string]string{"status": "ok"})
}

// ensureSeeded guarantees seed data is present before any API operation.
// After the first successful run the seed func short-circuits on a
// process-local flag, so this costs nothing on the hot path.
func (h *Handler) ensureSeeded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.seed != nil {
			if err := h.seed(r.Context()); err != nil {
				h.logger.Error("seed failed", "error", err)
				fail(w, http.StatusInternalServerError, "internal error")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
