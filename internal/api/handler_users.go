package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"expensehub/internal/domain"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("list users", "error", err)
		failFromError(w, err)
		return
	}
	ok(w, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFromError(w, err)
		return
	}
	ok(w, user)
}

func (h *Handler) setUserRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role    domain.UserRole `json:"role"`
		AdminID string          `json:"adminId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	updated, err := h.users.SetRole(r.Context(), body.AdminID, chi.URLParam(r, "id"), body.Role)
	if err != nil {
		failFromError(w, err)
		return
	}
	ok(w, updated)
}
