package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expensehub/internal/domain"
	"expensehub/internal/service"
)

// expenseBody is the JSON shape shared by create and edit requests.
type expenseBody struct {
	UserID      string  `json:"userId"`
	Merchant    string  `json:"merchant"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        int64   `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ReceiptURL  string  `json:"receiptUrl"`
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	role := domain.UserRole(r.URL.Query().Get("role"))

	expenses, err := h.expenses.ListFor(r.Context(), userID, role)
	if err != nil {
		failFromError(w, err)
		return
	}
	ok(w, expenses)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.expenses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFromError(w, err)
		return
	}
	ok(w, expense)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var body expenseBody
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := h.expenses.Submit(r.Context(), service.SubmitExpenseInput{
		UserID:      body.UserID,
		Merchant:    body.Merchant,
		Amount:      body.Amount,
		Currency:    body.Currency,
		Date:        body.Date,
		Description: body.Description,
		Category:    body.Category,
		ReceiptURL:  body.ReceiptURL,
	})
	if err != nil {
		h.logError("create expense", err)
		failFromError(w, err)
		return
	}
	ok(w, created)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var body expenseBody
	if !decodeJSON(w, r, &body) {
		return
	}

	updated, err := h.expenses.Edit(r.Context(), chi.URLParam(r, "id"), service.EditExpenseInput{
		ActorID:     body.UserID,
		Merchant:    body.Merchant,
		Amount:      body.Amount,
		Date:        body.Date,
		Description: body.Description,
		Category:    body.Category,
		ReceiptURL:  body.ReceiptURL,
	})
	if err != nil {
		h.logError("update expense", err)
		failFromError(w, err)
		return
	}
	ok(w, updated)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.expenses.Remove(r.Context(), id, body.UserID); err != nil {
		h.logError("delete expense", err)
		failFromError(w, err)
		return
	}
	ok(w, map[string]string{"id": id})
}

func (h *Handler) approveExpense(w http.ResponseWriter, r *http.Request) {
	h.decideExpense(w, r, h.expenses.Approve)
}

func (h *Handler) rejectExpense(w http.ResponseWriter, r *http.Request) {
	h.decideExpense(w, r, h.expenses.Reject)
}

type decideFunc func(ctx context.Context, expenseID, approverID, notes string) (domain.Expense, error)

func (h *Handler) decideExpense(w http.ResponseWriter, r *http.Request, decide decideFunc) {
	var body struct {
		ApproverID string `json:"approverId"`
		Notes      string `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	expense, err := decide(r.Context(), chi.URLParam(r, "id"), body.ApproverID, body.Notes)
	if err != nil {
		h.logError("decide expense", err)
		failFromError(w, err)
		return
	}
	ok(w, expense)
}

// logError records server-side failures; expected request-level errors
// (validation, authorization, state-machine refusals) stay at debug.
func (h *Handler) logError(op string, err error) {
	if httpStatusFromDomainError(err) >= http.StatusInternalServerError {
		h.logger.Error(op, "error", err)
		return
	}
	h.logger.Debug(op+" refused", "reason", err)
}
