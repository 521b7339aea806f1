package service

import (
	"context"
	"sort"
	"time"

	"expensehub/internal/domain"
	"expensehub/internal/entity"
)

// SubmitExpenseInput carries the caller-supplied fields of a new expense.
type SubmitExpenseInput struct {
	UserID      string
	Merchant    string
	Amount      float64
	Currency    string
	Date        int64
	Description string
	Category    string
	ReceiptURL  string
}

// EditExpenseInput carries the replaceable fields of an existing expense.
// ActorID identifies who is editing; status and history are never set by
// callers.
type EditExpenseInput struct {
	ActorID     string
	Merchant    string
	Amount      float64
	Date        int64
	Description string
	Category    string
	ReceiptURL  string
}

// ExpenseService implements the expense lifecycle: submission, listing,
// editing, deletion, and the approval state machine. All state transitions
// run as mutation functions inside Collection.Mutate, so concurrent
// decisions on one expense serialize and exactly one wins.
type ExpenseService struct {
	expenses *entity.Collection[domain.Expense]
	users    *entity.Collection[domain.User]
	now      func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(expenses *entity.Collection[domain.Expense], users *entity.Collection[domain.User]) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		users:    users,
		now:      time.Now,
	}
}

// Submit validates and stores a new expense. Status is always forced to
// pending and history starts empty regardless of input.
func (s *ExpenseService) Submit(ctx context.Context, in SubmitExpenseInput) (domain.Expense, error) {
	switch {
	case in.UserID == "":
		return domain.Expense{}, domain.ErrValidation("userId is required")
	case in.Merchant == "":
		return domain.Expense{}, domain.ErrValidation("merchant is required")
	case in.Amount <= 0:
		return domain.Expense{}, domain.ErrValidation("amount must be positive")
	case in.Date == 0:
		return domain.Expense{}, domain.ErrValidation("date is required")
	case in.Category == "":
		return domain.Expense{}, domain.ErrValidation("category is required")
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	return s.expenses.Create(ctx, domain.Expense{
		UserID:      in.UserID,
		Merchant:    in.Merchant,
		Amount:      in.Amount,
		Currency:    currency,
		Date:        in.Date,
		Description: in.Description,
		Status:      domain.StatusPending,
		Category:    in.Category,
		ReceiptURL:  in.ReceiptURL,
		History:     []domain.ApprovalStep{},
	})
}

// Get returns one expense by ID.
func (s *ExpenseService) Get(ctx context.Context, id string) (domain.Expense, error) {
	return s.expenses.Get(ctx, id)
}

// ListFor returns the expenses visible to the requester, newest first.
// Admins and managers see everything; everyone else sees only their own.
func (s *ExpenseService) ListFor(ctx context.Context, requesterID string, role domain.UserRole) ([]domain.Expense, error) {
	privileged := role == domain.RoleAdmin || role == domain.RoleManager
	if !privileged && requesterID == "" {
		return nil, domain.ErrValidation("a userId or admin/manager role is required to fetch expenses")
	}

	all, err := s.expenses.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := all
	if !privileged {
		visible = visible[:0]
		for _, e := range all {
			if e.UserID == requesterID {
				visible = append(visible, e)
			}
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Date > visible[j].Date })
	return visible, nil
}

// Edit replaces the editable fields of an expense and resets its status to
// pending. Only the owner or an admin may edit; approved expenses are
// frozen. History is left untouched: an edit is a fresh pending state,
// not a new approval record.
func (s *ExpenseService) Edit(ctx context.Context, expenseID string, in EditExpenseInput) (domain.Expense, error) {
	current, err := s.expenses.Get(ctx, expenseID)
	if err != nil {
		return domain.Expense{}, err
	}
	if err := s.requireOwnerOrAdmin(ctx, current, in.ActorID); err != nil {
		return domain.Expense{}, err
	}

	return s.expenses.Mutate(ctx, expenseID, func(e *domain.Expense) error {
		if !e.Editable() {
			return domain.ErrPrecondition("only pending or rejected expenses can be edited")
		}
		e.Merchant = in.Merchant
		e.Amount = in.Amount
		e.Date = in.Date
		e.Description = in.Description
		e.Category = in.Category
		e.ReceiptURL = in.ReceiptURL
		e.Status = domain.StatusPending
		return nil
	})
}

// Remove deletes an expense. The owner or an admin may delete regardless
// of status.
func (s *ExpenseService) Remove(ctx context.Context, expenseID, actorID string) error {
	expense, err := s.expenses.Get(ctx, expenseID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(ctx, expense, actorID); err != nil {
		return err
	}
	return s.expenses.Delete(ctx, expenseID)
}

// Approve marks a pending expense approved and appends one approval step.
func (s *ExpenseService) Approve(ctx context.Context, expenseID, approverID, notes string) (domain.Expense, error) {
	return s.decide(ctx, expenseID, approverID, notes, domain.StatusApproved)
}

// Reject marks a pending expense rejected and appends one approval step.
func (s *ExpenseService) Reject(ctx context.Context, expenseID, approverID, notes string) (domain.Expense, error) {
	return s.decide(ctx, expenseID, approverID, notes, domain.StatusRejected)
}

// decide is the approval state machine. The transformation only fires on a
// pending expense; anything else has already been actioned and the call is
// refused with the stored state left unchanged. Mutate's per-id
// serialization makes concurrent approve/reject resolve to exactly one
// winner.
func (s *ExpenseService) decide(ctx context.Context, expenseID, approverID, notes string, decision domain.ExpenseStatus) (domain.Expense, error) {
	if approverID == "" {
		return domain.Expense{}, domain.ErrValidation("approver id is required")
	}
	approver, err := s.users.Get(ctx, approverID)
	if err != nil {
		return domain.Expense{}, err
	}
	if !approver.CanApprove() {
		return domain.Expense{}, domain.ErrAccessDenied("user does not have approval permissions")
	}

	if notes == "" {
		if decision == domain.StatusApproved {
			notes = "Approved"
		} else {
			notes = "Rejected"
		}
	}

	return s.expenses.Mutate(ctx, expenseID, func(e *domain.Expense) error {
		if e.Status != domain.StatusPending {
			return domain.ErrPrecondition("this expense has already been actioned and cannot be changed")
		}
		e.Status = decision
		e.History = append(e.History, domain.ApprovalStep{
			ApproverID:   approver.ID,
			ApproverName: approver.Name,
			Status:       decision,
			Timestamp:    s.now().UnixMilli(),
			Notes:        notes,
		})
		return nil
	})
}

// requireOwnerOrAdmin resolves the actor and checks ownership. Identity is
// caller-supplied and trusted; this guards intent, not authentication.
func (s *ExpenseService) requireOwnerOrAdmin(ctx context.Context, expense domain.Expense, actorID string) error {
	if actorID == "" {
		return domain.ErrValidation("userId is required")
	}
	if expense.UserID == actorID {
		return nil
	}
	actor, err := s.users.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.ErrAccessDenied("unauthorized")
	}
	return nil
}
