package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensehub/internal/domain"
	"expensehub/internal/kvstore"
)

func setupExpenseService(t *testing.T) (*ExpenseService, *UserService) {
	t.Helper()
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	users := NewUserCollection(store, nil)
	expenses := NewExpenseCollection(store, nil)

	require.NoError(t, users.EnsureSeed(ctx, []domain.User{
		{ID: "u1", Name: "Eve Employee", Email: "eve@example.com", Role: domain.RoleEmployee},
		{ID: "u2", Name: "Oscar Employee", Email: "oscar@example.com", Role: domain.RoleEmployee},
		{ID: "m1", Name: "Mona Manager", Email: "mona@example.com", Role: domain.RoleManager},
		{ID: "m2", Name: "Max Manager", Email: "max@example.com", Role: domain.RoleManager},
		{ID: "a1", Name: "Ada Admin", Email: "ada@example.com", Role: domain.RoleAdmin},
	}))

	return NewExpenseService(expenses, users), NewUserService(users)
}

func submitTestExpense(t *testing.T, svc *ExpenseService, userID string) domain.Expense {
	t.Helper()
	e, err := svc.Submit(context.Background(), SubmitExpenseInput{
		UserID:   userID,
		Merchant: "Acme",
		Amount:   42.50,
		Date:     1700000000000,
		Category: "Travel",
	})
	require.NoError(t, err)
	return e
}

func TestSubmit_ForcesPendingAndDefaults(t *testing.T) {
	svc, _ := setupExpenseService(t)

	e := submitTestExpense(t, svc, "u1")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, domain.StatusPending, e.Status)
	assert.Equal(t, "USD", e.Currency)
	assert.Empty(t, e.History)
}

func TestSubmit_Validation(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	valid := SubmitExpenseInput{
		UserID: "u1", Merchant: "Acme", Amount: 10, Date: 1700000000000, Category: "Travel",
	}

	tests := []struct {
		name   string
		modify func(*SubmitExpenseInput)
	}{
		{"missing userId", func(in *SubmitExpenseInput) { in.UserID = "" }},
		{"missing merchant", func(in *SubmitExpenseInput) { in.Merchant = "" }},
		{"zero amount", func(in *SubmitExpenseInput) { in.Amount = 0 }},
		{"negative amount", func(in *SubmitExpenseInput) { in.Amount = -5 }},
		{"missing date", func(in *SubmitExpenseInput) { in.Date = 0 }},
		{"missing category", func(in *SubmitExpenseInput) { in.Category = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.modify(&in)
			_, err := svc.Submit(ctx, in)
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestApprove_ManagerHappyPath(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	approved, err := svc.Approve(ctx, e.ID, "m1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.Len(t, approved.History, 1)

	step := approved.History[0]
	assert.Equal(t, "m1", step.ApproverID)
	assert.Equal(t, "Mona Manager", step.ApproverName)
	assert.Equal(t, domain.StatusApproved, step.Status)
	assert.Equal(t, "Approved", step.Notes)
	assert.NotZero(t, step.Timestamp)
}

func TestReject_AppendsRejectedStep(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	rejected, err := svc.Reject(ctx, e.ID, "m1", "receipt missing")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	require.Len(t, rejected.History, 1)
	assert.Equal(t, "receipt missing", rejected.History[0].Notes)
}

func TestApprove_AlreadyActionedIsRefused(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	_, err := svc.Approve(ctx, e.ID, "m1", "")
	require.NoError(t, err)

	// A second decision by another manager is refused, never appended.
	_, err = svc.Reject(ctx, e.ID, "m2", "")
	var precondition *domain.PreconditionError
	require.ErrorAs(t, err, &precondition)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Len(t, got.History, 1)
}

func TestApprove_Authorization(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	_, err := svc.Approve(ctx, e.ID, "u2", "")
	var accessDenied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &accessDenied)

	_, err = svc.Approve(ctx, e.ID, "ghost", "")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.Approve(ctx, e.ID, "", "")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	// Admins may approve too.
	approved, err := svc.Approve(ctx, e.ID, "a1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
}

func TestConcurrentApproveReject_ExactlyOneWinner(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Approve(ctx, e.ID, "m1", "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Reject(ctx, e.ID, "m2", "")
	}()
	wg.Wait()

	var precondition *domain.PreconditionError
	switch {
	case errs[0] == nil:
		require.ErrorAs(t, errs[1], &precondition, "the loser must be refused, not dropped")
	case errs[1] == nil:
		require.ErrorAs(t, errs[0], &precondition, "the loser must be refused, not dropped")
	default:
		t.Fatalf("both decisions failed: %v / %v", errs[0], errs[1])
	}

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 1, "exactly one approval step may be appended")
	assert.NotEqual(t, domain.StatusPending, got.Status)
}

func TestEdit_RejectedResetsToPending(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")
	_, err := svc.Reject(ctx, e.ID, "m1", "")
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, e.ID, EditExpenseInput{
		ActorID:  "u1",
		Merchant: "Acme Corp",
		Amount:   50,
		Date:     1700000001000,
		Category: "Travel",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, edited.Status)
	assert.Equal(t, "Acme Corp", edited.Merchant)
	assert.Len(t, edited.History, 1, "editing must not touch history")
}

func TestEdit_ApprovedIsRefused(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")
	_, err := svc.Approve(ctx, e.ID, "m1", "")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, e.ID, EditExpenseInput{ActorID: "u1", Merchant: "X", Amount: 1, Date: 1, Category: "Y"})
	var precondition *domain.PreconditionError
	require.ErrorAs(t, err, &precondition)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
}

func TestEdit_OwnershipEnforced(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	// Another employee may not edit.
	_, err := svc.Edit(ctx, e.ID, EditExpenseInput{ActorID: "u2", Merchant: "X", Amount: 1, Date: 1, Category: "Y"})
	var accessDenied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &accessDenied)

	// An admin may.
	edited, err := svc.Edit(ctx, e.ID, EditExpenseInput{ActorID: "a1", Merchant: "Fixed", Amount: 1, Date: 1, Category: "Y"})
	require.NoError(t, err)
	assert.Equal(t, "Fixed", edited.Merchant)
}

func TestRemove_OwnershipEnforced(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")

	var accessDenied *domain.AccessDeniedError
	require.ErrorAs(t, svc.Remove(ctx, e.ID, "u2"), &accessDenied)

	require.NoError(t, svc.Remove(ctx, e.ID, "u1"))

	_, err := svc.Get(ctx, e.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRemove_AdminMayDeleteAnyStatus(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	e := submitTestExpense(t, svc, "u1")
	_, err := svc.Approve(ctx, e.ID, "m1", "")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, e.ID, "a1"))
}

func TestListFor_Scoping(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	first := submitTestExpense(t, svc, "u1")
	submitTestExpense(t, svc, "u2")

	all, err := svc.ListFor(ctx, "a1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	managers, err := svc.ListFor(ctx, "m1", domain.RoleManager)
	require.NoError(t, err)
	assert.Len(t, managers, 2)

	own, err := svc.ListFor(ctx, "u1", domain.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, first.ID, own[0].ID)

	_, err = svc.ListFor(ctx, "", domain.RoleEmployee)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestListFor_SortsNewestFirst(t *testing.T) {
	svc, _ := setupExpenseService(t)
	ctx := context.Background()

	older, err := svc.Submit(ctx, SubmitExpenseInput{
		UserID: "u1", Merchant: "Old", Amount: 1, Date: 1000, Category: "Misc",
	})
	require.NoError(t, err)
	newer, err := svc.Submit(ctx, SubmitExpenseInput{
		UserID: "u1", Merchant: "New", Amount: 1, Date: 2000, Category: "Misc",
	})
	require.NoError(t, err)

	got, err := svc.ListFor(ctx, "u1", domain.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}
