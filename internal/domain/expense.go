package domain

// ExpenseStatus is the lifecycle state of an expense.
type ExpenseStatus string

const (
	StatusPending  ExpenseStatus = "pending"
	StatusApproved ExpenseStatus = "approved"
	StatusRejected ExpenseStatus = "rejected"
)

// ApprovalStep records one approve/reject decision. Steps are append-only:
// once added to an expense's history they are never modified or removed.
// ApproverName is a snapshot taken at decision time and is not re-resolved.
type ApprovalStep struct {
	ApproverID   string        `json:"approverId" yaml:"approverId"`
	ApproverName string        `json:"approverName" yaml:"approverName"`
	Status       ExpenseStatus `json:"status" yaml:"status"`
	Timestamp    int64         `json:"timestamp" yaml:"timestamp"`
	Notes        string        `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Expense is a submitted expense claim. Date and history timestamps are
// unix epoch milliseconds.
type Expense struct {
	ID          string         `json:"id" yaml:"id"`
	UserID      string         `json:"userId" yaml:"userId"`
	Merchant    string         `json:"merchant" yaml:"merchant"`
	Amount      float64        `json:"amount" yaml:"amount"`
	Currency    string         `json:"currency" yaml:"currency"`
	Date        int64          `json:"date" yaml:"date"`
	Description string         `json:"description" yaml:"description"`
	Status      ExpenseStatus  `json:"status" yaml:"status"`
	Category    string         `json:"category" yaml:"category"`
	ReceiptURL  string         `json:"receiptUrl,omitempty" yaml:"receiptUrl,omitempty"`
	History     []ApprovalStep `json:"history" yaml:"history"`
}

// Editable reports whether the expense may still be changed by its owner.
// Approved expenses are frozen; pending and rejected ones can be edited
// (an edit resets the status to pending).
func (e Expense) Editable() bool {
	return e.Status == StatusPending || e.Status == StatusRejected
}

// Clone returns a deep copy of the expense. History is the only field
// that needs an explicit copy.
func (e Expense) Clone() Expense {
	cp := e
	cp.History = append([]ApprovalStep(nil), e.History...)
	return cp
}
