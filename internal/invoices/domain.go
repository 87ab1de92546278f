package invoices

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusSent  Status = "SENT"
	StatusPaid  Status = "PAID"
	StatusVoid  Status = "VOID"
)

// Invoice represents a billing document issued to a tenant or customer.
type Invoice struct {
	ID        int64
	Number    string
	TenantID  int64
	AmountCts int64
	Currency  string
	Status    Status
	IssuedAt  time.Time
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrNotFound indicates the invoice does not exist.
	ErrNotFound = errors.New("invoices: not found")
	// ErrForbidden indicates the actor's role does not allow the operation.
	ErrForbidden = errors.New("invoices: forbidden")
	// ErrInvalidTransition indicates the status change is not allowed from
	// the current state.
	ErrInvalidTransition = errors.New("invoices: invalid status transition")
	// ErrDuplicateNumber indicates the invoice number is already taken.
	ErrDuplicateNumber = errors.New("invoices: duplicate invoice number")
)

// canTransition encodes the allowed lifecycle edges.
func canTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent || to == StatusVoid
	case StatusSent:
		return to == StatusPaid || to == StatusVoid
	case StatusPaid, StatusVoid:
		return false
	}
	return false
}
