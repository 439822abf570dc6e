package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is a receivable with a due date. An invoice past its due date
// that is not paid counts toward the follow-up recommendation.
type Invoice struct {
	ID           uuid.UUID `json:"id"`
	CustomerName string    `json:"customer_name"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	IssuedDate   time.Time `json:"issued_date"`
	DueDate      time.Time `json:"due_date"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// ValidInvoiceStatuses contains all valid invoice status values.
var ValidInvoiceStatuses = []string{
	InvoiceDraft,
	InvoiceSent,
	InvoicePaid,
	InvoiceOverdue,
	InvoiceCancelled,
}

// IsValidInvoiceStatus checks if the given status is valid.
func IsValidInvoiceStatus(s string) bool {
	for _, v := range ValidInvoiceStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// InvoicePatch carries a partial update. Nil fields are left untouched.
type InvoicePatch struct {
	CustomerName *string    `json:"customer_name,omitempty"`
	Amount       *float64   `json:"amount,omitempty"`
	Status       *string    `json:"status,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}
