package models

import (
	"time"

	"github.com/google/uuid"
)

// SupportTicket is a customer support case. AISentiment is the annotation
// from sentiment analysis of the ticket text, in [-1, 1].
type SupportTicket struct {
	ID            uuid.UUID `json:"id"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	CustomerEmail string    `json:"customer_email"`

	AISentiment *float64 `json:"ai_sentiment,omitempty"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Ticket priorities. low/medium/high are shared constants; urgent is
// ticket-specific.
const (
	PriorityUrgent = "urgent"
)

// ValidTicketStatuses contains all valid ticket status values.
var ValidTicketStatuses = []string{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}

// ValidTicketPriorities contains all valid ticket priority values.
var ValidTicketPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IsValidTicketStatus checks if the given status is valid.
func IsValidTicketStatus(s string) bool {
	for _, v := range ValidTicketStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidTicketPriority checks if the given priority is valid.
func IsValidTicketPriority(p string) bool {
	for _, v := range ValidTicketPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// TicketPatch carries a partial update. Nil fields are left untouched.
type TicketPatch struct {
	Subject     *string `json:"subject,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}
