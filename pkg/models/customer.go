package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a converted account in the CRM.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Company      string    `json:"company"`
	Phone        string    `json:"phone"`
	TotalRevenue float64   `json:"total_revenue"`
	OwnerID      uuid.UUID `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomerPatch carries a partial update. Nil fields are left untouched.
type CustomerPatch struct {
	Name         *string  `json:"name,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Company      *string  `json:"company,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	TotalRevenue *float64 `json:"total_revenue,omitempty"`
}
