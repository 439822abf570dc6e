package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a single financial movement, income or expense.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction types.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction categories.
const (
	CategorySalaries  = "salaries"
	CategoryRent      = "rent"
	CategoryMarketing = "marketing"
	CategoryInventory = "inventory"
	CategoryUtilities = "utilities"
	CategoryOther     = "other"
)

// ValidTransactionTypes contains all valid transaction type values.
var ValidTransactionTypes = []string{TransactionIncome, TransactionExpense}

// ValidTransactionCategories contains all valid category values.
var ValidTransactionCategories = []string{
	CategorySalaries,
	CategoryRent,
	CategoryMarketing,
	CategoryInventory,
	CategoryUtilities,
	CategoryOther,
}

// IsValidTransactionType checks if the given type is valid.
func IsValidTransactionType(t string) bool {
	return t == TransactionIncome || t == TransactionExpense
}

// IsValidTransactionCategory checks if the given category is valid.
func IsValidTransactionCategory(c string) bool {
	for _, v := range ValidTransactionCategories {
		if v == c {
			return true
		}
	}
	return false
}

// TransactionPatch carries a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Type        *string    `json:"type,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}
