package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is an HR record. Tenure is measured from HireDate.
type Employee struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	Salary     float64   `json:"salary"`
	HireDate   time.Time `json:"hire_date"`
	IsActive   bool      `json:"is_active"`
	CreatedBy  uuid.UUID `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EmployeePatch carries a partial update. Nil fields are left untouched.
type EmployeePatch struct {
	FullName   *string    `json:"full_name,omitempty"`
	Email      *string    `json:"email,omitempty"`
	Position   *string    `json:"position,omitempty"`
	Department *string    `json:"department,omitempty"`
	Salary     *float64   `json:"salary,omitempty"`
	HireDate   *time.Time `json:"hire_date,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}

// Payroll is a per-employee pay record for one period.
type Payroll struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Period     string    `json:"period"` // YYYY-MM
	Gross      float64   `json:"gross"`
	Net        float64   `json:"net"`
	Status     string    `json:"status"`
	CreatedBy  uuid.UUID `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Payroll statuses.
const (
	PayrollPending   = "pending"
	PayrollProcessed = "processed"
	PayrollPaid      = "paid"
)

// IsValidPayrollStatus checks if the given status is valid.
func IsValidPayrollStatus(s string) bool {
	return s == PayrollPending || s == PayrollProcessed || s == PayrollPaid
}
