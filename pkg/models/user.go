package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. Users are deactivated, never deleted.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Role constants. A role doubles as the capability tag required by the
// route group it governs.
const (
	RoleAdmin             = "admin"
	RoleFinanceManager    = "finance-manager"
	RoleHRManager         = "hr-manager"
	RoleOperationsManager = "operations-manager"
	RoleSales             = "sales"
	RoleMarketing         = "marketing"
	RoleSupport           = "support"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{
	RoleAdmin,
	RoleFinanceManager,
	RoleHRManager,
	RoleOperationsManager,
	RoleSales,
	RoleMarketing,
	RoleSupport,
}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
