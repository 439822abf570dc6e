package auth

import (
	"fmt"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// Authorize checks whether the actor may exercise a capability. A capability
// is a role name; the check passes when the actor holds exactly that role or
// is a superuser. Nil actor fails Unauthenticated, everything else Forbidden.
func Authorize(actor *models.User, capability string) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	if actor.IsSuperuser || actor.Role == capability {
		return nil
	}
	return fmt.Errorf("capability %s required: %w", capability, apperrors.ErrForbidden)
}
