package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// routeWrapper decorates a handler func with cross-cutting route concerns.
type routeWrapper func(http.HandlerFunc) http.HandlerFunc

// guards builds the two wrappers every handler registers routes with: std
// for plain routes and ai for model-backed routes, which carry the tighter
// request budget on top of the general one. Limits run inside the auth
// wrapper so the windows key on the resolved actor. A nil limits set
// disables rate limiting, which is how tests register routes.
func guards(authMiddleware *auth.Middleware, limits *middleware.RouteLimits) (std, ai routeWrapper) {
	wrap := func(fns ...routeWrapper) routeWrapper {
		return func(h http.HandlerFunc) http.HandlerFunc {
			for i := len(fns) - 1; i >= 0; i-- {
				if fns[i] != nil {
					h = fns[i](h)
				}
			}
			return authMiddleware.RequireAuth(h)
		}
	}
	if limits == nil {
		return wrap(), wrap()
	}
	return wrap(limits.General), wrap(limits.General, limits.AI)
}

// requestActor pulls the authenticated user out of the request context. The
// auth middleware guarantees one on guarded routes; a missing actor means a
// wiring fault and reads as 401.
func requestActor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*models.User, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok || actor == nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthenticated", "Authentication required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return actor, true
}
