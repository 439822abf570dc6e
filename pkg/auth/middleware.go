package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware. It is thin and
// delegates verification to AuthService.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates an auth middleware over the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth resolves the request's token to an active user and puts the
// actor and raw token in the request context. Anything short of a valid
// token for an active account gets 401; the middleware fails closed.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, token, err := m.authService.VerifyRequest(r)
		if err != nil {
			m.unauthenticated(w)
			return
		}

		ctx := WithActor(r.Context(), user)
		ctx = WithToken(ctx, token)
		next(w, r.WithContext(ctx))
	}
}

// unauthenticated returns a 401 response with a JSON error body matching
// the handlers' error envelope.
func (m *Middleware) unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthenticated",
		"message": "Authentication required",
	})
}
