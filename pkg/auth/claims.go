// Package auth provides identity for the engine: bcrypt credentials, HS256
// access tokens with an optional JWKS verification mode for SSO deployments,
// the session cookie, and the request middleware that resolves a token to an
// active user. Verification fails closed.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ActorKey is the context key for the authenticated user.
	ActorKey contextKey = "actor"
	// TokenKey is the context key for the raw token string.
	TokenKey contextKey = "token"
)

// Claims is the access-token payload. Subject carries the user id; email and
// role ride along so logs and coarse checks need no user lookup.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// WithActor returns a context carrying the authenticated user.
func WithActor(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ActorKey, user)
}

// ActorFromContext retrieves the authenticated user from the context.
// Returns nil and false when the request was not authenticated.
func ActorFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ActorKey).(*models.User)
	return user, ok
}

// RequireActor retrieves the authenticated user or fails with
// ErrUnauthenticated. Use in services that must not run anonymously.
func RequireActor(ctx context.Context) (*models.User, error) {
	user, ok := ActorFromContext(ctx)
	if !ok || user == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

// WithToken returns a context carrying the raw token string.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// TokenFromContext retrieves the raw token string from the context.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
