package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// AuthService is the identity surface: account creation, credential login,
// and request verification. The middleware and the auth handlers are thin
// wrappers over it.
type AuthService interface {
	// Register creates an active, non-superuser account. Duplicate email or
	// unknown role fails with ErrValidation.
	Register(ctx context.Context, input RegisterInput) (*models.User, error)

	// Login verifies credentials and issues an access token. Unknown email,
	// wrong password, and deactivated accounts all fail with
	// ErrUnauthenticated; callers never learn which.
	Login(ctx context.Context, email, password string) (*models.User, string, error)

	// VerifyRequest resolves the request's token to an active user. It
	// checks the session cookie first (browser clients), then the
	// Authorization header with Bearer scheme (API clients).
	VerifyRequest(r *http.Request) (*models.User, string, error)
}

// authService implements AuthService.
type authService struct {
	users    repositories.UserRepository
	tokens   *TokenService
	verifier TokenVerifier
	sessions *SessionManager
	logger   *zap.Logger
}

// NewAuthService creates the identity service. verifier decides how inbound
// tokens are checked: pass the TokenService itself for local HS256 mode, or
// a JWKSClient for SSO deployments. sessions may be nil when no browser
// surface is served.
func NewAuthService(
	users repositories.UserRepository,
	tokens *TokenService,
	verifier TokenVerifier,
	sessions *SessionManager,
	logger *zap.Logger,
) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		sessions: sessions,
		logger:   logger.Named("auth"),
	}
}

// Register creates a new account.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if !models.IsValidRole(input.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", input.Role, apperrors.ErrValidation)
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:       input.FullName,
		HashedPassword: hashed,
		Role:           input.Role,
		IsActive:       true,
		IsSuperuser:    false,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", apperrors.ErrValidation)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role))
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrUnauthenticated
		}
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	if err := CheckPassword(user.HashedPassword, password); err != nil {
		s.logger.Debug("login rejected: bad credentials", zap.String("user_id", user.ID.String()))
		return nil, "", apperrors.ErrUnauthenticated
	}

	if !user.IsActive {
		s.logger.Debug("login rejected: inactive account", zap.String("user_id", user.ID.String()))
		return nil, "", apperrors.ErrUnauthenticated
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// VerifyRequest resolves the request's token to an active user.
func (s *authService) VerifyRequest(r *http.Request) (*models.User, string, error) {
	tokenString, source, err := s.extractToken(r)
	if err != nil {
		return nil, "", err
	}

	claims, err := s.verifier.Verify(tokenString)
	if err != nil {
		s.logger.Debug("token verification failed",
			zap.Error(err),
			zap.String("token_source", source),
			zap.String("path", r.URL.Path))
		return nil, "", apperrors.ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, "", apperrors.ErrUnauthenticated
	}

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrUnauthenticated
		}
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	if !user.IsActive {
		return nil, "", apperrors.ErrUnauthenticated
	}

	return user, tokenString, nil
}

// extractToken pulls the token from the session cookie first, then the
// Authorization header.
func (s *authService) extractToken(r *http.Request) (token, source string, err error) {
	if s.sessions != nil {
		if token, ok := s.sessions.Token(r); ok {
			return token, "cookie", nil
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "", apperrors.ErrUnauthenticated
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "", apperrors.ErrUnauthenticated
	}
	return parts[1], "header", nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
