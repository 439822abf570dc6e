package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// TokenVerifier validates a token string and returns its claims.
// Implementations: TokenService (HS256, shared secret) and JWKSClient
// (RS256 against fetched key sets).
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// TokenService issues and verifies HS256 access tokens signed with the
// configured auth secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	// now is swappable so tests can pin expiry.
	now func() time.Time
}

// NewTokenService creates a token service. The secret must be non-empty for
// Issue to succeed; ttl <= 0 falls back to 30 minutes.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs an access token for the user. Subject is the user id; email
// and role travel as custom claims.
func (s *TokenService) Issue(user *models.User) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("auth secret not configured: %w", apperrors.ErrInternal)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an HS256 token. Wrong algorithm, bad
// signature, or expiry all fail Unauthenticated.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", apperrors.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrUnauthenticated
	}
	return claims, nil
}

// Ensure TokenService implements TokenVerifier at compile time.
var _ TokenVerifier = (*TokenService)(nil)
