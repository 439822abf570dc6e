package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
)

func TestJWKSClient_VerificationDisabled_ParsesClaims(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient failed: %v", err)
	}

	// Any syntactically valid token passes in dev mode; signature is ignored.
	tokens := NewTokenService("whatever", 30*time.Minute)
	token, err := tokens.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := client.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Email != "dana@example.com" {
		t.Errorf("expected parsed email claim, got %q", claims.Email)
	}
}

func TestJWKSClient_VerificationDisabled_RejectsGarbage(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient failed: %v", err)
	}

	_, err = client.Verify("not-a-token")
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestJWKSClient_RejectsNonRSAToken(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{
		EnableVerification: true,
		Endpoints:          map[string]string{},
	})
	if err != nil {
		t.Fatalf("NewJWKSClient failed: %v", err)
	}

	// HS256 tokens must be rejected in JWKS mode regardless of content.
	hsToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			Issuer:    "https://idp.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := hsToken.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = client.Verify(signed)
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
