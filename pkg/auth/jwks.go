package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
)

// JWKSConfig contains configuration for the JWKS verification mode.
type JWKSConfig struct {
	// EnableVerification controls whether signatures are verified.
	// Set to false only for local development.
	EnableVerification bool
	// Endpoints maps issuer URLs to their JWKS endpoint URLs. Only tokens
	// from issuers in this map are accepted.
	Endpoints map[string]string
}

// JWKSClient verifies RS256 tokens against JWKS endpoints. This is the SSO
// deployment mode: tokens are issued by an external identity provider and
// the engine only verifies them.
type JWKSClient struct {
	endpoints map[string]keyfunc.Keyfunc
	config    *JWKSConfig
}

// NewJWKSClient creates a JWKS client, fetching key sets from every
// configured endpoint when verification is enabled.
func NewJWKSClient(config *JWKSConfig) (*JWKSClient, error) {
	client := &JWKSClient{
		endpoints: make(map[string]keyfunc.Keyfunc),
		config:    config,
	}

	if !config.EnableVerification {
		return client, nil
	}

	for issuer, jwksURL := range config.Endpoints {
		jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client for %s: %w", issuer, err)
		}
		client.endpoints[issuer] = jwks
	}

	return client, nil
}

// Verify validates a token and returns its claims. Signatures must be RSA
// and the issuer must be configured; any failure is Unauthenticated.
func (c *JWKSClient) Verify(tokenString string) (*Claims, error) {
	if !c.config.EnableVerification {
		return c.parseUnverifiedToken(tokenString)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			return nil, errors.New("invalid claims type")
		}

		jwks, exists := c.endpoints[claims.Issuer]
		if !exists {
			return nil, fmt.Errorf("unauthorized issuer: %s", claims.Issuer)
		}

		keyfuncFn := jwks.KeyfuncCtx(context.Background())
		return keyfuncFn(token)
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w: %w", err, apperrors.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}

	return claims, nil
}

// parseUnverifiedToken parses a token without verifying the signature.
// Development mode only.
func (c *JWKSClient) parseUnverifiedToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w: %w", err, apperrors.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}

	return claims, nil
}

// Ensure JWKSClient implements TokenVerifier at compile time.
var _ TokenVerifier = (*JWKSClient)(nil)
