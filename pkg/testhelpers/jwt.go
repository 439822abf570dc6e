// Package testhelpers provides utilities for testing smartbiz-engine components.
package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// TestTokenSecret is the HS256 signing secret shared by test-issued tokens
// and the token services constructed in tests.
const TestTokenSecret = "test-secret-not-for-production"

// TestUser returns a user with the given role that token helpers and
// service tests can share. The ID is random per call.
func TestUser(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    role + "@smartbiz.test",
		FullName: "Test " + role,
		Role:     role,
		IsActive: true,
	}
}

// IssueTestToken signs a short-lived HS256 token for the given user using
// TestTokenSecret. Pair it with a token service built from the same secret.
func IssueTestToken(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := auth.NewTokenService(TestTokenSecret, time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// IssueTestTokenWithBearer returns the token with "Bearer " prefix for the
// Authorization header.
func IssueTestTokenWithBearer(t *testing.T, user *models.User) string {
	t.Helper()
	return "Bearer " + IssueTestToken(t, user)
}
