//go:build integration

package repositories_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/smartbizhq/smartbiz-engine/pkg/testhelpers"
)

// testOwnerID is the fixed user that FK-bearing rows in these tests hang off.
var testOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// seedOwner ensures the shared owner user exists and returns the engine DB.
// Domain tables reference users(id), so every repository test starts here.
func seedOwner(t *testing.T) *testhelpers.EngineDB {
	t.Helper()

	engineDB := testhelpers.GetEngineDB(t)

	_, err := engineDB.DB.Exec(context.Background(), `
		INSERT INTO users (id, email, full_name, hashed_password, role)
		VALUES ($1, 'owner@smartbiz.test', 'Integration Owner', 'not-a-real-hash', 'admin')
		ON CONFLICT (id) DO NOTHING
	`, testOwnerID)
	if err != nil {
		t.Fatalf("failed to seed owner user: %v", err)
	}

	return engineDB
}
