//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/testhelpers"
)

// leadTestContext holds test dependencies for lead repository tests.
type leadTestContext struct {
	t        *testing.T
	engineDB *testhelpers.EngineDB
	repo     repositories.LeadRepository
}

// setupLeadTest initializes the test context with the shared testcontainer.
func setupLeadTest(t *testing.T) *leadTestContext {
	engineDB := seedOwner(t)
	tc := &leadTestContext{
		t:        t,
		engineDB: engineDB,
		repo:     repositories.NewLeadRepository(engineDB.DB),
	}
	tc.cleanup()
	return tc
}

// cleanup removes all leads.
func (tc *leadTestContext) cleanup() {
	tc.t.Helper()
	_, _ = tc.engineDB.DB.Exec(context.Background(), "DELETE FROM leads")
}

// createTestLead adds a lead directly for testing.
func (tc *leadTestContext) createTestLead(ctx context.Context, name, status, source string) *models.Lead {
	tc.t.Helper()
	lead := &models.Lead{
		Name:    name,
		Email:   name + "@prospect.example",
		Company: name + " Co",
		Status:  status,
		Source:  source,
		OwnerID: testOwnerID,
	}
	if err := tc.repo.Create(ctx, lead); err != nil {
		tc.t.Fatalf("failed to create test lead: %v", err)
	}
	return lead
}

// TestLeadRepository_Create tests creating a lead with empty annotation fields.
func TestLeadRepository_Create(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	created := tc.createTestLead(ctx, "acme", models.LeadNew, models.SourceWebsite)

	retrieved, err := tc.repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.Name != "acme" {
		t.Errorf("expected name acme, got %q", retrieved.Name)
	}
	if retrieved.Status != models.LeadNew {
		t.Errorf("expected status new, got %q", retrieved.Status)
	}
	if retrieved.AIScore != nil || retrieved.AISegment != nil {
		t.Error("expected a fresh lead to carry no annotation")
	}
}

// TestLeadRepository_List_Filters tests status, source, and owner filters.
func TestLeadRepository_List_Filters(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	tc.createTestLead(ctx, "web1", models.LeadNew, models.SourceWebsite)
	tc.createTestLead(ctx, "web2", models.LeadQualified, models.SourceWebsite)
	tc.createTestLead(ctx, "ref1", models.LeadQualified, models.SourceReferral)

	qualified, total, err := tc.repo.List(ctx, repositories.LeadFilter{Status: models.LeadQualified}, 0, 100)
	if err != nil {
		t.Fatalf("List by status failed: %v", err)
	}
	if total != 2 || len(qualified) != 2 {
		t.Errorf("expected 2 qualified leads, got total=%d len=%d", total, len(qualified))
	}

	referrals, total, err := tc.repo.List(ctx, repositories.LeadFilter{Source: models.SourceReferral}, 0, 100)
	if err != nil {
		t.Fatalf("List by source failed: %v", err)
	}
	if total != 1 || len(referrals) != 1 {
		t.Fatalf("expected 1 referral lead, got total=%d len=%d", total, len(referrals))
	}
	if referrals[0].Name != "ref1" {
		t.Errorf("expected ref1, got %q", referrals[0].Name)
	}

	owned, total, err := tc.repo.List(ctx, repositories.LeadFilter{OwnerID: &testOwnerID}, 0, 100)
	if err != nil {
		t.Fatalf("List by owner failed: %v", err)
	}
	if total != 3 || len(owned) != 3 {
		t.Errorf("expected 3 owned leads, got total=%d len=%d", total, len(owned))
	}
}

// TestLeadRepository_Update tests partial patches.
func TestLeadRepository_Update(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	created := tc.createTestLead(ctx, "patchme", models.LeadNew, models.SourceColdCall)

	status := models.LeadContacted
	notes := "left voicemail"
	updated, err := tc.repo.Update(ctx, created.ID, models.LeadPatch{
		Status: &status,
		Notes:  &notes,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.LeadContacted {
		t.Errorf("expected status contacted, got %q", updated.Status)
	}
	if updated.Notes != notes {
		t.Errorf("expected notes %q, got %q", notes, updated.Notes)
	}
	if updated.Source != models.SourceColdCall {
		t.Errorf("expected source untouched, got %q", updated.Source)
	}
}

// TestLeadRepository_SetAnnotation tests writing and overwriting the score tuple.
func TestLeadRepository_SetAnnotation(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	created := tc.createTestLead(ctx, "scored", models.LeadQualified, models.SourceReferral)

	annotated, err := tc.repo.SetAnnotation(ctx, created.ID, models.LeadAnnotation{
		Score:      84,
		Segment:    models.SegmentHot,
		NextAction: "Book a demo call",
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("SetAnnotation failed: %v", err)
	}
	if annotated.AIScore == nil || *annotated.AIScore != 84 {
		t.Errorf("expected score 84, got %v", annotated.AIScore)
	}
	if annotated.AISegment == nil || *annotated.AISegment != models.SegmentHot {
		t.Errorf("expected segment hot, got %v", annotated.AISegment)
	}

	// Last write wins.
	rescored, err := tc.repo.SetAnnotation(ctx, created.ID, models.LeadAnnotation{
		Score:      40,
		Segment:    models.SegmentCold,
		NextAction: "Nurture by email",
		Confidence: 0.6,
	})
	if err != nil {
		t.Fatalf("second SetAnnotation failed: %v", err)
	}
	if rescored.AIScore == nil || *rescored.AIScore != 40 {
		t.Errorf("expected rescored value 40, got %v", rescored.AIScore)
	}
	if rescored.AISegment == nil || *rescored.AISegment != models.SegmentCold {
		t.Errorf("expected segment cold, got %v", rescored.AISegment)
	}
}

// TestLeadRepository_SetAnnotation_NotFound tests annotating an unknown lead.
func TestLeadRepository_SetAnnotation_NotFound(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	_, err := tc.repo.SetAnnotation(ctx, uuid.MustParse("00000000-0000-0000-0000-999999999921"),
		models.LeadAnnotation{Score: 50, Segment: models.SegmentWarm})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestLeadRepository_Delete tests removal.
func TestLeadRepository_Delete(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	created := tc.createTestLead(ctx, "gone", models.LeadLost, models.SourceOther)

	if err := tc.repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := tc.repo.GetByID(ctx, created.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

// TestLeadRepository_All tests the oldest-first full scan.
func TestLeadRepository_All(t *testing.T) {
	tc := setupLeadTest(t)
	ctx := context.Background()

	tc.createTestLead(ctx, "first", models.LeadNew, models.SourceWebsite)
	tc.createTestLead(ctx, "second", models.LeadNew, models.SourceWebsite)

	all, err := tc.repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(all))
	}
	for i := 0; i < len(all)-1; i++ {
		if all[i].CreatedAt.After(all[i+1].CreatedAt) {
			t.Errorf("leads not oldest first: %v > %v", all[i].CreatedAt, all[i+1].CreatedAt)
		}
	}
}
