package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

type crmFakes struct {
	leads     *fakeLeadRepo
	customers *fakeCustomerRepo
	ai        *llm.MockCompleter
}

func newTestCRMService() (CRMService, *crmFakes) {
	f := &crmFakes{
		leads:     &fakeLeadRepo{},
		customers: &fakeCustomerRepo{},
		ai:        llm.NewMockCompleter(),
	}
	svc := NewCRMService(f.leads, f.customers, f.ai, zap.NewNop())
	return svc, f
}

func TestCRMService_CreateLead_ScoresBeforeStore(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	f.ai.JSONText = `{"score":85,"segment":"hot","next_action":"Book a demo call","confidence":0.9}`

	lead, err := svc.CreateLead(context.Background(), actor, CreateLeadInput{
		Name:     "Dana Reis",
		Email:    "dana@acme.example",
		Company:  "Acme Corp",
		Industry: "Manufacturing",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.Equal(t, models.LeadNew, lead.Status, "status defaults to new")
	assert.Equal(t, models.SourceOther, lead.Source, "source defaults to other")
	assert.Equal(t, actor.ID, lead.OwnerID)

	require.NotNil(t, lead.AIScore)
	assert.Equal(t, 85, *lead.AIScore)
	require.NotNil(t, lead.AISegment)
	assert.Equal(t, models.SegmentHot, *lead.AISegment)
	require.NotNil(t, lead.AINextAction)
	assert.Equal(t, "Book a demo call", *lead.AINextAction)
	require.NotNil(t, lead.AIConfidence)
	assert.InDelta(t, 0.9, *lead.AIConfidence, 0.001)

	assert.Equal(t, 1, f.ai.CompleteJSONCalls)
	assert.Equal(t, leadScoringSchema, f.ai.LastSchema)
	assert.Contains(t, f.ai.LastPrompt, "Acme Corp")
	require.Len(t, f.leads.leads, 1)
}

func TestCRMService_CreateLead_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   CreateLeadInput
	}{
		{"unknown status", CreateLeadInput{Name: "A", Status: "archived"}},
		{"unknown source", CreateLeadInput{Name: "B", Source: "carrier_pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f := newTestCRMService()
			actor := testActor(models.RoleSales)

			_, err := svc.CreateLead(context.Background(), actor, tt.in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Zero(t, f.ai.CompleteJSONCalls, "validation runs before the model call")
			assert.Empty(t, f.leads.leads)
		})
	}
}

func TestCRMService_CreateLead_ScoringFailureStoresNothing(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	f.ai.CompleteJSONFunc = func(_ context.Context, _ llm.CompletionRequest, _ string, _ any) (*llm.Completion, error) {
		return nil, llm.NewError(llm.ErrorTypeUnavailable, "provider down", true, nil)
	}

	_, err := svc.CreateLead(context.Background(), actor, CreateLeadInput{Name: "Dana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to score lead")
	assert.Empty(t, f.leads.leads, "a lead is only stored with its score attached")
}

func TestCRMService_CreateLead_RequiresSalesCapability(t *testing.T) {
	svc, _ := newTestCRMService()

	_, err := svc.CreateLead(context.Background(), testActor(models.RoleMarketing), CreateLeadInput{Name: "Dana"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.CreateLead(context.Background(), nil, CreateLeadInput{Name: "Dana"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestCRMService_UpdateLead_PlainPatchKeepsScore(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	score := 40
	lead := &models.Lead{
		ID:      uuid.New(),
		Name:    "Dana",
		Status:  models.LeadNew,
		Source:  models.SourceWebsite,
		AIScore: &score,
		OwnerID: actor.ID,
	}
	f.leads.leads = append(f.leads.leads, lead)

	contacted := models.LeadContacted
	updated, err := svc.UpdateLead(context.Background(), actor, lead.ID, models.LeadPatch{Status: &contacted})
	require.NoError(t, err)

	assert.Equal(t, models.LeadContacted, updated.Status)
	assert.Zero(t, f.ai.CompleteJSONCalls, "a status move alone does not re-score")
	assert.Equal(t, uuid.Nil, f.leads.annotatedID)
	require.NotNil(t, updated.AIScore)
	assert.Equal(t, 40, *updated.AIScore)
}

func TestCRMService_UpdateLead_FirmographicChangeRescores(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	lead := &models.Lead{
		ID:       uuid.New(),
		Name:     "Dana",
		Company:  "Acme Corp",
		Industry: "Manufacturing",
		Status:   models.LeadNew,
		Source:   models.SourceWebsite,
		OwnerID:  actor.ID,
	}
	f.leads.leads = append(f.leads.leads, lead)
	f.ai.JSONText = `{"score":62,"segment":"warm","next_action":"Send pricing sheet","confidence":0.7}`

	industry := "Aerospace"
	updated, err := svc.UpdateLead(context.Background(), actor, lead.ID, models.LeadPatch{Industry: &industry})
	require.NoError(t, err)

	assert.Equal(t, 1, f.ai.CompleteJSONCalls)
	assert.Contains(t, f.ai.LastPrompt, "Aerospace", "the model scores the patched values, not the stored ones")
	assert.Equal(t, lead.ID, f.leads.annotatedID)
	assert.Equal(t, 62, f.leads.lastAnnotation.Score)

	assert.Equal(t, "Aerospace", updated.Industry)
	require.NotNil(t, updated.AIScore)
	assert.Equal(t, 62, *updated.AIScore)
	require.NotNil(t, updated.AISegment)
	assert.Equal(t, models.SegmentWarm, *updated.AISegment)
}

func TestCRMService_UpdateLead_InvalidStatus(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	lead := &models.Lead{ID: uuid.New(), Name: "Dana", Status: models.LeadNew, Source: models.SourceWebsite}
	f.leads.leads = append(f.leads.leads, lead)

	bad := "archived"
	_, err := svc.UpdateLead(context.Background(), actor, lead.ID, models.LeadPatch{Status: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, models.LeadNew, lead.Status)
}

func TestCRMService_CreateCustomer_ConvertsLead(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	lead := &models.Lead{ID: uuid.New(), Name: "Dana", Status: models.LeadQualified, Source: models.SourceReferral}
	f.leads.leads = append(f.leads.leads, lead)

	customer, err := svc.CreateCustomer(context.Background(), actor, CreateCustomerInput{
		LeadID:  lead.ID,
		Name:    "Dana Reis",
		Email:   "dana@acme.example",
		Company: "Acme Corp",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, customer.ID)
	assert.Equal(t, actor.ID, customer.OwnerID)
	require.Len(t, f.customers.customers, 1)
	assert.Equal(t, models.LeadConverted, lead.Status, "the source lead is marked converted")
}

func TestCRMService_CreateCustomer_UnknownLead(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)

	_, err := svc.CreateCustomer(context.Background(), actor, CreateCustomerInput{
		LeadID: uuid.New(),
		Name:   "Dana Reis",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, f.customers.customers)
}

func TestCRMService_CreateCustomer_ConversionPatchFailureIsSwallowed(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	lead := &models.Lead{ID: uuid.New(), Name: "Dana", Status: models.LeadQualified, Source: models.SourceReferral}
	f.leads.leads = append(f.leads.leads, lead)
	f.leads.updateErr = errors.New("row lock timeout")

	customer, err := svc.CreateCustomer(context.Background(), actor, CreateCustomerInput{
		LeadID: lead.ID,
		Name:   "Dana Reis",
	})
	require.NoError(t, err, "the customer record takes precedence over the lead patch")
	assert.NotNil(t, customer)
	require.Len(t, f.customers.customers, 1)
	assert.Equal(t, models.LeadQualified, lead.Status)
}

func TestCRMService_ListLeads_Filters(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSupport)
	f.leads.leads = []*models.Lead{
		{ID: uuid.New(), Name: "Dana", Status: models.LeadQualified, Source: models.SourceWebsite},
		{ID: uuid.New(), Name: "Rui", Status: models.LeadNew, Source: models.SourceWebsite},
	}

	leads, total, err := svc.ListLeads(context.Background(), actor, repositories.LeadFilter{Status: models.LeadQualified}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, leads, 1)
	assert.Equal(t, "Dana", leads[0].Name)
}

func TestCRMService_GetLead_AnyAuthenticatedRole(t *testing.T) {
	svc, f := newTestCRMService()
	lead := &models.Lead{ID: uuid.New(), Name: "Dana", Status: models.LeadNew, Source: models.SourceWebsite}
	f.leads.leads = append(f.leads.leads, lead)

	got, err := svc.GetLead(context.Background(), testActor(models.RoleSupport), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)

	_, err = svc.GetLead(context.Background(), nil, lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestCRMService_LeadInsights(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	f.leads.leads = []*models.Lead{
		{ID: uuid.New(), Email: "dana@acme.example", Company: "Acme Corp", Status: models.LeadQualified, Source: models.SourceWebsite},
	}
	f.ai.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (*llm.Completion, error) {
		return &llm.Completion{Text: "Qualified pipeline is concentrated in manufacturing.", Model: "mock-model", Provider: "mock"}, nil
	}

	text, err := svc.LeadInsights(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, "Qualified pipeline is concentrated in manufacturing.", text)
	assert.Contains(t, f.ai.LastPrompt, "Acme Corp")
}

func TestCRMService_CustomerValue(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	f.customers.customers = []*models.Customer{
		{ID: uuid.New(), Company: "Globex", TotalRevenue: 120000},
	}
	f.ai.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (*llm.Completion, error) {
		return &llm.Completion{Text: "Globex drives most of the revenue.", Model: "mock-model", Provider: "mock"}, nil
	}

	text, err := svc.CustomerValue(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, "Globex drives most of the revenue.", text)
	assert.Contains(t, f.ai.LastPrompt, "Globex")

	_, err = svc.CustomerValue(context.Background(), testActor(models.RoleSupport))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCRMService_RescoreLeads_ScoresUnscoredByDefault(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	score := 55
	scored := &models.Lead{ID: uuid.New(), Name: "Dana", Company: "Globex", Status: models.LeadNew, Source: models.SourceWebsite, AIScore: &score}
	unscored := &models.Lead{ID: uuid.New(), Name: "Lee", Company: "Initech", Status: models.LeadNew, Source: models.SourceWebsite}
	f.leads.leads = []*models.Lead{scored, unscored}
	f.ai.JSONText = `{"score":77,"segment":"hot","next_action":"Call today","confidence":0.8}`

	outcomes, err := svc.RescoreLeads(context.Background(), actor, nil)
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, unscored.ID, outcomes[0].LeadID)
	require.NotNil(t, outcomes[0].Score)
	assert.Equal(t, 77, *outcomes[0].Score)
	assert.Empty(t, outcomes[0].Error)

	assert.Equal(t, 1, f.ai.CompleteJSONCalls)
	assert.Equal(t, unscored.ID, f.leads.annotatedID)
	require.NotNil(t, scored.AIScore)
	assert.Equal(t, 55, *scored.AIScore, "already-scored leads are left alone")
}

func TestCRMService_RescoreLeads_NamedLeadsIncludeScored(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	score := 30
	first := &models.Lead{ID: uuid.New(), Name: "Dana", Company: "Globex", Status: models.LeadContacted, Source: models.SourceReferral, AIScore: &score}
	second := &models.Lead{ID: uuid.New(), Name: "Lee", Company: "Initech", Status: models.LeadNew, Source: models.SourceWebsite}
	f.leads.leads = []*models.Lead{first, second}
	f.ai.JSONText = `{"score":64,"segment":"warm","next_action":"Send deck","confidence":0.7}`

	outcomes, err := svc.RescoreLeads(context.Background(), actor, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, first.ID, outcomes[0].LeadID, "outcomes follow the requested order")
	assert.Equal(t, second.ID, outcomes[1].LeadID)
	assert.Equal(t, 2, f.ai.CompleteJSONCalls)
	require.NotNil(t, outcomes[0].Score)
	assert.Equal(t, 64, *outcomes[0].Score, "named leads are re-scored even when already scored")
}

func TestCRMService_RescoreLeads_PartialProviderFailure(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	good := &models.Lead{ID: uuid.New(), Name: "Lee", Company: "Initech", Status: models.LeadNew, Source: models.SourceWebsite}
	bad := &models.Lead{ID: uuid.New(), Name: "Pat", Company: "Failing Corp", Status: models.LeadNew, Source: models.SourceWebsite}
	f.leads.leads = []*models.Lead{good, bad}
	f.ai.CompleteJSONFunc = func(_ context.Context, req llm.CompletionRequest, _ string, out any) (*llm.Completion, error) {
		if strings.Contains(req.Prompt, "Failing Corp") {
			return nil, llm.NewError(llm.ErrorTypeUnavailable, "provider down", true, nil)
		}
		text := `{"score":71,"segment":"warm","next_action":"Follow up","confidence":0.66}`
		if err := json.Unmarshal([]byte(text), out); err != nil {
			return nil, err
		}
		return &llm.Completion{Text: text, Model: "mock-model", Provider: "mock"}, nil
	}

	outcomes, err := svc.RescoreLeads(context.Background(), actor, nil)
	require.NoError(t, err, "per-lead failures do not fail the batch")

	require.Len(t, outcomes, 2)
	assert.Equal(t, good.ID, outcomes[0].LeadID)
	require.NotNil(t, outcomes[0].Score)
	assert.Equal(t, 71, *outcomes[0].Score)
	assert.Empty(t, outcomes[0].Error)

	assert.Equal(t, bad.ID, outcomes[1].LeadID)
	assert.Nil(t, outcomes[1].Score)
	assert.Contains(t, outcomes[1].Error, "provider down")

	assert.Equal(t, good.ID, f.leads.annotatedID, "only the successful lead is annotated")
	assert.Nil(t, bad.AIScore, "failed leads keep their previous state")
}

func TestCRMService_RescoreLeads_UnknownNamedLead(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	known := &models.Lead{ID: uuid.New(), Name: "Lee", Company: "Initech", Status: models.LeadNew, Source: models.SourceWebsite}
	f.leads.leads = []*models.Lead{known}

	_, err := svc.RescoreLeads(context.Background(), actor, []uuid.UUID{known.ID, uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "an unknown named lead rejects the whole batch")
	assert.Zero(t, f.ai.CompleteJSONCalls)
}

func TestCRMService_RescoreLeads_NothingToScore(t *testing.T) {
	svc, f := newTestCRMService()
	actor := testActor(models.RoleSales)
	score := 50
	f.leads.leads = []*models.Lead{
		{ID: uuid.New(), Name: "Dana", Company: "Globex", Status: models.LeadNew, Source: models.SourceWebsite, AIScore: &score},
	}

	outcomes, err := svc.RescoreLeads(context.Background(), actor, nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Zero(t, f.ai.CompleteJSONCalls)
}

func TestCRMService_RescoreLeads_Authorization(t *testing.T) {
	svc, _ := newTestCRMService()

	_, err := svc.RescoreLeads(context.Background(), testActor(models.RoleSupport), nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.RescoreLeads(context.Background(), nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
