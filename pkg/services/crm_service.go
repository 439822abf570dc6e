package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/pipeline"
	"github.com/smartbizhq/smartbiz-engine/pkg/prompts"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// CreateLeadInput carries a new lead.
type CreateLeadInput struct {
	Name     string
	Email    string
	Company  string
	Industry string
	Status   string
	Source   string
	Notes    string
}

// CreateCustomerInput converts a lead into a customer account.
type CreateCustomerInput struct {
	LeadID  uuid.UUID
	Name    string
	Email   string
	Company string
	Phone   string
}

// RescoreOutcome reports one lead's pass through a bulk re-score.
type RescoreOutcome struct {
	LeadID uuid.UUID `json:"lead_id"`
	Score  *int      `json:"score,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// CRMService owns leads and customers. Every new lead is scored by the
// model before it is stored; editing the firmographic fields triggers a
// re-score. Mutations and insight reads require the sales capability.
type CRMService interface {
	CreateLead(ctx context.Context, actor *models.User, in CreateLeadInput) (*models.Lead, error)
	GetLead(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Lead, error)
	ListLeads(ctx context.Context, actor *models.User, filter repositories.LeadFilter, skip, limit int) ([]*models.Lead, int, error)
	UpdateLead(ctx context.Context, actor *models.User, id uuid.UUID, patch models.LeadPatch) (*models.Lead, error)

	// RescoreLeads re-runs scoring for the named leads, or for every lead
	// missing a score when ids is empty. Provider calls fan out through the
	// gateway worker pool; each lead succeeds or fails on its own.
	RescoreLeads(ctx context.Context, actor *models.User, ids []uuid.UUID) ([]RescoreOutcome, error)

	CreateCustomer(ctx context.Context, actor *models.User, in CreateCustomerInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, actor *models.User, filter repositories.CustomerFilter, skip, limit int) ([]*models.Customer, int, error)

	// LeadInsights reports on the whole lead book in free text.
	LeadInsights(ctx context.Context, actor *models.User) (string, error)

	// CustomerValue analyzes the customer base by revenue contribution.
	CustomerValue(ctx context.Context, actor *models.User) (string, error)
}

type crmService struct {
	leadRepo     repositories.LeadRepository
	customerRepo repositories.CustomerRepository
	ai           llm.Completer
	pool         *llm.WorkerPool
	logger       *zap.Logger
}

// NewCRMService creates a new CRM service with dependencies.
func NewCRMService(
	leadRepo repositories.LeadRepository,
	customerRepo repositories.CustomerRepository,
	ai llm.Completer,
	logger *zap.Logger,
) CRMService {
	return &crmService{
		leadRepo:     leadRepo,
		customerRepo: customerRepo,
		ai:           ai,
		pool:         llm.NewWorkerPool(llm.DefaultWorkerPoolConfig(), logger),
		logger:       logger,
	}
}

var _ CRMService = (*crmService)(nil)

func (s *crmService) CreateLead(ctx context.Context, actor *models.User, in CreateLeadInput) (*models.Lead, error) {
	trace := pipeline.NewTrace(s.logger, "crm.create_lead")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	status := in.Status
	if status == "" {
		status = models.LeadNew
	}
	source := in.Source
	if source == "" {
		source = models.SourceOther
	}
	if !models.IsValidLeadStatus(status) {
		err := fmt.Errorf("invalid lead status %q: %w", in.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if !models.IsValidLeadSource(source) {
		err := fmt.Errorf("invalid lead source %q: %w", in.Source, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.LeadScoringParams{
		Name:     in.Name,
		Email:    in.Email,
		Company:  in.Company,
		Industry: in.Industry,
		Source:   source,
		Status:   status,
		Notes:    in.Notes,
	}
	var annotation models.LeadAnnotation
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindLeadScoring, params, leadScoringSchema, &annotation); err != nil {
		return nil, fmt.Errorf("failed to score lead: %w", err)
	}

	lead := &models.Lead{
		Name:         in.Name,
		Email:        in.Email,
		Company:      in.Company,
		Industry:     in.Industry,
		Status:       status,
		Source:       source,
		Notes:        in.Notes,
		AIScore:      &annotation.Score,
		AISegment:    &annotation.Segment,
		AINextAction: &annotation.NextAction,
		AIConfidence: &annotation.Confidence,
		OwnerID:      actor.ID,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return lead, nil
}

func (s *crmService) GetLead(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Lead, error) {
	trace := pipeline.NewTrace(s.logger, "crm.get_lead")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return lead, nil
}

func (s *crmService) ListLeads(ctx context.Context, actor *models.User, filter repositories.LeadFilter, skip, limit int) ([]*models.Lead, int, error) {
	trace := pipeline.NewTrace(s.logger, "crm.list_leads")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	leads, total, err := s.leadRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return leads, total, nil
}

func (s *crmService) UpdateLead(ctx context.Context, actor *models.User, id uuid.UUID, patch models.LeadPatch) (*models.Lead, error) {
	trace := pipeline.NewTrace(s.logger, "crm.update_lead")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Status != nil && !models.IsValidLeadStatus(*patch.Status) {
		err := fmt.Errorf("invalid lead status %q: %w", *patch.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if patch.Source != nil && !models.IsValidLeadSource(*patch.Source) {
		err := fmt.Errorf("invalid lead source %q: %w", *patch.Source, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	// A change to the firmographic fields invalidates the stored score.
	rescore := patch.Company != nil || patch.Industry != nil

	var annotation models.LeadAnnotation
	if rescore {
		params := overlayScoringParams(lead, patch)
		if _, err := completeJSON(ctx, s.ai, trace, prompts.KindLeadScoring, params, leadScoringSchema, &annotation); err != nil {
			return nil, fmt.Errorf("failed to re-score lead: %w", err)
		}
	}

	updated, err := s.leadRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	if rescore {
		updated, err = s.leadRepo.SetAnnotation(ctx, id, annotation)
		if err != nil {
			trace.Fail(err)
			return nil, err
		}
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return updated, nil
}

// overlayScoringParams builds scoring input from a lead with a pending patch
// applied, so the model sees the values about to be stored.
func overlayScoringParams(lead *models.Lead, patch models.LeadPatch) prompts.LeadScoringParams {
	params := prompts.LeadScoringParams{
		Name:     lead.Name,
		Email:    lead.Email,
		Company:  lead.Company,
		Industry: lead.Industry,
		Source:   lead.Source,
		Status:   lead.Status,
		Notes:    lead.Notes,
	}
	if patch.Name != nil {
		params.Name = *patch.Name
	}
	if patch.Email != nil {
		params.Email = *patch.Email
	}
	if patch.Company != nil {
		params.Company = *patch.Company
	}
	if patch.Industry != nil {
		params.Industry = *patch.Industry
	}
	if patch.Source != nil {
		params.Source = *patch.Source
	}
	if patch.Status != nil {
		params.Status = *patch.Status
	}
	if patch.Notes != nil {
		params.Notes = *patch.Notes
	}
	return params
}

func (s *crmService) RescoreLeads(ctx context.Context, actor *models.User, ids []uuid.UUID) ([]RescoreOutcome, error) {
	trace := pipeline.NewTrace(s.logger, "crm.rescore_leads")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	targets, err := s.rescoreTargets(ctx, ids)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	if len(targets) == 0 {
		respond(trace)
		return nil, nil
	}

	// Per-lead provider calls run outside the trace: the pool bounds their
	// concurrency while the trace records the batch as one flow.
	items := make([]llm.WorkItem[models.LeadAnnotation], len(targets))
	for i, lead := range targets {
		params := prompts.LeadScoringParams{
			Name:     lead.Name,
			Email:    lead.Email,
			Company:  lead.Company,
			Industry: lead.Industry,
			Source:   lead.Source,
			Status:   lead.Status,
			Notes:    lead.Notes,
		}
		items[i] = llm.WorkItem[models.LeadAnnotation]{
			ID: lead.ID.String(),
			Execute: func(ctx context.Context) (models.LeadAnnotation, error) {
				return s.scoreLead(ctx, params)
			},
		}
	}

	results := llm.Process(ctx, s.pool, items, func(completed, total int) {
		s.logger.Debug("re-score progress",
			zap.Int("completed", completed),
			zap.Int("total", total))
	})

	annotations := make(map[string]models.LeadAnnotation, len(results))
	failures := make(map[string]string)
	for _, r := range results {
		if r.Err != nil {
			failures[r.ID] = r.Err.Error()
			continue
		}
		annotations[r.ID] = r.Result
	}

	// Outcomes follow the target order, not completion order.
	outcomes := make([]RescoreOutcome, 0, len(targets))
	for _, lead := range targets {
		key := lead.ID.String()
		if msg, ok := failures[key]; ok {
			outcomes = append(outcomes, RescoreOutcome{LeadID: lead.ID, Error: msg})
			continue
		}
		annotation := annotations[key]
		if _, err := s.leadRepo.SetAnnotation(ctx, lead.ID, annotation); err != nil {
			outcomes = append(outcomes, RescoreOutcome{LeadID: lead.ID, Error: err.Error()})
			continue
		}
		score := annotation.Score
		outcomes = append(outcomes, RescoreOutcome{LeadID: lead.ID, Score: &score})
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return outcomes, nil
}

// rescoreTargets resolves the bulk re-score working set: the named leads,
// or every lead without a stored score when ids is empty. A named lead that
// does not exist rejects the whole batch.
func (s *crmService) rescoreTargets(ctx context.Context, ids []uuid.UUID) ([]*models.Lead, error) {
	if len(ids) == 0 {
		leads, err := s.leadRepo.All(ctx)
		if err != nil {
			return nil, err
		}
		unscored := make([]*models.Lead, 0, len(leads))
		for _, l := range leads {
			if l.AIScore == nil {
				unscored = append(unscored, l)
			}
		}
		return unscored, nil
	}

	targets := make([]*models.Lead, 0, len(ids))
	for _, id := range ids {
		lead, err := s.leadRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lead %s: %w", id, err)
		}
		targets = append(targets, lead)
	}
	return targets, nil
}

// scoreLead runs one scoring call without trace involvement so bulk
// re-scores can fan out concurrently.
func (s *crmService) scoreLead(ctx context.Context, params prompts.LeadScoringParams) (models.LeadAnnotation, error) {
	var annotation models.LeadAnnotation
	prompt, err := prompts.Assemble(prompts.KindLeadScoring, params)
	if err != nil {
		return annotation, err
	}
	if _, err := s.ai.CompleteJSON(ctx, llm.CompletionRequest{
		System:   prompts.SystemMessage(prompts.KindLeadScoring),
		Prompt:   prompt,
		JSONOnly: true,
	}, leadScoringSchema, &annotation); err != nil {
		return annotation, err
	}
	return annotation, nil
}

func (s *crmService) CreateCustomer(ctx context.Context, actor *models.User, in CreateCustomerInput) (*models.Customer, error) {
	trace := pipeline.NewTrace(s.logger, "crm.create_customer")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	// Customers only come from existing leads.
	if _, err := s.leadRepo.GetByID(ctx, in.LeadID); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	customer := &models.Customer{
		Name:    in.Name,
		Email:   in.Email,
		Company: in.Company,
		Phone:   in.Phone,
		OwnerID: actor.ID,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		trace.Fail(err)
		return nil, err
	}

	// Mark the source lead converted. Best effort: the customer record is
	// already in place.
	converted := models.LeadConverted
	if _, err := s.leadRepo.Update(ctx, in.LeadID, models.LeadPatch{Status: &converted}); err != nil {
		s.logger.Warn("failed to mark lead converted",
			zap.String("lead_id", in.LeadID.String()),
			zap.Error(err))
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return customer, nil
}

func (s *crmService) GetCustomer(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Customer, error) {
	trace := pipeline.NewTrace(s.logger, "crm.get_customer")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return customer, nil
}

func (s *crmService) ListCustomers(ctx context.Context, actor *models.User, filter repositories.CustomerFilter, skip, limit int) ([]*models.Customer, int, error) {
	trace := pipeline.NewTrace(s.logger, "crm.list_customers")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	customers, total, err := s.customerRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return customers, total, nil
}

func (s *crmService) LeadInsights(ctx context.Context, actor *models.User) (string, error) {
	trace := pipeline.NewTrace(s.logger, "crm.lead_insights")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	leads, err := s.leadRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	digests := make([]prompts.LeadDigest, len(leads))
	for i, l := range leads {
		digests[i] = prompts.LeadDigest{
			ID:        l.ID.String(),
			Email:     l.Email,
			Company:   l.Company,
			Status:    l.Status,
			Score:     l.AIScore,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
	}

	text, err := completeText(ctx, s.ai, trace, prompts.KindLeadInsights, prompts.LeadInsightsParams{Leads: digests})
	if err != nil {
		return "", fmt.Errorf("failed to generate lead insights: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}

func (s *crmService) CustomerValue(ctx context.Context, actor *models.User) (string, error) {
	trace := pipeline.NewTrace(s.logger, "crm.customer_value")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	customers, err := s.customerRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	digests := make([]prompts.CustomerDigest, len(customers))
	for i, c := range customers {
		digests[i] = prompts.CustomerDigest{
			ID:           c.ID.String(),
			Company:      c.Company,
			TotalRevenue: c.TotalRevenue,
			CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		}
	}

	text, err := completeText(ctx, s.ai, trace, prompts.KindCustomerValue, prompts.CustomerValueParams{Customers: digests})
	if err != nil {
		return "", fmt.Errorf("failed to generate customer value analysis: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}
