package services

import (
	"context"
	"encoding/json"
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

// CreateDealInput carries a new deal attached to a lead.
type CreateDealInput struct {
	LeadID    uuid.UUID
	Title     string
	Amount    float64
	Stage     string
	CloseDate time.Time
}

// CreatePipelineInput carries a new sales pipeline definition. It is stored
// verbatim as the generation params of the pipeline document.
type CreatePipelineInput struct {
	Name             string   `json:"name"`
	Stages           []string `json:"stages"`
	Description      string   `json:"description,omitempty"`
	TargetRevenue    float64  `json:"target_revenue"`
	ExpectedDuration int      `json:"expected_duration"`
}

// CreateProposalInput carries a proposal request for one customer.
type CreateProposalInput struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	ProductData  json.RawMessage `json:"product_data,omitempty"`
	PricingData  json.RawMessage `json:"pricing_data,omitempty"`
	Requirements []string        `json:"custom_requirements,omitempty"`
}

// PipelinePayload is the document body of a pipeline artifact.
type PipelinePayload struct {
	Name             string   `json:"name"`
	Stages           []string `json:"stages"`
	Description      string   `json:"description,omitempty"`
	TargetRevenue    float64  `json:"target_revenue"`
	ExpectedDuration int      `json:"expected_duration"`
	CurrentRevenue   float64  `json:"current_revenue"`
	Strategy         string   `json:"strategy"`
}

// ProposalPayload is the document body of a proposal artifact.
type ProposalPayload struct {
	CustomerID   string          `json:"customer_id"`
	Content      string          `json:"content"`
	ProductData  json.RawMessage `json:"product_data,omitempty"`
	PricingData  json.RawMessage `json:"pricing_data,omitempty"`
	Requirements []string        `json:"custom_requirements,omitempty"`
}

// SalesService owns deals and the generated sales documents: pipelines and
// proposals. New deals are prioritized by the model before insert; stage
// changes re-prioritize. Mutations and analytics require the sales
// capability.
type SalesService interface {
	CreateDeal(ctx context.Context, actor *models.User, in CreateDealInput) (*models.Deal, error)
	GetDeal(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Deal, error)
	ListDeals(ctx context.Context, actor *models.User, filter repositories.DealFilter, skip, limit int) ([]*models.Deal, int, error)
	UpdateDealStage(ctx context.Context, actor *models.User, id uuid.UUID, stage string) (*models.Deal, error)

	CreatePipeline(ctx context.Context, actor *models.User, in CreatePipelineInput) (*models.Artifact, error)
	GetPipeline(ctx context.Context, actor *models.User, id string) (*models.Artifact, error)
	PipelinePerformance(ctx context.Context, actor *models.User, id string) (string, error)

	CreateProposal(ctx context.Context, actor *models.User, in CreateProposalInput) (*models.Artifact, error)
	GetProposal(ctx context.Context, actor *models.User, id string) (*models.Artifact, error)
	UpdateProposalStatus(ctx context.Context, actor *models.User, id, status string) (*models.Artifact, error)

	// CustomerInsights analyzes one customer's value from their proposal
	// history.
	CustomerInsights(ctx context.Context, actor *models.User, customerID uuid.UUID) (string, error)

	// RevenueForecast predicts revenue for a period from closed deals and
	// the open pipeline.
	RevenueForecast(ctx context.Context, actor *models.User, period string) (*models.RevenueOutlook, error)
}

type salesService struct {
	dealRepo     repositories.DealRepository
	leadRepo     repositories.LeadRepository
	customerRepo repositories.CustomerRepository
	artifactRepo repositories.ArtifactRepository
	ai           llm.Completer
	logger       *zap.Logger
}

// NewSalesService creates a new sales service with dependencies.
func NewSalesService(
	dealRepo repositories.DealRepository,
	leadRepo repositories.LeadRepository,
	customerRepo repositories.CustomerRepository,
	artifactRepo repositories.ArtifactRepository,
	ai llm.Completer,
	logger *zap.Logger,
) SalesService {
	return &salesService{
		dealRepo:     dealRepo,
		leadRepo:     leadRepo,
		customerRepo: customerRepo,
		artifactRepo: artifactRepo,
		ai:           ai,
		logger:       logger,
	}
}

var _ SalesService = (*salesService)(nil)

func (s *salesService) CreateDeal(ctx context.Context, actor *models.User, in CreateDealInput) (*models.Deal, error) {
	trace := pipeline.NewTrace(s.logger, "sales.create_deal")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	stage := in.Stage
	if stage == "" {
		stage = models.StageQualification
	}
	if !models.IsValidDealStage(stage) {
		err := fmt.Errorf("invalid deal stage %q: %w", in.Stage, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if in.Amount < 0 {
		err := fmt.Errorf("amount must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}

	lead, err := s.leadRepo.GetByID(ctx, in.LeadID)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.DealPriorityParams{
		Title:           in.Title,
		Amount:          in.Amount,
		Stage:           stage,
		CloseDate:       in.CloseDate.Format("2006-01-02"),
		DaysSinceActive: 0,
		LeadCompany:     lead.Company,
		LeadIndustry:    lead.Industry,
		LeadScore:       lead.AIScore,
	}
	var annotation models.DealAnnotation
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindDealPriority, params, dealPrioritySchema, &annotation); err != nil {
		return nil, fmt.Errorf("failed to prioritize deal: %w", err)
	}

	deal := &models.Deal{
		LeadID:           in.LeadID,
		Title:            in.Title,
		Amount:           in.Amount,
		Stage:            stage,
		CloseDate:        in.CloseDate,
		LastActive:       time.Now(),
		AIPriority:       &annotation.Priority,
		AINextAction:     &annotation.NextAction,
		AIStalenessScore: &annotation.StalenessScore,
		AIConfidence:     &annotation.Confidence,
		OwnerID:          actor.ID,
	}
	if err := s.dealRepo.Create(ctx, deal); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return deal, nil
}

func (s *salesService) GetDeal(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Deal, error) {
	trace := pipeline.NewTrace(s.logger, "sales.get_deal")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return deal, nil
}

func (s *salesService) ListDeals(ctx context.Context, actor *models.User, filter repositories.DealFilter, skip, limit int) ([]*models.Deal, int, error) {
	trace := pipeline.NewTrace(s.logger, "sales.list_deals")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	deals, total, err := s.dealRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return deals, total, nil
}

func (s *salesService) UpdateDealStage(ctx context.Context, actor *models.User, id uuid.UUID, stage string) (*models.Deal, error) {
	trace := pipeline.NewTrace(s.logger, "sales.update_deal_stage")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if !models.IsValidDealStage(stage) {
		err := fmt.Errorf("invalid deal stage %q: %w", stage, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}

	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	lead, err := s.leadRepo.GetByID(ctx, deal.LeadID)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	// Prioritize against the stage the deal is moving into.
	params := prompts.DealPriorityParams{
		Title:           deal.Title,
		Amount:          deal.Amount,
		Stage:           stage,
		CloseDate:       deal.CloseDate.Format("2006-01-02"),
		DaysSinceActive: int(time.Since(deal.LastActive).Hours() / 24),
		LeadCompany:     lead.Company,
		LeadIndustry:    lead.Industry,
		LeadScore:       lead.AIScore,
	}
	var annotation models.DealAnnotation
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindDealPriority, params, dealPrioritySchema, &annotation); err != nil {
		return nil, fmt.Errorf("failed to re-prioritize deal: %w", err)
	}

	if _, err := s.dealRepo.Update(ctx, id, models.DealPatch{Stage: &stage}); err != nil {
		trace.Fail(err)
		return nil, err
	}
	updated, err := s.dealRepo.SetAnnotation(ctx, id, annotation)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return updated, nil
}

func (s *salesService) CreatePipeline(ctx context.Context, actor *models.User, in CreatePipelineInput) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "sales.create_pipeline")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if len(in.Stages) == 0 {
		err := fmt.Errorf("pipeline needs at least one stage: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.PipelineStrategyParams{
		Name:             in.Name,
		Stages:           in.Stages,
		TargetRevenue:    in.TargetRevenue,
		ExpectedDuration: in.ExpectedDuration,
	}
	strategy, err := completeText(ctx, s.ai, trace, prompts.KindPipelineStrategy, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pipeline strategy: %w", err)
	}

	payload, err := json.Marshal(PipelinePayload{
		Name:             in.Name,
		Stages:           in.Stages,
		Description:      in.Description,
		TargetRevenue:    in.TargetRevenue,
		ExpectedDuration: in.ExpectedDuration,
		CurrentRevenue:   0,
		Strategy:         strategy,
	})
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal pipeline payload: %w", err)
	}
	requestParams, err := json.Marshal(in)
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal pipeline params: %w", err)
	}

	artifact := &models.Artifact{
		Kind:      models.ArtifactPipeline,
		Payload:   payload,
		Params:    requestParams,
		CreatedBy: actor.ID,
	}
	if err := s.artifactRepo.Insert(ctx, artifact); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return artifact, nil
}

func (s *salesService) GetPipeline(ctx context.Context, actor *models.User, id string) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "sales.get_pipeline")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	artifact, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactPipeline)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return artifact, nil
}

func (s *salesService) PipelinePerformance(ctx context.Context, actor *models.User, id string) (string, error) {
	trace := pipeline.NewTrace(s.logger, "sales.pipeline_performance")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	artifact, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactPipeline)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	var payload PipelinePayload
	if err := json.Unmarshal(artifact.Payload, &payload); err != nil {
		trace.Fail(err)
		return "", fmt.Errorf("failed to decode pipeline payload: %w", err)
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.PipelinePerformanceParams{
		Name:           payload.Name,
		CurrentRevenue: payload.CurrentRevenue,
		TargetRevenue:  payload.TargetRevenue,
		Stages:         payload.Stages,
	}
	insights, err := completeText(ctx, s.ai, trace, prompts.KindPipelinePerformance, params)
	if err != nil {
		return "", fmt.Errorf("failed to analyze pipeline performance: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return insights, nil
}

func (s *salesService) CreateProposal(ctx context.Context, actor *models.User, in CreateProposalInput) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "sales.create_proposal")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	customer, err := s.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.ProposalGenerationParams{
		CustomerCompany: customer.Company,
		CustomerEmail:   customer.Email,
		TotalRevenue:    customer.TotalRevenue,
		ProductData:     in.ProductData,
		PricingData:     in.PricingData,
		Requirements:    in.Requirements,
	}
	content, err := completeText(ctx, s.ai, trace, prompts.KindProposalGeneration, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proposal: %w", err)
	}

	payload, err := json.Marshal(ProposalPayload{
		CustomerID:   customer.ID.String(),
		Content:      content,
		ProductData:  in.ProductData,
		PricingData:  in.PricingData,
		Requirements: in.Requirements,
	})
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal proposal payload: %w", err)
	}
	requestParams, err := json.Marshal(in)
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal proposal params: %w", err)
	}

	artifact := &models.Artifact{
		Kind:      models.ArtifactProposal,
		Status:    models.ProposalDraft,
		Payload:   payload,
		Params:    requestParams,
		RefID:     customer.ID.String(),
		CreatedBy: actor.ID,
	}
	if err := s.artifactRepo.Insert(ctx, artifact); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return artifact, nil
}

func (s *salesService) GetProposal(ctx context.Context, actor *models.User, id string) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "sales.get_proposal")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	artifact, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactProposal)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return artifact, nil
}

func (s *salesService) UpdateProposalStatus(ctx context.Context, actor *models.User, id, status string) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "sales.update_proposal_status")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if _, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactProposal); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	artifact, err := s.artifactRepo.PatchStatus(ctx, id, status)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return artifact, nil
}

func (s *salesService) CustomerInsights(ctx context.Context, actor *models.User, customerID uuid.UUID) (string, error) {
	trace := pipeline.NewTrace(s.logger, "sales.customer_insights")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	proposals, _, err := s.artifactRepo.Find(ctx, models.ArtifactProposal, customerID.String(), 0, 0)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	digests := make([]prompts.ProposalDigest, len(proposals))
	for i, p := range proposals {
		digests[i] = prompts.ProposalDigest{
			ID:        p.ID,
			Status:    p.Status,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
	}

	params := prompts.CustomerInsightsParams{
		Company:       customer.Company,
		TotalRevenue:  customer.TotalRevenue,
		CustomerSince: customer.CreatedAt.Format(time.RFC3339),
		Proposals:     digests,
	}
	insights, err := completeText(ctx, s.ai, trace, prompts.KindCustomerInsights, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate customer insights: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return insights, nil
}

func (s *salesService) RevenueForecast(ctx context.Context, actor *models.User, period string) (*models.RevenueOutlook, error) {
	trace := pipeline.NewTrace(s.logger, "sales.revenue_forecast")
	if err := auth.Authorize(actor, models.RoleSales); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if period == "" {
		err := fmt.Errorf("forecast period is required: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}

	deals, err := s.dealRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	var historical, current []prompts.DealDigest
	for _, d := range deals {
		digest := prompts.DealDigest{
			Title:     d.Title,
			Amount:    d.Amount,
			Stage:     d.Stage,
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
		}
		if models.IsOpenStage(d.Stage) {
			digest.Priority = d.AIPriority
			current = append(current, digest)
		} else {
			historical = append(historical, digest)
		}
	}

	params := prompts.RevenueForecastParams{
		Period:          period,
		HistoricalDeals: historical,
		CurrentPipeline: current,
	}
	var outlook models.RevenueOutlook
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindRevenueForecast, params, revenueOutlookSchema, &outlook); err != nil {
		return nil, fmt.Errorf("failed to forecast revenue: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return &outlook, nil
}
