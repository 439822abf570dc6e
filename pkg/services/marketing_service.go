package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/pipeline"
	"github.com/smartbizhq/smartbiz-engine/pkg/prompts"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// GenerateContentInput carries a content generation request.
type GenerateContentInput struct {
	Topic          string   `json:"topic"`
	ContentType    string   `json:"content_type"`
	TargetAudience string   `json:"target_audience"`
	Tone           string   `json:"tone,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Length         string   `json:"length,omitempty"`
}

// CreateCampaignInput carries a new marketing campaign definition.
type CreateCampaignInput struct {
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	TargetAudience string    `json:"target_audience"`
	Channels       []string  `json:"channels"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Budget         float64   `json:"budget"`
	Goals          []string  `json:"goals,omitempty"`
}

// ContentMetadata echoes the generation request inside a content document.
type ContentMetadata struct {
	Topic          string   `json:"topic"`
	ContentType    string   `json:"content_type"`
	TargetAudience string   `json:"target_audience"`
	Tone           string   `json:"tone,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Length         string   `json:"length,omitempty"`
}

// ContentPayload is the document body of a content artifact. Keywords holds
// what the SEO pass extracted from the generated text, not the requested
// keywords; those stay in Metadata.
type ContentPayload struct {
	Content  string          `json:"content"`
	Metadata ContentMetadata `json:"metadata"`
	SEOScore float64         `json:"seo_score"`
	Keywords []string        `json:"keywords,omitempty"`
}

// CampaignPayload is the document body of a campaign artifact.
type CampaignPayload struct {
	Name           string                  `json:"name"`
	Description    string                  `json:"description,omitempty"`
	TargetAudience string                  `json:"target_audience"`
	Channels       []string                `json:"channels"`
	StartDate      time.Time               `json:"start_date"`
	EndDate        time.Time               `json:"end_date"`
	Budget         float64                 `json:"budget"`
	Goals          []string                `json:"goals,omitempty"`
	Strategy       string                  `json:"strategy"`
	Metrics        prompts.CampaignMetrics `json:"performance_metrics"`
}

// MarketingService owns generated content, campaigns, and SEO analysis. All
// operations except document reads require the marketing capability.
type MarketingService interface {
	// GenerateContent produces marketing copy and scores it for SEO in the
	// same request. The stored document carries both.
	GenerateContent(ctx context.Context, actor *models.User, in GenerateContentInput) (*models.Artifact, error)
	GetContent(ctx context.Context, actor *models.User, id string) (*models.Artifact, error)

	CreateCampaign(ctx context.Context, actor *models.User, in CreateCampaignInput) (*models.Artifact, error)
	GetCampaign(ctx context.Context, actor *models.User, id string) (*models.Artifact, error)

	// AnalyzeSEO scores arbitrary content and suggests improvements.
	AnalyzeSEO(ctx context.Context, actor *models.User, content string) (*models.SEOAnalysis, error)

	// CampaignPerformance reviews a campaign against its goals in free text.
	CampaignPerformance(ctx context.Context, actor *models.User, id string) (string, error)
}

type marketingService struct {
	artifactRepo repositories.ArtifactRepository
	ai           llm.Completer
	logger       *zap.Logger
}

// NewMarketingService creates a new marketing service with dependencies.
func NewMarketingService(
	artifactRepo repositories.ArtifactRepository,
	ai llm.Completer,
	logger *zap.Logger,
) MarketingService {
	return &marketingService{
		artifactRepo: artifactRepo,
		ai:           ai,
		logger:       logger,
	}
}

var _ MarketingService = (*marketingService)(nil)

func (s *marketingService) GenerateContent(ctx context.Context, actor *models.User, in GenerateContentInput) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "marketing.generate_content")
	if err := auth.Authorize(actor, models.RoleMarketing); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if in.Topic == "" {
		err := fmt.Errorf("content topic is required: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.ContentGenerationParams{
		Topic:          in.Topic,
		ContentType:    in.ContentType,
		TargetAudience: in.TargetAudience,
		Tone:           in.Tone,
		Keywords:       in.Keywords,
		Length:         in.Length,
	}
	content, err := completeText(ctx, s.ai, trace, prompts.KindContentGeneration, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	// Second call of the same AI phase; the trace already sits at
	// StageAIGenerated.
	seo, err := s.analyzeContent(ctx, content)
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to analyze generated content: %w", err)
	}

	payload, err := json.Marshal(ContentPayload{
		Content: content,
		Metadata: ContentMetadata{
			Topic:          in.Topic,
			ContentType:    in.ContentType,
			TargetAudience: in.TargetAudience,
			Tone:           in.Tone,
			Keywords:       in.Keywords,
			Length:         in.Length,
		},
		SEOScore: seo.Score,
		Keywords: seo.Keywords,
	})
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal content payload: %w", err)
	}
	requestParams, err := json.Marshal(in)
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal content params: %w", err)
	}

	artifact := &models.Artifact{
		Kind:      models.ArtifactContent,
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

func (s *marketingService) GetContent(ctx context.Context, actor *models.User, id string) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "marketing.get_content")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	artifact, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactContent)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return artifact, nil
}

func (s *marketingService) CreateCampaign(ctx context.Context, actor *models.User, in CreateCampaignInput) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "marketing.create_campaign")
	if err := auth.Authorize(actor, models.RoleMarketing); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if len(in.Channels) == 0 {
		err := fmt.Errorf("campaign needs at least one channel: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.CampaignStrategyParams{
		Name:           in.Name,
		Description:    in.Description,
		TargetAudience: in.TargetAudience,
		Channels:       in.Channels,
		Goals:          in.Goals,
	}
	strategy, err := completeText(ctx, s.ai, trace, prompts.KindCampaignStrategy, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate campaign strategy: %w", err)
	}

	payload, err := json.Marshal(CampaignPayload{
		Name:           in.Name,
		Description:    in.Description,
		TargetAudience: in.TargetAudience,
		Channels:       in.Channels,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Budget:         in.Budget,
		Goals:          in.Goals,
		Strategy:       strategy,
		Metrics:        prompts.CampaignMetrics{},
	})
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal campaign payload: %w", err)
	}
	requestParams, err := json.Marshal(in)
	if err != nil {
		trace.Fail(err)
		return nil, fmt.Errorf("failed to marshal campaign params: %w", err)
	}

	artifact := &models.Artifact{
		Kind:      models.ArtifactCampaign,
		Status:    models.CampaignPlanning,
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

func (s *marketingService) GetCampaign(ctx context.Context, actor *models.User, id string) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "marketing.get_campaign")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	artifact, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactCampaign)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return artifact, nil
}

func (s *marketingService) AnalyzeSEO(ctx context.Context, actor *models.User, content string) (*models.SEOAnalysis, error) {
	trace := pipeline.NewTrace(s.logger, "marketing.analyze_seo")
	if err := auth.Authorize(actor, models.RoleMarketing); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if content == "" {
		err := fmt.Errorf("content to analyze is required: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	var analysis models.SEOAnalysis
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindSEOAnalysis, prompts.SEOAnalysisParams{Content: content}, seoAnalysisSchema, &analysis); err != nil {
		return nil, fmt.Errorf("failed to analyze content: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return &analysis, nil
}

func (s *marketingService) CampaignPerformance(ctx context.Context, actor *models.User, id string) (string, error) {
	trace := pipeline.NewTrace(s.logger, "marketing.campaign_performance")
	if err := auth.Authorize(actor, models.RoleMarketing); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	artifact, err := getArtifact(ctx, s.artifactRepo, id, models.ArtifactCampaign)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	var payload CampaignPayload
	if err := json.Unmarshal(artifact.Payload, &payload); err != nil {
		trace.Fail(err)
		return "", fmt.Errorf("failed to decode campaign payload: %w", err)
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.CampaignPerformanceParams{
		Name:    payload.Name,
		Metrics: payload.Metrics,
		Goals:   payload.Goals,
	}
	insights, err := completeText(ctx, s.ai, trace, prompts.KindCampaignPerformance, params)
	if err != nil {
		return "", fmt.Errorf("failed to analyze campaign performance: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return insights, nil
}

// analyzeContent runs the SEO pass over already generated text without
// touching the trace.
func (s *marketingService) analyzeContent(ctx context.Context, content string) (*models.SEOAnalysis, error) {
	prompt, err := prompts.Assemble(prompts.KindSEOAnalysis, prompts.SEOAnalysisParams{Content: content})
	if err != nil {
		return nil, err
	}
	var analysis models.SEOAnalysis
	if _, err := s.ai.CompleteJSON(ctx, llm.CompletionRequest{
		System:   prompts.SystemMessage(prompts.KindSEOAnalysis),
		Prompt:   prompt,
		JSONOnly: true,
	}, seoAnalysisSchema, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
