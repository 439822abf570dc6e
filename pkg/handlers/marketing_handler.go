package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// GenerateContentRequest is the request body for producing marketing copy.
type GenerateContentRequest struct {
	Topic          string   `json:"topic" validate:"required"`
	ContentType    string   `json:"content_type" validate:"required"`
	TargetAudience string   `json:"target_audience" validate:"required"`
	Tone           string   `json:"tone,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Length         string   `json:"length,omitempty"`
}

// CreateCampaignRequest is the request body for defining a campaign.
type CreateCampaignRequest struct {
	Name           string    `json:"name" validate:"required"`
	Description    string    `json:"description,omitempty"`
	TargetAudience string    `json:"target_audience" validate:"required"`
	Channels       []string  `json:"channels" validate:"required,min=1"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Budget         float64   `json:"budget"`
	Goals          []string  `json:"goals,omitempty"`
}

// AnalyzeSEORequest is the request body for scoring arbitrary content.
type AnalyzeSEORequest struct {
	Content string `json:"content" validate:"required"`
}

// MarketingHandler handles content, campaign, and SEO HTTP requests.
type MarketingHandler struct {
	marketingService services.MarketingService
	logger           *zap.Logger
}

// NewMarketingHandler creates a new marketing handler.
func NewMarketingHandler(marketingService services.MarketingService, logger *zap.Logger) *MarketingHandler {
	return &MarketingHandler{
		marketingService: marketingService,
		logger:           logger,
	}
}

// RegisterRoutes registers the marketing handler's routes on the given mux.
func (h *MarketingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, ai := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/marketing/content/generate", ai(h.GenerateContent))
	mux.HandleFunc("GET /api/marketing/content/{id}", std(h.GetContent))

	mux.HandleFunc("POST /api/marketing/campaigns", ai(h.CreateCampaign))
	mux.HandleFunc("GET /api/marketing/campaigns/{id}", std(h.GetCampaign))

	mux.HandleFunc("POST /api/marketing/seo/analyze", ai(h.AnalyzeSEO))
	mux.HandleFunc("GET /api/marketing/analytics/campaign-performance", ai(h.CampaignPerformance))
}

// GenerateContent handles POST /api/marketing/content/generate
func (h *MarketingHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req GenerateContentRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	content, err := h.marketingService.GenerateContent(r.Context(), actor, services.GenerateContentInput{
		Topic:          req.Topic,
		ContentType:    req.ContentType,
		TargetAudience: req.TargetAudience,
		Tone:           req.Tone,
		Keywords:       req.Keywords,
		Length:         req.Length,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: content}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetContent handles GET /api/marketing/content/{id}
func (h *MarketingHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	content, err := h.marketingService.GetContent(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, content); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateCampaign handles POST /api/marketing/campaigns
func (h *MarketingHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	campaign, err := h.marketingService.CreateCampaign(r.Context(), actor, services.CreateCampaignInput{
		Name:           req.Name,
		Description:    req.Description,
		TargetAudience: req.TargetAudience,
		Channels:       req.Channels,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Budget:         req.Budget,
		Goals:          req.Goals,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: campaign}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetCampaign handles GET /api/marketing/campaigns/{id}
func (h *MarketingHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	campaign, err := h.marketingService.GetCampaign(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, campaign); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AnalyzeSEO handles POST /api/marketing/seo/analyze
func (h *MarketingHandler) AnalyzeSEO(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req AnalyzeSEORequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	analysis, err := h.marketingService.AnalyzeSEO(r.Context(), actor, req.Content)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, analysis); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CampaignPerformance handles GET /api/marketing/analytics/campaign-performance
func (h *MarketingHandler) CampaignPerformance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	campaignID := r.URL.Query().Get("campaign_id")
	if campaignID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_campaign_id", "campaign_id query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	insights, err := h.marketingService.CampaignPerformance(r.Context(), actor, campaignID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
