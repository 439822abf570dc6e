package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// CreateDealRequest is the request body for opening a deal on a lead.
type CreateDealRequest struct {
	LeadID    uuid.UUID `json:"lead_id" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Amount    float64   `json:"amount" validate:"required"`
	Stage     string    `json:"stage"`
	CloseDate time.Time `json:"close_date"`
}

// UpdateDealStageRequest is the request body for moving a deal.
type UpdateDealStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// CreatePipelineRequest is the request body for defining a sales pipeline.
type CreatePipelineRequest struct {
	Name             string   `json:"name" validate:"required"`
	Stages           []string `json:"stages" validate:"required,min=1"`
	Description      string   `json:"description"`
	TargetRevenue    float64  `json:"target_revenue"`
	ExpectedDuration int      `json:"expected_duration"`
}

// CreateProposalRequest is the request body for generating a proposal.
type CreateProposalRequest struct {
	CustomerID   uuid.UUID       `json:"customer_id" validate:"required"`
	ProductData  json.RawMessage `json:"product_data,omitempty"`
	PricingData  json.RawMessage `json:"pricing_data,omitempty"`
	Requirements []string        `json:"custom_requirements,omitempty"`
}

// UpdateProposalStatusRequest is the request body for walking a proposal
// through its lifecycle.
type UpdateProposalStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SalesHandler handles deal, pipeline, proposal, and forecast HTTP
// requests.
type SalesHandler struct {
	salesService services.SalesService
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService services.SalesService, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

// RegisterRoutes registers the sales handler's routes on the given mux.
// Everything that runs the model carries the AI budget: deal create and
// stage moves, document generation, the analytics, and the forecast.
func (h *SalesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, ai := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/sales/deals", ai(h.CreateDeal))
	mux.HandleFunc("GET /api/sales/deals", std(h.ListDeals))
	mux.HandleFunc("GET /api/sales/deals/{id}", std(h.GetDeal))
	mux.HandleFunc("PUT /api/sales/deals/{id}/stage", ai(h.UpdateDealStage))

	mux.HandleFunc("POST /api/sales/pipelines", ai(h.CreatePipeline))
	mux.HandleFunc("GET /api/sales/pipelines/{id}", std(h.GetPipeline))

	mux.HandleFunc("POST /api/sales/proposals", ai(h.CreateProposal))
	mux.HandleFunc("GET /api/sales/proposals/{id}", std(h.GetProposal))
	mux.HandleFunc("PUT /api/sales/proposals/{id}/status", std(h.UpdateProposalStatus))

	mux.HandleFunc("GET /api/sales/analytics/pipeline-performance", ai(h.PipelinePerformance))
	mux.HandleFunc("GET /api/sales/analytics/customer-insights", ai(h.CustomerInsights))
	mux.HandleFunc("GET /api/sales/revenue/forecast/{period}", ai(h.RevenueForecast))
}

// CreateDeal handles POST /api/sales/deals
func (h *SalesHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateDealRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	deal, err := h.salesService.CreateDeal(r.Context(), actor, services.CreateDealInput{
		LeadID:    req.LeadID,
		Title:     req.Title,
		Amount:    req.Amount,
		Stage:     req.Stage,
		CloseDate: req.CloseDate,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: deal}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListDeals handles GET /api/sales/deals
func (h *SalesHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.DealFilter{
		Stage:   r.URL.Query().Get("stage"),
		OwnerID: uuidQuery(r, "owner_id"),
		LeadID:  uuidQuery(r, "lead_id"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.salesService.ListDeals(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Deal, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetDeal handles GET /api/sales/deals/{id}
func (h *SalesHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	deal, err := h.salesService.GetDeal(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, deal); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateDealStage handles PUT /api/sales/deals/{id}/stage
func (h *SalesHandler) UpdateDealStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateDealStageRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	deal, err := h.salesService.UpdateDealStage(r.Context(), actor, id, req.Stage)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: deal}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreatePipeline handles POST /api/sales/pipelines
func (h *SalesHandler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreatePipelineRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	pipeline, err := h.salesService.CreatePipeline(r.Context(), actor, services.CreatePipelineInput{
		Name:             req.Name,
		Stages:           req.Stages,
		Description:      req.Description,
		TargetRevenue:    req.TargetRevenue,
		ExpectedDuration: req.ExpectedDuration,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: pipeline}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetPipeline handles GET /api/sales/pipelines/{id}
func (h *SalesHandler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	pipeline, err := h.salesService.GetPipeline(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, pipeline); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateProposal handles POST /api/sales/proposals
func (h *SalesHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateProposalRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	proposal, err := h.salesService.CreateProposal(r.Context(), actor, services.CreateProposalInput{
		CustomerID:   req.CustomerID,
		ProductData:  req.ProductData,
		PricingData:  req.PricingData,
		Requirements: req.Requirements,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: proposal}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetProposal handles GET /api/sales/proposals/{id}
func (h *SalesHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	proposal, err := h.salesService.GetProposal(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, proposal); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateProposalStatus handles PUT /api/sales/proposals/{id}/status
func (h *SalesHandler) UpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateProposalStatusRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	proposal, err := h.salesService.UpdateProposalStatus(r.Context(), actor, r.PathValue("id"), req.Status)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: proposal}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// PipelinePerformance handles GET /api/sales/analytics/pipeline-performance
func (h *SalesHandler) PipelinePerformance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	pipelineID := r.URL.Query().Get("pipeline_id")
	if pipelineID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_pipeline_id", "pipeline_id query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	insights, err := h.salesService.PipelinePerformance(r.Context(), actor, pipelineID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CustomerInsights handles GET /api/sales/analytics/customer-insights
func (h *SalesHandler) CustomerInsights(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	customerID := uuidQuery(r, "customer_id")
	if customerID == nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_customer_id", "customer_id query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	insights, err := h.salesService.CustomerInsights(r.Context(), actor, *customerID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RevenueForecast handles GET /api/sales/revenue/forecast/{period}
func (h *SalesHandler) RevenueForecast(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	outlook, err := h.salesService.RevenueForecast(r.Context(), actor, r.PathValue("period"))
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, outlook); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
