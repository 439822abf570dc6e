package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// CreateLeadRequest is the request body for filing a lead.
type CreateLeadRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Company  string `json:"company" validate:"required"`
	Industry string `json:"industry"`
	Status   string `json:"status"`
	Source   string `json:"source"`
	Notes    string `json:"notes"`
}

// CreateCustomerRequest is the request body for converting a lead into a
// customer account.
type CreateCustomerRequest struct {
	LeadID  uuid.UUID `json:"lead_id" validate:"required"`
	Name    string    `json:"name" validate:"required"`
	Email   string    `json:"email" validate:"required,email"`
	Company string    `json:"company"`
	Phone   string    `json:"phone"`
}

// CRMHandler handles lead and customer HTTP requests.
type CRMHandler struct {
	crmService services.CRMService
	logger     *zap.Logger
}

// NewCRMHandler creates a new CRM handler.
func NewCRMHandler(crmService services.CRMService, logger *zap.Logger) *CRMHandler {
	return &CRMHandler{
		crmService: crmService,
		logger:     logger,
	}
}

// RegisterRoutes registers the CRM handler's routes on the given mux. Lead
// create and update run the scoring model, so they carry the AI budget
// alongside the analytics endpoints.
func (h *CRMHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, ai := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/crm/leads", ai(h.CreateLead))
	mux.HandleFunc("GET /api/crm/leads", std(h.ListLeads))
	mux.HandleFunc("GET /api/crm/leads/{id}", std(h.GetLead))
	mux.HandleFunc("PUT /api/crm/leads/{id}", ai(h.UpdateLead))

	mux.HandleFunc("POST /api/crm/customers", std(h.CreateCustomer))
	mux.HandleFunc("GET /api/crm/customers", std(h.ListCustomers))
	mux.HandleFunc("GET /api/crm/customers/{id}", std(h.GetCustomer))

	mux.HandleFunc("GET /api/crm/analytics/lead-insights", ai(h.LeadInsights))
	mux.HandleFunc("GET /api/crm/analytics/customer-value", ai(h.CustomerValue))
}

// CreateLead handles POST /api/crm/leads
func (h *CRMHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateLeadRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	lead, err := h.crmService.CreateLead(r.Context(), actor, services.CreateLeadInput{
		Name:     req.Name,
		Email:    req.Email,
		Company:  req.Company,
		Industry: req.Industry,
		Status:   req.Status,
		Source:   req.Source,
		Notes:    req.Notes,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: lead}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListLeads handles GET /api/crm/leads
func (h *CRMHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.LeadFilter{
		Status:  r.URL.Query().Get("status"),
		Source:  r.URL.Query().Get("source"),
		OwnerID: uuidQuery(r, "owner_id"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.crmService.ListLeads(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Lead, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetLead handles GET /api/crm/leads/{id}
func (h *CRMHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	lead, err := h.crmService.GetLead(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, lead); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateLead handles PUT /api/crm/leads/{id}
func (h *CRMHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.LeadPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	lead, err := h.crmService.UpdateLead(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: lead}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateCustomer handles POST /api/crm/customers
func (h *CRMHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateCustomerRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	customer, err := h.crmService.CreateCustomer(r.Context(), actor, services.CreateCustomerInput{
		LeadID:  req.LeadID,
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Phone:   req.Phone,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: customer}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListCustomers handles GET /api/crm/customers
func (h *CRMHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.CustomerFilter{
		Company: r.URL.Query().Get("company"),
		OwnerID: uuidQuery(r, "owner_id"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.crmService.ListCustomers(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Customer, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetCustomer handles GET /api/crm/customers/{id}
func (h *CRMHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	customer, err := h.crmService.GetCustomer(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, customer); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// LeadInsights handles GET /api/crm/analytics/lead-insights
func (h *CRMHandler) LeadInsights(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	insights, err := h.crmService.LeadInsights(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CustomerValue handles GET /api/crm/analytics/customer-value
func (h *CRMHandler) CustomerValue(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	insights, err := h.crmService.CustomerValue(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
