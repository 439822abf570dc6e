package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// CreateTicketRequest is the request body for filing a support ticket.
type CreateTicketRequest struct {
	Subject       string `json:"subject" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
}

// ChatRequest is the request body for one assistant chat turn.
type ChatRequest struct {
	Message  string          `json:"message" validate:"required"`
	TicketID *uuid.UUID      `json:"ticket_id,omitempty"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// SupportHandler handles ticket and assistant chat HTTP requests.
type SupportHandler struct {
	supportService services.SupportService
	logger         *zap.Logger
}

// NewSupportHandler creates a new support handler.
func NewSupportHandler(supportService services.SupportService, logger *zap.Logger) *SupportHandler {
	return &SupportHandler{
		supportService: supportService,
		logger:         logger,
	}
}

// RegisterRoutes registers the support handler's routes on the given mux.
// Ticket create runs sentiment analysis and chat runs a completion, so both
// carry the AI budget.
func (h *SupportHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, ai := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/support/tickets", ai(h.CreateTicket))
	mux.HandleFunc("GET /api/support/tickets", std(h.ListTickets))
	mux.HandleFunc("GET /api/support/tickets/{id}", std(h.GetTicket))
	mux.HandleFunc("PUT /api/support/tickets/{id}", std(h.UpdateTicket))

	mux.HandleFunc("POST /api/support/chat", ai(h.Chat))

	mux.HandleFunc("GET /api/support/analytics/ticket-insights", ai(h.TicketInsights))
	mux.HandleFunc("GET /api/support/analytics/customer-support-score", ai(h.CustomerSupportScore))
}

// CreateTicket handles POST /api/support/tickets
func (h *SupportHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateTicketRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	ticket, err := h.supportService.CreateTicket(r.Context(), actor, services.CreateTicketInput{
		Subject:       req.Subject,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: ticket}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListTickets handles GET /api/support/tickets
func (h *SupportHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.TicketFilter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.supportService.ListTickets(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.SupportTicket, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetTicket handles GET /api/support/tickets/{id}
func (h *SupportHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	ticket, err := h.supportService.GetTicket(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ticket); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateTicket handles PUT /api/support/tickets/{id}
func (h *SupportHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.TicketPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	ticket, err := h.supportService.UpdateTicket(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ticket}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Chat handles POST /api/support/chat
func (h *SupportHandler) Chat(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	reply, err := h.supportService.Chat(r.Context(), actor, services.ChatInput{
		Message:  req.Message,
		TicketID: req.TicketID,
		Context:  req.Context,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, reply); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// TicketInsights handles GET /api/support/analytics/ticket-insights
func (h *SupportHandler) TicketInsights(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	insights, err := h.supportService.TicketInsights(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CustomerSupportScore handles GET /api/support/analytics/customer-support-score
func (h *SupportHandler) CustomerSupportScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	email := r.URL.Query().Get("customer_email")
	if email == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_customer_email", "customer_email query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	insights, err := h.supportService.CustomerSupportScore(r.Context(), actor, email)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
