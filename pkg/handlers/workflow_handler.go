package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// CreateWorkflowRequest is the request body for defining a workflow.
type CreateWorkflowRequest struct {
	Name          string            `json:"name" validate:"required"`
	Description   string            `json:"description,omitempty"`
	TriggerType   string            `json:"trigger_type" validate:"required"`
	TriggerConfig json.RawMessage   `json:"trigger_config,omitempty"`
	Actions       []json.RawMessage `json:"actions" validate:"required,min=1"`
	IsActive      *bool             `json:"is_active,omitempty"`
}

// CreateWorkflowResponse pairs the stored workflow with the model's
// advisory review of its configuration.
type CreateWorkflowResponse struct {
	Workflow   *models.Workflow           `json:"workflow"`
	Validation *models.WorkflowValidation `json:"validation,omitempty"`
}

// ExecuteWorkflowRequest is the request body for a workflow run. An empty
// body runs the workflow without input.
type ExecuteWorkflowRequest struct {
	InputData json.RawMessage `json:"input_data,omitempty"`
}

// WorkflowHandler handles automation workflow HTTP requests.
type WorkflowHandler struct {
	workflowService services.WorkflowService
	logger          *zap.Logger
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(workflowService services.WorkflowService, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		logger:          logger,
	}
}

// RegisterRoutes registers the workflow handler's routes on the given mux.
// Create, execute, and the analytics all drive the model and carry the AI
// budget.
func (h *WorkflowHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, ai := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/workflows", ai(h.CreateWorkflow))
	mux.HandleFunc("GET /api/workflows", std(h.ListWorkflows))
	mux.HandleFunc("GET /api/workflows/{id}", std(h.GetWorkflow))
	mux.HandleFunc("PUT /api/workflows/{id}", std(h.UpdateWorkflow))

	mux.HandleFunc("POST /api/workflows/{id}/execute", ai(h.ExecuteWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}/executions", std(h.ListExecutions))

	mux.HandleFunc("GET /api/workflows/analytics/workflow-performance", ai(h.WorkflowPerformance))
	mux.HandleFunc("GET /api/workflows/analytics/workflow-optimization", ai(h.WorkflowOptimization))
}

// CreateWorkflow handles POST /api/workflows
func (h *WorkflowHandler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateWorkflowRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	workflow, validation, err := h.workflowService.CreateWorkflow(r.Context(), actor, services.CreateWorkflowInput{
		Name:          req.Name,
		Description:   req.Description,
		TriggerType:   req.TriggerType,
		TriggerConfig: req.TriggerConfig,
		Actions:       req.Actions,
		IsActive:      req.IsActive,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    CreateWorkflowResponse{Workflow: workflow, Validation: validation},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListWorkflows handles GET /api/workflows
func (h *WorkflowHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.WorkflowFilter{
		TriggerType: r.URL.Query().Get("trigger_type"),
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	skip, limit := parsePagination(r)

	items, total, err := h.workflowService.ListWorkflows(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Workflow, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetWorkflow handles GET /api/workflows/{id}
func (h *WorkflowHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	workflow, err := h.workflowService.GetWorkflow(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, workflow); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateWorkflow handles PUT /api/workflows/{id}
func (h *WorkflowHandler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.WorkflowPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	workflow, err := h.workflowService.UpdateWorkflow(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: workflow}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ExecuteWorkflow handles POST /api/workflows/{id}/execute
func (h *WorkflowHandler) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req ExecuteWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	record, err := h.workflowService.ExecuteWorkflow(r.Context(), actor, id, req.InputData)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: record}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListExecutions handles GET /api/workflows/{id}/executions
func (h *WorkflowHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	skip, limit := parsePagination(r)

	items, total, err := h.workflowService.ListExecutions(r.Context(), actor, id, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Artifact, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// WorkflowPerformance handles GET /api/workflows/analytics/workflow-performance
func (h *WorkflowHandler) WorkflowPerformance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	workflowID := uuidQuery(r, "workflow_id")
	if workflowID == nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_workflow_id", "workflow_id query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	insights, err := h.workflowService.WorkflowPerformance(r.Context(), actor, *workflowID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// WorkflowOptimization handles GET /api/workflows/analytics/workflow-optimization
func (h *WorkflowHandler) WorkflowOptimization(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	workflowID := uuidQuery(r, "workflow_id")
	if workflowID == nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_workflow_id", "workflow_id query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	insights, err := h.workflowService.WorkflowOptimization(r.Context(), actor, *workflowID)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
