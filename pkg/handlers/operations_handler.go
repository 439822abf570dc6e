package handlers

import (
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

// CreateTaskRequest is the request body for opening a task.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// InsightResponse carries a free-text analytics reply.
type InsightResponse struct {
	Insights string `json:"insights"`
}

// OperationsHandler handles task and notification HTTP requests.
type OperationsHandler struct {
	operationsService services.OperationsService
	logger            *zap.Logger
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(operationsService services.OperationsService, logger *zap.Logger) *OperationsHandler {
	return &OperationsHandler{
		operationsService: operationsService,
		logger:            logger,
	}
}

// RegisterRoutes registers the operations handler's routes on the given
// mux. The two analytics endpoints run a model completion and carry the AI
// budget.
func (h *OperationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, ai := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/erp/tasks", std(h.CreateTask))
	mux.HandleFunc("GET /api/erp/tasks", std(h.ListTasks))
	mux.HandleFunc("GET /api/erp/tasks/{id}", std(h.GetTask))
	mux.HandleFunc("PUT /api/erp/tasks/{id}", std(h.UpdateTask))
	mux.HandleFunc("DELETE /api/erp/tasks/{id}", std(h.DeleteTask))

	mux.HandleFunc("GET /api/erp/analytics/task-insights", ai(h.TaskInsights))
	mux.HandleFunc("GET /api/erp/analytics/workload-optimization", ai(h.WorkloadOptimization))

	mux.HandleFunc("GET /api/erp/notifications", std(h.ListNotifications))
	mux.HandleFunc("PUT /api/erp/notifications/{id}/read", std(h.MarkNotificationRead))
}

// CreateTask handles POST /api/erp/tasks
func (h *OperationsHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	task, err := h.operationsService.CreateTask(r.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: task}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListTasks handles GET /api/erp/tasks
func (h *OperationsHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.TaskFilter{
		Status:     r.URL.Query().Get("status"),
		Priority:   r.URL.Query().Get("priority"),
		AssigneeID: uuidQuery(r, "assignee_id"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.operationsService.ListTasks(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Task, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetTask handles GET /api/erp/tasks/{id}
func (h *OperationsHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	task, err := h.operationsService.GetTask(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateTask handles PUT /api/erp/tasks/{id}
func (h *OperationsHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	task, err := h.operationsService.UpdateTask(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: task}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteTask handles DELETE /api/erp/tasks/{id}
func (h *OperationsHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.operationsService.DeleteTask(r.Context(), actor, id); err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Task deleted",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// TaskInsights handles GET /api/erp/analytics/task-insights
func (h *OperationsHandler) TaskInsights(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	insights, err := h.operationsService.TaskInsights(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// WorkloadOptimization handles GET /api/erp/analytics/workload-optimization
func (h *OperationsHandler) WorkloadOptimization(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	insights, err := h.operationsService.WorkloadOptimization(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, InsightResponse{Insights: insights}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListNotifications handles GET /api/erp/notifications
func (h *OperationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	_, limit := parsePagination(r)

	items, err := h.operationsService.ListNotifications(r.Context(), actor, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Notification, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: items}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// MarkNotificationRead handles PUT /api/erp/notifications/{id}/read
func (h *OperationsHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.operationsService.MarkNotificationRead(r.Context(), actor, id); err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Notification marked read",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
