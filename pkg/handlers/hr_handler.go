package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/middleware"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// CreateEmployeeRequest is the request body for adding a staff record.
type CreateEmployeeRequest struct {
	FullName   string    `json:"full_name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Position   string    `json:"position" validate:"required"`
	Department string    `json:"department" validate:"required"`
	Salary     float64   `json:"salary"`
	HireDate   time.Time `json:"hire_date"`
	IsActive   *bool     `json:"is_active,omitempty"`
}

// HRHandler handles employee directory HTTP requests.
type HRHandler struct {
	hrService services.HRService
	logger    *zap.Logger
}

// NewHRHandler creates a new HR handler.
func NewHRHandler(hrService services.HRService, logger *zap.Logger) *HRHandler {
	return &HRHandler{
		hrService: hrService,
		logger:    logger,
	}
}

// RegisterRoutes registers the HR handler's routes on the given mux.
func (h *HRHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, _ := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/erp/employees", std(h.CreateEmployee))
	mux.HandleFunc("GET /api/erp/employees", std(h.ListEmployees))
	mux.HandleFunc("GET /api/erp/employees/{id}", std(h.GetEmployee))
	mux.HandleFunc("PUT /api/erp/employees/{id}", std(h.UpdateEmployee))
}

// CreateEmployee handles POST /api/erp/employees
func (h *HRHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateEmployeeRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	emp, err := h.hrService.CreateEmployee(r.Context(), actor, services.CreateEmployeeInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Position:   req.Position,
		Department: req.Department,
		Salary:     req.Salary,
		HireDate:   req.HireDate,
		IsActive:   req.IsActive,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: emp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListEmployees handles GET /api/erp/employees
func (h *HRHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.EmployeeFilter{
		Department: r.URL.Query().Get("department"),
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	skip, limit := parsePagination(r)

	items, total, err := h.hrService.ListEmployees(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Employee, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetEmployee handles GET /api/erp/employees/{id}
func (h *HRHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	emp, err := h.hrService.GetEmployee(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, emp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateEmployee handles PUT /api/erp/employees/{id}
func (h *HRHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.EmployeePatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	emp, err := h.hrService.UpdateEmployee(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: emp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
