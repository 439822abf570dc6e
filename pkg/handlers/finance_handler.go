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

// CreateTransactionRequest is the request body for recording a financial
// movement.
type CreateTransactionRequest struct {
	Type        string    `json:"type" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Amount      float64   `json:"amount" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// CreateInvoiceRequest is the request body for filing a receivable.
type CreateInvoiceRequest struct {
	CustomerName string    `json:"customer_name" validate:"required"`
	Amount       float64   `json:"amount" validate:"required"`
	Status       string    `json:"status"`
	IssuedDate   time.Time `json:"issued_date"`
	DueDate      time.Time `json:"due_date"`
}

// CreatePayrollRequest is the request body for opening a pay record.
type CreatePayrollRequest struct {
	EmployeeID uuid.UUID `json:"employee_id" validate:"required"`
	Period     string    `json:"period" validate:"required"`
	Gross      float64   `json:"gross_amount" validate:"required"`
	Net        float64   `json:"net_amount" validate:"required"`
}

// UpdatePayrollStatusRequest is the request body for settling a pay record.
type UpdatePayrollStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// FinanceHandler handles transaction, invoice, payroll, and dashboard HTTP
// requests.
type FinanceHandler struct {
	financeService services.FinanceService
	logger         *zap.Logger
}

// NewFinanceHandler creates a new finance handler.
func NewFinanceHandler(financeService services.FinanceService, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{
		financeService: financeService,
		logger:         logger,
	}
}

// RegisterRoutes registers the finance handler's routes on the given mux.
// The dashboard endpoints are deterministic aggregations and carry only the
// general budget.
func (h *FinanceHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limits *middleware.RouteLimits) {
	std, _ := guards(authMiddleware, limits)

	mux.HandleFunc("POST /api/erp/transactions", std(h.CreateTransaction))
	mux.HandleFunc("GET /api/erp/transactions", std(h.ListTransactions))
	mux.HandleFunc("GET /api/erp/transactions/{id}", std(h.GetTransaction))
	mux.HandleFunc("PUT /api/erp/transactions/{id}", std(h.UpdateTransaction))
	mux.HandleFunc("DELETE /api/erp/transactions/{id}", std(h.DeleteTransaction))

	mux.HandleFunc("POST /api/erp/invoices", std(h.CreateInvoice))
	mux.HandleFunc("GET /api/erp/invoices", std(h.ListInvoices))
	mux.HandleFunc("GET /api/erp/invoices/{id}", std(h.GetInvoice))
	mux.HandleFunc("PUT /api/erp/invoices/{id}", std(h.UpdateInvoice))

	mux.HandleFunc("POST /api/erp/payroll", std(h.CreatePayroll))
	mux.HandleFunc("GET /api/erp/payroll", std(h.ListPayroll))
	mux.HandleFunc("GET /api/erp/payroll/{id}", std(h.GetPayroll))
	mux.HandleFunc("PUT /api/erp/payroll/{id}/status", std(h.UpdatePayrollStatus))

	mux.HandleFunc("GET /api/erp/dashboard/stats", std(h.DashboardStats))
	mux.HandleFunc("GET /api/erp/dashboard/forecast", std(h.DashboardForecast))
	mux.HandleFunc("GET /api/erp/dashboard/recommendations", std(h.DashboardRecommendations))
}

// CreateTransaction handles POST /api/erp/transactions
func (h *FinanceHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	tx, err := h.financeService.CreateTransaction(r.Context(), actor, services.CreateTransactionInput{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: tx}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListTransactions handles GET /api/erp/transactions
func (h *FinanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.TransactionFilter{
		Type:     r.URL.Query().Get("type"),
		Category: r.URL.Query().Get("category"),
		From:     timeQuery(r, "from"),
		Until:    timeQuery(r, "until"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.financeService.ListTransactions(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Transaction, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetTransaction handles GET /api/erp/transactions/{id}
func (h *FinanceHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	tx, err := h.financeService.GetTransaction(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tx); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateTransaction handles PUT /api/erp/transactions/{id}
func (h *FinanceHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.TransactionPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	tx, err := h.financeService.UpdateTransaction(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: tx}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteTransaction handles DELETE /api/erp/transactions/{id}
func (h *FinanceHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.financeService.DeleteTransaction(r.Context(), actor, id); err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Transaction deleted",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateInvoice handles POST /api/erp/invoices
func (h *FinanceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateInvoiceRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	inv, err := h.financeService.CreateInvoice(r.Context(), actor, services.CreateInvoiceInput{
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		Status:       req.Status,
		IssuedDate:   req.IssuedDate,
		DueDate:      req.DueDate,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: inv}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListInvoices handles GET /api/erp/invoices
func (h *FinanceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.InvoiceFilter{Status: r.URL.Query().Get("status")}
	skip, limit := parsePagination(r)

	items, total, err := h.financeService.ListInvoices(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Invoice, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetInvoice handles GET /api/erp/invoices/{id}
func (h *FinanceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	inv, err := h.financeService.GetInvoice(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, inv); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateInvoice handles PUT /api/erp/invoices/{id}
func (h *FinanceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.InvoicePatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	inv, err := h.financeService.UpdateInvoice(r.Context(), actor, id, patch)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: inv}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreatePayroll handles POST /api/erp/payroll
func (h *FinanceHandler) CreatePayroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreatePayrollRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	rec, err := h.financeService.CreatePayroll(r.Context(), actor, services.CreatePayrollInput{
		EmployeeID: req.EmployeeID,
		Period:     req.Period,
		Gross:      req.Gross,
		Net:        req.Net,
	})
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: rec}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPayroll handles GET /api/erp/payroll
func (h *FinanceHandler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.PayrollFilter{
		EmployeeID: uuidQuery(r, "employee_id"),
		Period:     r.URL.Query().Get("period"),
		Status:     r.URL.Query().Get("status"),
	}
	skip, limit := parsePagination(r)

	items, total, err := h.financeService.ListPayroll(r.Context(), actor, filter, skip, limit)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}
	if items == nil {
		items = make([]*models.Payroll, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    PaginatedResponse{Items: items, Total: total, Skip: skip, Limit: limit},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetPayroll handles GET /api/erp/payroll/{id}
func (h *FinanceHandler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.financeService.GetPayroll(r.Context(), actor, id)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, rec); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdatePayrollStatus handles PUT /api/erp/payroll/{id}/status
func (h *FinanceHandler) UpdatePayrollStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdatePayrollStatusRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	rec, err := h.financeService.UpdatePayrollStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: rec}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DashboardStats handles GET /api/erp/dashboard/stats
func (h *FinanceHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.financeService.DashboardStats(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DashboardForecast handles GET /api/erp/dashboard/forecast
func (h *FinanceHandler) DashboardForecast(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	forecast, err := h.financeService.FinancialForecast(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, forecast); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DashboardRecommendations handles GET /api/erp/dashboard/recommendations
func (h *FinanceHandler) DashboardRecommendations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r, h.logger)
	if !ok {
		return
	}

	recs, err := h.financeService.Recommendations(r.Context(), actor)
	if err != nil {
		ServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, recs); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
