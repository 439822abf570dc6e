package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/analytics"
	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/pipeline"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// statsWindow is the transaction window behind the dashboard money totals.
const statsWindow = 30 * 24 * time.Hour

// CreateTransactionInput carries a new financial movement.
type CreateTransactionInput struct {
	Type        string
	Category    string
	Amount      float64
	Description string
	Date        time.Time
}

// CreateInvoiceInput carries a new receivable.
type CreateInvoiceInput struct {
	CustomerName string
	Amount       float64
	Status       string
	IssuedDate   time.Time
	DueDate      time.Time
}

// CreatePayrollInput carries a new pay record for one employee and period.
type CreatePayrollInput struct {
	EmployeeID uuid.UUID
	Period     string
	Gross      float64
	Net        float64
}

// BusinessSnapshot is the compact aggregate an agent tool asks for: money
// flow over the stats window plus headcount and receivables still open.
type BusinessSnapshot struct {
	PeriodDays      int     `json:"period_days"`
	Income          float64 `json:"income"`
	Expenses        float64 `json:"expenses"`
	NetCashFlow     float64 `json:"net_cash_flow"`
	ActiveEmployees int     `json:"active_employees"`
	PendingInvoices int     `json:"pending_invoices"`
}

// FinanceService owns transactions, invoices, payroll, and the deterministic
// dashboard analytics. Mutations and dashboard reads require the
// finance-manager capability; plain reads require authentication only.
type FinanceService interface {
	CreateTransaction(ctx context.Context, actor *models.User, in CreateTransactionInput) (*models.Transaction, error)
	GetTransaction(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, actor *models.User, filter repositories.TransactionFilter, skip, limit int) ([]*models.Transaction, int, error)
	UpdateTransaction(ctx context.Context, actor *models.User, id uuid.UUID, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, actor *models.User, id uuid.UUID) error

	CreateInvoice(ctx context.Context, actor *models.User, in CreateInvoiceInput) (*models.Invoice, error)
	GetInvoice(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, actor *models.User, filter repositories.InvoiceFilter, skip, limit int) ([]*models.Invoice, int, error)
	UpdateInvoice(ctx context.Context, actor *models.User, id uuid.UUID, patch models.InvoicePatch) (*models.Invoice, error)

	CreatePayroll(ctx context.Context, actor *models.User, in CreatePayrollInput) (*models.Payroll, error)
	GetPayroll(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Payroll, error)
	ListPayroll(ctx context.Context, actor *models.User, filter repositories.PayrollFilter, skip, limit int) ([]*models.Payroll, int, error)
	UpdatePayrollStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string) (*models.Payroll, error)

	DashboardStats(ctx context.Context, actor *models.User) (*analytics.DashboardStats, error)
	FinancialForecast(ctx context.Context, actor *models.User) (*analytics.FinancialForecast, error)
	Recommendations(ctx context.Context, actor *models.User) ([]analytics.Recommendation, error)
	RecentTransactions(ctx context.Context, actor *models.User, limit int) ([]*models.Transaction, error)
	UpcomingInvoices(ctx context.Context, actor *models.User, limit int) ([]*models.Invoice, error)
	BusinessSnapshot(ctx context.Context, actor *models.User) (*BusinessSnapshot, error)
}

type financeService struct {
	txRepo       repositories.TransactionRepository
	invoiceRepo  repositories.InvoiceRepository
	payrollRepo  repositories.PayrollRepository
	employeeRepo repositories.EmployeeRepository
	notifRepo    repositories.NotificationRepository
	logger       *zap.Logger
}

// NewFinanceService creates a new finance service with dependencies.
func NewFinanceService(
	txRepo repositories.TransactionRepository,
	invoiceRepo repositories.InvoiceRepository,
	payrollRepo repositories.PayrollRepository,
	employeeRepo repositories.EmployeeRepository,
	notifRepo repositories.NotificationRepository,
	logger *zap.Logger,
) FinanceService {
	return &financeService{
		txRepo:       txRepo,
		invoiceRepo:  invoiceRepo,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		notifRepo:    notifRepo,
		logger:       logger,
	}
}

var _ FinanceService = (*financeService)(nil)

func (s *financeService) CreateTransaction(ctx context.Context, actor *models.User, in CreateTransactionInput) (*models.Transaction, error) {
	trace := pipeline.NewTrace(s.logger, "erp.create_transaction")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if !models.IsValidTransactionType(in.Type) {
		err := fmt.Errorf("invalid transaction type %q: %w", in.Type, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if !models.IsValidTransactionCategory(in.Category) {
		err := fmt.Errorf("invalid transaction category %q: %w", in.Category, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if in.Amount < 0 {
		err := fmt.Errorf("amount must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	tx := &models.Transaction{
		Type:        in.Type,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		CreatedBy:   actor.ID,
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return tx, nil
}

func (s *financeService) GetTransaction(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Transaction, error) {
	trace := pipeline.NewTrace(s.logger, "erp.get_transaction")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return tx, nil
}

func (s *financeService) ListTransactions(ctx context.Context, actor *models.User, filter repositories.TransactionFilter, skip, limit int) ([]*models.Transaction, int, error) {
	trace := pipeline.NewTrace(s.logger, "erp.list_transactions")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	txs, total, err := s.txRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return txs, total, nil
}

func (s *financeService) UpdateTransaction(ctx context.Context, actor *models.User, id uuid.UUID, patch models.TransactionPatch) (*models.Transaction, error) {
	trace := pipeline.NewTrace(s.logger, "erp.update_transaction")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Type != nil && !models.IsValidTransactionType(*patch.Type) {
		err := fmt.Errorf("invalid transaction type %q: %w", *patch.Type, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if patch.Category != nil && !models.IsValidTransactionCategory(*patch.Category) {
		err := fmt.Errorf("invalid transaction category %q: %w", *patch.Category, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if patch.Amount != nil && *patch.Amount < 0 {
		err := fmt.Errorf("amount must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	tx, err := s.txRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return tx, nil
}

func (s *financeService) DeleteTransaction(ctx context.Context, actor *models.User, id uuid.UUID) error {
	trace := pipeline.NewTrace(s.logger, "erp.delete_transaction")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return err
	}
	trace.Advance(pipeline.StageAuthorized)
	trace.Advance(pipeline.StageDataFetched)

	if err := s.txRepo.Delete(ctx, id); err != nil {
		trace.Fail(err)
		return err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return nil
}

func (s *financeService) CreateInvoice(ctx context.Context, actor *models.User, in CreateInvoiceInput) (*models.Invoice, error) {
	trace := pipeline.NewTrace(s.logger, "erp.create_invoice")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	status := in.Status
	if status == "" {
		status = models.InvoiceDraft
	}
	if !models.IsValidInvoiceStatus(status) {
		err := fmt.Errorf("invalid invoice status %q: %w", in.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if in.Amount < 0 {
		err := fmt.Errorf("amount must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	inv := &models.Invoice{
		CustomerName: in.CustomerName,
		Amount:       in.Amount,
		Status:       status,
		IssuedDate:   in.IssuedDate,
		DueDate:      in.DueDate,
		CreatedBy:    actor.ID,
	}
	if inv.IssuedDate.IsZero() {
		inv.IssuedDate = time.Now()
	}

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return inv, nil
}

func (s *financeService) GetInvoice(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Invoice, error) {
	trace := pipeline.NewTrace(s.logger, "erp.get_invoice")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return inv, nil
}

func (s *financeService) ListInvoices(ctx context.Context, actor *models.User, filter repositories.InvoiceFilter, skip, limit int) ([]*models.Invoice, int, error) {
	trace := pipeline.NewTrace(s.logger, "erp.list_invoices")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	invoices, total, err := s.invoiceRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return invoices, total, nil
}

func (s *financeService) UpdateInvoice(ctx context.Context, actor *models.User, id uuid.UUID, patch models.InvoicePatch) (*models.Invoice, error) {
	trace := pipeline.NewTrace(s.logger, "erp.update_invoice")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Status != nil && !models.IsValidInvoiceStatus(*patch.Status) {
		err := fmt.Errorf("invalid invoice status %q: %w", *patch.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if patch.Amount != nil && *patch.Amount < 0 {
		err := fmt.Errorf("amount must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	inv, err := s.invoiceRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return inv, nil
}

func (s *financeService) CreatePayroll(ctx context.Context, actor *models.User, in CreatePayrollInput) (*models.Payroll, error) {
	trace := pipeline.NewTrace(s.logger, "erp.create_payroll")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if _, err := time.Parse("2006-01", in.Period); err != nil {
		err := fmt.Errorf("period must be YYYY-MM: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if in.Gross < 0 || in.Net < 0 {
		err := fmt.Errorf("pay amounts must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if in.Net > in.Gross {
		err := fmt.Errorf("net pay cannot exceed gross pay: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}

	// The pay record references a real employee.
	if _, err := s.employeeRepo.GetByID(ctx, in.EmployeeID); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	rec := &models.Payroll{
		EmployeeID: in.EmployeeID,
		Period:     in.Period,
		Gross:      in.Gross,
		Net:        in.Net,
		Status:     models.PayrollPending,
		CreatedBy:  actor.ID,
	}
	if err := s.payrollRepo.Create(ctx, rec); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return rec, nil
}

func (s *financeService) GetPayroll(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Payroll, error) {
	trace := pipeline.NewTrace(s.logger, "erp.get_payroll")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	rec, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return rec, nil
}

func (s *financeService) ListPayroll(ctx context.Context, actor *models.User, filter repositories.PayrollFilter, skip, limit int) ([]*models.Payroll, int, error) {
	trace := pipeline.NewTrace(s.logger, "erp.list_payroll")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	recs, total, err := s.payrollRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return recs, total, nil
}

func (s *financeService) UpdatePayrollStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string) (*models.Payroll, error) {
	trace := pipeline.NewTrace(s.logger, "erp.update_payroll_status")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if !models.IsValidPayrollStatus(status) {
		err := fmt.Errorf("invalid payroll status %q: %w", status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	rec, err := s.payrollRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)

	if status == models.PayrollPaid {
		s.notifyPayrollPaid(ctx, rec)
	}
	trace.Advance(pipeline.StageResponded)
	return rec, nil
}

// notifyPayrollPaid posts a dashboard notification to whoever created the
// pay record. Best effort: a notification failure never fails the payment.
func (s *financeService) notifyPayrollPaid(ctx context.Context, rec *models.Payroll) {
	n := &models.Notification{
		UserID:  rec.CreatedBy,
		Title:   "Payroll paid",
		Message: fmt.Sprintf("Payroll for period %s has been paid.", rec.Period),
		Kind:    models.NotificationInfo,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create payroll notification",
			zap.String("payroll_id", rec.ID.String()),
			zap.Error(err))
	}
}

func (s *financeService) DashboardStats(ctx context.Context, actor *models.User) (*analytics.DashboardStats, error) {
	trace := pipeline.NewTrace(s.logger, "erp.dashboard_stats")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	transactions, employees, invoices, err := s.loadAnalyticsInputs(ctx)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	cutoff := time.Now().Add(-statsWindow)
	recent := transactions[:0]
	for _, t := range transactions {
		if !t.Date.Before(cutoff) {
			recent = append(recent, t)
		}
	}

	stats := analytics.ComputeDashboardStats(recent, employees, invoices)
	respond(trace)
	return &stats, nil
}

func (s *financeService) FinancialForecast(ctx context.Context, actor *models.User) (*analytics.FinancialForecast, error) {
	trace := pipeline.NewTrace(s.logger, "erp.dashboard_forecast")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	txs, err := s.txRepo.AllOrdered(ctx)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	transactions := make([]models.Transaction, len(txs))
	for i, t := range txs {
		transactions[i] = *t
	}

	forecast, err := analytics.Forecast(analytics.Series(analytics.MonthlyTotals(transactions)))
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	respond(trace)
	return forecast, nil
}

func (s *financeService) Recommendations(ctx context.Context, actor *models.User) ([]analytics.Recommendation, error) {
	trace := pipeline.NewTrace(s.logger, "erp.dashboard_recommendations")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	transactions, employees, invoices, err := s.loadAnalyticsInputs(ctx)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	recs := analytics.Recommendations(transactions, employees, invoices, time.Now())
	respond(trace)
	return recs, nil
}

// loadAnalyticsInputs pulls the full record sets the deterministic analytics
// run over, dereferenced into value slices.
func (s *financeService) loadAnalyticsInputs(ctx context.Context) ([]models.Transaction, []models.Employee, []models.Invoice, error) {
	txs, err := s.txRepo.AllOrdered(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	emps, err := s.employeeRepo.All(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	invs, err := s.invoiceRepo.All(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	transactions := make([]models.Transaction, len(txs))
	for i, t := range txs {
		transactions[i] = *t
	}
	employees := make([]models.Employee, len(emps))
	for i, e := range emps {
		employees[i] = *e
	}
	invoices := make([]models.Invoice, len(invs))
	for i, inv := range invs {
		invoices[i] = *inv
	}
	return transactions, employees, invoices, nil
}

func (s *financeService) RecentTransactions(ctx context.Context, actor *models.User, limit int) ([]*models.Transaction, error) {
	trace := pipeline.NewTrace(s.logger, "erp.recent_transactions")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	txs, err := s.txRepo.ListRecent(ctx, limit)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return txs, nil
}

func (s *financeService) UpcomingInvoices(ctx context.Context, actor *models.User, limit int) ([]*models.Invoice, error) {
	trace := pipeline.NewTrace(s.logger, "erp.upcoming_invoices")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	invoices, err := s.invoiceRepo.ListUpcoming(ctx, limit)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return invoices, nil
}

func (s *financeService) BusinessSnapshot(ctx context.Context, actor *models.User) (*BusinessSnapshot, error) {
	trace := pipeline.NewTrace(s.logger, "erp.business_snapshot")
	if err := auth.Authorize(actor, models.RoleFinanceManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	now := time.Now()
	income, expenses, err := s.txRepo.SumsBetween(ctx, now.Add(-statsWindow), now)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	active, err := s.employeeRepo.CountActive(ctx)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	pending, err := s.invoiceRepo.CountPending(ctx, now)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	snapshot := &BusinessSnapshot{
		PeriodDays:      int(statsWindow / (24 * time.Hour)),
		Income:          income,
		Expenses:        expenses,
		NetCashFlow:     income - expenses,
		ActiveEmployees: active,
		PendingInvoices: pending,
	}
	respond(trace)
	return snapshot, nil
}
