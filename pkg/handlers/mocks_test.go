package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/smartbizhq/smartbiz-engine/pkg/analytics"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// testActor builds an active user with the given role for request contexts.
func testActor(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    role + "@smartbiz.test",
		FullName: "Test " + role,
		Role:     role,
		IsActive: true,
	}
}

// withActor stamps the actor into the request context the way the auth
// middleware does.
func withActor(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), user))
}

// mockFinanceService implements services.FinanceService for handler tests.
// Every method returns the canned value, or err when set.
type mockFinanceService struct {
	err error

	tx       *models.Transaction
	txList   []*models.Transaction
	invoice  *models.Invoice
	invoices []*models.Invoice
	payroll  *models.Payroll
	payrolls []*models.Payroll
	stats    *analytics.DashboardStats
	forecast *analytics.FinancialForecast
	recs     []analytics.Recommendation
	snapshot *services.BusinessSnapshot
	total    int

	lastTxInput   services.CreateTransactionInput
	lastTxFilter  repositories.TransactionFilter
	lastPayStatus string
	lastSkip      int
	lastLimit     int
	deletedID     uuid.UUID
}

func (m *mockFinanceService) CreateTransaction(_ context.Context, _ *models.User, in services.CreateTransactionInput) (*models.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastTxInput = in
	return m.tx, nil
}

func (m *mockFinanceService) GetTransaction(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

func (m *mockFinanceService) ListTransactions(_ context.Context, _ *models.User, filter repositories.TransactionFilter, skip, limit int) ([]*models.Transaction, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastTxFilter = filter
	m.lastSkip, m.lastLimit = skip, limit
	return m.txList, m.total, nil
}

func (m *mockFinanceService) UpdateTransaction(_ context.Context, _ *models.User, _ uuid.UUID, _ models.TransactionPatch) (*models.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

func (m *mockFinanceService) DeleteTransaction(_ context.Context, _ *models.User, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = id
	return nil
}

func (m *mockFinanceService) CreateInvoice(_ context.Context, _ *models.User, _ services.CreateInvoiceInput) (*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *mockFinanceService) GetInvoice(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *mockFinanceService) ListInvoices(_ context.Context, _ *models.User, _ repositories.InvoiceFilter, skip, limit int) ([]*models.Invoice, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastSkip, m.lastLimit = skip, limit
	return m.invoices, m.total, nil
}

func (m *mockFinanceService) UpdateInvoice(_ context.Context, _ *models.User, _ uuid.UUID, _ models.InvoicePatch) (*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *mockFinanceService) CreatePayroll(_ context.Context, _ *models.User, _ services.CreatePayrollInput) (*models.Payroll, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payroll, nil
}

func (m *mockFinanceService) GetPayroll(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Payroll, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payroll, nil
}

func (m *mockFinanceService) ListPayroll(_ context.Context, _ *models.User, _ repositories.PayrollFilter, skip, limit int) ([]*models.Payroll, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastSkip, m.lastLimit = skip, limit
	return m.payrolls, m.total, nil
}

func (m *mockFinanceService) UpdatePayrollStatus(_ context.Context, _ *models.User, _ uuid.UUID, status string) (*models.Payroll, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPayStatus = status
	return m.payroll, nil
}

func (m *mockFinanceService) DashboardStats(_ context.Context, _ *models.User) (*analytics.DashboardStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockFinanceService) FinancialForecast(_ context.Context, _ *models.User) (*analytics.FinancialForecast, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.forecast, nil
}

func (m *mockFinanceService) Recommendations(_ context.Context, _ *models.User) ([]analytics.Recommendation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.recs, nil
}

func (m *mockFinanceService) RecentTransactions(_ context.Context, _ *models.User, _ int) ([]*models.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.txList, nil
}

func (m *mockFinanceService) UpcomingInvoices(_ context.Context, _ *models.User, _ int) ([]*models.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoices, nil
}

func (m *mockFinanceService) BusinessSnapshot(_ context.Context, _ *models.User) (*services.BusinessSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

// mockHRService implements services.HRService for handler tests.
type mockHRService struct {
	err       error
	employee  *models.Employee
	employees []*models.Employee
	total     int

	lastInput  services.CreateEmployeeInput
	lastFilter repositories.EmployeeFilter
}

func (m *mockHRService) CreateEmployee(_ context.Context, _ *models.User, in services.CreateEmployeeInput) (*models.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastInput = in
	return m.employee, nil
}

func (m *mockHRService) GetEmployee(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.employee, nil
}

func (m *mockHRService) ListEmployees(_ context.Context, _ *models.User, filter repositories.EmployeeFilter, _, _ int) ([]*models.Employee, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastFilter = filter
	return m.employees, m.total, nil
}

func (m *mockHRService) UpdateEmployee(_ context.Context, _ *models.User, _ uuid.UUID, _ models.EmployeePatch) (*models.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.employee, nil
}

func (m *mockHRService) RecentHires(_ context.Context, _ *models.User, _ int) ([]*models.Employee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.employees, nil
}

// mockOperationsService implements services.OperationsService for handler
// tests.
type mockOperationsService struct {
	err      error
	task     *models.Task
	tasks    []*models.Task
	notifs   []*models.Notification
	insights string
	total    int

	lastInput  services.CreateTaskInput
	lastFilter repositories.TaskFilter
	readID     uuid.UUID
	deletedID  uuid.UUID
}

func (m *mockOperationsService) CreateTask(_ context.Context, _ *models.User, in services.CreateTaskInput) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastInput = in
	return m.task, nil
}

func (m *mockOperationsService) GetTask(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.task, nil
}

func (m *mockOperationsService) ListTasks(_ context.Context, _ *models.User, filter repositories.TaskFilter, _, _ int) ([]*models.Task, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastFilter = filter
	return m.tasks, m.total, nil
}

func (m *mockOperationsService) UpdateTask(_ context.Context, _ *models.User, _ uuid.UUID, _ models.TaskPatch) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.task, nil
}

func (m *mockOperationsService) DeleteTask(_ context.Context, _ *models.User, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = id
	return nil
}

func (m *mockOperationsService) TaskInsights(_ context.Context, _ *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.insights, nil
}

func (m *mockOperationsService) WorkloadOptimization(_ context.Context, _ *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.insights, nil
}

func (m *mockOperationsService) ListNotifications(_ context.Context, _ *models.User, _ int) ([]*models.Notification, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.notifs, nil
}

func (m *mockOperationsService) MarkNotificationRead(_ context.Context, _ *models.User, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.readID = id
	return nil
}

// mockCRMService implements services.CRMService for handler tests.
type mockCRMService struct {
	err       error
	lead      *models.Lead
	leads     []*models.Lead
	customer  *models.Customer
	customers []*models.Customer
	insights  string
	total     int

	lastLeadInput     services.CreateLeadInput
	lastCustomerInput services.CreateCustomerInput
	lastLeadFilter    repositories.LeadFilter
	lastPatch         models.LeadPatch
}

func (m *mockCRMService) CreateLead(_ context.Context, _ *models.User, in services.CreateLeadInput) (*models.Lead, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastLeadInput = in
	return m.lead, nil
}

func (m *mockCRMService) GetLead(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Lead, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lead, nil
}

func (m *mockCRMService) ListLeads(_ context.Context, _ *models.User, filter repositories.LeadFilter, _, _ int) ([]*models.Lead, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastLeadFilter = filter
	return m.leads, m.total, nil
}

func (m *mockCRMService) UpdateLead(_ context.Context, _ *models.User, _ uuid.UUID, patch models.LeadPatch) (*models.Lead, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPatch = patch
	return m.lead, nil
}

func (m *mockCRMService) CreateCustomer(_ context.Context, _ *models.User, in services.CreateCustomerInput) (*models.Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastCustomerInput = in
	return m.customer, nil
}

func (m *mockCRMService) GetCustomer(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.customer, nil
}

func (m *mockCRMService) ListCustomers(_ context.Context, _ *models.User, _ repositories.CustomerFilter, _, _ int) ([]*models.Customer, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.customers, m.total, nil
}

func (m *mockCRMService) LeadInsights(_ context.Context, _ *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.insights, nil
}

func (m *mockCRMService) CustomerValue(_ context.Context, _ *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.insights, nil
}

func (m *mockCRMService) RescoreLeads(_ context.Context, _ *models.User, _ []uuid.UUID) ([]services.RescoreOutcome, error) {
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

// mockSalesService implements services.SalesService for handler tests.
type mockSalesService struct {
	err      error
	deal     *models.Deal
	deals    []*models.Deal
	artifact *models.Artifact
	outlook  *models.RevenueOutlook
	insights string
	total    int

	lastDealInput     services.CreateDealInput
	lastStage         string
	lastPipelineInput services.CreatePipelineInput
	lastProposalID    string
	lastStatus        string
	lastPeriod        string
	lastPipelineID    string
}

func (m *mockSalesService) CreateDeal(_ context.Context, _ *models.User, in services.CreateDealInput) (*models.Deal, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastDealInput = in
	return m.deal, nil
}

func (m *mockSalesService) GetDeal(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Deal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.deal, nil
}

func (m *mockSalesService) ListDeals(_ context.Context, _ *models.User, _ repositories.DealFilter, _, _ int) ([]*models.Deal, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.deals, m.total, nil
}

func (m *mockSalesService) UpdateDealStage(_ context.Context, _ *models.User, _ uuid.UUID, stage string) (*models.Deal, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastStage = stage
	return m.deal, nil
}

func (m *mockSalesService) CreatePipeline(_ context.Context, _ *models.User, in services.CreatePipelineInput) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPipelineInput = in
	return m.artifact, nil
}

func (m *mockSalesService) GetPipeline(_ context.Context, _ *models.User, id string) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPipelineID = id
	return m.artifact, nil
}

func (m *mockSalesService) PipelinePerformance(_ context.Context, _ *models.User, id string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lastPipelineID = id
	return m.insights, nil
}

func (m *mockSalesService) CreateProposal(_ context.Context, _ *models.User, _ services.CreateProposalInput) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}

func (m *mockSalesService) GetProposal(_ context.Context, _ *models.User, id string) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastProposalID = id
	return m.artifact, nil
}

func (m *mockSalesService) UpdateProposalStatus(_ context.Context, _ *models.User, id, status string) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastProposalID = id
	m.lastStatus = status
	return m.artifact, nil
}

func (m *mockSalesService) CustomerInsights(_ context.Context, _ *models.User, _ uuid.UUID) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.insights, nil
}

func (m *mockSalesService) RevenueForecast(_ context.Context, _ *models.User, period string) (*models.RevenueOutlook, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPeriod = period
	return m.outlook, nil
}

// mockMarketingService implements services.MarketingService for handler
// tests.
type mockMarketingService struct {
	err      error
	artifact *models.Artifact
	analysis *models.SEOAnalysis
	insights string

	lastContentInput  services.GenerateContentInput
	lastCampaignInput services.CreateCampaignInput
	lastContent       string
	lastCampaignID    string
}

func (m *mockMarketingService) GenerateContent(_ context.Context, _ *models.User, in services.GenerateContentInput) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastContentInput = in
	return m.artifact, nil
}

func (m *mockMarketingService) GetContent(_ context.Context, _ *models.User, _ string) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}

func (m *mockMarketingService) CreateCampaign(_ context.Context, _ *models.User, in services.CreateCampaignInput) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastCampaignInput = in
	return m.artifact, nil
}

func (m *mockMarketingService) GetCampaign(_ context.Context, _ *models.User, _ string) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}

func (m *mockMarketingService) AnalyzeSEO(_ context.Context, _ *models.User, content string) (*models.SEOAnalysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastContent = content
	return m.analysis, nil
}

func (m *mockMarketingService) CampaignPerformance(_ context.Context, _ *models.User, id string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lastCampaignID = id
	return m.insights, nil
}

// mockSupportService implements services.SupportService for handler tests.
type mockSupportService struct {
	err      error
	ticket   *models.SupportTicket
	tickets  []*models.SupportTicket
	reply    *services.ChatReply
	insights string
	total    int

	lastTicketInput services.CreateTicketInput
	lastChatInput   services.ChatInput
	lastEmail       string
}

func (m *mockSupportService) CreateTicket(_ context.Context, _ *models.User, in services.CreateTicketInput) (*models.SupportTicket, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastTicketInput = in
	return m.ticket, nil
}

func (m *mockSupportService) GetTicket(_ context.Context, _ *models.User, _ uuid.UUID) (*models.SupportTicket, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ticket, nil
}

func (m *mockSupportService) ListTickets(_ context.Context, _ *models.User, _ repositories.TicketFilter, _, _ int) ([]*models.SupportTicket, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.tickets, m.total, nil
}

func (m *mockSupportService) UpdateTicket(_ context.Context, _ *models.User, _ uuid.UUID, _ models.TicketPatch) (*models.SupportTicket, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ticket, nil
}

func (m *mockSupportService) Chat(_ context.Context, _ *models.User, in services.ChatInput) (*services.ChatReply, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastChatInput = in
	return m.reply, nil
}

func (m *mockSupportService) TicketInsights(_ context.Context, _ *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.insights, nil
}

func (m *mockSupportService) CustomerSupportScore(_ context.Context, _ *models.User, email string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lastEmail = email
	return m.insights, nil
}

// mockWorkflowService implements services.WorkflowService for handler
// tests.
type mockWorkflowService struct {
	err        error
	workflow   *models.Workflow
	workflows  []*models.Workflow
	validation *models.WorkflowValidation
	record     *models.Artifact
	records    []*models.Artifact
	insights   string
	total      int

	lastInput     services.CreateWorkflowInput
	lastInputData json.RawMessage
	lastWorkflow  uuid.UUID
}

func (m *mockWorkflowService) CreateWorkflow(_ context.Context, _ *models.User, in services.CreateWorkflowInput) (*models.Workflow, *models.WorkflowValidation, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.lastInput = in
	return m.workflow, m.validation, nil
}

func (m *mockWorkflowService) GetWorkflow(_ context.Context, _ *models.User, _ uuid.UUID) (*models.Workflow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.workflow, nil
}

func (m *mockWorkflowService) ListWorkflows(_ context.Context, _ *models.User, _ repositories.WorkflowFilter, _, _ int) ([]*models.Workflow, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.workflows, m.total, nil
}

func (m *mockWorkflowService) UpdateWorkflow(_ context.Context, _ *models.User, _ uuid.UUID, _ models.WorkflowPatch) (*models.Workflow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.workflow, nil
}

func (m *mockWorkflowService) ExecuteWorkflow(_ context.Context, _ *models.User, id uuid.UUID, inputData json.RawMessage) (*models.Artifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastWorkflow = id
	m.lastInputData = inputData
	return m.record, nil
}

func (m *mockWorkflowService) ListExecutions(_ context.Context, _ *models.User, id uuid.UUID, _, _ int) ([]*models.Artifact, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.lastWorkflow = id
	return m.records, m.total, nil
}

func (m *mockWorkflowService) WorkflowPerformance(_ context.Context, _ *models.User, id uuid.UUID) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lastWorkflow = id
	return m.insights, nil
}

func (m *mockWorkflowService) WorkflowOptimization(_ context.Context, _ *models.User, id uuid.UUID) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lastWorkflow = id
	return m.insights, nil
}

// mockAuthService implements auth.AuthService for handler and route tests.
type mockAuthService struct {
	registerErr error
	loginErr    error
	verifyErr   error
	user        *models.User
	token       string

	lastInput    auth.RegisterInput
	lastEmail    string
	lastPassword string
}

func (m *mockAuthService) Register(_ context.Context, input auth.RegisterInput) (*models.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	m.lastInput = input
	return m.user, nil
}

func (m *mockAuthService) Login(_ context.Context, email, password string) (*models.User, string, error) {
	if m.loginErr != nil {
		return nil, "", m.loginErr
	}
	m.lastEmail = email
	m.lastPassword = password
	return m.user, m.token, nil
}

func (m *mockAuthService) VerifyRequest(_ *http.Request) (*models.User, string, error) {
	if m.verifyErr != nil {
		return nil, "", m.verifyErr
	}
	return m.user, m.token, nil
}
