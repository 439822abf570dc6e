package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// In-memory repository fakes shared by the service tests. Each fake holds
// its records in a slice and implements the full repository interface; set
// the err fields to force a failure from the matching method.

func testActor(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    "actor@example.com",
		FullName: "Test Actor",
		Role:     role,
		IsActive: true,
	}
}

func pageSlice[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeTransactionRepo struct {
	transactions []*models.Transaction

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
	allErr    error
	sumsErr   error
	recentErr error
}

var _ repositories.TransactionRepository = (*fakeTransactionRepo)(nil)

func (r *fakeTransactionRepo) Create(_ context.Context, tx *models.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.transactions = append(r.transactions, tx)
	return nil
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, tx := range r.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTransactionRepo) List(_ context.Context, filter repositories.TransactionFilter, skip, limit int) ([]*models.Transaction, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Transaction
	for _, tx := range r.transactions {
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Category != "" && tx.Category != filter.Category {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.Until != nil && tx.Date.After(*filter.Until) {
			continue
		}
		matched = append(matched, tx)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeTransactionRepo) Update(_ context.Context, id uuid.UUID, patch models.TransactionPatch) (*models.Transaction, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, tx := range r.transactions {
		if tx.ID != id {
			continue
		}
		if patch.Type != nil {
			tx.Type = *patch.Type
		}
		if patch.Category != nil {
			tx.Category = *patch.Category
		}
		if patch.Amount != nil {
			tx.Amount = *patch.Amount
		}
		if patch.Description != nil {
			tx.Description = *patch.Description
		}
		if patch.Date != nil {
			tx.Date = *patch.Date
		}
		tx.UpdatedAt = time.Now()
		return tx, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTransactionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, tx := range r.transactions {
		if tx.ID == id {
			r.transactions = append(r.transactions[:i], r.transactions[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeTransactionRepo) AllOrdered(_ context.Context) ([]*models.Transaction, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	ordered := make([]*models.Transaction, len(r.transactions))
	copy(ordered, r.transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})
	return ordered, nil
}

func (r *fakeTransactionRepo) SumsBetween(_ context.Context, from, until time.Time) (float64, float64, error) {
	if r.sumsErr != nil {
		return 0, 0, r.sumsErr
	}
	var income, expense float64
	for _, tx := range r.transactions {
		if tx.Date.Before(from) || tx.Date.After(until) {
			continue
		}
		switch tx.Type {
		case models.TransactionIncome:
			income += tx.Amount
		case models.TransactionExpense:
			expense += tx.Amount
		}
	}
	return income, expense, nil
}

func (r *fakeTransactionRepo) ListRecent(_ context.Context, limit int) ([]*models.Transaction, error) {
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	ordered := make([]*models.Transaction, len(r.transactions))
	copy(ordered, r.transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.After(ordered[j].Date)
	})
	return pageSlice(ordered, 0, limit), nil
}

type fakeInvoiceRepo struct {
	invoices []*models.Invoice

	createErr   error
	getErr      error
	listErr     error
	updateErr   error
	deleteErr   error
	allErr      error
	countErr    error
	upcomingErr error
}

var _ repositories.InvoiceRepository = (*fakeInvoiceRepo)(nil)

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *models.Invoice) error {
	if r.createErr != nil {
		return r.createErr
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	r.invoices = append(r.invoices, inv)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInvoiceRepo) List(_ context.Context, filter repositories.InvoiceFilter, skip, limit int) ([]*models.Invoice, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Invoice
	for _, inv := range r.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		matched = append(matched, inv)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, id uuid.UUID, patch models.InvoicePatch) (*models.Invoice, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, inv := range r.invoices {
		if inv.ID != id {
			continue
		}
		if patch.CustomerName != nil {
			inv.CustomerName = *patch.CustomerName
		}
		if patch.Amount != nil {
			inv.Amount = *patch.Amount
		}
		if patch.Status != nil {
			inv.Status = *patch.Status
		}
		if patch.DueDate != nil {
			inv.DueDate = *patch.DueDate
		}
		inv.UpdatedAt = time.Now()
		return inv, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, inv := range r.invoices {
		if inv.ID == id {
			r.invoices = append(r.invoices[:i], r.invoices[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeInvoiceRepo) All(_ context.Context) ([]*models.Invoice, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.invoices, nil
}

func (r *fakeInvoiceRepo) CountPending(_ context.Context, asOf time.Time) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	for _, inv := range r.invoices {
		if inv.Status == models.InvoiceSent && !inv.DueDate.Before(asOf) {
			count++
		}
	}
	return count, nil
}

func (r *fakeInvoiceRepo) ListUpcoming(_ context.Context, limit int) ([]*models.Invoice, error) {
	if r.upcomingErr != nil {
		return nil, r.upcomingErr
	}
	ordered := make([]*models.Invoice, len(r.invoices))
	copy(ordered, r.invoices)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DueDate.Before(ordered[j].DueDate)
	})
	return pageSlice(ordered, 0, limit), nil
}

type fakePayrollRepo struct {
	records []*models.Payroll

	createErr error
	getErr    error
	listErr   error
	statusErr error
}

var _ repositories.PayrollRepository = (*fakePayrollRepo)(nil)

func (r *fakePayrollRepo) Create(_ context.Context, rec *models.Payroll) error {
	if r.createErr != nil {
		return r.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.records = append(r.records, rec)
	return nil
}

func (r *fakePayrollRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Payroll, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakePayrollRepo) List(_ context.Context, filter repositories.PayrollFilter, skip, limit int) ([]*models.Payroll, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Payroll
	for _, rec := range r.records {
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Period != "" && rec.Period != filter.Period {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		matched = append(matched, rec)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakePayrollRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*models.Payroll, error) {
	if r.statusErr != nil {
		return nil, r.statusErr
	}
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Status = status
			rec.UpdatedAt = time.Now()
			return rec, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type fakeEmployeeRepo struct {
	employees []*models.Employee

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
	allErr    error
	countErr  error
	recentErr error
}

var _ repositories.EmployeeRepository = (*fakeEmployeeRepo)(nil)

func (r *fakeEmployeeRepo) Create(_ context.Context, emp *models.Employee) error {
	if r.createErr != nil {
		return r.createErr
	}
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	r.employees = append(r.employees, emp)
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, emp := range r.employees {
		if emp.ID == id {
			return emp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter repositories.EmployeeFilter, skip, limit int) ([]*models.Employee, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Employee
	for _, emp := range r.employees {
		if filter.Department != "" && emp.Department != filter.Department {
			continue
		}
		if filter.IsActive != nil && emp.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, emp)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, id uuid.UUID, patch models.EmployeePatch) (*models.Employee, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, emp := range r.employees {
		if emp.ID != id {
			continue
		}
		if patch.FullName != nil {
			emp.FullName = *patch.FullName
		}
		if patch.Email != nil {
			emp.Email = *patch.Email
		}
		if patch.Position != nil {
			emp.Position = *patch.Position
		}
		if patch.Department != nil {
			emp.Department = *patch.Department
		}
		if patch.Salary != nil {
			emp.Salary = *patch.Salary
		}
		if patch.HireDate != nil {
			emp.HireDate = *patch.HireDate
		}
		if patch.IsActive != nil {
			emp.IsActive = *patch.IsActive
		}
		emp.UpdatedAt = time.Now()
		return emp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, emp := range r.employees {
		if emp.ID == id {
			r.employees = append(r.employees[:i], r.employees[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeEmployeeRepo) All(_ context.Context) ([]*models.Employee, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.employees, nil
}

func (r *fakeEmployeeRepo) CountActive(_ context.Context) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	for _, emp := range r.employees {
		if emp.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeEmployeeRepo) ListRecentActive(_ context.Context, limit int) ([]*models.Employee, error) {
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	var active []*models.Employee
	for _, emp := range r.employees {
		if emp.IsActive {
			active = append(active, emp)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].HireDate.After(active[j].HireDate)
	})
	return pageSlice(active, 0, limit), nil
}

type fakeNotificationRepo struct {
	notifications []*models.Notification

	createErr error
	listErr   error
	markErr   error
}

var _ repositories.NotificationRepository = (*fakeNotificationRepo)(nil)

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var matched []*models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			matched = append(matched, n)
		}
	}
	return pageSlice(matched, 0, limit), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	if r.markErr != nil {
		return r.markErr
	}
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type fakeTaskRepo struct {
	tasks []*models.Task

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
	allErr    error
}

var _ repositories.TaskRepository = (*fakeTaskRepo)(nil)

func (r *fakeTaskRepo) Create(_ context.Context, task *models.Task) error {
	if r.createErr != nil {
		return r.createErr
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.tasks = append(r.tasks, task)
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, task := range r.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTaskRepo) List(_ context.Context, filter repositories.TaskFilter, skip, limit int) ([]*models.Task, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Task
	for _, task := range r.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.AssigneeID != nil && (task.AssigneeID == nil || *task.AssigneeID != *filter.AssigneeID) {
			continue
		}
		matched = append(matched, task)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeTaskRepo) Update(_ context.Context, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, task := range r.tasks {
		if task.ID != id {
			continue
		}
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Status != nil {
			task.Status = *patch.Status
		}
		if patch.Priority != nil {
			task.Priority = *patch.Priority
		}
		if patch.AssigneeID != nil {
			task.AssigneeID = patch.AssigneeID
		}
		if patch.DueDate != nil {
			task.DueDate = patch.DueDate
		}
		task.UpdatedAt = time.Now()
		return task, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, task := range r.tasks {
		if task.ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeTaskRepo) All(_ context.Context) ([]*models.Task, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.tasks, nil
}

type fakeLeadRepo struct {
	leads []*models.Lead

	createErr   error
	getErr      error
	listErr     error
	updateErr   error
	deleteErr   error
	annotateErr error
	allErr      error

	annotatedID    uuid.UUID
	lastAnnotation models.LeadAnnotation
}

var _ repositories.LeadRepository = (*fakeLeadRepo)(nil)

func (r *fakeLeadRepo) Create(_ context.Context, lead *models.Lead) error {
	if r.createErr != nil {
		return r.createErr
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	r.leads = append(r.leads, lead)
	return nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, lead := range r.leads {
		if lead.ID == id {
			return lead, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeLeadRepo) List(_ context.Context, filter repositories.LeadFilter, skip, limit int) ([]*models.Lead, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Lead
	for _, lead := range r.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Source != "" && lead.Source != filter.Source {
			continue
		}
		if filter.OwnerID != nil && lead.OwnerID != *filter.OwnerID {
			continue
		}
		matched = append(matched, lead)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeLeadRepo) Update(_ context.Context, id uuid.UUID, patch models.LeadPatch) (*models.Lead, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, lead := range r.leads {
		if lead.ID != id {
			continue
		}
		if patch.Name != nil {
			lead.Name = *patch.Name
		}
		if patch.Email != nil {
			lead.Email = *patch.Email
		}
		if patch.Company != nil {
			lead.Company = *patch.Company
		}
		if patch.Industry != nil {
			lead.Industry = *patch.Industry
		}
		if patch.Status != nil {
			lead.Status = *patch.Status
		}
		if patch.Source != nil {
			lead.Source = *patch.Source
		}
		if patch.Notes != nil {
			lead.Notes = *patch.Notes
		}
		lead.UpdatedAt = time.Now()
		return lead, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeLeadRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, lead := range r.leads {
		if lead.ID == id {
			r.leads = append(r.leads[:i], r.leads[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeLeadRepo) SetAnnotation(_ context.Context, id uuid.UUID, ann models.LeadAnnotation) (*models.Lead, error) {
	if r.annotateErr != nil {
		return nil, r.annotateErr
	}
	r.annotatedID = id
	r.lastAnnotation = ann
	for _, lead := range r.leads {
		if lead.ID == id {
			lead.AIScore = &ann.Score
			lead.AISegment = &ann.Segment
			lead.AINextAction = &ann.NextAction
			lead.AIConfidence = &ann.Confidence
			lead.UpdatedAt = time.Now()
			return lead, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeLeadRepo) All(_ context.Context) ([]*models.Lead, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.leads, nil
}

type fakeCustomerRepo struct {
	customers []*models.Customer

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
	allErr    error
}

var _ repositories.CustomerRepository = (*fakeCustomerRepo)(nil)

func (r *fakeCustomerRepo) Create(_ context.Context, c *models.Customer) error {
	if r.createErr != nil {
		return r.createErr
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.customers = append(r.customers, c)
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, c := range r.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeCustomerRepo) List(_ context.Context, filter repositories.CustomerFilter, skip, limit int) ([]*models.Customer, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Customer
	for _, c := range r.customers {
		if filter.Company != "" && c.Company != filter.Company {
			continue
		}
		if filter.OwnerID != nil && c.OwnerID != *filter.OwnerID {
			continue
		}
		matched = append(matched, c)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, id uuid.UUID, patch models.CustomerPatch) (*models.Customer, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, c := range r.customers {
		if c.ID != id {
			continue
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Email != nil {
			c.Email = *patch.Email
		}
		if patch.Company != nil {
			c.Company = *patch.Company
		}
		if patch.Phone != nil {
			c.Phone = *patch.Phone
		}
		if patch.TotalRevenue != nil {
			c.TotalRevenue = *patch.TotalRevenue
		}
		c.UpdatedAt = time.Now()
		return c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, c := range r.customers {
		if c.ID == id {
			r.customers = append(r.customers[:i], r.customers[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeCustomerRepo) All(_ context.Context) ([]*models.Customer, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.customers, nil
}

type fakeDealRepo struct {
	deals []*models.Deal

	createErr   error
	getErr      error
	listErr     error
	updateErr   error
	deleteErr   error
	annotateErr error
	allErr      error

	annotatedID    uuid.UUID
	lastAnnotation models.DealAnnotation
}

var _ repositories.DealRepository = (*fakeDealRepo)(nil)

func (r *fakeDealRepo) Create(_ context.Context, deal *models.Deal) error {
	if r.createErr != nil {
		return r.createErr
	}
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now
	r.deals = append(r.deals, deal)
	return nil
}

func (r *fakeDealRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Deal, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, deal := range r.deals {
		if deal.ID == id {
			return deal, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeDealRepo) List(_ context.Context, filter repositories.DealFilter, skip, limit int) ([]*models.Deal, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Deal
	for _, deal := range r.deals {
		if filter.Stage != "" && deal.Stage != filter.Stage {
			continue
		}
		if filter.OwnerID != nil && deal.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.LeadID != nil && deal.LeadID != *filter.LeadID {
			continue
		}
		matched = append(matched, deal)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeDealRepo) Update(_ context.Context, id uuid.UUID, patch models.DealPatch) (*models.Deal, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, deal := range r.deals {
		if deal.ID != id {
			continue
		}
		if patch.Title != nil {
			deal.Title = *patch.Title
		}
		if patch.Amount != nil {
			deal.Amount = *patch.Amount
		}
		if patch.Stage != nil {
			deal.Stage = *patch.Stage
			deal.LastActive = time.Now()
		}
		if patch.CloseDate != nil {
			deal.CloseDate = *patch.CloseDate
		}
		deal.UpdatedAt = time.Now()
		return deal, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeDealRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, deal := range r.deals {
		if deal.ID == id {
			r.deals = append(r.deals[:i], r.deals[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeDealRepo) SetAnnotation(_ context.Context, id uuid.UUID, ann models.DealAnnotation) (*models.Deal, error) {
	if r.annotateErr != nil {
		return nil, r.annotateErr
	}
	r.annotatedID = id
	r.lastAnnotation = ann
	for _, deal := range r.deals {
		if deal.ID == id {
			deal.AIPriority = &ann.Priority
			deal.AINextAction = &ann.NextAction
			deal.AIStalenessScore = &ann.StalenessScore
			deal.AIConfidence = &ann.Confidence
			deal.UpdatedAt = time.Now()
			return deal, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeDealRepo) All(_ context.Context) ([]*models.Deal, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.deals, nil
}

type fakeTicketRepo struct {
	tickets []*models.SupportTicket

	createErr    error
	getErr       error
	listErr      error
	updateErr    error
	deleteErr    error
	sentimentErr error
	allErr       error
}

var _ repositories.TicketRepository = (*fakeTicketRepo)(nil)

func (r *fakeTicketRepo) Create(_ context.Context, ticket *models.SupportTicket) error {
	if r.createErr != nil {
		return r.createErr
	}
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets = append(r.tickets, ticket)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, ticket := range r.tickets {
		if ticket.ID == id {
			return ticket, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTicketRepo) List(_ context.Context, filter repositories.TicketFilter, skip, limit int) ([]*models.SupportTicket, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.SupportTicket
	for _, ticket := range r.tickets {
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && ticket.Priority != filter.Priority {
			continue
		}
		matched = append(matched, ticket)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeTicketRepo) Update(_ context.Context, id uuid.UUID, patch models.TicketPatch) (*models.SupportTicket, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, ticket := range r.tickets {
		if ticket.ID != id {
			continue
		}
		if patch.Subject != nil {
			ticket.Subject = *patch.Subject
		}
		if patch.Description != nil {
			ticket.Description = *patch.Description
		}
		if patch.Status != nil {
			ticket.Status = *patch.Status
		}
		if patch.Priority != nil {
			ticket.Priority = *patch.Priority
		}
		ticket.UpdatedAt = time.Now()
		return ticket, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTicketRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, ticket := range r.tickets {
		if ticket.ID == id {
			r.tickets = append(r.tickets[:i], r.tickets[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeTicketRepo) SetSentiment(_ context.Context, id uuid.UUID, sentiment float64) (*models.SupportTicket, error) {
	if r.sentimentErr != nil {
		return nil, r.sentimentErr
	}
	for _, ticket := range r.tickets {
		if ticket.ID == id {
			ticket.AISentiment = &sentiment
			ticket.UpdatedAt = time.Now()
			return ticket, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTicketRepo) All(_ context.Context) ([]*models.SupportTicket, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	return r.tickets, nil
}

type fakeWorkflowRepo struct {
	workflows []*models.Workflow

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
}

var _ repositories.WorkflowRepository = (*fakeWorkflowRepo)(nil)

func (r *fakeWorkflowRepo) Create(_ context.Context, wf *models.Workflow) error {
	if r.createErr != nil {
		return r.createErr
	}
	if wf.ID == uuid.Nil {
		wf.ID = uuid.New()
	}
	now := time.Now()
	wf.CreatedAt = now
	wf.UpdatedAt = now
	r.workflows = append(r.workflows, wf)
	return nil
}

func (r *fakeWorkflowRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Workflow, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, wf := range r.workflows {
		if wf.ID == id {
			return wf, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeWorkflowRepo) List(_ context.Context, filter repositories.WorkflowFilter, skip, limit int) ([]*models.Workflow, int, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var matched []*models.Workflow
	for _, wf := range r.workflows {
		if filter.TriggerType != "" && wf.TriggerType != filter.TriggerType {
			continue
		}
		if filter.IsActive != nil && wf.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, wf)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeWorkflowRepo) Update(_ context.Context, id uuid.UUID, patch models.WorkflowPatch) (*models.Workflow, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	for _, wf := range r.workflows {
		if wf.ID != id {
			continue
		}
		if patch.Name != nil {
			wf.Name = *patch.Name
		}
		if patch.Description != nil {
			wf.Description = *patch.Description
		}
		if patch.TriggerConfig != nil {
			wf.TriggerConfig = *patch.TriggerConfig
		}
		if patch.Actions != nil {
			wf.Actions = *patch.Actions
		}
		if patch.IsActive != nil {
			wf.IsActive = *patch.IsActive
		}
		wf.UpdatedAt = time.Now()
		return wf, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeWorkflowRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, wf := range r.workflows {
		if wf.ID == id {
			r.workflows = append(r.workflows[:i], r.workflows[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeArtifactRepo mirrors the document store: insertion-order records with
// the same status transition rules as the real repository.
type fakeArtifactRepo struct {
	artifacts []*models.Artifact

	insertErr    error
	getErr       error
	findErr      error
	patchErr     error
	patchExecErr error
}

var _ repositories.ArtifactRepository = (*fakeArtifactRepo)(nil)

func (r *fakeArtifactRepo) Insert(_ context.Context, artifact *models.Artifact) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	artifact.CreatedAt = time.Now()
	r.artifacts = append(r.artifacts, artifact)
	return nil
}

func (r *fakeArtifactRepo) GetByID(_ context.Context, id string) (*models.Artifact, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, a := range r.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeArtifactRepo) Find(_ context.Context, kind, refID string, skip, limit int) ([]*models.Artifact, int, error) {
	if r.findErr != nil {
		return nil, 0, r.findErr
	}
	var matched []*models.Artifact
	for _, a := range r.artifacts {
		if a.Kind != kind {
			continue
		}
		if refID != "" && a.RefID != refID {
			continue
		}
		matched = append(matched, a)
	}
	return pageSlice(matched, skip, limit), len(matched), nil
}

func (r *fakeArtifactRepo) PatchStatus(_ context.Context, id, status string) (*models.Artifact, error) {
	if r.patchErr != nil {
		return nil, r.patchErr
	}
	for _, a := range r.artifacts {
		if a.ID != id {
			continue
		}
		if !models.CanTransition(a.Kind, a.Status, status) {
			return nil, fmt.Errorf("cannot move %s from %s to %s: %w", a.Kind, a.Status, status, apperrors.ErrValidation)
		}
		a.Status = status
		return a, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeArtifactRepo) PatchExecution(_ context.Context, id, status string, payload json.RawMessage) (*models.Artifact, error) {
	if r.patchExecErr != nil {
		return nil, r.patchExecErr
	}
	for _, a := range r.artifacts {
		if a.ID != id {
			continue
		}
		if a.Kind != models.ArtifactExecution {
			return nil, fmt.Errorf("%s artifacts have no execution payload: %w", a.Kind, apperrors.ErrValidation)
		}
		if !models.CanTransition(a.Kind, a.Status, status) {
			return nil, fmt.Errorf("cannot move %s from %s to %s: %w", a.Kind, a.Status, status, apperrors.ErrValidation)
		}
		a.Status = status
		a.Payload = payload
		return a, nil
	}
	return nil, apperrors.ErrNotFound
}
