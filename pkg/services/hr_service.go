package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/pipeline"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// CreateEmployeeInput carries a new staff record.
type CreateEmployeeInput struct {
	FullName   string
	Email      string
	Position   string
	Department string
	Salary     float64
	HireDate   time.Time
	IsActive   *bool
}

// HRService owns the employee directory. Mutations require the hr-manager
// capability; reads require authentication only.
type HRService interface {
	CreateEmployee(ctx context.Context, actor *models.User, in CreateEmployeeInput) (*models.Employee, error)
	GetEmployee(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Employee, error)
	ListEmployees(ctx context.Context, actor *models.User, filter repositories.EmployeeFilter, skip, limit int) ([]*models.Employee, int, error)
	UpdateEmployee(ctx context.Context, actor *models.User, id uuid.UUID, patch models.EmployeePatch) (*models.Employee, error)
	RecentHires(ctx context.Context, actor *models.User, limit int) ([]*models.Employee, error)
}

type hrService struct {
	employeeRepo repositories.EmployeeRepository
	logger       *zap.Logger
}

// NewHRService creates a new HR service with dependencies.
func NewHRService(employeeRepo repositories.EmployeeRepository, logger *zap.Logger) HRService {
	return &hrService{
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

var _ HRService = (*hrService)(nil)

func (s *hrService) CreateEmployee(ctx context.Context, actor *models.User, in CreateEmployeeInput) (*models.Employee, error) {
	trace := pipeline.NewTrace(s.logger, "erp.create_employee")
	if err := auth.Authorize(actor, models.RoleHRManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if in.Salary < 0 {
		err := fmt.Errorf("salary must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	emp := &models.Employee{
		FullName:   in.FullName,
		Email:      in.Email,
		Position:   in.Position,
		Department: in.Department,
		Salary:     in.Salary,
		HireDate:   in.HireDate,
		IsActive:   true,
		CreatedBy:  actor.ID,
	}
	if in.IsActive != nil {
		emp.IsActive = *in.IsActive
	}
	if emp.HireDate.IsZero() {
		emp.HireDate = time.Now()
	}

	if err := s.employeeRepo.Create(ctx, emp); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return emp, nil
}

func (s *hrService) GetEmployee(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Employee, error) {
	trace := pipeline.NewTrace(s.logger, "erp.get_employee")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return emp, nil
}

func (s *hrService) ListEmployees(ctx context.Context, actor *models.User, filter repositories.EmployeeFilter, skip, limit int) ([]*models.Employee, int, error) {
	trace := pipeline.NewTrace(s.logger, "erp.list_employees")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	emps, total, err := s.employeeRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return emps, total, nil
}

func (s *hrService) UpdateEmployee(ctx context.Context, actor *models.User, id uuid.UUID, patch models.EmployeePatch) (*models.Employee, error) {
	trace := pipeline.NewTrace(s.logger, "erp.update_employee")
	if err := auth.Authorize(actor, models.RoleHRManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Salary != nil && *patch.Salary < 0 {
		err := fmt.Errorf("salary must not be negative: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	emp, err := s.employeeRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return emp, nil
}

func (s *hrService) RecentHires(ctx context.Context, actor *models.User, limit int) ([]*models.Employee, error) {
	trace := pipeline.NewTrace(s.logger, "erp.recent_hires")
	if err := auth.Authorize(actor, models.RoleHRManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	emps, err := s.employeeRepo.ListRecentActive(ctx, limit)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return emps, nil
}
