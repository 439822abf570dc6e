package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/pipeline"
	"github.com/smartbizhq/smartbiz-engine/pkg/prompts"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// CreateTaskInput carries a new operational task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

// OperationsService owns tasks, their AI insights, and the per-user
// notification feed. Task operations require the operations-manager
// capability; the notification feed only requires authentication.
type OperationsService interface {
	CreateTask(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error)
	GetTask(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, actor *models.User, filter repositories.TaskFilter, skip, limit int) ([]*models.Task, int, error)
	UpdateTask(ctx context.Context, actor *models.User, id uuid.UUID, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, actor *models.User, id uuid.UUID) error

	// TaskInsights summarizes the whole task board in free text.
	TaskInsights(ctx context.Context, actor *models.User) (string, error)

	// WorkloadOptimization advises the actor on their own open workload.
	WorkloadOptimization(ctx context.Context, actor *models.User) (string, error)

	ListNotifications(ctx context.Context, actor *models.User, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, actor *models.User, id uuid.UUID) error
}

type operationsService struct {
	taskRepo  repositories.TaskRepository
	notifRepo repositories.NotificationRepository
	ai        llm.Completer
	logger    *zap.Logger
}

// NewOperationsService creates a new operations service with dependencies.
func NewOperationsService(
	taskRepo repositories.TaskRepository,
	notifRepo repositories.NotificationRepository,
	ai llm.Completer,
	logger *zap.Logger,
) OperationsService {
	return &operationsService{
		taskRepo:  taskRepo,
		notifRepo: notifRepo,
		ai:        ai,
		logger:    logger,
	}
}

var _ OperationsService = (*operationsService)(nil)

func (s *operationsService) CreateTask(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error) {
	trace := pipeline.NewTrace(s.logger, "erp.create_task")
	if err := auth.Authorize(actor, models.RoleOperationsManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	status := in.Status
	if status == "" {
		status = models.TaskTodo
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidTaskStatus(status) {
		err := fmt.Errorf("invalid task status %q: %w", in.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if !models.IsValidTaskPriority(priority) {
		err := fmt.Errorf("invalid task priority %q: %w", in.Priority, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  in.AssigneeID,
		DueDate:     in.DueDate,
		CreatedBy:   actor.ID,
	}
	// Unassigned tasks land on whoever filed them.
	if task.AssigneeID == nil {
		id := actor.ID
		task.AssigneeID = &id
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return task, nil
}

func (s *operationsService) GetTask(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error) {
	trace := pipeline.NewTrace(s.logger, "erp.get_task")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return task, nil
}

func (s *operationsService) ListTasks(ctx context.Context, actor *models.User, filter repositories.TaskFilter, skip, limit int) ([]*models.Task, int, error) {
	trace := pipeline.NewTrace(s.logger, "erp.list_tasks")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	tasks, total, err := s.taskRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return tasks, total, nil
}

func (s *operationsService) UpdateTask(ctx context.Context, actor *models.User, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	trace := pipeline.NewTrace(s.logger, "erp.update_task")
	if err := auth.Authorize(actor, models.RoleOperationsManager); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Status != nil && !models.IsValidTaskStatus(*patch.Status) {
		err := fmt.Errorf("invalid task status %q: %w", *patch.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if patch.Priority != nil && !models.IsValidTaskPriority(*patch.Priority) {
		err := fmt.Errorf("invalid task priority %q: %w", *patch.Priority, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	task, err := s.taskRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return task, nil
}

func (s *operationsService) DeleteTask(ctx context.Context, actor *models.User, id uuid.UUID) error {
	trace := pipeline.NewTrace(s.logger, "erp.delete_task")
	if err := auth.Authorize(actor, models.RoleOperationsManager); err != nil {
		trace.Fail(err)
		return err
	}
	trace.Advance(pipeline.StageAuthorized)
	trace.Advance(pipeline.StageDataFetched)

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		trace.Fail(err)
		return err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return nil
}

func (s *operationsService) TaskInsights(ctx context.Context, actor *models.User) (string, error) {
	trace := pipeline.NewTrace(s.logger, "erp.task_insights")
	if err := auth.Authorize(actor, models.RoleOperationsManager); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	tasks, err := s.taskRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	digests := make([]prompts.TaskDigest, len(tasks))
	for i, t := range tasks {
		digests[i] = prompts.TaskDigest{
			ID:        t.ID.String(),
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
			UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
		}
	}

	text, err := completeText(ctx, s.ai, trace, prompts.KindTaskInsights, prompts.TaskInsightsParams{Tasks: digests})
	if err != nil {
		return "", fmt.Errorf("failed to generate task insights: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}

func (s *operationsService) WorkloadOptimization(ctx context.Context, actor *models.User) (string, error) {
	trace := pipeline.NewTrace(s.logger, "erp.workload_optimization")
	if err := auth.Authorize(actor, models.RoleOperationsManager); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	tasks, err := s.taskRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	byPriority := map[string]int{
		models.PriorityHigh:   0,
		models.PriorityMedium: 0,
		models.PriorityLow:    0,
	}
	byStatus := map[string]int{
		models.TaskTodo:       0,
		models.TaskInProgress: 0,
		models.TaskDone:       0,
		models.TaskBlocked:    0,
	}
	total := 0
	for _, t := range tasks {
		if t.AssigneeID == nil || *t.AssigneeID != actor.ID {
			continue
		}
		total++
		byPriority[t.Priority]++
		byStatus[t.Status]++
	}

	params := prompts.WorkloadOptimizationParams{
		UserID:          actor.ID.String(),
		TotalTasks:      total,
		TasksByPriority: byPriority,
		TasksByStatus:   byStatus,
	}
	text, err := completeText(ctx, s.ai, trace, prompts.KindWorkloadOptimization, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate workload advice: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}

func (s *operationsService) ListNotifications(ctx context.Context, actor *models.User, limit int) ([]*models.Notification, error) {
	trace := pipeline.NewTrace(s.logger, "erp.list_notifications")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	notifications, err := s.notifRepo.ListByUser(ctx, actor.ID, limit)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return notifications, nil
}

func (s *operationsService) MarkNotificationRead(ctx context.Context, actor *models.User, id uuid.UUID) error {
	trace := pipeline.NewTrace(s.logger, "erp.mark_notification_read")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return err
	}
	trace.Advance(pipeline.StageAuthorized)
	trace.Advance(pipeline.StageDataFetched)

	if err := s.notifRepo.MarkRead(ctx, id, actor.ID); err != nil {
		trace.Fail(err)
		return err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return nil
}
