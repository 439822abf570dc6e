package services

import (
	"context"
	"encoding/json"
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

// CreateWorkflowInput carries a new automation workflow.
type CreateWorkflowInput struct {
	Name          string
	Description   string
	TriggerType   string
	TriggerConfig json.RawMessage
	Actions       []json.RawMessage
	IsActive      *bool
}

// ExecutionPayload is the document body of a workflow execution record. It
// is written once with status running and settled once with the outcome.
type ExecutionPayload struct {
	WorkflowID  string                     `json:"workflow_id"`
	InputData   json.RawMessage            `json:"input_data,omitempty"`
	OutputData  map[string]json.RawMessage `json:"output_data"`
	Plan        *models.ExecutionPlan      `json:"execution_plan,omitempty"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// WorkflowService owns automation workflows, their execution records, and
// workflow analytics. Mutations, execution, and analytics require the admin
// capability; reads require authentication only.
type WorkflowService interface {
	// CreateWorkflow stores a workflow together with the model's review of
	// it. The review is advisory: a workflow flagged invalid is still
	// created.
	CreateWorkflow(ctx context.Context, actor *models.User, in CreateWorkflowInput) (*models.Workflow, *models.WorkflowValidation, error)
	GetWorkflow(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Workflow, error)
	ListWorkflows(ctx context.Context, actor *models.User, filter repositories.WorkflowFilter, skip, limit int) ([]*models.Workflow, int, error)
	UpdateWorkflow(ctx context.Context, actor *models.User, id uuid.UUID, patch models.WorkflowPatch) (*models.Workflow, error)

	// ExecuteWorkflow runs an active workflow's actions through the model.
	// The execution record is returned for both outcomes; a failed run is
	// not an error of this call.
	ExecuteWorkflow(ctx context.Context, actor *models.User, id uuid.UUID, inputData json.RawMessage) (*models.Artifact, error)
	ListExecutions(ctx context.Context, actor *models.User, workflowID uuid.UUID, skip, limit int) ([]*models.Artifact, int, error)

	// WorkflowPerformance reviews a workflow's execution history in free
	// text.
	WorkflowPerformance(ctx context.Context, actor *models.User, workflowID uuid.UUID) (string, error)

	// WorkflowOptimization suggests improvements to a workflow definition.
	WorkflowOptimization(ctx context.Context, actor *models.User, workflowID uuid.UUID) (string, error)
}

type workflowService struct {
	workflowRepo repositories.WorkflowRepository
	artifactRepo repositories.ArtifactRepository
	notifRepo    repositories.NotificationRepository
	ai           llm.Completer
	logger       *zap.Logger
}

// NewWorkflowService creates a new workflow service with dependencies.
func NewWorkflowService(
	workflowRepo repositories.WorkflowRepository,
	artifactRepo repositories.ArtifactRepository,
	notifRepo repositories.NotificationRepository,
	ai llm.Completer,
	logger *zap.Logger,
) WorkflowService {
	return &workflowService{
		workflowRepo: workflowRepo,
		artifactRepo: artifactRepo,
		notifRepo:    notifRepo,
		ai:           ai,
		logger:       logger,
	}
}

var _ WorkflowService = (*workflowService)(nil)

func (s *workflowService) CreateWorkflow(ctx context.Context, actor *models.User, in CreateWorkflowInput) (*models.Workflow, *models.WorkflowValidation, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.create_workflow")
	if err := auth.Authorize(actor, models.RoleAdmin); err != nil {
		trace.Fail(err)
		return nil, nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if in.TriggerType == "" {
		err := fmt.Errorf("workflow trigger type is required: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, nil, err
	}
	if len(in.Actions) == 0 {
		err := fmt.Errorf("workflow needs at least one action: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.WorkflowValidationParams{
		Name:          in.Name,
		TriggerType:   in.TriggerType,
		TriggerConfig: in.TriggerConfig,
		Actions:       in.Actions,
	}
	var validation models.WorkflowValidation
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindWorkflowValidation, params, workflowValidationSchema, &validation); err != nil {
		return nil, nil, fmt.Errorf("failed to validate workflow: %w", err)
	}

	workflow := &models.Workflow{
		Name:          in.Name,
		Description:   in.Description,
		TriggerType:   in.TriggerType,
		TriggerConfig: in.TriggerConfig,
		Actions:       in.Actions,
		IsActive:      true,
		CreatedBy:     actor.ID,
	}
	if in.IsActive != nil {
		workflow.IsActive = *in.IsActive
	}

	if err := s.workflowRepo.Create(ctx, workflow); err != nil {
		trace.Fail(err)
		return nil, nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return workflow, &validation, nil
}

func (s *workflowService) GetWorkflow(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Workflow, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.get_workflow")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return workflow, nil
}

func (s *workflowService) ListWorkflows(ctx context.Context, actor *models.User, filter repositories.WorkflowFilter, skip, limit int) ([]*models.Workflow, int, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.list_workflows")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	workflows, total, err := s.workflowRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return workflows, total, nil
}

func (s *workflowService) UpdateWorkflow(ctx context.Context, actor *models.User, id uuid.UUID, patch models.WorkflowPatch) (*models.Workflow, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.update_workflow")
	if err := auth.Authorize(actor, models.RoleAdmin); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Actions != nil && len(*patch.Actions) == 0 {
		err := fmt.Errorf("workflow needs at least one action: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	workflow, err := s.workflowRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return workflow, nil
}

func (s *workflowService) ExecuteWorkflow(ctx context.Context, actor *models.User, id uuid.UUID, inputData json.RawMessage) (*models.Artifact, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.execute_workflow")
	if err := auth.Authorize(actor, models.RoleAdmin); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	if !workflow.IsActive {
		err := fmt.Errorf("workflow %s is not active: %w", id, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	planParams := prompts.ExecutionPlanParams{
		WorkflowName: workflow.Name,
		TriggerType:  workflow.TriggerType,
		InputData:    inputData,
		Actions:      workflow.Actions,
	}
	var plan models.ExecutionPlan
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindExecutionPlan, planParams, executionPlanSchema, &plan); err != nil {
		return nil, fmt.Errorf("failed to plan execution: %w", err)
	}

	payload := ExecutionPayload{
		WorkflowID: workflow.ID.String(),
		InputData:  inputData,
		OutputData: make(map[string]json.RawMessage),
		Plan:       &plan,
		StartedAt:  time.Now(),
	}
	record, err := s.insertRunning(ctx, actor, workflow, payload)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}

	runErr := s.runActions(ctx, workflow, inputData, payload.OutputData)
	if runErr != nil {
		payload.Error = runErr.Error()
		record, err = s.settle(ctx, record.ID, models.ExecutionFailed, payload)
		if err != nil {
			trace.Fail(err)
			return nil, err
		}
		s.notifyExecutionFailed(ctx, actor, workflow, runErr)
	} else {
		now := time.Now()
		payload.CompletedAt = &now
		record, err = s.settle(ctx, record.ID, models.ExecutionCompleted, payload)
		if err != nil {
			trace.Fail(err)
			return nil, err
		}
	}

	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return record, nil
}

// insertRunning writes the execution record in its running state so the run
// is observable before any action resolves.
func (s *workflowService) insertRunning(ctx context.Context, actor *models.User, workflow *models.Workflow, payload ExecutionPayload) (*models.Artifact, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execution payload: %w", err)
	}
	record := &models.Artifact{
		Kind:      models.ArtifactExecution,
		Status:    models.ExecutionRunning,
		Payload:   data,
		RefID:     workflow.ID.String(),
		CreatedBy: actor.ID,
	}
	if err := s.artifactRepo.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// runActions feeds each action through the model in order, collecting
// outputs by action id. The first failure stops the run.
func (s *workflowService) runActions(ctx context.Context, workflow *models.Workflow, inputData json.RawMessage, outputs map[string]json.RawMessage) error {
	for i, action := range workflow.Actions {
		actionID := models.ActionID(action)
		if actionID == "" {
			return fmt.Errorf("action %d has no id", i)
		}

		prompt, err := prompts.Assemble(prompts.KindWorkflowAction, prompts.WorkflowActionParams{
			Action:    action,
			InputData: inputData,
		})
		if err != nil {
			return fmt.Errorf("action %s: %w", actionID, err)
		}

		completion, err := s.ai.CompleteJSON(ctx, llm.CompletionRequest{
			System:   prompts.SystemMessage(prompts.KindWorkflowAction),
			Prompt:   prompt,
			JSONOnly: true,
		}, actionOutputSchema, nil)
		if err != nil {
			return fmt.Errorf("action %s failed: %w", actionID, err)
		}
		outputs[actionID] = json.RawMessage(completion.Text)
	}
	return nil
}

// settle writes the final status and payload of an execution record.
func (s *workflowService) settle(ctx context.Context, recordID, status string, payload ExecutionPayload) (*models.Artifact, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execution payload: %w", err)
	}
	return s.artifactRepo.PatchExecution(ctx, recordID, status, data)
}

// notifyExecutionFailed posts an alert to whoever triggered the run. Best
// effort: the execution record already holds the failure.
func (s *workflowService) notifyExecutionFailed(ctx context.Context, actor *models.User, workflow *models.Workflow, runErr error) {
	n := &models.Notification{
		UserID:  actor.ID,
		Title:   "Workflow execution failed",
		Message: fmt.Sprintf("Workflow %q failed: %s", workflow.Name, runErr),
		Kind:    models.NotificationAlert,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create execution failure notification",
			zap.String("workflow_id", workflow.ID.String()),
			zap.Error(err))
	}
}

func (s *workflowService) ListExecutions(ctx context.Context, actor *models.User, workflowID uuid.UUID, skip, limit int) ([]*models.Artifact, int, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.list_executions")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if _, err := s.workflowRepo.GetByID(ctx, workflowID); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}

	records, total, err := s.artifactRepo.Find(ctx, models.ArtifactExecution, workflowID.String(), skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return records, total, nil
}

func (s *workflowService) WorkflowPerformance(ctx context.Context, actor *models.User, workflowID uuid.UUID) (string, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.workflow_performance")
	if err := auth.Authorize(actor, models.RoleAdmin); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	records, _, err := s.artifactRepo.Find(ctx, models.ArtifactExecution, workflowID.String(), 0, 0)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	digests := make([]prompts.ExecutionDigest, len(records))
	for i, record := range records {
		var payload ExecutionPayload
		if err := json.Unmarshal(record.Payload, &payload); err != nil {
			trace.Fail(err)
			return "", fmt.Errorf("failed to decode execution record %s: %w", record.ID, err)
		}
		digest := prompts.ExecutionDigest{
			ID:        record.ID,
			Status:    record.Status,
			StartedAt: payload.StartedAt.Format(time.RFC3339),
			Error:     payload.Error,
		}
		if payload.CompletedAt != nil {
			digest.CompletedAt = payload.CompletedAt.Format(time.RFC3339)
		}
		digests[i] = digest
	}

	params := prompts.WorkflowPerformanceParams{
		WorkflowName: workflow.Name,
		TriggerType:  workflow.TriggerType,
		Executions:   digests,
	}
	text, err := completeText(ctx, s.ai, trace, prompts.KindWorkflowPerformance, params)
	if err != nil {
		return "", fmt.Errorf("failed to analyze workflow performance: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}

func (s *workflowService) WorkflowOptimization(ctx context.Context, actor *models.User, workflowID uuid.UUID) (string, error) {
	trace := pipeline.NewTrace(s.logger, "workflows.workflow_optimization")
	if err := auth.Authorize(actor, models.RoleAdmin); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.WorkflowOptimizationParams{
		Name:          workflow.Name,
		Description:   workflow.Description,
		TriggerType:   workflow.TriggerType,
		TriggerConfig: workflow.TriggerConfig,
		Actions:       workflow.Actions,
	}
	text, err := completeText(ctx, s.ai, trace, prompts.KindWorkflowOptimization, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate workflow optimization advice: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}
