package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/database"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// WorkflowFilter narrows a workflow list. Zero values mean no filter.
type WorkflowFilter struct {
	TriggerType string
	IsActive    *bool
}

// WorkflowRepository provides data access for automation workflows.
type WorkflowRepository interface {
	Create(ctx context.Context, wf *models.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error)
	List(ctx context.Context, filter WorkflowFilter, skip, limit int) ([]*models.Workflow, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.WorkflowPatch) (*models.Workflow, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type workflowRepository struct {
	db *database.DB
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *database.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

var _ WorkflowRepository = (*workflowRepository)(nil)

const workflowColumns = `id, name, description, trigger_type, trigger_config, actions, is_active, created_by, created_at, updated_at`

func (r *workflowRepository) Create(ctx context.Context, wf *models.Workflow) error {
	if wf.ID == uuid.Nil {
		wf.ID = uuid.New()
	}
	now := time.Now()
	wf.CreatedAt = now
	wf.UpdatedAt = now
	if wf.TriggerConfig == nil {
		wf.TriggerConfig = json.RawMessage(`{}`)
	}

	actions, err := marshalActions(wf.Actions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflows (id, name, description, trigger_type, trigger_config, actions, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		wf.ID, wf.Name, wf.Description, wf.TriggerType, wf.TriggerConfig,
		actions, wf.IsActive, wf.CreatedBy, wf.CreatedAt, wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	return nil
}

func (r *workflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflows WHERE id = $1`, workflowColumns)

	wf, err := scanWorkflow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	return wf, nil
}

func (r *workflowRepository) List(ctx context.Context, filter WorkflowFilter, skip, limit int) ([]*models.Workflow, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.TriggerType != "" {
		conditions = append(conditions, fmt.Sprintf("trigger_type = $%d", argIdx))
		args = append(args, filter.TriggerType)
		argIdx++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM workflows WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count workflows: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM workflows
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, workflowColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var wfs []*models.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan workflow: %w", err)
		}
		wfs = append(wfs, wf)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating workflows: %w", err)
	}

	return wfs, total, nil
}

func (r *workflowRepository) Update(ctx context.Context, id uuid.UUID, patch models.WorkflowPatch) (*models.Workflow, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *patch.Name)
		argIdx++
	}
	if patch.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *patch.Description)
		argIdx++
	}
	if patch.TriggerConfig != nil {
		sets = append(sets, fmt.Sprintf("trigger_config = $%d", argIdx))
		args = append(args, *patch.TriggerConfig)
		argIdx++
	}
	if patch.Actions != nil {
		actions, err := marshalActions(*patch.Actions)
		if err != nil {
			return nil, err
		}
		sets = append(sets, fmt.Sprintf("actions = $%d", argIdx))
		args = append(args, actions)
		argIdx++
	}
	if patch.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *patch.IsActive)
		argIdx++
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE workflows SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, workflowColumns)

	wf, err := scanWorkflow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return wf, nil
}

func (r *workflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// marshalActions serializes the action list to a single JSONB value.
func marshalActions(actions []json.RawMessage) (json.RawMessage, error) {
	if actions == nil {
		return json.RawMessage(`[]`), nil
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow actions: %w", err)
	}
	return data, nil
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	wf := &models.Workflow{}
	var actions json.RawMessage
	err := row.Scan(
		&wf.ID, &wf.Name, &wf.Description, &wf.TriggerType, &wf.TriggerConfig,
		&actions, &wf.IsActive, &wf.CreatedBy, &wf.CreatedAt, &wf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(actions, &wf.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow actions: %w", err)
	}

	return wf, nil
}
