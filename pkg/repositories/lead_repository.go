package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/database"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// LeadFilter narrows a lead list. Zero values mean no filter.
type LeadFilter struct {
	Status  string
	Source  string
	OwnerID *uuid.UUID
}

// LeadRepository provides data access for CRM leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context, filter LeadFilter, skip, limit int) ([]*models.Lead, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.LeadPatch) (*models.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetAnnotation overwrites the AI scoring fields. Last write wins; no
	// history is retained.
	SetAnnotation(ctx context.Context, id uuid.UUID, ann models.LeadAnnotation) (*models.Lead, error)
	// All returns every lead, oldest first, for aggregate insight prompts.
	All(ctx context.Context) ([]*models.Lead, error)
}

type leadRepository struct {
	db *database.DB
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db *database.DB) LeadRepository {
	return &leadRepository{db: db}
}

var _ LeadRepository = (*leadRepository)(nil)

const leadColumns = `id, name, email, company, industry, status, source, notes, ai_score, ai_segment, ai_next_action, ai_confidence, owner_id, created_at, updated_at`

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	query := `
		INSERT INTO leads (id, name, email, company, industry, status, source, notes, ai_score, ai_segment, ai_next_action, ai_confidence, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Company, lead.Industry,
		lead.Status, lead.Source, lead.Notes,
		lead.AIScore, lead.AISegment, lead.AINextAction, lead.AIConfidence,
		lead.OwnerID, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter, skip, limit int) ([]*models.Lead, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, *filter.OwnerID)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM leads WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, leadColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

func (r *leadRepository) Update(ctx context.Context, id uuid.UUID, patch models.LeadPatch) (*models.Lead, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *patch.Name)
		argIdx++
	}
	if patch.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *patch.Email)
		argIdx++
	}
	if patch.Company != nil {
		sets = append(sets, fmt.Sprintf("company = $%d", argIdx))
		args = append(args, *patch.Company)
		argIdx++
	}
	if patch.Industry != nil {
		sets = append(sets, fmt.Sprintf("industry = $%d", argIdx))
		args = append(args, *patch.Industry)
		argIdx++
	}
	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *patch.Status)
		argIdx++
	}
	if patch.Source != nil {
		sets = append(sets, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, *patch.Source)
		argIdx++
	}
	if patch.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, *patch.Notes)
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
		UPDATE leads SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	return lead, nil
}

func (r *leadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *leadRepository) SetAnnotation(ctx context.Context, id uuid.UUID, ann models.LeadAnnotation) (*models.Lead, error) {
	query := fmt.Sprintf(`
		UPDATE leads
		SET ai_score = $1, ai_segment = $2, ai_next_action = $3, ai_confidence = $4, updated_at = $5
		WHERE id = $6
		RETURNING %s`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query,
		ann.Score, ann.Segment, ann.NextAction, ann.Confidence, time.Now(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set lead annotation: %w", err)
	}

	return lead, nil
}

func (r *leadRepository) All(ctx context.Context) ([]*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads ORDER BY created_at`, leadColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

func scanLead(row rowScanner) (*models.Lead, error) {
	lead := &models.Lead{}
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Company, &lead.Industry,
		&lead.Status, &lead.Source, &lead.Notes,
		&lead.AIScore, &lead.AISegment, &lead.AINextAction, &lead.AIConfidence,
		&lead.OwnerID, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]*models.Lead, error) {
	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return leads, nil
}
