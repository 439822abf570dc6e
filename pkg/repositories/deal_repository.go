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

// DealFilter narrows a deal list. Zero values mean no filter.
type DealFilter struct {
	Stage   string
	OwnerID *uuid.UUID
	LeadID  *uuid.UUID
}

// DealRepository provides data access for sales deals.
type DealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	List(ctx context.Context, filter DealFilter, skip, limit int) ([]*models.Deal, int, error)
	// Update applies a partial update. A stage change also bumps LastActive.
	Update(ctx context.Context, id uuid.UUID, patch models.DealPatch) (*models.Deal, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetAnnotation overwrites the AI priority fields. Last write wins; no
	// history is retained.
	SetAnnotation(ctx context.Context, id uuid.UUID, ann models.DealAnnotation) (*models.Deal, error)
	// All returns every deal, oldest first, for pipeline analytics.
	All(ctx context.Context) ([]*models.Deal, error)
}

type dealRepository struct {
	db *database.DB
}

// NewDealRepository creates a new deal repository.
func NewDealRepository(db *database.DB) DealRepository {
	return &dealRepository{db: db}
}

var _ DealRepository = (*dealRepository)(nil)

const dealColumns = `id, lead_id, title, amount, stage, close_date, last_active, ai_priority, ai_next_action, ai_staleness_score, ai_confidence, owner_id, created_at, updated_at`

func (r *dealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now
	if deal.LastActive.IsZero() {
		deal.LastActive = now
	}

	query := `
		INSERT INTO deals (id, lead_id, title, amount, stage, close_date, last_active, ai_priority, ai_next_action, ai_staleness_score, ai_confidence, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		deal.ID, deal.LeadID, deal.Title, deal.Amount, deal.Stage,
		deal.CloseDate, deal.LastActive,
		deal.AIPriority, deal.AINextAction, deal.AIStalenessScore, deal.AIConfidence,
		deal.OwnerID, deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	return nil
}

func (r *dealRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	query := fmt.Sprintf(`SELECT %s FROM deals WHERE id = $1`, dealColumns)

	deal, err := scanDeal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return deal, nil
}

func (r *dealRepository) List(ctx context.Context, filter DealFilter, skip, limit int) ([]*models.Deal, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, filter.Stage)
		argIdx++
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, *filter.OwnerID)
		argIdx++
	}
	if filter.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argIdx))
		args = append(args, *filter.LeadID)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM deals WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count deals: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM deals
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, dealColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals, err := collectDeals(rows)
	if err != nil {
		return nil, 0, err
	}

	return deals, total, nil
}

func (r *dealRepository) Update(ctx context.Context, id uuid.UUID, patch models.DealPatch) (*models.Deal, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *patch.Title)
		argIdx++
	}
	if patch.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", argIdx))
		args = append(args, *patch.Amount)
		argIdx++
	}
	if patch.Stage != nil {
		sets = append(sets, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, *patch.Stage)
		argIdx++
		sets = append(sets, fmt.Sprintf("last_active = $%d", argIdx))
		args = append(args, time.Now())
		argIdx++
	}
	if patch.CloseDate != nil {
		sets = append(sets, fmt.Sprintf("close_date = $%d", argIdx))
		args = append(args, *patch.CloseDate)
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
		UPDATE deals SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, dealColumns)

	deal, err := scanDeal(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	return deal, nil
}

func (r *dealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *dealRepository) SetAnnotation(ctx context.Context, id uuid.UUID, ann models.DealAnnotation) (*models.Deal, error) {
	query := fmt.Sprintf(`
		UPDATE deals
		SET ai_priority = $1, ai_next_action = $2, ai_staleness_score = $3, ai_confidence = $4, updated_at = $5
		WHERE id = $6
		RETURNING %s`, dealColumns)

	deal, err := scanDeal(r.db.QueryRow(ctx, query,
		ann.Priority, ann.NextAction, ann.StalenessScore, ann.Confidence, time.Now(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set deal annotation: %w", err)
	}

	return deal, nil
}

func (r *dealRepository) All(ctx context.Context) ([]*models.Deal, error) {
	query := fmt.Sprintf(`SELECT %s FROM deals ORDER BY created_at`, dealColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load deals: %w", err)
	}
	defer rows.Close()

	return collectDeals(rows)
}

func scanDeal(row rowScanner) (*models.Deal, error) {
	deal := &models.Deal{}
	err := row.Scan(
		&deal.ID, &deal.LeadID, &deal.Title, &deal.Amount, &deal.Stage,
		&deal.CloseDate, &deal.LastActive,
		&deal.AIPriority, &deal.AINextAction, &deal.AIStalenessScore, &deal.AIConfidence,
		&deal.OwnerID, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return deal, nil
}

func collectDeals(rows pgx.Rows) ([]*models.Deal, error) {
	var deals []*models.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, deal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}

	return deals, nil
}
