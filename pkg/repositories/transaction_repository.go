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

// TransactionFilter narrows a transaction list. Zero values mean no filter.
type TransactionFilter struct {
	Type     string
	Category string
	From     *time.Time
	Until    *time.Time
}

// TransactionRepository provides data access for financial transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter TransactionFilter, skip, limit int) ([]*models.Transaction, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.TransactionPatch) (*models.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// AllOrdered returns every transaction in date order, oldest first.
	// Analytics depends on this ordering for period bucketing and for
	// first-occurrence category ordering.
	AllOrdered(ctx context.Context) ([]*models.Transaction, error)
	// SumsBetween returns income and expense totals over [from, until].
	SumsBetween(ctx context.Context, from, until time.Time) (income, expense float64, err error)
	// ListRecent returns the newest transactions by business date.
	ListRecent(ctx context.Context, limit int) ([]*models.Transaction, error)
}

type transactionRepository struct {
	db *database.DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *database.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

var _ TransactionRepository = (*transactionRepository)(nil)

const transactionColumns = `id, type, category, amount, description, date, created_by, created_at, updated_at`

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	query := `
		INSERT INTO transactions (id, type, category, amount, description, date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		tx.ID, tx.Type, tx.Category, tx.Amount, tx.Description, tx.Date,
		tx.CreatedBy, tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)

	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter, skip, limit int) ([]*models.Transaction, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, filter.Type)
		argIdx++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.Until != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argIdx))
		args = append(args, *filter.Until)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM transactions WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE %s
		ORDER BY date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, transactionColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *transactionRepository) Update(ctx context.Context, id uuid.UUID, patch models.TransactionPatch) (*models.Transaction, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.Type != nil {
		sets = append(sets, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *patch.Type)
		argIdx++
	}
	if patch.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *patch.Category)
		argIdx++
	}
	if patch.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", argIdx))
		args = append(args, *patch.Amount)
		argIdx++
	}
	if patch.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *patch.Description)
		argIdx++
	}
	if patch.Date != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", argIdx))
		args = append(args, *patch.Date)
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
		UPDATE transactions SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, transactionColumns)

	tx, err := scanTransaction(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	return tx, nil
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *transactionRepository) AllOrdered(ctx context.Context) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		ORDER BY date, created_at`, transactionColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *transactionRepository) SumsBetween(ctx context.Context, from, until time.Time) (float64, float64, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE date BETWEEN $1 AND $2`

	var income, expense float64
	if err := r.db.QueryRow(ctx, query, from, until).Scan(&income, &expense); err != nil {
		return 0, 0, fmt.Errorf("failed to sum transactions: %w", err)
	}

	return income, expense, nil
}

func (r *transactionRepository) ListRecent(ctx context.Context, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		ORDER BY date DESC, created_at DESC
		LIMIT $1`, transactionColumns)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(
		&tx.ID, &tx.Type, &tx.Category, &tx.Amount, &tx.Description,
		&tx.Date, &tx.CreatedBy, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func collectTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}
