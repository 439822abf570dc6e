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

// PayrollFilter narrows a payroll list. Zero values mean no filter.
type PayrollFilter struct {
	EmployeeID *uuid.UUID
	Period     string
	Status     string
}

// PayrollRepository provides data access for payroll records.
type PayrollRepository interface {
	Create(ctx context.Context, rec *models.Payroll) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payroll, error)
	List(ctx context.Context, filter PayrollFilter, skip, limit int) ([]*models.Payroll, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payroll, error)
}

type payrollRepository struct {
	db *database.DB
}

// NewPayrollRepository creates a new payroll repository.
func NewPayrollRepository(db *database.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

var _ PayrollRepository = (*payrollRepository)(nil)

const payrollColumns = `id, employee_id, period, gross, net, status, created_by, created_at, updated_at`

func (r *payrollRepository) Create(ctx context.Context, rec *models.Payroll) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT INTO payroll_records (id, employee_id, period, gross, net, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.EmployeeID, rec.Period, rec.Gross, rec.Net, rec.Status,
		rec.CreatedBy, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payroll record: %w", err)
	}

	return nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payroll, error) {
	query := fmt.Sprintf(`SELECT %s FROM payroll_records WHERE id = $1`, payrollColumns)

	rec, err := scanPayroll(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) List(ctx context.Context, filter PayrollFilter, skip, limit int) ([]*models.Payroll, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("period = $%d", argIdx))
		args = append(args, filter.Period)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM payroll_records WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM payroll_records
		WHERE %s
		ORDER BY period DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, payrollColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var recs []*models.Payroll
	for rows.Next() {
		rec, err := scanPayroll(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating payroll records: %w", err)
	}

	return recs, total, nil
}

func (r *payrollRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Payroll, error) {
	query := fmt.Sprintf(`
		UPDATE payroll_records SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING %s`, payrollColumns)

	rec, err := scanPayroll(r.db.QueryRow(ctx, query, status, time.Now(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update payroll status: %w", err)
	}

	return rec, nil
}

func scanPayroll(row rowScanner) (*models.Payroll, error) {
	rec := &models.Payroll{}
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Period, &rec.Gross, &rec.Net,
		&rec.Status, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
