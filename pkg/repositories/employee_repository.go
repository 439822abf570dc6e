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

// EmployeeFilter narrows an employee list. Zero values mean no filter.
type EmployeeFilter struct {
	Department string
	IsActive   *bool
}

// EmployeeRepository provides data access for HR records.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *models.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context, filter EmployeeFilter, skip, limit int) ([]*models.Employee, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.EmployeePatch) (*models.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// All returns every employee. The retention recommendation averages
	// tenure over the full roster.
	All(ctx context.Context) ([]*models.Employee, error)
	CountActive(ctx context.Context) (int, error)
	// ListRecentActive returns active employees, most recent hires first.
	ListRecentActive(ctx context.Context, limit int) ([]*models.Employee, error)
}

type employeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *database.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

var _ EmployeeRepository = (*employeeRepository)(nil)

const employeeColumns = `id, full_name, email, position, department, salary, hire_date, is_active, created_by, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, emp *models.Employee) error {
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now

	query := `
		INSERT INTO employees (id, full_name, email, position, department, salary, hire_date, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO NOTHING`

	result, err := r.db.Exec(ctx, query,
		emp.ID, emp.FullName, emp.Email, emp.Position, emp.Department,
		emp.Salary, emp.HireDate, emp.IsActive, emp.CreatedBy, emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1`, employeeColumns)

	emp, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return emp, nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter, skip, limit int) ([]*models.Employee, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argIdx))
		args = append(args, filter.Department)
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

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM employees WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, employeeColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	emps, err := collectEmployees(rows)
	if err != nil {
		return nil, 0, err
	}

	return emps, total, nil
}

func (r *employeeRepository) Update(ctx context.Context, id uuid.UUID, patch models.EmployeePatch) (*models.Employee, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.FullName != nil {
		sets = append(sets, fmt.Sprintf("full_name = $%d", argIdx))
		args = append(args, *patch.FullName)
		argIdx++
	}
	if patch.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *patch.Email)
		argIdx++
	}
	if patch.Position != nil {
		sets = append(sets, fmt.Sprintf("position = $%d", argIdx))
		args = append(args, *patch.Position)
		argIdx++
	}
	if patch.Department != nil {
		sets = append(sets, fmt.Sprintf("department = $%d", argIdx))
		args = append(args, *patch.Department)
		argIdx++
	}
	if patch.Salary != nil {
		sets = append(sets, fmt.Sprintf("salary = $%d", argIdx))
		args = append(args, *patch.Salary)
		argIdx++
	}
	if patch.HireDate != nil {
		sets = append(sets, fmt.Sprintf("hire_date = $%d", argIdx))
		args = append(args, *patch.HireDate)
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
		UPDATE employees SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, employeeColumns)

	emp, err := scanEmployee(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	return emp, nil
}

func (r *employeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *employeeRepository) All(ctx context.Context) ([]*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees ORDER BY created_at`, employeeColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func (r *employeeRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active employees: %w", err)
	}

	return count, nil
}

func (r *employeeRepository) ListRecentActive(ctx context.Context, limit int) ([]*models.Employee, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE is_active
		ORDER BY hire_date DESC
		LIMIT $1`, employeeColumns)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	emp := &models.Employee{}
	err := row.Scan(
		&emp.ID, &emp.FullName, &emp.Email, &emp.Position, &emp.Department,
		&emp.Salary, &emp.HireDate, &emp.IsActive, &emp.CreatedBy,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func collectEmployees(rows pgx.Rows) ([]*models.Employee, error) {
	var emps []*models.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emps = append(emps, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return emps, nil
}
