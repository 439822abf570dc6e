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

// CustomerFilter narrows a customer list. Zero values mean no filter.
type CustomerFilter struct {
	Company string
	OwnerID *uuid.UUID
}

// CustomerRepository provides data access for customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, filter CustomerFilter, skip, limit int) ([]*models.Customer, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.CustomerPatch) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// All returns every customer, oldest first, for aggregate insight prompts.
	All(ctx context.Context) ([]*models.Customer, error)
}

type customerRepository struct {
	db *database.DB
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(db *database.DB) CustomerRepository {
	return &customerRepository{db: db}
}

var _ CustomerRepository = (*customerRepository)(nil)

const customerColumns = `id, name, email, company, phone, total_revenue, owner_id, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, c *models.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO customers (id, name, email, company, phone, total_revenue, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.Company, c.Phone, c.TotalRevenue,
		c.OwnerID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	c, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return c, nil
}

func (r *customerRepository) List(ctx context.Context, filter CustomerFilter, skip, limit int) ([]*models.Customer, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("company = $%d", argIdx))
		args = append(args, filter.Company)
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

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM customers WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, customerColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers, err := collectCustomers(rows)
	if err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

func (r *customerRepository) Update(ctx context.Context, id uuid.UUID, patch models.CustomerPatch) (*models.Customer, error) {
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
	if patch.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = $%d", argIdx))
		args = append(args, *patch.Phone)
		argIdx++
	}
	if patch.TotalRevenue != nil {
		sets = append(sets, fmt.Sprintf("total_revenue = $%d", argIdx))
		args = append(args, *patch.TotalRevenue)
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
		UPDATE customers SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, customerColumns)

	c, err := scanCustomer(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	return c, nil
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *customerRepository) All(ctx context.Context) ([]*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers ORDER BY created_at`, customerColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	defer rows.Close()

	return collectCustomers(rows)
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Company, &c.Phone, &c.TotalRevenue,
		&c.OwnerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func collectCustomers(rows pgx.Rows) ([]*models.Customer, error) {
	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}
