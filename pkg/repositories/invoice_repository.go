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

// InvoiceFilter narrows an invoice list. Zero values mean no filter.
type InvoiceFilter struct {
	Status string
}

// InvoiceRepository provides data access for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, skip, limit int) ([]*models.Invoice, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.InvoicePatch) (*models.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// All returns every invoice, oldest first. The follow-up recommendation
	// scans the full set.
	All(ctx context.Context) ([]*models.Invoice, error)
	// CountPending counts issued invoices not yet due as of the given time.
	CountPending(ctx context.Context, asOf time.Time) (int, error)
	// ListUpcoming returns invoices ordered by due date, soonest first.
	ListUpcoming(ctx context.Context, limit int) ([]*models.Invoice, error)
}

type invoiceRepository struct {
	db *database.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *database.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

var _ InvoiceRepository = (*invoiceRepository)(nil)

const invoiceColumns = `id, customer_name, amount, status, issued_date, due_date, created_by, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	query := `
		INSERT INTO invoices (id, customer_name, amount, status, issued_date, due_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		inv.ID, inv.CustomerName, inv.Amount, inv.Status, inv.IssuedDate,
		inv.DueDate, inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter, skip, limit int) ([]*models.Invoice, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM invoices WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM invoices
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, invoiceColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invs, err := collectInvoices(rows)
	if err != nil {
		return nil, 0, err
	}

	return invs, total, nil
}

func (r *invoiceRepository) Update(ctx context.Context, id uuid.UUID, patch models.InvoicePatch) (*models.Invoice, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.CustomerName != nil {
		sets = append(sets, fmt.Sprintf("customer_name = $%d", argIdx))
		args = append(args, *patch.CustomerName)
		argIdx++
	}
	if patch.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", argIdx))
		args = append(args, *patch.Amount)
		argIdx++
	}
	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *patch.Status)
		argIdx++
	}
	if patch.DueDate != nil {
		sets = append(sets, fmt.Sprintf("due_date = $%d", argIdx))
		args = append(args, *patch.DueDate)
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
		UPDATE invoices SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, invoiceColumns)

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	return inv, nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *invoiceRepository) All(ctx context.Context) ([]*models.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices ORDER BY created_at`, invoiceColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

func (r *invoiceRepository) CountPending(ctx context.Context, asOf time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE status = $1 AND due_date >= $2`

	var count int
	if err := r.db.QueryRow(ctx, query, models.InvoiceSent, asOf).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending invoices: %w", err)
	}

	return count, nil
}

func (r *invoiceRepository) ListUpcoming(ctx context.Context, limit int) ([]*models.Invoice, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		ORDER BY due_date
		LIMIT $1`, invoiceColumns)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := row.Scan(
		&inv.ID, &inv.CustomerName, &inv.Amount, &inv.Status, &inv.IssuedDate,
		&inv.DueDate, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func collectInvoices(rows pgx.Rows) ([]*models.Invoice, error) {
	var invs []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invs, nil
}
