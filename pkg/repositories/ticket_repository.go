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

// TicketFilter narrows a ticket list. Zero values mean no filter.
type TicketFilter struct {
	Status   string
	Priority string
}

// TicketRepository provides data access for support tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error)
	List(ctx context.Context, filter TicketFilter, skip, limit int) ([]*models.SupportTicket, int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.TicketPatch) (*models.SupportTicket, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetSentiment overwrites the sentiment annotation. Last write wins.
	SetSentiment(ctx context.Context, id uuid.UUID, sentiment float64) (*models.SupportTicket, error)
	// All returns every ticket, oldest first, for support analytics.
	All(ctx context.Context) ([]*models.SupportTicket, error)
}

type ticketRepository struct {
	db *database.DB
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *database.DB) TicketRepository {
	return &ticketRepository{db: db}
}

var _ TicketRepository = (*ticketRepository)(nil)

const ticketColumns = `id, subject, description, status, priority, customer_email, ai_sentiment, created_by, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	query := `
		INSERT INTO support_tickets (id, subject, description, status, priority, customer_email, ai_sentiment, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		ticket.ID, ticket.Subject, ticket.Description, ticket.Status,
		ticket.Priority, ticket.CustomerEmail, ticket.AISentiment,
		ticket.CreatedBy, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE id = $1`, ticketColumns)

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter, skip, limit int) ([]*models.SupportTicket, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, filter.Priority)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM support_tickets WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s FROM support_tickets
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, ticketColumns, where, argIdx, argIdx+1)

	args = append(args, limit, skip)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets, err := collectTickets(rows)
	if err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (r *ticketRepository) Update(ctx context.Context, id uuid.UUID, patch models.TicketPatch) (*models.SupportTicket, error) {
	var sets []string
	var args []any
	argIdx := 1

	if patch.Subject != nil {
		sets = append(sets, fmt.Sprintf("subject = $%d", argIdx))
		args = append(args, *patch.Subject)
		argIdx++
	}
	if patch.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *patch.Description)
		argIdx++
	}
	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *patch.Status)
		argIdx++
	}
	if patch.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, *patch.Priority)
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
		UPDATE support_tickets SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), argIdx, ticketColumns)

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	return ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM support_tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *ticketRepository) SetSentiment(ctx context.Context, id uuid.UUID, sentiment float64) (*models.SupportTicket, error) {
	query := fmt.Sprintf(`
		UPDATE support_tickets SET ai_sentiment = $1, updated_at = $2
		WHERE id = $3
		RETURNING %s`, ticketColumns)

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, sentiment, time.Now(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set ticket sentiment: %w", err)
	}

	return ticket, nil
}

func (r *ticketRepository) All(ctx context.Context) ([]*models.SupportTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_tickets ORDER BY created_at`, ticketColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

func scanTicket(row rowScanner) (*models.SupportTicket, error) {
	ticket := &models.SupportTicket{}
	err := row.Scan(
		&ticket.ID, &ticket.Subject, &ticket.Description, &ticket.Status,
		&ticket.Priority, &ticket.CustomerEmail, &ticket.AISentiment,
		&ticket.CreatedBy, &ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func collectTickets(rows pgx.Rows) ([]*models.SupportTicket, error) {
	var tickets []*models.SupportTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}
