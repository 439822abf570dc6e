package services

import (
	"context"
	"encoding/json"
	"errors"
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

// negativeSentimentFloor is the score below which a new ticket is escalated.
const negativeSentimentFloor = -0.7

// CreateTicketInput carries a new support ticket.
type CreateTicketInput struct {
	Subject       string
	Description   string
	Status        string
	Priority      string
	CustomerEmail string
}

// ChatInput carries one support chat message, optionally anchored to a
// ticket.
type ChatInput struct {
	Message  string
	TicketID *uuid.UUID
	Context  json.RawMessage
}

// ChatReply is the assistant's answer, echoing the ticket context it used.
type ChatReply struct {
	Message      string                `json:"message"`
	TicketID     *uuid.UUID            `json:"ticket_id,omitempty"`
	Ticket       *prompts.TicketDigest `json:"ticket,omitempty"`
	IsAIResponse bool                  `json:"is_ai_response"`
}

// SupportService owns support tickets, the assistant chat, and support
// analytics. Ticket mutations and analytics require the support capability;
// reads and chat require authentication only.
type SupportService interface {
	// CreateTicket files a ticket. The description's sentiment is scored
	// first; a strongly negative message escalates low or medium priority
	// to high.
	CreateTicket(ctx context.Context, actor *models.User, in CreateTicketInput) (*models.SupportTicket, error)
	GetTicket(ctx context.Context, actor *models.User, id uuid.UUID) (*models.SupportTicket, error)
	ListTickets(ctx context.Context, actor *models.User, filter repositories.TicketFilter, skip, limit int) ([]*models.SupportTicket, int, error)
	UpdateTicket(ctx context.Context, actor *models.User, id uuid.UUID, patch models.TicketPatch) (*models.SupportTicket, error)

	// Chat answers a support question. A referenced ticket that no longer
	// exists is simply ignored; the reply degrades to general help.
	Chat(ctx context.Context, actor *models.User, in ChatInput) (*ChatReply, error)

	// TicketInsights reviews the whole ticket queue in free text.
	TicketInsights(ctx context.Context, actor *models.User) (string, error)

	// CustomerSupportScore rates one customer's support history by email.
	CustomerSupportScore(ctx context.Context, actor *models.User, customerEmail string) (string, error)
}

type supportService struct {
	ticketRepo repositories.TicketRepository
	ai         llm.Completer
	logger     *zap.Logger
}

// NewSupportService creates a new support service with dependencies.
func NewSupportService(
	ticketRepo repositories.TicketRepository,
	ai llm.Completer,
	logger *zap.Logger,
) SupportService {
	return &supportService{
		ticketRepo: ticketRepo,
		ai:         ai,
		logger:     logger,
	}
}

var _ SupportService = (*supportService)(nil)

func (s *supportService) CreateTicket(ctx context.Context, actor *models.User, in CreateTicketInput) (*models.SupportTicket, error) {
	trace := pipeline.NewTrace(s.logger, "support.create_ticket")
	if err := auth.Authorize(actor, models.RoleSupport); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	status := in.Status
	if status == "" {
		status = models.TicketOpen
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidTicketStatus(status) {
		err := fmt.Errorf("invalid ticket status %q: %w", in.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if !models.IsValidTicketPriority(priority) {
		err := fmt.Errorf("invalid ticket priority %q: %w", in.Priority, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	var sentiment models.SentimentResult
	if _, err := completeJSON(ctx, s.ai, trace, prompts.KindTicketSentiment, prompts.TicketSentimentParams{Text: in.Description}, sentimentSchema, &sentiment); err != nil {
		return nil, fmt.Errorf("failed to analyze ticket sentiment: %w", err)
	}

	// Escalate clearly unhappy customers. Urgent and high stay as filed.
	if sentiment.Sentiment < negativeSentimentFloor &&
		(priority == models.PriorityLow || priority == models.PriorityMedium) {
		priority = models.PriorityHigh
	}

	ticket := &models.SupportTicket{
		Subject:       in.Subject,
		Description:   in.Description,
		Status:        status,
		Priority:      priority,
		CustomerEmail: in.CustomerEmail,
		AISentiment:   &sentiment.Sentiment,
		CreatedBy:     actor.ID,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return ticket, nil
}

func (s *supportService) GetTicket(ctx context.Context, actor *models.User, id uuid.UUID) (*models.SupportTicket, error) {
	trace := pipeline.NewTrace(s.logger, "support.get_ticket")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return ticket, nil
}

func (s *supportService) ListTickets(ctx context.Context, actor *models.User, filter repositories.TicketFilter, skip, limit int) ([]*models.SupportTicket, int, error) {
	trace := pipeline.NewTrace(s.logger, "support.list_tickets")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageAuthorized)

	tickets, total, err := s.ticketRepo.List(ctx, filter, skip, limit)
	if err != nil {
		trace.Fail(err)
		return nil, 0, err
	}
	trace.Advance(pipeline.StageDataFetched)
	respond(trace)
	return tickets, total, nil
}

func (s *supportService) UpdateTicket(ctx context.Context, actor *models.User, id uuid.UUID, patch models.TicketPatch) (*models.SupportTicket, error) {
	trace := pipeline.NewTrace(s.logger, "support.update_ticket")
	if err := auth.Authorize(actor, models.RoleSupport); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if patch.Status != nil && !models.IsValidTicketStatus(*patch.Status) {
		err := fmt.Errorf("invalid ticket status %q: %w", *patch.Status, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	if patch.Priority != nil && !models.IsValidTicketPriority(*patch.Priority) {
		err := fmt.Errorf("invalid ticket priority %q: %w", *patch.Priority, apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageDataFetched)

	ticket, err := s.ticketRepo.Update(ctx, id, patch)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return ticket, nil
}

func (s *supportService) Chat(ctx context.Context, actor *models.User, in ChatInput) (*ChatReply, error) {
	trace := pipeline.NewTrace(s.logger, "support.chat")
	if err := requireActor(actor); err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAuthorized)

	if in.Message == "" {
		err := fmt.Errorf("chat message is required: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return nil, err
	}

	var digest *prompts.TicketDigest
	if in.TicketID != nil {
		ticket, err := s.ticketRepo.GetByID(ctx, *in.TicketID)
		switch {
		case err == nil:
			digest = &prompts.TicketDigest{
				ID:          ticket.ID.String(),
				Subject:     ticket.Subject,
				Description: ticket.Description,
				Status:      ticket.Status,
				Priority:    ticket.Priority,
				CreatedAt:   ticket.CreatedAt.Format(time.RFC3339),
			}
		case errors.Is(err, apperrors.ErrNotFound):
			// Stale ticket reference; answer without it.
		default:
			trace.Fail(err)
			return nil, err
		}
	}
	trace.Advance(pipeline.StageDataFetched)

	params := prompts.TicketInsightParams{
		Message: in.Message,
		Ticket:  digest,
		Context: in.Context,
	}
	text, err := completeText(ctx, s.ai, trace, prompts.KindTicketInsight, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate support reply: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return &ChatReply{
		Message:      text,
		TicketID:     in.TicketID,
		Ticket:       digest,
		IsAIResponse: true,
	}, nil
}

func (s *supportService) TicketInsights(ctx context.Context, actor *models.User) (string, error) {
	trace := pipeline.NewTrace(s.logger, "support.ticket_insights")
	if err := auth.Authorize(actor, models.RoleSupport); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	tickets, err := s.ticketRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	digests := make([]prompts.TicketDigest, len(tickets))
	for i, t := range tickets {
		digests[i] = prompts.TicketDigest{
			ID:          t.ID.String(),
			Subject:     t.Subject,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		}
	}

	text, err := completeText(ctx, s.ai, trace, prompts.KindTicketAnalytics, prompts.TicketAnalyticsParams{Tickets: digests})
	if err != nil {
		return "", fmt.Errorf("failed to generate ticket insights: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}

func (s *supportService) CustomerSupportScore(ctx context.Context, actor *models.User, customerEmail string) (string, error) {
	trace := pipeline.NewTrace(s.logger, "support.customer_support_score")
	if err := auth.Authorize(actor, models.RoleSupport); err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAuthorized)

	if customerEmail == "" {
		err := fmt.Errorf("customer email is required: %w", apperrors.ErrValidation)
		trace.Fail(err)
		return "", err
	}

	tickets, err := s.ticketRepo.All(ctx)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageDataFetched)

	var digests []prompts.TicketDigest
	for _, t := range tickets {
		if t.CustomerEmail != customerEmail {
			continue
		}
		digests = append(digests, prompts.TicketDigest{
			ID:        t.ID.String(),
			Subject:   t.Subject,
			Status:    t.Status,
			Priority:  t.Priority,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}

	params := prompts.SupportScoreParams{
		CustomerEmail: customerEmail,
		Tickets:       digests,
	}
	text, err := completeText(ctx, s.ai, trace, prompts.KindSupportScore, params)
	if err != nil {
		return "", fmt.Errorf("failed to score customer support history: %w", err)
	}
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
	return text, nil
}
