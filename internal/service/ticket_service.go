package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// ChangeNotifier receives the authoritative result of each ticket mutation.
type ChangeNotifier interface {
	TicketCreated(ctx context.Context, ticket *domain.Ticket)
	TicketUpdated(ctx context.Context, ticket *domain.Ticket)
	TicketDeleted(ctx context.Context, id string)
}

// TicketService coordinates ticket workflows. It holds no ticket state.
type TicketService struct {
	tickets  repository.TicketRepository
	agents   repository.AgentRepository
	notifier ChangeNotifier
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	AgentRepo  repository.AgentRepository
	Notifier   ChangeNotifier
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:  deps.TicketRepo,
		agents:   deps.AgentRepo,
		notifier: deps.Notifier,
		logger:   logger,
		metrics:  deps.Metrics,
	}
}

// Search returns one page of tickets matching the query.
func (s *TicketService) Search(ctx context.Context, query repository.TicketQuery) (repository.TicketPage, error) {
	return s.tickets.Search(ctx, query)
}

// GetByID fetches a single ticket.
func (s *TicketService) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Create persists a ticket and announces it.
func (s *TicketService) Create(ctx context.Context, input domain.NewTicket) (*domain.Ticket, error) {
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", nil)
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", nil)
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.AssigneeID != nil {
		if err := s.ensureAgent(ctx, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.Create(ctx, input)
	s.metrics.RecordMutation("create", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("priority", string(ticket.Priority)),
		zap.String("created_by_id", ticket.CreatedByID))
	s.notify(func(n ChangeNotifier) { n.TicketCreated(ctx, ticket) })
	return ticket, nil
}

// Update applies a partial update and announces the stored result.
func (s *TicketService) Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if patch.Empty() {
		return nil, repository.ErrEmptyUpdate
	}
	if field := nulledRequiredField(patch); field != "" {
		return nil, apperrors.NewValidationError(field+" cannot be null", map[string]any{"field": field})
	}
	if v, ok := patch.Priority.Get(); ok && !v.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", nil)
	}
	if v, ok := patch.Status.Get(); ok && !v.Valid() {
		return nil, apperrors.NewValidationError("invalid status", nil)
	}
	if v, ok := patch.Title.Get(); ok {
		patch.Title = domain.Set(strings.TrimSpace(v))
	}
	if v, ok := patch.Description.Get(); ok {
		patch.Description = domain.Set(strings.TrimSpace(v))
	}
	if assignee, ok := patch.AssigneeID.Get(); ok {
		if err := s.ensureAgent(ctx, assignee); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.Update(ctx, id, patch)
	s.metrics.RecordMutation("update", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket updated",
		zap.String("ticket_id", ticket.ID),
		zap.String("updated_by_id", ticket.UpdatedByID))
	s.notify(func(n ChangeNotifier) { n.TicketUpdated(ctx, ticket) })
	return ticket, nil
}

// Delete removes a ticket. Deleting a missing ticket succeeds.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	err := s.tickets.Delete(ctx, id)
	s.metrics.RecordMutation("delete", err)
	if err != nil {
		return err
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", id))
	s.notify(func(n ChangeNotifier) { n.TicketDeleted(ctx, id) })
	return nil
}

// nulledRequiredField names the first non-nullable field sent as null.
func nulledRequiredField(patch domain.TicketPatch) string {
	switch {
	case patch.Title.IsNull():
		return "title"
	case patch.Description.IsNull():
		return "description"
	case patch.Priority.IsNull():
		return "priority"
	case patch.Status.IsNull():
		return "status"
	}
	return ""
}

func (s *TicketService) ensureAgent(ctx context.Context, id string) error {
	if s.agents == nil {
		return nil
	}
	if _, err := s.agents.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return apperrors.NewNotFound("agent", map[string]any{"assigneeId": id})
		}
		return err
	}
	return nil
}

func (s *TicketService) notify(fn func(ChangeNotifier)) {
	if s.notifier == nil {
		return
	}
	fn(s.notifier)
}
