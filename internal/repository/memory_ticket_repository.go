package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// MemoryOption customizes the in-memory repositories.
type MemoryOption func(*memoryTicketRepository)

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *memoryTicketRepository) { r.now = now }
}

// memoryTicketRepository keeps tickets in process memory. It backs the
// service when no database is configured and mirrors the postgres
// repository's search and update semantics.
type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	now     func() time.Time
}

// NewMemoryTicketRepository instantiates an empty in-memory store.
func NewMemoryTicketRepository(opts ...MemoryOption) TicketRepository {
	r := &memoryTicketRepository{
		tickets: make(map[string]domain.Ticket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *memoryTicketRepository) Search(_ context.Context, q TicketQuery) (TicketPage, error) {
	page, pageSize, offset := q.Window()

	r.mu.RLock()
	matched := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if q.Status != nil && t.Status != *q.Status {
			continue
		}
		if q.Priority != nil && t.Priority != *q.Priority {
			continue
		}
		matched = append(matched, cloneTicket(t))
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, ticketLess(matched, q.Sort))

	items := []domain.Ticket{}
	if offset >= 0 && offset < len(matched) {
		end := offset + pageSize
		if end > len(matched) {
			end = len(matched)
		}
		items = matched[offset:end]
	}
	return TicketPage{Items: items, Total: len(matched), Page: page, PageSize: pageSize}, nil
}

func ticketLess(items []domain.Ticket, key domain.TicketSort) func(i, j int) bool {
	updatedDesc := func(a, b domain.Ticket) bool {
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	}
	return func(i, j int) bool {
		a, b := items[i], items[j]
		switch key {
		case domain.TicketSortUpdatedAsc:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			return a.ID < b.ID
		case domain.TicketSortPriorityDesc:
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			return updatedDesc(a, b)
		case domain.TicketSortPriorityAsc:
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() < b.Priority.Rank()
			}
			return updatedDesc(a, b)
		default:
			return updatedDesc(a, b)
		}
	}
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	out := cloneTicket(t)
	return &out, nil
}

func (r *memoryTicketRepository) Create(_ context.Context, input domain.NewTicket) (*domain.Ticket, error) {
	status := input.Status
	if status == "" {
		status = domain.TicketStatusOpen
	}
	now := r.now()
	t := domain.Ticket{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      status,
		AssigneeID:  copyString(input.AssigneeID),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedByID: input.CreatedByID,
		UpdatedByID: input.CreatedByID,
	}

	r.mu.Lock()
	r.tickets[t.ID] = t
	r.mu.Unlock()

	out := cloneTicket(t)
	return &out, nil
}

func (r *memoryTicketRepository) Update(_ context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if patch.Empty() {
		return nil, ErrEmptyUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	patch.Apply(&t)
	t.UpdatedAt = r.now()
	r.tickets[id] = t

	out := cloneTicket(t)
	return &out, nil
}

func (r *memoryTicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.tickets, id)
	r.mu.Unlock()
	return nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssigneeID = copyString(t.AssigneeID)
	return t
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
