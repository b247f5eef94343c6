package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// stepClock advances one second per call so updated_at ordering is deterministic.
func stepClock() func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func seedTickets(t *testing.T, repo TicketRepository, n int, status domain.TicketStatus, priority domain.TicketPriority) []*domain.Ticket {
	t.Helper()
	out := make([]*domain.Ticket, 0, n)
	for i := 0; i < n; i++ {
		ticket, err := repo.Create(context.Background(), domain.NewTicket{
			Title:       fmt.Sprintf("ticket %d", i),
			Description: "desc",
			Priority:    priority,
			Status:      status,
			CreatedByID: "u1",
		})
		require.NoError(t, err)
		out = append(out, ticket)
	}
	return out
}

func TestMemoryCreateDefaults(t *testing.T) {
	repo := NewMemoryTicketRepository(WithClock(stepClock()))
	ticket, err := repo.Create(context.Background(), domain.NewTicket{
		Title:       "A",
		Description: "B",
		Priority:    domain.TicketPriorityHigh,
		CreatedByID: "u1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.AssigneeID)
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)
	assert.Equal(t, "u1", ticket.CreatedByID)
	assert.Equal(t, "u1", ticket.UpdatedByID)
}

func TestMemorySearchPagination(t *testing.T) {
	repo := NewMemoryTicketRepository(WithClock(stepClock()))
	seedTickets(t, repo, 3, domain.TicketStatusInProgress, domain.TicketPriorityMedium)
	seedTickets(t, repo, 4, domain.TicketStatusOpen, domain.TicketPriorityLow)

	status := domain.TicketStatusInProgress
	page, err := repo.Search(context.Background(), TicketQuery{Status: &status, Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 1, page.PageSize)

	for k := 1; k <= 4; k++ {
		got, err := repo.Search(context.Background(), TicketQuery{Page: k, PageSize: 3})
		require.NoError(t, err)
		want := 3
		if remaining := 7 - (k-1)*3; remaining < want {
			want = max(0, remaining)
		}
		assert.Len(t, got.Items, want, "page %d", k)
		assert.Equal(t, 7, got.Total)
	}

	clamped, err := repo.Search(context.Background(), TicketQuery{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, clamped.PageSize)
}

func TestMemorySearchPageBeyondRange(t *testing.T) {
	repo := NewMemoryTicketRepository(WithClock(stepClock()))
	seedTickets(t, repo, 3, domain.TicketStatusOpen, domain.TicketPriorityLow)

	for _, q := range []TicketQuery{
		{Page: 100000000000000000, PageSize: 100},
		{Page: 5, PageSize: 10},
		{Offset: intPtr(1 << 40)},
	} {
		page, err := repo.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
		assert.Equal(t, 3, page.Total)
	}
}

func TestMemorySearchSortOrders(t *testing.T) {
	repo := NewMemoryTicketRepository(WithClock(stepClock()))
	low := seedTickets(t, repo, 1, domain.TicketStatusOpen, domain.TicketPriorityLow)[0]
	crit := seedTickets(t, repo, 1, domain.TicketStatusOpen, domain.TicketPriorityCritical)[0]
	highOld := seedTickets(t, repo, 1, domain.TicketStatusOpen, domain.TicketPriorityHigh)[0]
	medium := seedTickets(t, repo, 1, domain.TicketStatusOpen, domain.TicketPriorityMedium)[0]
	highNew := seedTickets(t, repo, 1, domain.TicketStatusOpen, domain.TicketPriorityHigh)[0]

	ids := func(sort domain.TicketSort) []string {
		page, err := repo.Search(context.Background(), TicketQuery{Sort: sort})
		require.NoError(t, err)
		out := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			out = append(out, item.ID)
		}
		return out
	}

	assert.Equal(t, []string{crit.ID, highNew.ID, highOld.ID, medium.ID, low.ID}, ids(domain.TicketSortPriorityDesc))
	assert.Equal(t, []string{low.ID, medium.ID, highNew.ID, highOld.ID, crit.ID}, ids(domain.TicketSortPriorityAsc))
	assert.Equal(t, []string{highNew.ID, medium.ID, highOld.ID, crit.ID, low.ID}, ids(domain.TicketSortUpdatedDesc))
	assert.Equal(t, []string{low.ID, crit.ID, highOld.ID, medium.ID, highNew.ID}, ids(domain.TicketSortUpdatedAsc))
	assert.Equal(t, ids(domain.TicketSortUpdatedDesc), ids(domain.TicketSort("")))
}

func TestMemoryUpdateSemantics(t *testing.T) {
	repo := NewMemoryTicketRepository(WithClock(stepClock()))
	assignee := "agent-1"
	created, err := repo.Create(context.Background(), domain.NewTicket{
		Title:       "A",
		Description: "B",
		Priority:    domain.TicketPriorityHigh,
		AssigneeID:  &assignee,
		CreatedByID: "u1",
	})
	require.NoError(t, err)

	updated, err := repo.Update(context.Background(), created.ID, domain.TicketPatch{
		Priority:    domain.Set(domain.TicketPriorityCritical),
		UpdatedByID: "u2",
	})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "B", updated.Description)
	assert.Equal(t, domain.TicketPriorityCritical, updated.Priority)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, assignee, *updated.AssigneeID)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "u1", updated.CreatedByID)
	assert.Equal(t, "u2", updated.UpdatedByID)

	cleared, err := repo.Update(context.Background(), created.ID, domain.TicketPatch{
		AssigneeID:  domain.Null[string](),
		UpdatedByID: "u2",
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssigneeID)

	_, err = repo.Update(context.Background(), created.ID, domain.TicketPatch{UpdatedByID: "u3"})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", stored.UpdatedByID)
	assert.Equal(t, cleared.UpdatedAt, stored.UpdatedAt)

	_, err = repo.Update(context.Background(), "missing", domain.TicketPatch{Title: domain.Set("x"), UpdatedByID: "u1"})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	repo := NewMemoryTicketRepository()
	created := seedTickets(t, repo, 1, domain.TicketStatusOpen, domain.TicketPriorityLow)[0]

	require.NoError(t, repo.Delete(context.Background(), created.ID))
	require.NoError(t, repo.Delete(context.Background(), created.ID))
	require.NoError(t, repo.Delete(context.Background(), "never-existed"))

	_, err := repo.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewMemoryTicketRepository()
	assignee := "agent-1"
	created, err := repo.Create(context.Background(), domain.NewTicket{
		Title: "A", Description: "B", Priority: domain.TicketPriorityLow, AssigneeID: &assignee, CreatedByID: "u1",
	})
	require.NoError(t, err)

	*created.AssigneeID = "tampered"
	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", *stored.AssigneeID)
}

func TestMemoryAgentDirectory(t *testing.T) {
	repo := NewMemoryAgentRepository(
		domain.Agent{ID: "a2", Name: "Yaniv", Email: "yaniv@example.com"},
		domain.Agent{ID: "a1", Name: "Admin", Email: "admin@example.com"},
	)

	agents, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "Admin", agents[0].Name)

	byEmail, err := repo.GetByEmail(context.Background(), "YANIV@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a2", byEmail.ID)

	_, err = repo.GetByID(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}
