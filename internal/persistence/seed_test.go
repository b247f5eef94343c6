package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/repository"
)

func TestDemoAgentsHaveDistinctIDs(t *testing.T) {
	agents := DemoAgents()
	require.Len(t, agents, 3)
	seen := map[string]bool{}
	for _, a := range agents {
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
	assert.Equal(t, "admin@example.com", agents[0].Email)
}

func TestSeedMemoryTickets(t *testing.T) {
	ctx := context.Background()
	tickets := repository.NewMemoryTicketRepository()

	n, err := SeedMemoryTickets(ctx, tickets, "admin")
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	page, err := tickets.Search(ctx, repository.TicketQuery{PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 30, page.Total)
	for _, ticket := range page.Items {
		require.NotNil(t, ticket.AssigneeID)
		assert.Equal(t, "admin", *ticket.AssigneeID)
		assert.True(t, ticket.Priority.Valid())
		assert.True(t, ticket.Status.Valid())
	}
}

func TestSeedDemoDataWithoutPool(t *testing.T) {
	assert.NoError(t, SeedDemoData(context.Background(), nil, zap.NewNop()))
	assert.NoError(t, RunMigrations(context.Background(), nil, "missing", zap.NewNop()))
}

func TestMigrationFilesSorted(t *testing.T) {
	names, err := migrationFiles("../../migrations")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])

	_, err = migrationFiles("does-not-exist")
	assert.Error(t, err)
}
