package repository

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestTicketQueryWindow(t *testing.T) {
	cases := []struct {
		name                   string
		query                  TicketQuery
		page, pageSize, offset int
	}{
		{"defaults", TicketQuery{}, 1, 30, 0},
		{"page derives offset", TicketQuery{Page: 3, PageSize: 10}, 3, 10, 20},
		{"page size clamped", TicketQuery{PageSize: 500}, 1, 100, 0},
		{"negative page", TicketQuery{Page: -2, PageSize: 5}, 1, 5, 0},
		{"explicit offset wins", TicketQuery{Page: 4, PageSize: 10, Offset: intPtr(7)}, 4, 10, 7},
		{"negative offset", TicketQuery{Offset: intPtr(-1)}, 1, 30, 0},
		{"huge page saturates offset", TicketQuery{Page: 100000000000000000, PageSize: 100}, 100000000000000000, 100, math.MaxInt},
		{"max page", TicketQuery{Page: math.MaxInt, PageSize: 1}, math.MaxInt, 1, math.MaxInt - 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, pageSize, offset := tc.query.Window()
			assert.Equal(t, tc.page, page)
			assert.Equal(t, tc.pageSize, pageSize)
			assert.Equal(t, tc.offset, offset)
		})
	}
}

func TestBuildSearchUsesFixedOrderingAndPlaceholders(t *testing.T) {
	status := domain.TicketStatusInProgress
	priority := domain.TicketPriorityHigh
	stmt := buildSearch(TicketQuery{
		Status:   &status,
		Priority: &priority,
		Sort:     domain.TicketSortPriorityDesc,
		Page:     2,
		PageSize: 1,
	})

	assert.Equal(t, "SELECT COUNT(*) FROM tickets WHERE status = $1 AND priority = $2", stmt.count)
	assert.Contains(t, stmt.list, "WHERE status = $1 AND priority = $2")
	assert.Contains(t, stmt.list, "ORDER BY "+priorityRank+" DESC, updated_at DESC")
	assert.True(t, strings.HasSuffix(stmt.list, "LIMIT $3 OFFSET $4"))
	if diff := cmp.Diff([]any{status, priority, 1, 1}, stmt.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSearchUnknownSortUsesDefault(t *testing.T) {
	stmt := buildSearch(TicketQuery{Sort: domain.TicketSort("title desc; --")})
	assert.NotContains(t, stmt.list, "title desc")
	assert.Contains(t, stmt.list, "ORDER BY updated_at DESC")
	assert.NotContains(t, stmt.count, "WHERE")
	if diff := cmp.Diff([]any{30, 0}, stmt.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildUpdateWritesOnlyPresentFields(t *testing.T) {
	query, args, err := buildUpdate("t1", domain.TicketPatch{
		Priority:    domain.Set(domain.TicketPriorityCritical),
		AssigneeID:  domain.Null[string](),
		UpdatedByID: "u2",
	})
	require.NoError(t, err)

	assert.Contains(t, query, "SET priority=$1, assignee_id=$2, updated_by_id=$3, updated_at=NOW() WHERE id=$4")
	assert.NotContains(t, query, "title=")
	assert.NotContains(t, query, "status=")
	require.Len(t, args, 4)
	assert.Equal(t, domain.TicketPriorityCritical, args[0])
	assert.Nil(t, args[1].(*string))
	assert.Equal(t, "u2", args[2])
	assert.Equal(t, "t1", args[3])
}

func TestBuildUpdateRejectsEmptyPatch(t *testing.T) {
	_, _, err := buildUpdate("t1", domain.TicketPatch{UpdatedByID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}
