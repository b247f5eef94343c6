package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketPriority(t *testing.T) {
	cases := map[string]TicketPriority{
		"low":        TicketPriorityLow,
		"Medium":     TicketPriorityMedium,
		"HIGH":       TicketPriorityHigh,
		" critical ": TicketPriorityCritical,
	}
	for in, want := range cases {
		got, ok := ParseTicketPriority(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "urgent", "crit"} {
		_, ok := ParseTicketPriority(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseTicketStatus(t *testing.T) {
	cases := map[string]TicketStatus{
		"open":        TicketStatusOpen,
		"InProgress":  TicketStatusInProgress,
		"in_progress": TicketStatusInProgress,
		"IN_PROGRESS": TicketStatusInProgress,
		"resolved":    TicketStatusResolved,
	}
	for in, want := range cases {
		got, ok := ParseTicketStatus(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "closed", "in-progress"} {
		_, ok := ParseTicketStatus(bad)
		assert.False(t, ok, bad)
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	assert.Greater(t, TicketPriorityCritical.Rank(), TicketPriorityHigh.Rank())
	assert.Greater(t, TicketPriorityHigh.Rank(), TicketPriorityMedium.Rank())
	assert.Greater(t, TicketPriorityMedium.Rank(), TicketPriorityLow.Rank())
	assert.False(t, TicketPriority("Urgent").Valid())
}

func TestParseTicketSortFallsBackToDefault(t *testing.T) {
	assert.Equal(t, TicketSortPriorityDesc, ParseTicketSort("PRIORITY_DESC"))
	assert.Equal(t, TicketSortUpdatedAsc, ParseTicketSort("updatedat_asc"))
	assert.Equal(t, DefaultTicketSort, ParseTicketSort(""))
	assert.Equal(t, DefaultTicketSort, ParseTicketSort("title; DROP TABLE tickets"))
}

func TestFieldDecodingDistinguishesAbsentNullAndValue(t *testing.T) {
	var body struct {
		AssigneeID Field[string] `json:"assigneeId"`
		Title      Field[string] `json:"title"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &body))
	assert.False(t, body.AssigneeID.Present())
	v, ok := body.Title.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	body.AssigneeID = Field[string]{}
	require.NoError(t, json.Unmarshal([]byte(`{"assigneeId":null}`), &body))
	assert.True(t, body.AssigneeID.Present())
	assert.True(t, body.AssigneeID.IsNull())
	assert.Nil(t, body.AssigneeID.Ptr())

	body.AssigneeID = Field[string]{}
	require.NoError(t, json.Unmarshal([]byte(`{"assigneeId":"a1"}`), &body))
	require.NotNil(t, body.AssigneeID.Ptr())
	assert.Equal(t, "a1", *body.AssigneeID.Ptr())
}

func TestTicketPatchApply(t *testing.T) {
	assignee := "agent-1"
	ticket := Ticket{
		Title:       "A",
		Description: "B",
		Priority:    TicketPriorityHigh,
		Status:      TicketStatusOpen,
		AssigneeID:  &assignee,
		UpdatedByID: "u1",
	}

	patch := TicketPatch{Priority: Set(TicketPriorityCritical), UpdatedByID: "u2"}
	assert.False(t, patch.Empty())
	patch.Apply(&ticket)
	assert.Equal(t, "A", ticket.Title)
	assert.Equal(t, TicketPriorityCritical, ticket.Priority)
	require.NotNil(t, ticket.AssigneeID)
	assert.Equal(t, "u2", ticket.UpdatedByID)

	TicketPatch{AssigneeID: Null[string](), UpdatedByID: "u3"}.Apply(&ticket)
	assert.Nil(t, ticket.AssigneeID)

	assert.True(t, TicketPatch{UpdatedByID: "u1"}.Empty())
}
