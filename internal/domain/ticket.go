package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// Column bounds for ticket text.
const (
	MaxTitleLength       = 160
	MaxDescriptionLength = 200
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedByID string
	UpdatedByID string
}

// NewTicket carries the fields accepted when a ticket is created.
type NewTicket struct {
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus // empty means Open
	AssigneeID  *string
	CreatedByID string
}

// ParseTicketPriority maps free text onto the priority enum, ignoring case.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return TicketPriorityLow, true
	case "medium":
		return TicketPriorityMedium, true
	case "high":
		return TicketPriorityHigh, true
	case "critical":
		return TicketPriorityCritical, true
	default:
		return "", false
	}
}

// ParseTicketStatus maps free text onto the status enum, ignoring case.
// "in_progress" is accepted as an alias of InProgress.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return TicketStatusOpen, true
	case "inprogress", "in_progress":
		return TicketStatusInProgress, true
	case "resolved":
		return TicketStatusResolved, true
	default:
		return "", false
	}
}

// Rank orders priorities from Low (1) to Critical (4). Unknown values rank 0.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether p is one of the declared priorities.
func (p TicketPriority) Valid() bool { return p.Rank() > 0 }

// Valid reports whether s is one of the declared statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketSort selects one of the fixed search orderings.
type TicketSort string

const (
	TicketSortUpdatedAsc   TicketSort = "updatedat_asc"
	TicketSortUpdatedDesc  TicketSort = "updatedat_desc"
	TicketSortPriorityDesc TicketSort = "priority_desc"
	TicketSortPriorityAsc  TicketSort = "priority_asc"

	DefaultTicketSort = TicketSortUpdatedDesc
)

// ParseTicketSort resolves a sort key. Unknown or empty keys fall back to
// DefaultTicketSort rather than failing.
func ParseTicketSort(raw string) TicketSort {
	switch s := TicketSort(strings.ToLower(strings.TrimSpace(raw))); s {
	case TicketSortUpdatedAsc, TicketSortUpdatedDesc, TicketSortPriorityDesc, TicketSortPriorityAsc:
		return s
	default:
		return DefaultTicketSort
	}
}
