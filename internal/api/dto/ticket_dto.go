package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// CreateTicketRequest payload. Priority is free text until the handler
// parses it.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	AssigneeID  *string `json:"assigneeId"`
}

// UpdateTicketRequest payload. A key left out of the body stays absent; a key
// sent as null is present and null.
type UpdateTicketRequest struct {
	Title       domain.Field[string] `json:"title"`
	Description domain.Field[string] `json:"description"`
	Priority    domain.Field[string] `json:"priority"`
	Status      domain.Field[string] `json:"status"`
	AssigneeID  domain.Field[string] `json:"assigneeId"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	AssigneeID  *string               `json:"assigneeId"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	CreatedByID string                `json:"createdById"`
	UpdatedByID string                `json:"updatedById"`
}

// TicketSearchResponse is one page of search results.
type TicketSearchResponse struct {
	Items    []TicketResponse `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CreatedByID: t.CreatedByID,
		UpdatedByID: t.UpdatedByID,
	}
}
