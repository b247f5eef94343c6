package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket:created"
	EventTicketUpdated EventType = "ticket:updated"
	EventTicketDeleted EventType = "ticket:deleted"
)

// Event is a ticket change broadcast to realtime observers.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// TicketPayload is the full ticket as carried by created/updated events.
type TicketPayload struct {
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

// NewTicketPayload copies a ticket into its wire form.
func NewTicketPayload(t *domain.Ticket) TicketPayload {
	return TicketPayload{
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

// New builds an event with a fresh id and timestamp around payload.
func New(eventType EventType, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}
