package handlers

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// SearchTickets GET /api/tickets.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	query, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.Search(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewTicketResponse(&page.Items[i]))
	}
	return c.JSON(dto.TicketSearchResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" || strings.TrimSpace(req.Priority) == "" {
		return apperrors.NewValidationError("title, description and priority are required", nil)
	}
	if err := checkLengths(req.Title, req.Description); err != nil {
		return err
	}
	priority, ok := domain.ParseTicketPriority(req.Priority)
	if !ok {
		return invalidEnum("priority", req.Priority)
	}

	ticket, err := h.service.Create(c.UserContext(), domain.NewTicket{
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		AssigneeID:  req.AssigneeID,
		CreatedByID: principal.ID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch, err := buildPatch(req)
	if err != nil {
		return err
	}
	patch.UpdatedByID = principal.ID

	ticket, err := h.service.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func buildPatch(req dto.UpdateTicketRequest) (domain.TicketPatch, error) {
	var patch domain.TicketPatch

	if req.Title.Present() {
		title, ok := req.Title.Get()
		title = strings.TrimSpace(title)
		if !ok || title == "" {
			return patch, apperrors.NewValidationError("title cannot be empty", nil)
		}
		if utf8.RuneCountInString(title) > domain.MaxTitleLength {
			return patch, tooLong("title", domain.MaxTitleLength)
		}
		patch.Title = domain.Set(title)
	}
	if req.Description.Present() {
		description, ok := req.Description.Get()
		description = strings.TrimSpace(description)
		if !ok || description == "" {
			return patch, apperrors.NewValidationError("description cannot be empty", nil)
		}
		if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
			return patch, tooLong("description", domain.MaxDescriptionLength)
		}
		patch.Description = domain.Set(description)
	}
	if req.Priority.Present() {
		raw, _ := req.Priority.Get()
		priority, ok := domain.ParseTicketPriority(raw)
		if !ok {
			return patch, invalidEnum("priority", raw)
		}
		patch.Priority = domain.Set(priority)
	}
	if req.Status.Present() {
		raw, _ := req.Status.Get()
		status, ok := domain.ParseTicketStatus(raw)
		if !ok {
			return patch, invalidEnum("status", raw)
		}
		patch.Status = domain.Set(status)
	}
	if req.AssigneeID.IsNull() {
		patch.AssigneeID = domain.Null[string]()
	} else if assignee, ok := req.AssigneeID.Get(); ok {
		assignee = strings.TrimSpace(assignee)
		if assignee == "" {
			return patch, apperrors.NewValidationError("assigneeId cannot be empty; send null to unassign", nil)
		}
		patch.AssigneeID = domain.Set(assignee)
	}

	if patch.Empty() {
		return patch, repository.ErrEmptyUpdate
	}
	return patch, nil
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketQuery, error) {
	query := repository.TicketQuery{
		Sort:     domain.ParseTicketSort(c.Query("sort")),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseTicketStatus(raw)
		if !ok {
			return query, invalidEnum("status", raw)
		}
		query.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority, ok := domain.ParseTicketPriority(raw)
		if !ok {
			return query, invalidEnum("priority", raw)
		}
		query.Priority = &priority
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			query.Offset = &offset
		}
	}
	return query, nil
}

// queryInt returns 0 for missing or non-numeric values so the store defaults apply.
func queryInt(c *fiber.Ctx, key string) int {
	val, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return val
}

func checkLengths(title, description string) error {
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return tooLong("title", domain.MaxTitleLength)
	}
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return tooLong("description", domain.MaxDescriptionLength)
	}
	return nil
}

func tooLong(field string, limit int) error {
	return apperrors.NewValidationError(field+" is too long", map[string]any{"field": field, "max": limit})
}

func invalidEnum(field, value string) error {
	return apperrors.NewValidationError("invalid "+field, map[string]any{"field": field, "value": value})
}
