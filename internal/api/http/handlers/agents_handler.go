package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// AgentsHandler serves the agent directory.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// ListAgents GET /api/agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, dto.NewAgentResponse(&agents[i]))
	}
	return c.JSON(items)
}

// GetAgent GET /api/agents/:id.
func (h *AgentsHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAgentResponse(agent))
}
