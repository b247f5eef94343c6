package service

import (
	"context"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

// AgentService exposes the agent directory.
type AgentService struct {
	agents repository.AgentRepository
}

// NewAgentService constructs the service.
func NewAgentService(agents repository.AgentRepository) *AgentService {
	return &AgentService{agents: agents}
}

// List returns every agent ordered by name.
func (s *AgentService) List(ctx context.Context) ([]domain.Agent, error) {
	return s.agents.List(ctx)
}

// GetByID fetches a single agent.
func (s *AgentService) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return s.agents.GetByID(ctx, id)
}
