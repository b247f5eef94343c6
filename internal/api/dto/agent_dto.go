package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// AgentResponse represents an agent in the directory.
type AgentResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewAgentResponse maps a domain agent.
func NewAgentResponse(a *domain.Agent) AgentResponse {
	return AgentResponse{ID: a.ID, Name: a.Name, Email: a.Email}
}

// LoginRequest payload.
type LoginRequest struct {
	Email string `json:"email"`
}

// PrincipalResponse is the authenticated caller.
type PrincipalResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoginResponse is returned after the access cookie is set.
type LoginResponse struct {
	Success     bool              `json:"success"`
	User        PrincipalResponse `json:"user"`
	AccessToken string            `json:"accessToken"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}
