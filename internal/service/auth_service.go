package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// AuthService coordinates agent sign-in.
type AuthService struct {
	agents   repository.AgentRepository
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(agents repository.AgentRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{agents: agents, tokenMgr: tokens}
}

// Login resolves the agent by email and issues an access token.
func (s *AuthService) Login(ctx context.Context, email string) (*domain.Agent, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email is required", nil)
	}
	agent, err := s.agents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(domain.Principal{ID: agent.ID, Name: agent.Name})
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return agent, token, exp, nil
}

// Me returns the agent behind an authenticated principal.
func (s *AuthService) Me(ctx context.Context, principal domain.Principal) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return nil, apperrors.NewUnauthorized("agent not found")
		}
		return nil, err
	}
	return agent, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context) error {
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
