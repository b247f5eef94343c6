package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates access tokens and loads the calling agent.
type AuthMiddleware struct {
	tokens     *TokenManager
	agents     repository.AgentRepository
	cookieName string
}

// NewAuthMiddleware constructs middleware. Tokens are read from the
// Authorization header first, then from the named cookie.
func NewAuthMiddleware(tokens *TokenManager, agents repository.AgentRepository, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, agents: agents, cookieName: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := m.extractToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := claims.Principal()
	if m.agents != nil {
		agent, err := m.agents.GetByID(c.UserContext(), principal.ID)
		if err != nil {
			if errors.Is(err, repository.ErrAgentNotFound) {
				return apperrors.NewUnauthorized("agent not found")
			}
			return apperrors.MapError(err)
		}
		principal.Name = agent.Name
	}

	c.Locals(principalKey, &principal)
	return c.Next()
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if m.cookieName != "" {
		if cookie := c.Cookies(m.cookieName); cookie != "" {
			return cookie, nil
		}
	}
	return "", apperrors.NewUnauthorized("missing credentials")
}

// PrincipalFromContext retrieves the authenticated agent.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}

