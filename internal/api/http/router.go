package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Agents         *handlers.AgentsHandler
	Tickets        *handlers.TicketsHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	agents := api.Group("/agents", cfg.AuthMiddleware.Handle)
	agents.Get("/", cfg.Agents.ListAgents)
	agents.Get("/:id", cfg.Agents.GetAgent)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.SearchTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	if cfg.Realtime != nil {
		api.Get("/events", cfg.AuthMiddleware.Handle, cfg.Realtime.Stream)
	}
}
