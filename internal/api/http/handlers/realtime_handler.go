package handlers

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/realtime"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// RealtimeHandler streams ticket change events to connected agents.
type RealtimeHandler struct {
	hub       *realtime.Hub
	heartbeat time.Duration
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, heartbeat time.Duration) *RealtimeHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &RealtimeHandler{hub: hub, heartbeat: heartbeat}
}

// Stream GET /api/events.
func (h *RealtimeHandler) Stream(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	observer := h.hub.Connect(principal.ID)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		h.hub.Stream(w, observer, h.heartbeat)
	}))
	return nil
}
