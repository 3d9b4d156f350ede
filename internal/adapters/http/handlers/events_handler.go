package handlers

import (
	"errors"
	"strings"

	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/jwt"
	"einvoice-console/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// EventsHandler receives backend push signals
type EventsHandler struct {
	bus    *events.Bus
	secret string
	lg     *zap.SugaredLogger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(bus *events.Bus, secret string, lg *zap.SugaredLogger) *EventsHandler {
	return &EventsHandler{bus: bus, secret: secret, lg: lg}
}

// ForceLogoutRequest carries a signed force-logout signal
type ForceLogoutRequest struct {
	Token string `json:"token"`
}

// ForceLogout ends the sessions named by a backend-signed signal
// POST /api/v1/events/force-logout
func (h *EventsHandler) ForceLogout(c *fiber.Ctx) error {
	if h.secret == "" {
		return response.Error(c, fiber.StatusServiceUnavailable, "Force-logout signals are not configured")
	}

	token := ""
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	} else {
		var req ForceLogoutRequest
		if err := c.BodyParser(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		return response.BadRequest(c, "Signal token required")
	}

	claims, err := jwt.ValidateSignal(token, h.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return response.Unauthorized(c, "Signal expired")
		}
		return response.Unauthorized(c, "Invalid signal")
	}

	h.bus.Publish(events.ForceLogout{
		Identity: claims.Subject,
		SID:      claims.SID,
		Reason:   claims.Reason,
	})
	h.lg.Infow("force logout signal received", "identity", claims.Subject, "sid", claims.SID, "reason", claims.Reason)

	return response.Accepted(c, "Signal accepted")
}
