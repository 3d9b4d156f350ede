package handlers

import (
	"errors"

	"einvoice-console/internal/adapters/http/middleware"
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// backendFailure renders an error returned while calling the backend.
// A token the backend invalidated ends every session of its identity.
func backendFailure(c *fiber.Ctx, bus *events.Bus, err error) error {
	switch {
	case errors.Is(err, domain.ErrTokenInvalidated):
		if model := middleware.SessionFrom(c); model != nil {
			if snap := model.Snapshot(); snap != nil {
				bus.Publish(events.ForceLogout{Identity: snap.Identity, Reason: session.ReasonTokenInvalidated})
			}
			model.ForceLogout(c.UserContext(), session.ReasonTokenInvalidated)
		}
		return response.Refuse(c, fiber.StatusUnauthorized, session.ReasonTokenInvalidated,
			"Phiên đăng nhập đã hết hiệu lực, vui lòng đăng nhập lại", authz.SignInPath)
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Không tìm thấy dữ liệu")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, "Dữ liệu không hợp lệ")
	case errors.Is(err, domain.ErrBackendUnavailable):
		return response.Error(c, fiber.StatusBadGateway, "Hệ thống hóa đơn tạm thời không phản hồi")
	default:
		return response.InternalServerError(c, "Internal Server Error")
	}
}

// accessToken returns the bearer token of the current session, or "" when
// logged out
func accessToken(c *fiber.Ctx) string {
	model := middleware.SessionFrom(c)
	if model == nil {
		return ""
	}
	if snap := model.Snapshot(); snap != nil {
		return snap.AccessToken
	}
	return ""
}
