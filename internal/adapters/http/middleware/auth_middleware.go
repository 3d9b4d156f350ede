package middleware

import (
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ScreenGate guards console screens. Refused navigation is a redirect, never
// an error page.
func ScreenGate(gate *authz.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		model := SessionFrom(c)
		if model == nil {
			return fiber.ErrInternalServerError
		}

		path := c.Path()
		d := gate.DecidePath(model, path)
		if d.Allow {
			return c.Next()
		}

		// a role whose landing screen refuses it would bounce forever;
		// the public lookup screen accepts everyone
		if d.Redirect == path {
			return c.Redirect(authz.LookupScreen, fiber.StatusFound)
		}
		return c.Redirect(d.Redirect, fiber.StatusFound)
	}
}

// RequireScreen guards an API endpoint with the policy of the screen it
// feeds. The API answers 401/403 with the redirect target instead of
// redirecting.
func RequireScreen(gate *authz.Gate, screen string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		model := SessionFrom(c)
		if model == nil {
			return fiber.ErrInternalServerError
		}

		d := gate.DecidePath(model, screen)
		if d.Allow {
			return c.Next()
		}

		status := fiber.StatusForbidden
		if d.Reason == authz.ReasonUnauthenticated {
			status = fiber.StatusUnauthorized
		}
		return response.Refuse(c, status, d.Reason, "", d.Redirect)
	}
}

// RequireSession refuses requests without a logged-in session
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		model := SessionFrom(c)
		if model == nil || model.Snapshot() == nil {
			return response.Refuse(c, fiber.StatusUnauthorized, authz.ReasonUnauthenticated, "", authz.SignInPath)
		}
		return c.Next()
	}
}
