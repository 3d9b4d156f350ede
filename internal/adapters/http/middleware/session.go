package middleware

import (
	"einvoice-console/internal/config"
	"einvoice-console/internal/core/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SIDCookie identifies the browser across requests
const SIDCookie = "einvoice_sid"

const (
	localSession = "session"
	localSID     = "sid"
)

// Session opens the session Model of the calling browser and stores it in
// Locals. A browser without a valid sid cookie gets a fresh one.
func Session(mgr *session.Manager, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookies := NewCookieStore(c, cfg.Cookie, cfg.Session.MaxAge)

		sid := c.Cookies(SIDCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			_ = cookies.Set(c.UserContext(), SIDCookie, sid)
		}

		c.Locals(localSID, sid)
		c.Locals(localSession, mgr.Open(c.UserContext(), cookies, sid))
		return c.Next()
	}
}

// SessionFrom returns the Model opened by the Session middleware
func SessionFrom(c *fiber.Ctx) *session.Model {
	m, _ := c.Locals(localSession).(*session.Model)
	return m
}

// SIDFrom returns the browser session id
func SIDFrom(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSID).(string)
	return sid
}
