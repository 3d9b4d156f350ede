package handlers

import (
	"einvoice-console/internal/adapters/http/middleware"
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/services"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ScreenPayload describes the screen the browser navigated to
type ScreenPayload struct {
	Screen     string             `json:"screen"`
	Title      string             `json:"title"`
	User       *services.UserView `json:"user,omitempty"`
	Navigation []authz.Screen     `json:"navigation"`
	Data       interface{}        `json:"data,omitempty"`
}

// DashboardHandler serves the console screens
type DashboardHandler struct {
	dashboardService *services.DashboardService
	gate             *authz.Gate
	bus              *events.Bus
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, gate *authz.Gate, bus *events.Bus) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		gate:             gate,
		bus:              bus,
	}
}

// Dashboard serves the role dashboards; ScreenGate has already admitted the
// session
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	snap := middleware.SessionFrom(c).Snapshot()
	if snap == nil {
		return c.Redirect(authz.SignInRedirect(c.Path()), fiber.StatusFound)
	}

	withNotifications := h.gate.Visible(snap.Role, authz.NotificationsScreen)
	data, err := h.dashboardService.Summary(c.UserContext(), snap.AccessToken, withNotifications)
	if err != nil {
		return backendFailure(c, h.bus, err)
	}

	return response.Success(c, "Dashboard retrieved successfully", h.payload(c.Path(), snap, data))
}

// Screen serves a screen whose data the browser loads from the API
func (h *DashboardHandler) Screen(c *fiber.Ctx) error {
	return response.Success(c, "Screen", h.payload(c.Path(), middleware.SessionFrom(c).Snapshot(), nil))
}

// SignIn serves the sign-in screen. A logged-in session goes to its landing
// screen instead.
func (h *DashboardHandler) SignIn(c *fiber.Ctx) error {
	if snap := middleware.SessionFrom(c).Snapshot(); snap != nil {
		return c.Redirect(h.gate.Landing(snap.Role), fiber.StatusFound)
	}

	p := h.payload(authz.SignInPath, nil, fiber.Map{
		"returnUrl": c.Query(authz.ReturnURLParam),
	})
	p.Title = "Đăng nhập"
	return response.Success(c, "Screen", p)
}

func (h *DashboardHandler) payload(path string, snap *session.Session, data interface{}) *ScreenPayload {
	p := &ScreenPayload{Screen: path, Data: data}
	for _, s := range authz.Screens {
		if s.Path == path {
			p.Title = s.Title
		}
	}

	if snap == nil {
		p.Navigation = h.gate.Navigation("")
		return p
	}
	u := services.NewUserView(snap)
	p.User = &u
	p.Navigation = h.gate.Navigation(snap.Role)
	return p
}
