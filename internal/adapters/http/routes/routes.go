package routes

import (
	"time"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/adapters/http/handlers"
	"einvoice-console/internal/adapters/http/middleware"
	"einvoice-console/internal/config"
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/core/services"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/events"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// lookupCacheAge is how long shared caches may keep a public lookup result
const lookupCacheAge = 30 * time.Second

// Dependencies are the long-lived components built by main
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Backend     *backend.Client
	Manager     *session.Manager
	Gate        *authz.Gate
	Bus         *events.Bus
	Diagnostics *services.MappingDiagnostics
	Logger      *zap.SugaredLogger
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps *Dependencies) {
	cfg := deps.Config
	mapper := domain.NewMapper(deps.Diagnostics)

	// Initialize services
	authService := services.NewAuthService(deps.Backend, deps.Gate, deps.Logger)
	invoiceService := services.NewInvoiceService(deps.Backend, mapper)
	notificationService := services.NewNotificationService(deps.Backend, mapper)
	dashboardService := services.NewDashboardService(deps.Backend, deps.Backend, invoiceService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Diagnostics, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(authService, deps.Gate)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, deps.Gate, deps.Bus)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, notificationService, deps.Bus)
	eventsHandler := handlers.NewEventsHandler(deps.Bus, cfg.Signal.Secret, deps.Logger)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Backend push signals carry no browser session
	app.Post("/api/v1/events/force-logout", eventsHandler.ForceLogout)

	// Public lookup API is cacheable and needs no session
	app.Get("/api/v1/lookup", middleware.PublicCacheHeaders(lookupCacheAge), invoiceHandler.Lookup)

	noCache := middleware.NoCacheHeaders()
	withSession := middleware.Session(deps.Manager, cfg)

	// API v1 group
	apiV1 := app.Group("/api/v1", noCache, withSession)
	setupAPIV1Routes(apiV1, authHandler, invoiceHandler, deps.Gate)

	// Screens
	setupScreenRoutes(app, dashboardHandler, deps.Gate, noCache, withSession)
}

// setupScreenRoutes configures navigation targets; all but sign-in and lookup
// pass the screen gate
func setupScreenRoutes(app *fiber.App, h *handlers.DashboardHandler, gate *authz.Gate, pre ...fiber.Handler) {
	screen := func(path string, gated bool, handler fiber.Handler) {
		chain := append([]fiber.Handler{}, pre...)
		if gated {
			chain = append(chain, middleware.ScreenGate(gate))
		}
		app.Get(path, append(chain, handler)...)
	}

	screen(authz.SignInPath, false, h.SignIn)
	screen(authz.LookupScreen, false, h.Screen)

	screen(authz.AdminDashboard, true, h.Dashboard)
	screen(authz.HODDashboard, true, h.Dashboard)
	screen(authz.StaffDashboard, true, h.Dashboard)
	screen(authz.SalesDashboard, true, h.Dashboard)
	screen(authz.InvoicesScreen, true, h.Screen)
	screen(authz.NotificationsScreen, true, h.Screen)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, authHandler *handlers.AuthHandler, invoiceHandler *handlers.InvoiceHandler, gate *authz.Gate) {
	// Auth routes
	auth := router.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", middleware.RequireSession(), authHandler.Me)

	router.Get("/nav", authHandler.Nav)

	router.Get("/invoices", middleware.RequireScreen(gate, authz.InvoicesScreen), invoiceHandler.ListInvoices)
	router.Get("/notifications", middleware.RequireScreen(gate, authz.NotificationsScreen), invoiceHandler.ListNotifications)
}
