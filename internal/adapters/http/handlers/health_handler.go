package handlers

import (
	"einvoice-console/internal/config"
	"einvoice-console/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db      *gorm.DB
	diag    *services.MappingDiagnostics
	appMode string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, diag *services.MappingDiagnostics, appMode string) *HealthHandler {
	return &HealthHandler{db: db, diag: diag, appMode: appMode}
}

// Root handles root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "e-Invoice Console API is running",
		"mode":    h.appMode,
	})
}

// HealthCheck reports API and database health plus mapping diagnostics
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	if err := config.HealthCheck(h.db); err != nil {
		dbStatus = "unhealthy"
	}

	gaps, legacy := h.diag.Counters()

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
		"mapping": fiber.Map{
			"gaps":             gaps,
			"legacy_fallbacks": legacy,
		},
	})
}
