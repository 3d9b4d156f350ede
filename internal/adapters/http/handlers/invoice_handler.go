package handlers

import (
	"strconv"
	"strings"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/core/services"
	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/pagination"
	"einvoice-console/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	invoiceService      *services.InvoiceService
	notificationService *services.NotificationService
	bus                 *events.Bus
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *services.InvoiceService, notificationService *services.NotificationService, bus *events.Bus) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:      invoiceService,
		notificationService: notificationService,
		bus:                 bus,
	}
}

// ListInvoices lists invoices
// GET /api/v1/invoices?page=&limit=&status=&search=
func (h *InvoiceHandler) ListInvoices(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status, _ := strconv.Atoi(c.Query("status"))

	q := backend.ListQuery{
		Page:   params.Page,
		Limit:  params.Limit,
		Status: status,
		Search: strings.TrimSpace(c.Query("search")),
	}

	items, total, err := h.invoiceService.List(c.UserContext(), accessToken(c), q)
	if err != nil {
		return backendFailure(c, h.bus, err)
	}

	return response.Success(c, "Invoices retrieved successfully", pagination.NewResponse(items, params, total))
}

// ListNotifications lists tax-authority error notifications
// GET /api/v1/notifications?page=&limit=
func (h *InvoiceHandler) ListNotifications(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	items, total, err := h.notificationService.List(c.UserContext(), accessToken(c), backend.ListQuery{
		Page:  params.Page,
		Limit: params.Limit,
	})
	if err != nil {
		return backendFailure(c, h.bus, err)
	}

	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(items, params, total))
}

// Lookup finds an invoice by public reference; no session needed
// GET /api/v1/lookup?reference=
func (h *InvoiceHandler) Lookup(c *fiber.Ctx) error {
	reference := strings.TrimSpace(c.Query("reference"))
	if reference == "" {
		return response.BadRequest(c, "Vui lòng nhập mã tra cứu")
	}

	view, err := h.invoiceService.Lookup(c.UserContext(), reference)
	if err != nil {
		return backendFailure(c, h.bus, err)
	}

	return response.Success(c, "Invoice found", view)
}
