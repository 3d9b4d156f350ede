package services

import (
	"context"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/core/domain"
)

// recentLimit is the number of invoices listed on a dashboard
const recentLimit = 5

// DashboardService builds the role dashboards
type DashboardService struct {
	invoices      InvoiceBackend
	notifications NotificationBackend
	views         *InvoiceService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(invoices InvoiceBackend, notifications NotificationBackend, views *InvoiceService) *DashboardService {
	return &DashboardService{invoices: invoices, notifications: notifications, views: views}
}

// StatusCount is the number of invoices in one UI status
type StatusCount struct {
	Status domain.UiStatus `json:"status"`
	Label  string          `json:"label"`
	Tone   string          `json:"tone"`
	Count  int64           `json:"count"`
}

// DashboardData represents dashboard data
type DashboardData struct {
	TotalInvoices int64         `json:"totalInvoices"`
	ByStatus      []StatusCount `json:"byStatus"`
	Notifications *int64        `json:"notifications,omitempty"`
	Recent        []InvoiceView `json:"recent"`
}

// Summary collects the dashboard of the token's operator.
// Notification counts are included only when withNotifications is set.
func (s *DashboardService) Summary(ctx context.Context, accessToken string, withNotifications bool) (*DashboardData, error) {
	recent, total, err := s.views.List(ctx, accessToken, backend.ListQuery{Page: 1, Limit: recentLimit})
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		TotalInvoices: total,
		Recent:        recent,
	}

	for _, st := range []domain.UiStatus{
		domain.StatusDraft,
		domain.StatusSigned,
		domain.StatusSent,
		domain.StatusAccepted,
		domain.StatusRejected,
	} {
		// the backend filters on its own codes, which MapStatus maps one-to-one
		page, err := s.invoices.ListInvoices(ctx, accessToken, backend.ListQuery{Page: 1, Limit: 1, Status: int(st)})
		if err != nil {
			return nil, err
		}
		data.ByStatus = append(data.ByStatus, StatusCount{
			Status: st,
			Label:  st.Label(),
			Tone:   st.Severity(),
			Count:  page.Total,
		})
	}

	if withNotifications {
		page, err := s.notifications.ListNotifications(ctx, accessToken, backend.ListQuery{Page: 1, Limit: 1})
		if err != nil {
			return nil, err
		}
		n := page.Total
		data.Notifications = &n
	}

	return data, nil
}
