package services

import (
	"context"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/pkg/format"
)

// NotificationView is a tax-authority error notification ready for display
type NotificationView struct {
	ID              string                    `json:"id"`
	InvoiceID       string                    `json:"invoiceId"`
	Reference       string                    `json:"reference"`
	Type            domain.UiNotificationType `json:"type"`
	TypeLabel       string                    `json:"typeLabel"`
	InvoiceStatus   string                    `json:"invoiceStatus"`
	StatusTone      string                    `json:"statusTone"`
	TaxResponse     string                    `json:"taxResponse"`
	TaxResponseTone string                    `json:"taxResponseTone"`
	Reason          string                    `json:"reason,omitempty"`
	CreatedDate     string                    `json:"createdDate"`
}

// NotificationService reshapes backend error notifications into view models
type NotificationService struct {
	backend NotificationBackend
	mapper  *domain.Mapper
}

// NewNotificationService creates a new notification service
func NewNotificationService(b NotificationBackend, mapper *domain.Mapper) *NotificationService {
	return &NotificationService{backend: b, mapper: mapper}
}

// List returns one page of error notifications
func (s *NotificationService) List(ctx context.Context, accessToken string, q backend.ListQuery) ([]NotificationView, int64, error) {
	page, err := s.backend.ListNotifications(ctx, accessToken, q)
	if err != nil {
		return nil, 0, err
	}

	views := make([]NotificationView, 0, len(page.Items))
	for i := range page.Items {
		views = append(views, s.View(&page.Items[i]))
	}
	return views, page.Total, nil
}

// View maps one backend notification
func (s *NotificationService) View(n *domain.ErrorNotification) NotificationView {
	kind := s.mapper.MapNotificationType(n.NotificationTypeCode)
	status := s.mapper.MapStatus(n.StatusCode)
	tax := s.mapper.MapTaxResponse(n.TaxResponse)

	return NotificationView{
		ID:              n.ID,
		InvoiceID:       n.InvoiceID,
		Reference:       format.InvoiceReference(n.InvoiceNumber),
		Type:            kind,
		TypeLabel:       kind.Label(),
		InvoiceStatus:   status.Label(),
		StatusTone:      status.Severity(),
		TaxResponse:     tax.Label(),
		TaxResponseTone: tax.Severity(),
		Reason:          n.Reason,
		CreatedDate:     format.Date(n.CreatedDate),
	}
}
