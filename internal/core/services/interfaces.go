package services

import (
	"context"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/core/domain"
)

// Note: backend.Client implements every interface below

// Authenticator checks operator credentials against the backend
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*domain.Principal, error)
}

// InvoiceBackend reads invoices from the backend
type InvoiceBackend interface {
	ListInvoices(ctx context.Context, accessToken string, q backend.ListQuery) (*domain.Page[domain.Invoice], error)
	LookupInvoice(ctx context.Context, reference string) (*domain.Invoice, error)
}

// NotificationBackend reads tax-authority error notifications from the backend
type NotificationBackend interface {
	ListNotifications(ctx context.Context, accessToken string, q backend.ListQuery) (*domain.Page[domain.ErrorNotification], error)
}
