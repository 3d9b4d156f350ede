package services

import (
	"context"
	"strings"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/pkg/format"
)

// InvoiceView is an invoice ready for display
type InvoiceView struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	InvoiceNumber    string          `json:"invoiceNumber"`
	NumberError      string          `json:"numberError,omitempty"`
	Status           domain.UiStatus `json:"status"`
	StatusLabel      string          `json:"statusLabel"`
	StatusTone       string          `json:"statusTone"`
	TaxResponse      string          `json:"taxResponse"`
	TaxResponseTone  string          `json:"taxResponseTone"`
	TemplateCode     string          `json:"templateCode"`
	Series           string          `json:"series"`
	BuyerName        string          `json:"buyerName"`
	BuyerTaxCode     string          `json:"buyerTaxCode,omitempty"`
	TotalAmount      string          `json:"totalAmount"`
	TotalAmountValue int64           `json:"totalAmountValue"`
	CreatedDate      string          `json:"createdDate"`
}

// InvoiceService reshapes backend invoices into view models
type InvoiceService struct {
	backend InvoiceBackend
	mapper  *domain.Mapper
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(b InvoiceBackend, mapper *domain.Mapper) *InvoiceService {
	return &InvoiceService{backend: b, mapper: mapper}
}

// List returns one page of invoices visible to the token's operator
func (s *InvoiceService) List(ctx context.Context, accessToken string, q backend.ListQuery) ([]InvoiceView, int64, error) {
	page, err := s.backend.ListInvoices(ctx, accessToken, q)
	if err != nil {
		return nil, 0, err
	}

	views := make([]InvoiceView, 0, len(page.Items))
	for i := range page.Items {
		views = append(views, s.View(&page.Items[i]))
	}
	return views, page.Total, nil
}

// Lookup finds an invoice by its public reference.
// The reference is padded the way it is printed on the invoice.
func (s *InvoiceService) Lookup(ctx context.Context, reference string) (*InvoiceView, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ErrInvalidInput
	}

	inv, err := s.backend.LookupInvoice(ctx, format.InvoiceReference(reference))
	if err != nil {
		return nil, err
	}
	v := s.View(inv)
	return &v, nil
}

// View maps one backend invoice
func (s *InvoiceService) View(inv *domain.Invoice) InvoiceView {
	status := s.mapper.MapStatus(inv.StatusCode)
	tax := s.mapper.MapTaxResponse(inv.TaxResponse)

	v := InvoiceView{
		ID:               inv.ID,
		Reference:        format.InvoiceReference(inv.InvoiceNumber),
		InvoiceNumber:    format.CanonicalInvoiceNumber(inv.Number, status == domain.StatusDraft),
		Status:           status,
		StatusLabel:      status.Label(),
		StatusTone:       status.Severity(),
		TaxResponse:      tax.Label(),
		TaxResponseTone:  tax.Severity(),
		TemplateCode:     inv.TemplateCode,
		Series:           inv.Series,
		BuyerName:        inv.BuyerName,
		BuyerTaxCode:     inv.BuyerTaxCode,
		TotalAmount:      format.Currency(inv.TotalAmount),
		TotalAmountValue: inv.TotalAmount,
		CreatedDate:      format.Date(inv.CreatedDate),
	}
	if r := format.ValidateInvoiceNumber(inv.Number); !r.Valid {
		v.NumberError = r.ErrorMessage
	}
	return v
}
