package domain

import "strings"

// Role represents the role of a console operator
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleHOD        Role = "HOD"
	RoleAccountant Role = "ACCOUNTANT"
	RoleSales      Role = "SALES"
	RoleCustomer   Role = "CUSTOMER"
)

// AllRoles lists every known role in display order
var AllRoles = []Role{RoleAdmin, RoleHOD, RoleAccountant, RoleSales, RoleCustomer}

// ParseRole normalizes a raw role value coming from the backend.
// The second return value is false for roles outside the closed set.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	return r, r.Valid()
}

// Valid reports whether r belongs to the closed role set
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHOD, RoleAccountant, RoleSales, RoleCustomer:
		return true
	}
	return false
}

// Slug returns the lower-case role name used in policies and URLs
func (r Role) Slug() string {
	return strings.ToLower(string(r))
}

// Label returns the Vietnamese display name of the role
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Quản trị viên"
	case RoleHOD:
		return "Trưởng phòng"
	case RoleAccountant:
		return "Kế toán"
	case RoleSales:
		return "Kinh doanh"
	case RoleCustomer:
		return "Khách hàng"
	}
	return string(r)
}

// Invoice is an e-invoice as returned by the backend API
type Invoice struct {
	ID            string            `json:"id"`
	StatusCode    BackendStatusCode `json:"statusCode"`
	InvoiceNumber string            `json:"invoiceNumber"`
	Number        int               `json:"number"`
	TemplateCode  string            `json:"templateCode"`
	Series        string            `json:"series"`
	BuyerName     string            `json:"buyerName"`
	BuyerTaxCode  string            `json:"buyerTaxCode"`
	TotalAmount   int64             `json:"totalAmount"`
	CreatedDate   string            `json:"createdDate"`
	TaxResponse   TaxResponseCode   `json:"taxResponseCode"`
}

// IsDraft reports whether the invoice has not been signed yet
func (i *Invoice) IsDraft() bool {
	return i.StatusCode == BackendStatusCode(StatusDraft)
}

// ErrorNotification is a tax-authority error notification (form 04/SS-HĐĐT)
type ErrorNotification struct {
	ID                   string                  `json:"id"`
	InvoiceID            string                  `json:"invoiceId"`
	InvoiceNumber        string                  `json:"invoiceNumber"`
	NotificationTypeCode BackendNotificationCode `json:"notificationTypeCode"`
	StatusCode           BackendStatusCode       `json:"statusCode"`
	TaxResponse          TaxResponseCode         `json:"taxResponseCode"`
	Reason               string                  `json:"reason"`
	CreatedDate          string                  `json:"createdDate"`
}

// Principal is the authenticated identity returned by the backend on login
type Principal struct {
	Identity     string `json:"identity"`
	DisplayName  string `json:"displayName"`
	Role         string `json:"role"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Page is a slice of backend records plus the total count
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
