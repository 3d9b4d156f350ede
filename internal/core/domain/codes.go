package domain

// BackendStatusCode is the document status sent by the backend (1..5)
type BackendStatusCode int

// BackendNotificationCode is the notification type sent by the backend (0..4).
// 0 is the legacy "unset" value found in old records.
type BackendNotificationCode int

// TaxResponseCode is the CQT response category sent by the backend (0..4)
type TaxResponseCode int

// UiStatus is the document status as the console presents it
type UiStatus int

const (
	StatusDraft UiStatus = iota + 1
	StatusSigned
	StatusSent
	StatusAccepted
	StatusRejected
)

// UiNotificationType is the error-notification type as the console presents it
type UiNotificationType int

const (
	NotificationCancel UiNotificationType = iota + 1
	NotificationAdjustment
	NotificationReplacement
	NotificationExplanation
)

// UiTaxResponse is the CQT response category as the console presents it
type UiTaxResponse int

const (
	TaxNotSent UiTaxResponse = iota
	TaxReceived
	TaxAccepted
	TaxRejected
	TaxTechnicalError
)

// Kinds reported to Diagnostics
const (
	KindStatus           = "status"
	KindNotificationType = "notification_type"
	KindTaxResponse      = "tax_response"
)

// Diagnostics receives mapping events that signal backend data-quality gaps
type Diagnostics interface {
	// MappingGap is called when a code outside the closed range was clamped.
	MappingGap(kind string, code, clampedTo int)
	// LegacyFallback is called when a legacy sentinel was resolved to its default.
	LegacyFallback(kind string, code, resolvedTo int)
}

type nopDiagnostics struct{}

func (nopDiagnostics) MappingGap(string, int, int)     {}
func (nopDiagnostics) LegacyFallback(string, int, int) {}

// Mapper translates backend codes into UI enumerations.
//
// Every method is total. Codes outside the documented range are clamped to the
// nearest valid value and reported through Diagnostics; they never reach the UI
// unmapped.
type Mapper struct {
	diag Diagnostics
}

// NewMapper creates a mapper reporting to diag (nil discards diagnostics)
func NewMapper(diag Diagnostics) *Mapper {
	if diag == nil {
		diag = nopDiagnostics{}
	}
	return &Mapper{diag: diag}
}

// MapStatus maps a backend document status to the UI status.
// Both numberings currently coincide; keep the switch so a backend renumbering
// is a change here only.
func (m *Mapper) MapStatus(code BackendStatusCode) UiStatus {
	switch code {
	case 1:
		return StatusDraft
	case 2:
		return StatusSigned
	case 3:
		return StatusSent
	case 4:
		return StatusAccepted
	case 5:
		return StatusRejected
	}

	clamped := StatusDraft
	if code > 5 {
		clamped = StatusRejected
	}
	m.diag.MappingGap(KindStatus, int(code), int(clamped))
	return clamped
}

// MapNotificationType maps a backend notification type to the UI type.
// Legacy records carry 0, which resolves to Adjustment.
func (m *Mapper) MapNotificationType(code BackendNotificationCode) UiNotificationType {
	switch code {
	case 0:
		m.diag.LegacyFallback(KindNotificationType, 0, int(NotificationAdjustment))
		return NotificationAdjustment
	case 1:
		return NotificationCancel
	case 2:
		return NotificationAdjustment
	case 3:
		return NotificationReplacement
	case 4:
		return NotificationExplanation
	}

	clamped := NotificationCancel
	if code > 4 {
		clamped = NotificationExplanation
	}
	m.diag.MappingGap(KindNotificationType, int(code), int(clamped))
	return clamped
}

// MapTaxResponse maps the CQT response category
func (m *Mapper) MapTaxResponse(code TaxResponseCode) UiTaxResponse {
	switch code {
	case 0:
		return TaxNotSent
	case 1:
		return TaxReceived
	case 2:
		return TaxAccepted
	case 3:
		return TaxRejected
	case 4:
		return TaxTechnicalError
	}

	clamped := TaxNotSent
	if code > 4 {
		clamped = TaxTechnicalError
	}
	m.diag.MappingGap(KindTaxResponse, int(code), int(clamped))
	return clamped
}

// Label returns the Vietnamese display label
func (s UiStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Nháp"
	case StatusSigned:
		return "Đã ký"
	case StatusSent:
		return "Đã gửi CQT"
	case StatusAccepted:
		return "CQT chấp nhận"
	case StatusRejected:
		return "CQT từ chối"
	}
	return ""
}

// Severity returns the UI tone used to render the status badge
func (s UiStatus) Severity() string {
	switch s {
	case StatusDraft:
		return "default"
	case StatusSigned, StatusSent:
		return "info"
	case StatusAccepted:
		return "success"
	case StatusRejected:
		return "danger"
	}
	return "default"
}

// Label returns the Vietnamese display label
func (t UiNotificationType) Label() string {
	switch t {
	case NotificationCancel:
		return "Hủy"
	case NotificationAdjustment:
		return "Điều chỉnh"
	case NotificationReplacement:
		return "Thay thế"
	case NotificationExplanation:
		return "Giải trình"
	}
	return ""
}

// Label returns the Vietnamese display label
func (r UiTaxResponse) Label() string {
	switch r {
	case TaxNotSent:
		return "Chưa gửi"
	case TaxReceived:
		return "CQT đã tiếp nhận"
	case TaxAccepted:
		return "CQT chấp nhận"
	case TaxRejected:
		return "CQT không chấp nhận"
	case TaxTechnicalError:
		return "Lỗi kỹ thuật"
	}
	return ""
}

// Severity returns the UI tone used to render the response badge
func (r UiTaxResponse) Severity() string {
	switch r {
	case TaxReceived:
		return "info"
	case TaxAccepted:
		return "success"
	case TaxRejected:
		return "danger"
	case TaxTechnicalError:
		return "warning"
	}
	return "default"
}
