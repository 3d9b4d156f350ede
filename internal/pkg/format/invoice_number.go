// Package format renders backend identifiers and amounts for display.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ReferenceWidth is the padded width of an invoice reference
	ReferenceWidth = 8
	// NumberWidth is the padded width of a canonical invoice number
	NumberWidth = 7
	// MaxInvoiceNumber is the largest number the tax authority accepts
	MaxInvoiceNumber = 9_999_999

	// NotIssuedPlaceholder is shown while an invoice has no number yet
	NotIssuedPlaceholder = "Chưa cấp số"
)

var ErrInvalidInvoiceNumber = errors.New("invalid invoice number")

// ValidationResult is returned instead of an error so callers can render
// the message inline.
type ValidationResult struct {
	Valid        bool   `json:"valid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// InvoiceReference left-pads raw with zeros to ReferenceWidth.
// Values already at least that wide are returned unchanged.
func InvoiceReference(raw string) string {
	if raw == "" {
		return strings.Repeat("0", ReferenceWidth)
	}
	if len(raw) >= ReferenceWidth {
		return raw
	}
	return strings.Repeat("0", ReferenceWidth-len(raw)) + raw
}

// ValidateInvoiceNumber checks n against the range accepted by the tax authority
func ValidateInvoiceNumber(n int) ValidationResult {
	if n < 0 {
		return ValidationResult{ErrorMessage: "Số hóa đơn không được âm"}
	}
	if n > MaxInvoiceNumber {
		return ValidationResult{ErrorMessage: fmt.Sprintf("Số hóa đơn không được vượt quá %d", MaxInvoiceNumber)}
	}
	return ValidationResult{Valid: true}
}

// CanonicalInvoiceNumber renders n padded to NumberWidth.
// Drafts and unissued invoices (n == 0) render as NotIssuedPlaceholder.
// Out-of-range values are rendered unpadded; use ValidateInvoiceNumber to
// surface the problem.
func CanonicalInvoiceNumber(n int, isDraft bool) string {
	if isDraft || n == 0 {
		return NotIssuedPlaceholder
	}
	if !ValidateInvoiceNumber(n).Valid {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%0*d", NumberWidth, n)
}

// ParseInvoiceNumber is the inverse of CanonicalInvoiceNumber
func ParseInvoiceNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == NotIssuedPlaceholder {
		return 0, nil
	}
	if s == "" {
		return 0, ErrInvalidInvoiceNumber
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidInvoiceNumber, s)
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInvoiceNumber, s)
	}
	if !ValidateInvoiceNumber(n).Valid {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidInvoiceNumber, s)
	}
	return n, nil
}
