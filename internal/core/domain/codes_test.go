package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gapEvent struct {
	kind     string
	code     int
	mappedTo int
	isLegacy bool
}

type recordingDiagnostics struct {
	events []gapEvent
}

func (r *recordingDiagnostics) MappingGap(kind string, code, clampedTo int) {
	r.events = append(r.events, gapEvent{kind: kind, code: code, mappedTo: clampedTo})
}

func (r *recordingDiagnostics) LegacyFallback(kind string, code, resolvedTo int) {
	r.events = append(r.events, gapEvent{kind: kind, code: code, mappedTo: resolvedTo, isLegacy: true})
}

func TestMapStatus_IdentityOverDocumentedRange(t *testing.T) {
	diag := &recordingDiagnostics{}
	m := NewMapper(diag)

	for code := 1; code <= 5; code++ {
		got := m.MapStatus(BackendStatusCode(code))
		assert.Equal(t, code, int(got), "code %d", code)
		assert.NotEmpty(t, got.Label())
	}
	assert.Empty(t, diag.events)
}

func TestMapStatus_ClampsOutOfRange(t *testing.T) {
	diag := &recordingDiagnostics{}
	m := NewMapper(diag)

	assert.Equal(t, StatusDraft, m.MapStatus(0))
	assert.Equal(t, StatusDraft, m.MapStatus(-3))
	assert.Equal(t, StatusRejected, m.MapStatus(6))
	assert.Equal(t, StatusRejected, m.MapStatus(42))

	require.Len(t, diag.events, 4)
	assert.Equal(t, gapEvent{kind: KindStatus, code: 42, mappedTo: int(StatusRejected)}, diag.events[3])
}

func TestMapNotificationType_OneToOne(t *testing.T) {
	diag := &recordingDiagnostics{}
	m := NewMapper(diag)

	cases := map[BackendNotificationCode]UiNotificationType{
		1: NotificationCancel,
		2: NotificationAdjustment,
		3: NotificationReplacement,
		4: NotificationExplanation,
	}
	for code, want := range cases {
		assert.Equal(t, want, m.MapNotificationType(code), "code %d", code)
	}
	assert.Empty(t, diag.events)
}

func TestMapNotificationType_LegacyZeroEmitsOncePerCall(t *testing.T) {
	diag := &recordingDiagnostics{}
	m := NewMapper(diag)

	assert.Equal(t, NotificationAdjustment, m.MapNotificationType(0))
	require.Len(t, diag.events, 1)
	assert.True(t, diag.events[0].isLegacy)
	assert.Equal(t, KindNotificationType, diag.events[0].kind)

	m.MapNotificationType(0)
	m.MapNotificationType(0)
	assert.Len(t, diag.events, 3)
}

func TestMapNotificationType_OutOfRange(t *testing.T) {
	diag := &recordingDiagnostics{}
	m := NewMapper(diag)

	assert.Equal(t, NotificationExplanation, m.MapNotificationType(9))
	assert.Equal(t, NotificationCancel, m.MapNotificationType(-1))
	require.Len(t, diag.events, 2)
	assert.False(t, diag.events[0].isLegacy)
}

func TestMapTaxResponse(t *testing.T) {
	diag := &recordingDiagnostics{}
	m := NewMapper(diag)

	for code := 0; code <= 4; code++ {
		assert.Equal(t, code, int(m.MapTaxResponse(TaxResponseCode(code))))
	}
	assert.Empty(t, diag.events)

	assert.Equal(t, TaxTechnicalError, m.MapTaxResponse(7))
	assert.Len(t, diag.events, 1)
}

func TestNewMapper_NilDiagnostics(t *testing.T) {
	m := NewMapper(nil)
	assert.NotPanics(t, func() {
		m.MapNotificationType(0)
		m.MapStatus(99)
	})
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" sales ")
	assert.True(t, ok)
	assert.Equal(t, RoleSales, r)

	_, ok = ParseRole("auditor")
	assert.False(t, ok)
}
