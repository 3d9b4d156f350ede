package services

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// MappingDiagnostics logs code-mapping anomalies and keeps counters for /health
type MappingDiagnostics struct {
	lg              *zap.SugaredLogger
	gaps            atomic.Int64
	legacyFallbacks atomic.Int64
}

// NewMappingDiagnostics creates the production diagnostics sink
func NewMappingDiagnostics(lg *zap.SugaredLogger) *MappingDiagnostics {
	return &MappingDiagnostics{lg: lg}
}

// MappingGap implements domain.Diagnostics
func (d *MappingDiagnostics) MappingGap(kind string, code, clampedTo int) {
	d.gaps.Add(1)
	d.lg.Warnw("backend code outside documented range, clamped",
		"kind", kind,
		"code", code,
		"clamped_to", clampedTo,
	)
}

// LegacyFallback implements domain.Diagnostics
func (d *MappingDiagnostics) LegacyFallback(kind string, code, resolvedTo int) {
	d.legacyFallbacks.Add(1)
	d.lg.Warnw("legacy backend code resolved to default",
		"kind", kind,
		"code", code,
		"resolved_to", resolvedTo,
	)
}

// Counters returns the number of gaps and legacy fallbacks seen so far
func (d *MappingDiagnostics) Counters() (gaps, legacyFallbacks int64) {
	return d.gaps.Load(), d.legacyFallbacks.Load()
}
