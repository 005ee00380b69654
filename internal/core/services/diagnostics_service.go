package services

import (
	"sync"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
)

// diagnosticsService is the append-only, in-memory result log shared by the
// ping/traceroute/DNS panels. Results are never persisted; the log is
// cleared by explicit request or process restart.
type diagnosticsService struct {
	mu         sync.RWMutex
	results    []domain.DiagnosticResult
	maxEntries int
}

func NewDiagnosticsService(maxEntries int) ports.DiagnosticsService {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &diagnosticsService{maxEntries: maxEntries}
}

func (d *diagnosticsService) Append(result domain.DiagnosticResult) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.results = append(d.results, result)
	if len(d.results) > d.maxEntries {
		d.results = d.results[len(d.results)-d.maxEntries:]
	}
}

func (d *diagnosticsService) List() []domain.DiagnosticResult {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.DiagnosticResult, len(d.results))
	copy(out, d.results)
	return out
}

func (d *diagnosticsService) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = nil
}
