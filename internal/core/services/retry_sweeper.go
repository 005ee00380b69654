package services

import (
	"context"
	"sync"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
	"mosaic/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// SweepMetrics receives retry sweep observations.
type SweepMetrics interface {
	RecordRetry(slotID domain.SlotID)
	RecordBreakerSkip(slotID domain.SlotID)
	// UpdateSlotStates refreshes the per-state gauge from the statuses the
	// sweep walked over.
	UpdateSlotStates(statuses []domain.SlotStatus)
}

// RetrySweeper periodically re-issues loads for errored slots. Each reload
// runs in its own goroutine so a slow source never blocks sibling tiles.
// Slots are retried indefinitely; the optional per-source circuit breaker
// spaces out retries against persistently-down sources.
type RetrySweeper struct {
	registry ports.RegistryService
	sessions ports.SessionController
	interval time.Duration
	logger   *zap.Logger
	metrics  SweepMetrics

	breakerCfg     circuitbreaker.Config
	breakerEnabled bool
	bmu            sync.Mutex
	breakers       map[string]*circuitbreaker.CircuitBreaker
}

func NewRetrySweeper(
	registry ports.RegistryService,
	sessions ports.SessionController,
	interval time.Duration,
	breakerEnabled bool,
	breakerCfg circuitbreaker.Config,
	logger *zap.Logger,
	metrics SweepMetrics,
) *RetrySweeper {
	return &RetrySweeper{
		registry:       registry,
		sessions:       sessions,
		interval:       interval,
		logger:         logger,
		metrics:        metrics,
		breakerCfg:     breakerCfg,
		breakerEnabled: breakerEnabled,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *RetrySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep re-issues a load for every slot that is errored, not loading, and
// has a source configured. Reloads are fire-and-forget and independent.
func (s *RetrySweeper) Sweep(ctx context.Context) {
	slots := s.registry.Slots()
	statuses := make([]domain.SlotStatus, 0, len(slots))
	activeURLs := make(map[string]struct{}, len(slots))

	for _, slot := range slots {
		status := s.sessions.Status(slot.ID)
		statuses = append(statuses, status)
		if slot.Configured() {
			activeURLs[slot.URL] = struct{}{}
		}
		if status.Error == "" || status.IsLoading || !slot.Configured() {
			continue
		}
		// Autoplay-blocked tiles need a user gesture, not a reload.
		if status.State != domain.StateErrored {
			continue
		}

		breaker := s.breakerFor(slot.URL)
		if breaker != nil && !breaker.Allow() {
			if s.metrics != nil {
				s.metrics.RecordBreakerSkip(slot.ID)
			}
			continue
		}

		if s.metrics != nil {
			s.metrics.RecordRetry(slot.ID)
		}

		go func(id domain.SlotID, url string) {
			err := s.sessions.Load(ctx, id)
			if breaker != nil {
				if err != nil {
					breaker.RecordFailure()
				} else {
					breaker.RecordSuccess()
				}
			}
			if err != nil {
				s.logger.Debug("retry reload failed",
					zap.String("slot_id", string(id)),
					zap.String("url", url),
					zap.Error(err),
				)
			}
		}(slot.ID, slot.URL)
	}

	s.pruneBreakers(activeURLs)
	if s.metrics != nil {
		s.metrics.UpdateSlotStates(statuses)
	}
}

// pruneBreakers drops breaker state for sources no longer configured on any
// slot, so reconfigured URLs do not accumulate for the process lifetime.
func (s *RetrySweeper) pruneBreakers(active map[string]struct{}) {
	if !s.breakerEnabled {
		return
	}

	s.bmu.Lock()
	for url := range s.breakers {
		if _, ok := active[url]; !ok {
			delete(s.breakers, url)
		}
	}
	s.bmu.Unlock()
}

func (s *RetrySweeper) breakerFor(url string) *circuitbreaker.CircuitBreaker {
	if !s.breakerEnabled {
		return nil
	}

	s.bmu.Lock()
	defer s.bmu.Unlock()

	cb, ok := s.breakers[url]
	if !ok {
		cb = circuitbreaker.New(s.breakerCfg)
		s.breakers[url] = cb
	}
	return cb
}
