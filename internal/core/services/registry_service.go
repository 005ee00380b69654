package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
	"mosaic/pkg/utils"

	"go.uber.org/zap"
)

// registryService owns the ordered slot set. All mutations are applied under
// the lock and keyed by slot identity, never by array index: a resize can
// change the index-to-slot mapping between two callbacks.
type registryService struct {
	persistence ports.PersistenceService
	logger      *zap.Logger

	mu       sync.RWMutex
	slots    []*domain.Slot
	gridSize int
}

func NewRegistryService(persistence ports.PersistenceService, logger *zap.Logger) ports.RegistryService {
	return &registryService{
		persistence: persistence,
		logger:      logger,
		gridSize:    domain.DefaultGridSize,
	}
}

func (r *registryService) Hydrate(ctx context.Context) error {
	slots, gridSize, err := r.persistence.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to hydrate registry: %w", err)
	}
	if !domain.ValidGridSize(gridSize) {
		gridSize = domain.DefaultGridSize
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Order < slots[j].Order })

	r.mu.Lock()
	r.slots = slots
	r.gridSize = gridSize
	r.fitToGridLocked()
	r.mu.Unlock()

	r.logger.Info("registry hydrated",
		zap.Int("slots", len(slots)),
		zap.Int("grid_size", gridSize),
	)
	return nil
}

func (r *registryService) Slots() []*domain.Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Slot, len(r.slots))
	for i, s := range r.slots {
		cp := *s
		out[i] = &cp
	}
	return out
}

func (r *registryService) SlotByID(id domain.SlotID) (*domain.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.slots {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSlotNotFound
}

func (r *registryService) GridSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gridSize
}

func (r *registryService) Resize(ctx context.Context, size int) ([]domain.SlotID, error) {
	if !domain.ValidGridSize(size) {
		return nil, domain.ErrInvalidGridSize
	}

	r.mu.Lock()
	var removed []domain.SlotID
	if size < len(r.slots) {
		for _, s := range r.slots[size:] {
			removed = append(removed, s.ID)
		}
	}
	r.gridSize = size
	r.fitToGridLocked()
	r.mu.Unlock()

	// Persistence is asynchronous; a failure degrades to the local snapshot
	// inside the persistence service.
	go r.persistAsync()

	return removed, nil
}

func (r *registryService) UpdateSlot(ctx context.Context, id domain.SlotID, patch domain.SlotPatch) (*domain.Slot, error) {
	r.mu.Lock()
	var target *domain.Slot
	for _, s := range r.slots {
		if s.ID == id {
			target = s
			break
		}
	}
	if target == nil {
		r.mu.Unlock()
		return nil, domain.ErrSlotNotFound
	}

	if patch.Name != nil {
		target.Name = *patch.Name
	}
	if patch.URL != nil {
		target.URL = *patch.URL
	}
	if patch.Headers != nil {
		target.Headers = *patch.Headers
	}
	if patch.Cookies != nil {
		target.Cookies = *patch.Cookies
	}
	cp := *target
	r.mu.Unlock()

	if err := r.persistence.SaveSlot(ctx, &cp); err != nil {
		r.logger.Warn("failed to persist slot update, scheduling full save",
			zap.String("slot_id", string(id)),
			zap.Error(err),
		)
		go r.persistAsync()
	}

	return &cp, nil
}

func (r *registryService) ReplaceAll(ctx context.Context, slots []*domain.Slot) ([]*domain.Slot, error) {
	now := time.Now()
	for i, s := range slots {
		if s.ID == "" {
			s.ID = domain.SlotID(utils.GenerateSlotID())
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.Order = i + 1
		s.Active = true
	}

	r.mu.Lock()
	r.slots = slots
	if len(slots) > 0 && domain.ValidGridSize(len(slots)) {
		r.gridSize = len(slots)
	}
	r.fitToGridLocked()
	out := make([]*domain.Slot, len(r.slots))
	for i, s := range r.slots {
		cp := *s
		out[i] = &cp
	}
	gridSize := r.gridSize
	r.mu.Unlock()

	if err := r.persistence.SaveAll(ctx, out, gridSize); err != nil {
		return nil, fmt.Errorf("failed to persist slots: %w", err)
	}
	return out, nil
}

func (r *registryService) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.slots = nil
	r.fitToGridLocked()
	r.mu.Unlock()

	return r.Save(ctx)
}

func (r *registryService) Save(ctx context.Context) error {
	r.mu.RLock()
	slots := make([]*domain.Slot, len(r.slots))
	for i, s := range r.slots {
		cp := *s
		slots[i] = &cp
	}
	gridSize := r.gridSize
	r.mu.RUnlock()

	return r.persistence.SaveAll(ctx, slots, gridSize)
}

// fitToGridLocked pads with placeholder slots or truncates by order so that
// exactly gridSize slots exist. Retained slots keep their configuration.
func (r *registryService) fitToGridLocked() {
	if len(r.slots) > r.gridSize {
		r.slots = r.slots[:r.gridSize]
		return
	}

	nextOrder := 0
	for _, s := range r.slots {
		if s.Order > nextOrder {
			nextOrder = s.Order
		}
	}
	for len(r.slots) < r.gridSize {
		nextOrder++
		r.slots = append(r.slots, placeholderSlot(nextOrder))
	}
}

func placeholderSlot(order int) *domain.Slot {
	return &domain.Slot{
		ID:        domain.SlotID(utils.GenerateSlotID()),
		Name:      fmt.Sprintf("Stream %d", order),
		URL:       "",
		Order:     order,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func (r *registryService) persistAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := r.Save(ctx); err != nil {
		r.logger.Warn("background registry save failed", zap.Error(err))
	}
}
