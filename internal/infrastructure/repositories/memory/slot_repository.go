package memory

import (
	"context"
	"sort"
	"sync"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
)

type MemorySlotRepository struct {
	slots map[domain.SlotID]*domain.Slot
	mu    sync.RWMutex
}

func NewMemorySlotRepository() ports.SlotRepository {
	return &MemorySlotRepository{
		slots: make(map[domain.SlotID]*domain.Slot),
	}
}

func (r *MemorySlotRepository) List(ctx context.Context) ([]*domain.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Slot, 0, len(r.slots))
	for _, s := range r.slots {
		cp := *s
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *MemorySlotRepository) Update(ctx context.Context, slot *domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[slot.ID]; !exists {
		return domain.ErrSlotNotFound
	}
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *MemorySlotRepository) ReplaceAll(ctx context.Context, slots []*domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[domain.SlotID]*domain.Slot, len(slots))
	for _, s := range slots {
		cp := *s
		next[s.ID] = &cp
	}
	r.slots = next
	return nil
}

func (r *MemorySlotRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots = make(map[domain.SlotID]*domain.Slot)
	return nil
}
