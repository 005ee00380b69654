package memory

import (
	"context"
	"sync"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
)

type MemoryGridConfigRepository struct {
	mu  sync.RWMutex
	cfg *domain.GridConfig
}

func NewMemoryGridConfigRepository() ports.GridConfigRepository {
	return &MemoryGridConfigRepository{}
}

func (r *MemoryGridConfigRepository) Get(ctx context.Context) (*domain.GridConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cfg == nil {
		return nil, domain.ErrGridConfigNotFound
	}
	cp := *r.cfg
	cp.Streams = append([]domain.SlotID(nil), r.cfg.Streams...)
	return &cp, nil
}

func (r *MemoryGridConfigRepository) Put(ctx context.Context, cfg *domain.GridConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *cfg
	cp.Streams = append([]domain.SlotID(nil), cfg.Streams...)
	r.cfg = &cp
	return nil
}
