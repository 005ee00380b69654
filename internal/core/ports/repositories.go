package ports

import (
	"context"

	"mosaic/internal/core/domain"
)

type SlotRepository interface {
	List(ctx context.Context) ([]*domain.Slot, error)
	Update(ctx context.Context, slot *domain.Slot) error
	// ReplaceAll atomically swaps the stored slot set for the given one.
	ReplaceAll(ctx context.Context, slots []*domain.Slot) error
	DeleteAll(ctx context.Context) error
}

type GridConfigRepository interface {
	Get(ctx context.Context) (*domain.GridConfig, error)
	Put(ctx context.Context, cfg *domain.GridConfig) error
}

// SnapshotStore is the local fallback used when the primary store is down.
type SnapshotStore interface {
	Load(ctx context.Context) (*domain.GridSnapshot, error)
	Save(ctx context.Context, snap *domain.GridSnapshot) error
}
