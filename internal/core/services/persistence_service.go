package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
	"mosaic/pkg/retry"

	"go.uber.org/zap"
)

// persistenceService reads and writes the slot set and grid config through
// the primary store, falling back to the local snapshot when the primary is
// unreachable. Fallback is not silent: the degraded flag is exported and
// every fallback write logs at Warn.
type persistenceService struct {
	slots    ports.SlotRepository
	grid     ports.GridConfigRepository
	snapshot ports.SnapshotStore

	retryCfg        retry.Config
	defaultGridSize int
	logger          *zap.Logger
	onDegraded      func(bool)

	degraded atomic.Bool
}

func NewPersistenceService(
	slots ports.SlotRepository,
	grid ports.GridConfigRepository,
	snapshot ports.SnapshotStore,
	retryCfg retry.Config,
	defaultGridSize int,
	logger *zap.Logger,
	onDegraded func(bool),
) ports.PersistenceService {
	return &persistenceService{
		slots:           slots,
		grid:            grid,
		snapshot:        snapshot,
		retryCfg:        retryCfg,
		defaultGridSize: defaultGridSize,
		logger:          logger,
		onDegraded:      onDegraded,
	}
}

func (p *persistenceService) LoadAll(ctx context.Context) ([]*domain.Slot, int, error) {
	type loaded struct {
		slots []*domain.Slot
		size  int
	}

	result, err := retry.DoWithResult(ctx, p.retryCfg, func() (loaded, error) {
		slots, err := p.slots.List(ctx)
		if err != nil {
			return loaded{}, err
		}

		size := p.defaultGridSize
		cfg, err := p.grid.Get(ctx)
		switch {
		case err == nil && cfg != nil && domain.ValidGridSize(cfg.Size):
			size = cfg.Size
		case err != nil && !errors.Is(err, domain.ErrGridConfigNotFound):
			return loaded{}, err
		}

		return loaded{slots: slots, size: size}, nil
	})
	if err == nil {
		p.setDegraded(false)
		return result.slots, result.size, nil
	}

	p.setDegraded(true)
	p.logger.Warn("primary store unreachable, loading local snapshot", zap.Error(err))

	snap, snapErr := p.snapshot.Load(ctx)
	if snapErr == nil && snap != nil && len(snap.Slots) > 0 {
		size := snap.GridSize
		if !domain.ValidGridSize(size) {
			size = p.defaultGridSize
		}
		return snap.Slots, size, nil
	}
	if snapErr != nil && !errors.Is(snapErr, domain.ErrSnapshotNotFound) {
		p.logger.Warn("local snapshot unreadable", zap.Error(snapErr))
	}

	// Neither source has data: the registry synthesizes placeholders for
	// the default grid size.
	return nil, p.defaultGridSize, nil
}

func (p *persistenceService) SaveAll(ctx context.Context, slots []*domain.Slot, gridSize int) error {
	err := retry.Do(ctx, p.retryCfg, func() error {
		if err := p.slots.ReplaceAll(ctx, slots); err != nil {
			return err
		}
		ids := make([]domain.SlotID, len(slots))
		for i, s := range slots {
			ids[i] = s.ID
		}
		return p.grid.Put(ctx, &domain.GridConfig{Size: gridSize, Streams: ids})
	})
	if err == nil {
		p.setDegraded(false)
		return nil
	}

	p.setDegraded(true)
	p.logger.Warn("primary store save failed, writing local snapshot",
		zap.Int("slots", len(slots)),
		zap.Int("grid_size", gridSize),
		zap.Error(err),
	)

	snap := &domain.GridSnapshot{Slots: slots, GridSize: gridSize, SavedAt: time.Now()}
	if snapErr := p.snapshot.Save(ctx, snap); snapErr != nil {
		return fmt.Errorf("primary save failed (%v), snapshot save failed (%v): %w",
			err, snapErr, domain.ErrStoreUnavailable)
	}
	return nil
}

func (p *persistenceService) SaveSlot(ctx context.Context, slot *domain.Slot) error {
	err := retry.Do(ctx, p.retryCfg, func() error {
		return p.slots.Update(ctx, slot)
	})
	if err != nil {
		p.setDegraded(true)
		return fmt.Errorf("failed to persist slot %s: %w", slot.ID, err)
	}
	p.setDegraded(false)
	return nil
}

func (p *persistenceService) Degraded() bool {
	return p.degraded.Load()
}

func (p *persistenceService) setDegraded(degraded bool) {
	if p.degraded.Swap(degraded) != degraded && p.onDegraded != nil {
		p.onDegraded(degraded)
	}
}
