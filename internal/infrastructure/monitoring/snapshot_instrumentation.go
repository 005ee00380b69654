package monitoring

import (
	"context"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"
)

// InstrumentSnapshotStore wraps a snapshot store so every save's latency
// lands in the snapshot histogram.
func (p *PrometheusCollector) InstrumentSnapshotStore(store ports.SnapshotStore) ports.SnapshotStore {
	return &timedSnapshotStore{store: store, collector: p}
}

type timedSnapshotStore struct {
	store     ports.SnapshotStore
	collector *PrometheusCollector
}

func (t *timedSnapshotStore) Load(ctx context.Context) (*domain.GridSnapshot, error) {
	return t.store.Load(ctx)
}

func (t *timedSnapshotStore) Save(ctx context.Context, snap *domain.GridSnapshot) error {
	start := time.Now()
	err := t.store.Save(ctx, snap)
	t.collector.RecordSnapshotSave(time.Since(start))
	return err
}
