package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/infrastructure/repositories/memory"
	"mosaic/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errStoreDown = errors.New("store down")

// failingSlotRepo fails every call, optionally recovering after a flag flip.
type failingSlotRepo struct {
	mu   sync.Mutex
	fail bool
}

func (r *failingSlotRepo) setFail(fail bool) {
	r.mu.Lock()
	r.fail = fail
	r.mu.Unlock()
}

func (r *failingSlotRepo) failing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fail
}

func (r *failingSlotRepo) List(ctx context.Context) ([]*domain.Slot, error) {
	if r.failing() {
		return nil, errStoreDown
	}
	return nil, nil
}

func (r *failingSlotRepo) Update(ctx context.Context, slot *domain.Slot) error {
	if r.failing() {
		return errStoreDown
	}
	return nil
}

func (r *failingSlotRepo) ReplaceAll(ctx context.Context, slots []*domain.Slot) error {
	if r.failing() {
		return errStoreDown
	}
	return nil
}

func (r *failingSlotRepo) DeleteAll(ctx context.Context) error {
	if r.failing() {
		return errStoreDown
	}
	return nil
}

// memorySnapshotStore keeps the snapshot in memory for tests.
type memorySnapshotStore struct {
	mu   sync.Mutex
	snap *domain.GridSnapshot
}

func (s *memorySnapshotStore) Load(ctx context.Context) (*domain.GridSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return s.snap, nil
}

func (s *memorySnapshotStore) Save(ctx context.Context, snap *domain.GridSnapshot) error {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func fastRetry() retry.Config {
	return retry.Config{
		Enabled:      true,
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestPersistenceRoundTripThroughPrimary(t *testing.T) {
	slotRepo := memory.NewMemorySlotRepository()
	gridRepo := memory.NewMemoryGridConfigRepository()
	snapshot := &memorySnapshotStore{}

	svc := NewPersistenceService(slotRepo, gridRepo, snapshot, fastRetry(), 4, zaptest.NewLogger(t), nil)

	slots := []*domain.Slot{
		{ID: "a", Name: "Cam 1", URL: "http://example.com/1.m3u8", Order: 1},
		{ID: "b", Name: "Cam 2", Order: 2},
	}
	require.NoError(t, svc.SaveAll(context.Background(), slots, 2))
	assert.False(t, svc.Degraded())

	loaded, size, err := svc.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	require.Len(t, loaded, 2)
}

func TestPersistenceFallsBackToSnapshotOnSaveFailure(t *testing.T) {
	slotRepo := &failingSlotRepo{fail: true}
	gridRepo := memory.NewMemoryGridConfigRepository()
	snapshot := &memorySnapshotStore{}

	var transitions []bool
	var mu sync.Mutex
	svc := NewPersistenceService(slotRepo, gridRepo, snapshot, fastRetry(), 4, zaptest.NewLogger(t), func(degraded bool) {
		mu.Lock()
		transitions = append(transitions, degraded)
		mu.Unlock()
	})

	slots := []*domain.Slot{{ID: "a", Name: "Cam 1", Order: 1}}

	// Save succeeds by writing the snapshot, but the service reports degraded.
	require.NoError(t, svc.SaveAll(context.Background(), slots, 1))
	assert.True(t, svc.Degraded())

	snapshot.mu.Lock()
	snap := snapshot.snap
	snapshot.mu.Unlock()
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.GridSize)
	require.Len(t, snap.Slots, 1)
	assert.Equal(t, domain.SlotID("a"), snap.Slots[0].ID)
	assert.False(t, snap.SavedAt.IsZero())

	mu.Lock()
	assert.Equal(t, []bool{true}, transitions)
	mu.Unlock()
}

// failingSnapshotStore rejects every read and write.
type failingSnapshotStore struct{}

func (failingSnapshotStore) Load(ctx context.Context) (*domain.GridSnapshot, error) {
	return nil, errStoreDown
}

func (failingSnapshotStore) Save(ctx context.Context, snap *domain.GridSnapshot) error {
	return errStoreDown
}

func TestPersistenceSaveReportsStoreUnavailable(t *testing.T) {
	slotRepo := &failingSlotRepo{fail: true}
	gridRepo := memory.NewMemoryGridConfigRepository()

	svc := NewPersistenceService(slotRepo, gridRepo, failingSnapshotStore{}, fastRetry(), 4, zaptest.NewLogger(t), nil)

	err := svc.SaveAll(context.Background(), []*domain.Slot{{ID: "a", Order: 1}}, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.True(t, svc.Degraded())
}

func TestPersistenceLoadPrefersSnapshotOverDefaults(t *testing.T) {
	slotRepo := &failingSlotRepo{fail: true}
	gridRepo := memory.NewMemoryGridConfigRepository()
	snapshot := &memorySnapshotStore{
		snap: &domain.GridSnapshot{
			Slots:    []*domain.Slot{{ID: "a", Name: "Cam 1", Order: 1}},
			GridSize: 1,
			SavedAt:  time.Now(),
		},
	}

	svc := NewPersistenceService(slotRepo, gridRepo, snapshot, fastRetry(), 4, zaptest.NewLogger(t), nil)

	slots, size, err := svc.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, size)
	require.Len(t, slots, 1)
	assert.Equal(t, domain.SlotID("a"), slots[0].ID)
	assert.True(t, svc.Degraded())
}

func TestPersistenceLoadSynthesizesDefaultsWhenEverythingIsEmpty(t *testing.T) {
	slotRepo := &failingSlotRepo{fail: true}
	gridRepo := memory.NewMemoryGridConfigRepository()
	snapshot := &memorySnapshotStore{}

	svc := NewPersistenceService(slotRepo, gridRepo, snapshot, fastRetry(), 4, zaptest.NewLogger(t), nil)

	slots, size, err := svc.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Nil(t, slots)
	assert.Equal(t, 4, size)
}

func TestPersistenceRecoversFromDegradedMode(t *testing.T) {
	slotRepo := &failingSlotRepo{fail: true}
	gridRepo := memory.NewMemoryGridConfigRepository()
	snapshot := &memorySnapshotStore{}

	var transitions []bool
	var mu sync.Mutex
	svc := NewPersistenceService(slotRepo, gridRepo, snapshot, fastRetry(), 4, zaptest.NewLogger(t), func(degraded bool) {
		mu.Lock()
		transitions = append(transitions, degraded)
		mu.Unlock()
	})

	require.NoError(t, svc.SaveAll(context.Background(), nil, 4))
	assert.True(t, svc.Degraded())

	slotRepo.setFail(false)
	require.NoError(t, svc.SaveAll(context.Background(), nil, 4))
	assert.False(t, svc.Degraded())

	mu.Lock()
	assert.Equal(t, []bool{true, false}, transitions)
	mu.Unlock()
}
