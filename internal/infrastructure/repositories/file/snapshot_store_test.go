package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mosaic/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewSnapshotStore(path)

	snap := &domain.GridSnapshot{
		Slots: []*domain.Slot{
			{ID: "a", Name: "Cam 1", URL: "http://example.com/1.m3u8", Order: 1},
			{ID: "b", Name: "Cam 2", Order: 2},
		},
		GridSize: 2,
		SavedAt:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, store.Save(context.Background(), snap))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.GridSize)
	require.Len(t, loaded.Slots, 2)
	assert.Equal(t, domain.SlotID("a"), loaded.Slots[0].ID)
	assert.Equal(t, "http://example.com/1.m3u8", loaded.Slots[0].URL)
}

func TestSnapshotStoreMissingFile(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSnapshotStoreOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewSnapshotStore(path)

	require.NoError(t, store.Save(context.Background(), &domain.GridSnapshot{GridSize: 4}))
	require.NoError(t, store.Save(context.Background(), &domain.GridSnapshot{GridSize: 9}))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.GridSize)
}
