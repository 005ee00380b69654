package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"mosaic/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mapSlots is a fixed slot lookup.
type mapSlots map[domain.SlotID]*domain.Slot

func (m mapSlots) SlotByID(id domain.SlotID) (*domain.Slot, error) {
	slot, ok := m[id]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func testSlots() mapSlots {
	return mapSlots{
		"a":     {ID: "a", Name: "Cam 1", URL: "http://example.com/a.m3u8"},
		"b":     {ID: "b", Name: "Cam 2", URL: "http://example.com/b.m3u8"},
		"empty": {ID: "empty", Name: "Stream 3"},
	}
}

func TestControllerLoadUnknownSlot(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)
	assert.ErrorIs(t, ctrl.Load(context.Background(), "missing"), domain.ErrSlotNotFound)
}

func TestControllerLoadUnconfiguredSlot(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)
	assert.ErrorIs(t, ctrl.Load(context.Background(), "empty"), domain.ErrNoSource)
}

func TestControllerRejectsControlsForUnknownSlot(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)

	assert.ErrorIs(t, ctrl.Pause("ghost"), domain.ErrSlotNotFound)
	assert.ErrorIs(t, ctrl.ToggleMute("ghost"), domain.ErrSlotNotFound)
	assert.ErrorIs(t, ctrl.SelectQuality("ghost", domain.TrackAuto), domain.ErrSlotNotFound)

	// A rejected control must not leave a session behind.
	ctrl.mu.RLock()
	_, ok := ctrl.sessions["ghost"]
	ctrl.mu.RUnlock()
	assert.False(t, ok)
}

func TestControllerStatusForUnknownSlotIsIdle(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)

	status := ctrl.Status("a")
	assert.Equal(t, domain.StateIdle, status.State)
	assert.Equal(t, "idle", status.StateName)
	assert.Equal(t, domain.TrackAuto, status.SelectedQuality)
}

func TestControllerFailureIsolation(t *testing.T) {
	loader := &funcLoader{fn: func(ctx context.Context, src domain.Source) ([]domain.QualityTrack, error) {
		if src.URL == "http://example.com/a.m3u8" {
			return nil, &LoadError{Code: MediaErrNetwork, Message: "Network error"}
		}
		return testTracks, nil
	}}
	ctrl := NewController(loader, testSlots(), zaptest.NewLogger(t), nil)

	require.Error(t, ctrl.Load(context.Background(), "a"))
	require.NoError(t, ctrl.Load(context.Background(), "b"))

	assert.Equal(t, domain.StateErrored, ctrl.Status("a").State)
	assert.Equal(t, "Error 2: Network error", ctrl.Status("a").Error)
	assert.Equal(t, domain.StatePaused, ctrl.Status("b").State)
	assert.Empty(t, ctrl.Status("b").Error)
}

func TestControllerDisposeRemovesSession(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)
	require.NoError(t, ctrl.Load(context.Background(), "a"))

	ctrl.Dispose("a")
	assert.Equal(t, domain.StateIdle, ctrl.Status("a").State)

	// Disposing a slot with no session is a no-op.
	ctrl.Dispose("never-loaded")
}

func TestControllerDisposeAll(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)
	require.NoError(t, ctrl.Load(context.Background(), "a"))
	require.NoError(t, ctrl.Load(context.Background(), "b"))

	ctrl.DisposeAll()

	assert.Equal(t, domain.StateIdle, ctrl.Status("a").State)
	assert.Equal(t, domain.StateIdle, ctrl.Status("b").State)
}

func TestControllerAutoplayBanner(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)
	require.NoError(t, ctrl.Load(context.Background(), "a"))

	assert.False(t, ctrl.AutoplayBlocked())

	require.NoError(t, ctrl.HandleEvent("a", domain.PlayerEvent{Kind: domain.EventAutoplayBlocked}))
	assert.True(t, ctrl.AutoplayBlocked())

	ctrl.DismissAutoplayBanner()
	assert.False(t, ctrl.AutoplayBlocked())
}

func TestControllerTracksRequireLoad(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)

	_, err := ctrl.Tracks("a")
	assert.ErrorIs(t, err, domain.ErrNotLoaded)

	require.NoError(t, ctrl.Load(context.Background(), "a"))
	tracks, err := ctrl.Tracks("a")
	require.NoError(t, err)
	assert.Len(t, tracks, 3)
}

// recordingMetrics counts the controller's metric hooks.
type recordingMetrics struct {
	mu        sync.Mutex
	loads     int
	failures  int
	durations []time.Duration
	events    []domain.EventKind
}

func (r *recordingMetrics) RecordLoad(domain.SlotID) {
	r.mu.Lock()
	r.loads++
	r.mu.Unlock()
}

func (r *recordingMetrics) RecordLoadFailure(domain.SlotID) {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
}

func (r *recordingMetrics) RecordLoadDuration(d time.Duration) {
	r.mu.Lock()
	r.durations = append(r.durations, d)
	r.mu.Unlock()
}

func (r *recordingMetrics) RecordPlayerEvent(kind domain.EventKind) {
	r.mu.Lock()
	r.events = append(r.events, kind)
	r.mu.Unlock()
}

func TestControllerRecordsMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), metrics)

	require.NoError(t, ctrl.Load(context.Background(), "a"))
	require.NoError(t, ctrl.HandleEvent("a", domain.PlayerEvent{Kind: domain.EventCanPlay}))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.loads)
	assert.Equal(t, 0, metrics.failures)
	assert.Len(t, metrics.durations, 1)
	assert.Equal(t, []domain.EventKind{domain.EventCanPlay}, metrics.events)
}

func TestControllerBroadcastsStatusChanges(t *testing.T) {
	ctrl := NewController(okLoader(), testSlots(), zaptest.NewLogger(t), nil)

	var mu sync.Mutex
	var seen []domain.SlotStatus
	ctrl.OnStatusChange(func(status domain.SlotStatus) {
		mu.Lock()
		seen = append(seen, status)
		mu.Unlock()
	})

	require.NoError(t, ctrl.Load(context.Background(), "a"))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for _, status := range seen {
		assert.Equal(t, domain.SlotID("a"), status.SlotID)
	}
}
