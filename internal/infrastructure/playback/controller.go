package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"

	"go.uber.org/zap"
)

// ControllerMetrics receives load and event observations.
type ControllerMetrics interface {
	RecordLoad(slotID domain.SlotID)
	RecordLoadFailure(slotID domain.SlotID)
	RecordLoadDuration(d time.Duration)
	RecordPlayerEvent(kind domain.EventKind)
}

// Controller owns one Session per configured slot and implements
// ports.SessionController. Sessions are created lazily on first use and
// disposed when their slot leaves the grid.
type Controller struct {
	loader  ports.SourceLoader
	slots   ports.SlotProvider
	logger  *zap.Logger
	metrics ControllerMetrics

	mu       sync.RWMutex
	sessions map[domain.SlotID]*Session

	autoplayBlocked atomic.Bool
	onStatus        atomic.Pointer[func(domain.SlotStatus)]
}

func NewController(loader ports.SourceLoader, slots ports.SlotProvider, logger *zap.Logger, metrics ControllerMetrics) *Controller {
	return &Controller{
		loader:   loader,
		slots:    slots,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[domain.SlotID]*Session),
	}
}

// OnStatusChange registers a callback fired on every slot state transition,
// typically the websocket broadcast.
func (c *Controller) OnStatusChange(fn func(domain.SlotStatus)) {
	c.onStatus.Store(&fn)
}

func (c *Controller) session(id domain.SlotID) *Session {
	c.mu.RLock()
	sess, ok := c.sessions[id]
	c.mu.RUnlock()
	if ok {
		return sess
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, ok = c.sessions[id]; ok {
		return sess
	}

	sess = NewSession(id, c.loader, c.logger)
	sess.OnStatusChange(func(status domain.SlotStatus) {
		if fn := c.onStatus.Load(); fn != nil {
			(*fn)(status)
		}
	})
	sess.OnAutoplayBlocked(func() {
		c.autoplayBlocked.Store(true)
	})
	c.sessions[id] = sess
	return sess
}

func (c *Controller) Load(ctx context.Context, id domain.SlotID) error {
	slot, err := c.slots.SlotByID(id)
	if err != nil {
		return err
	}
	if !slot.Configured() {
		return domain.ErrNoSource
	}

	if c.metrics != nil {
		c.metrics.RecordLoad(id)
	}
	start := time.Now()
	if err := c.session(id).Load(ctx, slot.Source()); err != nil {
		if c.metrics != nil {
			c.metrics.RecordLoadFailure(id)
		}
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordLoadDuration(time.Since(start))
	}
	return nil
}

func (c *Controller) Play(ctx context.Context, id domain.SlotID) error {
	slot, err := c.slots.SlotByID(id)
	if err != nil {
		return err
	}
	if !slot.Configured() {
		return domain.ErrNoSource
	}
	return c.session(id).Play(ctx, slot.Source())
}

func (c *Controller) Pause(id domain.SlotID) error {
	if _, err := c.slots.SlotByID(id); err != nil {
		return err
	}
	return c.session(id).Pause()
}

func (c *Controller) ToggleMute(id domain.SlotID) error {
	if _, err := c.slots.SlotByID(id); err != nil {
		return err
	}
	return c.session(id).ToggleMute()
}

func (c *Controller) SelectQuality(id domain.SlotID, track domain.TrackID) error {
	if _, err := c.slots.SlotByID(id); err != nil {
		return err
	}
	return c.session(id).SelectTrack(track)
}

func (c *Controller) Tracks(id domain.SlotID) ([]domain.QualityTrack, error) {
	c.mu.RLock()
	sess, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotLoaded
	}
	return sess.Status().Tracks, nil
}

func (c *Controller) HandleEvent(id domain.SlotID, ev domain.PlayerEvent) error {
	if _, err := c.slots.SlotByID(id); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordPlayerEvent(ev.Kind)
	}
	return c.session(id).HandleEvent(ev)
}

// Status returns the slot's runtime state; a slot with no session yet is
// reported idle.
func (c *Controller) Status(id domain.SlotID) domain.SlotStatus {
	c.mu.RLock()
	sess, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok {
		return domain.SlotStatus{
			SlotID:          id,
			State:           domain.StateIdle,
			StateName:       domain.StateIdle.String(),
			SelectedQuality: domain.TrackAuto,
		}
	}
	return sess.Status()
}

func (c *Controller) AutoplayBlocked() bool {
	return c.autoplayBlocked.Load()
}

func (c *Controller) DismissAutoplayBanner() {
	c.autoplayBlocked.Store(false)
}

// Dispose tears down one slot's session. Safe to call for slots without one.
func (c *Controller) Dispose(id domain.SlotID) {
	c.mu.Lock()
	sess, ok := c.sessions[id]
	if ok {
		delete(c.sessions, id)
	}
	c.mu.Unlock()

	if ok {
		sess.Dispose()
	}
}

// DisposeAll tears down every session, on shutdown.
func (c *Controller) DisposeAll() {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[domain.SlotID]*Session)
	c.mu.Unlock()

	for _, sess := range sessions {
		sess.Dispose()
	}
}
