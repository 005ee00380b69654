package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"

	"go.uber.org/zap"
)

// autoplayBlockedMessage is shown on the tile; the condition also raises the
// grid-level banner because only a user gesture can clear it.
const autoplayBlockedMessage = "Click to play (autoplay blocked)"

// Session binds one slot to its playback source and owns the slot's runtime
// state machine: Idle -> Loading -> {Playing, Paused, Errored}, with
// Errored -> Loading via retry and Playing <-> Paused via user toggle.
//
// Every load carries a generation; a callback whose generation no longer
// matches the session's current one is discarded, so overlapping loads on
// the same slot resolve to the most recently issued request rather than
// whichever response arrives last. All effects are scoped to this session:
// nothing here may touch another slot's state.
type Session struct {
	slotID domain.SlotID
	loader ports.SourceLoader
	logger *zap.Logger

	// notify and onAutoplayBlocked are invoked outside the lock.
	notify            func(domain.SlotStatus)
	onAutoplayBlocked func()

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	disposed bool

	state    domain.SessionState
	wantPlay bool
	muted    bool
	errMsg   string
	src      domain.Source
	tracks   []domain.QualityTrack
	selected domain.TrackID
}

func NewSession(slotID domain.SlotID, loader ports.SourceLoader, logger *zap.Logger) *Session {
	return &Session{
		slotID:   slotID,
		loader:   loader,
		logger:   logger,
		state:    domain.StateIdle,
		selected: domain.TrackAuto,
	}
}

// OnStatusChange registers a callback fired after every state transition.
func (s *Session) OnStatusChange(fn func(domain.SlotStatus)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// OnAutoplayBlocked registers the grid-level banner callback.
func (s *Session) OnAutoplayBlocked(fn func()) {
	s.mu.Lock()
	s.onAutoplayBlocked = fn
	s.mu.Unlock()
}

// Load binds the session to src and fetches it. It blocks until the load
// resolves; callers that need fire-and-forget semantics run it in a
// goroutine. A newer Load or Dispose aborts the in-flight fetch and its
// result is discarded.
func (s *Session) Load(ctx context.Context, src domain.Source) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}
	if src.URL == "" {
		s.mu.Unlock()
		return domain.ErrNoSource
	}

	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.src = src
	s.state = domain.StateLoading
	s.errMsg = ""
	s.tracks = nil
	// Reload always resets quality selection to adaptive.
	s.selected = domain.TrackAuto
	s.mu.Unlock()
	s.emit()

	tracks, err := s.loader.LoadSource(loadCtx, src)

	s.mu.Lock()
	if s.disposed || gen != s.gen {
		// Stale callback: a newer load owns the state now.
		s.mu.Unlock()
		return nil
	}

	if err != nil {
		s.state = domain.StateErrored
		s.wantPlay = false
		s.errMsg = loadErrorMessage(err)
		s.mu.Unlock()
		s.emit()
		return err
	}

	s.tracks = tracks
	if s.wantPlay {
		s.state = domain.StatePlaying
	} else {
		s.state = domain.StatePaused
	}
	s.mu.Unlock()
	s.emit()
	return nil
}

// Play starts playback, loading the source first if needed.
func (s *Session) Play(ctx context.Context, src domain.Source) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}
	s.wantPlay = true

	switch s.state {
	case domain.StatePlaying:
		s.mu.Unlock()
		return nil
	case domain.StatePaused:
		if s.src.URL == src.URL {
			s.state = domain.StatePlaying
			s.mu.Unlock()
			s.emit()
			return nil
		}
	case domain.StateLoading:
		if s.src.URL == src.URL {
			// Load in flight; it will start playback when ready.
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	return s.Load(ctx, src)
}

// Pause stops playback but keeps the loaded source, so resuming needs no
// reload.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}
	s.wantPlay = false
	if s.state == domain.StatePlaying {
		s.state = domain.StatePaused
	}
	s.mu.Unlock()
	s.emit()
	return nil
}

// ToggleMute flips the mute flag.
func (s *Session) ToggleMute() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}
	s.muted = !s.muted
	s.mu.Unlock()
	s.emit()
	return nil
}

// SelectTrack pins playback to one quality track, or re-enables adaptive
// selection with domain.TrackAuto.
func (s *Session) SelectTrack(id domain.TrackID) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}
	if s.tracks == nil && s.state != domain.StatePlaying && s.state != domain.StatePaused {
		s.mu.Unlock()
		return domain.ErrNotLoaded
	}
	if id != domain.TrackAuto {
		found := false
		for _, t := range s.tracks {
			if t.ID == id {
				found = true
				break
			}
		}
		if !found {
			s.mu.Unlock()
			return domain.ErrTrackNotFound
		}
	}
	s.selected = id
	s.mu.Unlock()
	s.emit()
	return nil
}

// HandleEvent folds a player-level event into the slot's runtime state.
func (s *Session) HandleEvent(ev domain.PlayerEvent) error {
	var autoplay bool

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return domain.ErrSessionDisposed
	}

	switch ev.Kind {
	case domain.EventLoadStart:
		s.state = domain.StateLoading
		s.errMsg = ""
	case domain.EventCanPlay:
		if s.state == domain.StateLoading {
			if s.wantPlay {
				s.state = domain.StatePlaying
			} else {
				s.state = domain.StatePaused
			}
		}
		s.errMsg = ""
	case domain.EventStalled:
		if s.state == domain.StatePlaying {
			s.state = domain.StateLoading
			s.wantPlay = true
		}
	case domain.EventError:
		s.state = domain.StateErrored
		s.wantPlay = false
		if ev.Code != 0 && ev.Message != "" {
			s.errMsg = fmt.Sprintf("Error %d: %s", ev.Code, ev.Message)
		} else if ev.Message != "" {
			s.errMsg = ev.Message
		} else {
			s.errMsg = "Playback failed"
		}
	case domain.EventAutoplayBlocked:
		// Not a stream failure: the retry sweep cannot fix it, so the
		// session parks in Paused with the distinguishable message.
		s.state = domain.StatePaused
		s.wantPlay = false
		s.errMsg = autoplayBlockedMessage
		autoplay = true
	default:
		s.mu.Unlock()
		return fmt.Errorf("unknown player event kind %q", ev.Kind)
	}
	onAutoplay := s.onAutoplayBlocked
	s.mu.Unlock()
	s.emit()

	if autoplay && onAutoplay != nil {
		onAutoplay()
	}
	return nil
}

// Dispose releases the session and aborts any in-flight load. It is
// idempotent; events and loads after disposal are rejected.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = domain.StateIdle
	s.tracks = nil
	s.mu.Unlock()
}

// Status returns a copy of the slot's runtime state.
func (s *Session) Status() domain.SlotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() domain.SlotStatus {
	tracks := make([]domain.QualityTrack, len(s.tracks))
	copy(tracks, s.tracks)

	return domain.SlotStatus{
		SlotID:          s.slotID,
		State:           s.state,
		StateName:       s.state.String(),
		IsPlaying:       s.state == domain.StatePlaying,
		IsLoading:       s.state == domain.StateLoading,
		IsMuted:         s.muted,
		Error:           s.errMsg,
		SelectedQuality: s.selected,
		Tracks:          tracks,
	}
}

func (s *Session) emit() {
	s.mu.Lock()
	notify := s.notify
	status := s.statusLocked()
	s.mu.Unlock()

	if notify != nil {
		notify(status)
	}
}

func loadErrorMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return fmt.Sprintf("Error %d: %s", loadErr.Code, loadErr.Message)
	}
	return fmt.Sprintf("Error: %v", err)
}
