package ports

import (
	"context"

	"mosaic/internal/core/domain"
)

type RegistryService interface {
	// Hydrate loads the slot list and grid size from persistence,
	// padding or truncating to the stored grid size.
	Hydrate(ctx context.Context) error
	Slots() []*domain.Slot
	SlotByID(id domain.SlotID) (*domain.Slot, error)
	GridSize() int
	// Resize changes the tile count, padding with placeholders or
	// truncating by order. It returns the IDs of any removed slots so the
	// caller can dispose their sessions.
	Resize(ctx context.Context, size int) ([]domain.SlotID, error)
	UpdateSlot(ctx context.Context, id domain.SlotID, patch domain.SlotPatch) (*domain.Slot, error)
	ReplaceAll(ctx context.Context, slots []*domain.Slot) ([]*domain.Slot, error)
	Clear(ctx context.Context) error
	Save(ctx context.Context) error
}

// SlotProvider is the narrow registry view the playback controller needs.
type SlotProvider interface {
	SlotByID(id domain.SlotID) (*domain.Slot, error)
}

type SessionController interface {
	Load(ctx context.Context, id domain.SlotID) error
	Play(ctx context.Context, id domain.SlotID) error
	Pause(id domain.SlotID) error
	ToggleMute(id domain.SlotID) error
	SelectQuality(id domain.SlotID, track domain.TrackID) error
	Tracks(id domain.SlotID) ([]domain.QualityTrack, error)
	HandleEvent(id domain.SlotID, ev domain.PlayerEvent) error
	Status(id domain.SlotID) domain.SlotStatus
	AutoplayBlocked() bool
	DismissAutoplayBanner()
	Dispose(id domain.SlotID)
	DisposeAll()
}

type PersistenceService interface {
	LoadAll(ctx context.Context) ([]*domain.Slot, int, error)
	SaveAll(ctx context.Context, slots []*domain.Slot, gridSize int) error
	SaveSlot(ctx context.Context, slot *domain.Slot) error
	// Degraded reports whether the last primary-store operation failed and
	// the service is running on the local snapshot.
	Degraded() bool
}

type DiagnosticsService interface {
	Append(result domain.DiagnosticResult)
	List() []domain.DiagnosticResult
	Clear()
}
