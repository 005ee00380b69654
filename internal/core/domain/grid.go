package domain

import "time"

const (
	MinGridSize     = 1
	MaxGridSize     = 49
	MaxGridColumns  = 8
	DefaultGridSize = 4
)

// ValidGridSize reports whether n is an allowed tile count. Out-of-range
// values are ignored by the registry, not clamped.
func ValidGridSize(n int) bool {
	return n >= MinGridSize && n <= MaxGridSize
}

// GridConfig is the persisted pairing of grid size and slot order.
type GridConfig struct {
	Size    int      `json:"grid_size"`
	Streams []SlotID `json:"streams"`
}

// GridSnapshot is the serialized form written to the fallback snapshot store
// when the primary store is unreachable.
type GridSnapshot struct {
	Slots    []*Slot   `json:"slots"`
	GridSize int       `json:"grid_size"`
	SavedAt  time.Time `json:"saved_at"`
}
