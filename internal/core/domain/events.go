package domain

// EventKind identifies a player-level event reported by a dashboard client
// or emitted by the server-side playback engine.
type EventKind string

const (
	EventLoadStart       EventKind = "loadstart"
	EventCanPlay         EventKind = "canplay"
	EventStalled         EventKind = "stalled"
	EventError           EventKind = "error"
	EventAutoplayBlocked EventKind = "autoplay_blocked"
)

// PlayerEvent is a single player signal scoped to one slot.
type PlayerEvent struct {
	Kind    EventKind `json:"kind"`
	Code    int       `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}
