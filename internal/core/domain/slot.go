package domain

import (
	"time"
)

type SlotID string
type SessionID string
type TrackID string

// TrackAuto selects adaptive bitrate; any other TrackID pins a single track.
const TrackAuto TrackID = "auto"

// Slot is one grid tile's persisted configuration.
type Slot struct {
	ID        SlotID            `json:"id"`
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	Cookies   string            `json:"cookies,omitempty"`
	Order     int               `json:"order"`
	Active    bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}

// Configured reports whether the slot has a playback source.
func (s *Slot) Configured() bool {
	return s.URL != ""
}

// Source is the playback-engine view of a slot's configuration.
type Source struct {
	URL     string
	Headers map[string]string
	Cookies string
}

func (s *Slot) Source() Source {
	return Source{URL: s.URL, Headers: s.Headers, Cookies: s.Cookies}
}

// SlotPatch is a partial slot update; nil fields are left unchanged.
type SlotPatch struct {
	Name    *string
	URL     *string
	Headers *map[string]string
	Cookies *string
}

type QualityTrack struct {
	ID        TrackID `json:"id"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Bandwidth int     `json:"bandwidth"`
}

type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StatePlaying
	StatePaused
	StateErrored
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// AllSessionStates lists every state a session can be in, for gauges
// and validation.
func AllSessionStates() []SessionState {
	return []SessionState{StateIdle, StateLoading, StatePlaying, StatePaused, StateErrored}
}

// SlotStatus is a slot's runtime state. It is never persisted.
type SlotStatus struct {
	SlotID          SlotID         `json:"slot_id"`
	State           SessionState   `json:"-"`
	StateName       string         `json:"state"`
	IsPlaying       bool           `json:"is_playing"`
	IsLoading       bool           `json:"is_loading"`
	IsMuted         bool           `json:"is_muted"`
	Error           string         `json:"error,omitempty"`
	SelectedQuality TrackID        `json:"selected_quality"`
	Tracks          []QualityTrack `json:"tracks,omitempty"`
}
