package domain

import "errors"

var (
	ErrSlotNotFound       = errors.New("slot not found")
	ErrTrackNotFound      = errors.New("track not found")
	ErrNoSource           = errors.New("slot has no source configured")
	ErrSessionDisposed    = errors.New("session disposed")
	ErrNotLoaded          = errors.New("source not loaded")
	ErrInvalidGridSize    = errors.New("grid size out of range")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrGridConfigNotFound = errors.New("grid config not found")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
)
