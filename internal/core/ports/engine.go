package ports

import (
	"context"

	"mosaic/internal/core/domain"
)

// SourceLoader fetches and validates a playback source, returning the
// quality tracks it exposes. Implementations must honor ctx cancellation;
// a disposed session cancels its in-flight load through it.
type SourceLoader interface {
	LoadSource(ctx context.Context, src domain.Source) ([]domain.QualityTrack, error)
}
