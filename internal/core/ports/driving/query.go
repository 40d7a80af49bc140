package driving

import (
	"context"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// QueryService answers topic/section queries from the persisted index.
type QueryService interface {
	// BuildContext ranks all indexed chunks for the topic/section, merges
	// candidates across source groups, and packs the selection into the
	// character budget. It fails with domain.ErrStaleIndex when the index
	// does not match the live sources, unless opts.AllowStale is set.
	BuildContext(ctx context.Context, opts domain.QueryOptions) (*domain.ContextSelection, error)

	// Status reports per-source freshness without building context.
	Status(ctx context.Context) ([]domain.SourceStatus, error)
}
