package driving

import (
	"context"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// Indexer runs the indexing pipeline over the configured source
// directories, re-indexing only stale documents.
type Indexer interface {
	// Run walks the source directories, indexes stale documents, and
	// returns a per-document outcome report. Individual document
	// failures are reported, not fatal.
	Run(ctx context.Context, opts domain.IndexOptions) (*domain.IndexReport, error)
}
