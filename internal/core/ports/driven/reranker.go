package driven

import (
	"context"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// Reranker narrows a candidate pool using an external generative call.
//
// This is a true external collaborator, not core logic: the core must
// never block correctness on it. When Narrow fails or returns nothing
// usable, callers fall back to the hybrid top-N.
type Reranker interface {
	// Narrow returns the ids of the candidates worth keeping, best first,
	// at most limit of them.
	Narrow(ctx context.Context, topic, section string, candidates []domain.Candidate, limit int) ([]string, error)

	// ModelName returns the model used for reranking.
	ModelName() string

	// Close releases resources.
	Close() error
}
