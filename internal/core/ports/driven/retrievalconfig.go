package driven

import "github.com/openclinic/ragindex/internal/core/domain"

// RetrievalConfigStore loads the retrieval tables (synonyms, section
// hints, group titles) from external configuration.
type RetrievalConfigStore interface {
	// Load returns the retrieval tables, with compiled-in defaults
	// filling anything the configuration omits.
	Load() (domain.RetrievalTables, error)
}
