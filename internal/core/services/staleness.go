package services

import (
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
)

// staleReason evaluates the freshness policy for one source document.
// It returns "" when the document is fresh, otherwise a human-readable
// reason to re-index. A document is fresh iff a valid manifest entry
// exists, its type/specialty/model/chunking configuration matches the
// current run's, its fingerprint matches the live file, and every
// expected artifact file is present and readable.
func staleReason(
	store driven.ArtifactStore,
	path string,
	entry domain.ManifestEntry,
	exists bool,
	group domain.SourceGroup,
	specialty, embeddingModel, chunkingVersion string,
) string {
	if !exists {
		return "not indexed"
	}
	if entry.Type != group {
		return "source type changed"
	}
	if entry.Specialty != specialty {
		return "specialty mismatch"
	}
	if entry.EmbeddingModel != embeddingModel {
		return "embedding model changed"
	}
	if entry.ChunkingVersion != chunkingVersion {
		return "chunking version changed"
	}

	fp, err := store.Fingerprint(path)
	if err != nil {
		return "source file missing or unreadable"
	}
	if !entry.MatchesFingerprint(fp) {
		return "content changed"
	}

	if !store.Complete(entry.ArtifactDir) {
		return "artifact files incomplete"
	}
	return ""
}
