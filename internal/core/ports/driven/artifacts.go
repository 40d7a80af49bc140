package driven

import (
	"context"
	"time"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// PageRecord is one page as persisted in the summary artifact.
type PageRecord struct {
	// Number is the 1-based page number.
	Number int `json:"page"`

	// Text is the recovered page text.
	Text string `json:"text"`

	// OCRApplied marks pages whose text came from OCR escalation.
	OCRApplied bool `json:"ocrApplied"`
}

// SummaryArtifact is the pages/summary file of a document's artifact set.
// Artifacts are self-describing: each carries its own model id, chunking
// version and timestamp so downstream readers can validate freshness
// without consulting the manifest.
type SummaryArtifact struct {
	Model           string       `json:"modelId"`
	ChunkingVersion string       `json:"chunkingVersion"`
	CreatedAt       time.Time    `json:"createdAt"`
	SourcePath      string       `json:"sourcePath"`
	SourceName      string       `json:"sourceName"`
	Summary         string       `json:"summary"`
	Pages           []PageRecord `json:"pages,omitempty"`
}

// ChunksArtifact is the chunks file of a document's artifact set.
type ChunksArtifact struct {
	Model           string         `json:"modelId"`
	ChunkingVersion string         `json:"chunkingVersion"`
	CreatedAt       time.Time      `json:"createdAt"`
	SourcePath      string         `json:"sourcePath"`
	Chunks          []domain.Chunk `json:"chunks"`
}

// EmbeddingArtifact holds vectors keyed by chunk id (or by document id
// for whole-document summary embeddings).
type EmbeddingArtifact struct {
	Model        string               `json:"modelId"`
	CreatedAt    time.Time            `json:"createdAt"`
	Vectors      map[string][]float32 `json:"vectors"`
	PromptTokens int                  `json:"promptTokens,omitempty"`
}

// DocumentArtifacts is the complete artifact set for one document.
// A re-index fully overwrites it; the set is immutable otherwise.
type DocumentArtifacts struct {
	Summary          SummaryArtifact
	SummaryEmbedding EmbeddingArtifact
	Chunks           ChunksArtifact
	ChunkEmbeddings  EmbeddingArtifact
}

// ArtifactStore persists fingerprints, the manifest and per-document
// artifact files. All writes are atomic (write-then-rename) so a crash
// or concurrent reader never observes a partially written file.
type ArtifactStore interface {
	// Fingerprint computes the live fingerprint of path. It fails with an
	// error wrapping domain.ErrNotFound when the path is missing or not a
	// regular file.
	Fingerprint(path string) (domain.Fingerprint, error)

	// ReadManifest loads the cache root's manifest, returning an empty
	// manifest with sensible defaults (chunking version "unknown") when
	// the file is absent or unreadable as structured data. It never
	// fails for "file not found".
	ReadManifest(ctx context.Context) (*domain.Manifest, error)

	// WriteManifest serializes the manifest with a refreshed UpdatedAt
	// and writes it atomically.
	WriteManifest(ctx context.Context, m *domain.Manifest) error

	// WriteDocument writes a document's complete artifact set under dir
	// (relative to the cache root), each file atomically.
	WriteDocument(ctx context.Context, dir string, arts *DocumentArtifacts) error

	// ReadDocument loads a document's artifact set from dir.
	ReadDocument(ctx context.Context, dir string) (*DocumentArtifacts, error)

	// Complete reports whether every expected artifact file under dir is
	// present and readable.
	Complete(dir string) bool
}
