package domain

import "time"

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

// UnknownChunkingVersion is reported when no manifest has been written yet.
const UnknownChunkingVersion = "unknown"

// ManifestEntry records the last successful indexing state for one source
// document, keyed by its absolute path inside the Manifest.
//
// An entry with any missing required field is treated as absent, which
// forces re-indexing. Defaults are never guessed in.
type ManifestEntry struct {
	// Type is the source group the document was indexed as.
	Type SourceGroup `json:"type"`

	// Specialty is the clinical specialty the index was built for.
	Specialty string `json:"specialty"`

	// SizeBytes, MTimeMillis and ContentHash mirror the fingerprint
	// taken when the document was indexed.
	SizeBytes   int64  `json:"size"`
	MTimeMillis int64  `json:"mtimeMs"`
	ContentHash string `json:"contentHash"`

	// IndexedAt is when indexing last succeeded for this document.
	IndexedAt time.Time `json:"indexedAt"`

	// EmbeddingModel is the model id the chunk embeddings were produced with.
	EmbeddingModel string `json:"embeddingModel"`

	// ChunkingVersion is the chunking parameter version used.
	ChunkingVersion string `json:"chunkingVersion"`

	// ArtifactDir is the directory holding this document's artifact files,
	// relative to the cache root.
	ArtifactDir string `json:"artifactDir"`

	// Labels carries extra display metadata.
	Labels map[string]string `json:"labels,omitempty"`
}

// Valid reports whether the entry carries every required field.
func (e ManifestEntry) Valid() bool {
	return e.Type != "" &&
		e.ContentHash != "" &&
		e.EmbeddingModel != "" &&
		e.ChunkingVersion != "" &&
		e.ArtifactDir != ""
}

// MatchesFingerprint reports whether the entry still describes the live file.
func (e ManifestEntry) MatchesFingerprint(fp Fingerprint) bool {
	return e.SizeBytes == fp.SizeBytes &&
		e.MTimeMillis == fp.MTimeMillis &&
		e.ContentHash == fp.ContentHash
}

// Manifest is the persisted ledger mapping each source document to its
// last-indexed state and artifact location. One manifest exists per cache
// root. It is read once, mutated in memory, and written back once per run.
type Manifest struct {
	// Version is the manifest schema version.
	Version int `json:"manifestVersion"`

	// CreatedAt is when the manifest was first written.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is refreshed on every write.
	UpdatedAt time.Time `json:"updatedAt"`

	// ChunkingVersion is the chunking parameter version the index was built with.
	ChunkingVersion string `json:"chunkingVersion"`

	// EmbeddingModel is the embedding model id the index was built with.
	EmbeddingModel string `json:"embeddingModel"`

	// Sources maps absolute source paths to their entries.
	Sources map[string]ManifestEntry `json:"sources"`
}

// NewManifest creates an empty manifest for the given configuration.
func NewManifest(chunkingVersion, embeddingModel string) *Manifest {
	now := time.Now().UTC()
	return &Manifest{
		Version:         ManifestVersion,
		CreatedAt:       now,
		UpdatedAt:       now,
		ChunkingVersion: chunkingVersion,
		EmbeddingModel:  embeddingModel,
		Sources:         make(map[string]ManifestEntry),
	}
}

// Entry returns the entry for path, treating invalid entries as absent.
func (m *Manifest) Entry(path string) (ManifestEntry, bool) {
	e, ok := m.Sources[path]
	if !ok || !e.Valid() {
		return ManifestEntry{}, false
	}
	return e, true
}
