package domain

// Chunk is a bounded span of a source document's text, independently
// embeddable and retrievable.
//
// IDs are derived deterministically from a document-scoped prefix, an
// optional page number, and a 1-based ordinal, so re-indexing identical
// input reproduces identical ids.
type Chunk struct {
	// ID is the deterministic chunk identifier, e.g. "note:intro.md:3"
	// or "slide:cardio.pdf:p2:1".
	ID string `json:"id"`

	// SourceName is the human-readable source label.
	SourceName string `json:"sourceName"`

	// SourcePath is the absolute path of the originating document.
	SourcePath string `json:"sourcePath"`

	// Text is the chunk content.
	Text string `json:"text"`
}

// SlideFile is the file-level view of an indexed slide deck used for
// first-stage file ranking before chunk ranking.
type SlideFile struct {
	// Name is the deck file name.
	Name string

	// SummaryText is the pre-computed whole-deck summary.
	SummaryText string

	// SummaryEmbedding is the pre-computed embedding of SummaryText.
	// Nil when the summary embedding artifact is missing.
	SummaryEmbedding []float32

	// Chunks are the deck's page chunks.
	Chunks []Chunk

	// Embeddings maps chunk id to vector for the deck's chunks.
	Embeddings map[string][]float32
}
