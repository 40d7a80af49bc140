package domain

// SourceGroup identifies the retrieval pool a document belongs to.
// Groups are ranked independently and merged with fairness capping.
type SourceGroup string

// Known source groups.
const (
	// GroupNote is long-form markdown/plaintext notes.
	GroupNote SourceGroup = "note"

	// GroupSlide is text-extracted slide decks.
	GroupSlide SourceGroup = "slide"
)

// SourceDocument is the identity of an indexable input.
// It is rediscovered from the filesystem on every run and is
// immutable once discovered.
type SourceDocument struct {
	// Path is the absolute path of the source file.
	Path string

	// Group is the retrieval pool this document feeds.
	Group SourceGroup

	// Label is the human-readable name, usually the base file name.
	Label string
}
