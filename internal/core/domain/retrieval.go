package domain

import "time"

// OCRPolicy controls when image-only pages are escalated to OCR.
type OCRPolicy string

// OCR policies.
const (
	OCROff    OCRPolicy = "off"
	OCRSmart  OCRPolicy = "smart"
	OCRAlways OCRPolicy = "always"
)

// RetrievalTables is the immutable, explicitly loaded configuration data
// that biases retrieval. It is decoupled from code so it can be tested
// and extended independently.
type RetrievalTables struct {
	// Synonyms maps a clinical term to its related terms. Expansion is
	// bidirectional across each group.
	Synonyms map[string][]string

	// SectionHints maps a recognized section name to a natural-language
	// focus hint appended to the retrieval query.
	SectionHints map[string]string

	// GroupTitles maps each source group to its rendered context heading.
	GroupTitles map[SourceGroup]string

	// GroupOrder fixes the presentation order of groups in assembled context.
	GroupOrder []SourceGroup
}

// IndexOptions configures an indexing run.
type IndexOptions struct {
	// Specialty is the clinical specialty the index is built for.
	Specialty string

	// NotesDir and SlidesDir are the source directories. Either may be empty.
	NotesDir  string
	SlidesDir string

	// OCR is the OCR escalation policy for slide pages.
	OCR OCRPolicy

	// Force re-indexes every document regardless of freshness.
	Force bool
}

// DocumentFailure records one per-document indexing failure.
type DocumentFailure struct {
	Path   string
	Reason string
}

// IndexReport summarizes an indexing run. Per-document failures are
// contained here rather than aborting the run.
type IndexReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// Indexed, Skipped and Failed are per-document outcome counts.
	Indexed int
	Skipped int
	Failed  int

	// Failures lists each failed document with its reason.
	Failures []DocumentFailure

	// Duration is the wall-clock run time.
	Duration time.Duration
}

// QueryOptions configures a topic/section retrieval.
type QueryOptions struct {
	// Topic is the clinical topic being queried.
	Topic string

	// Section is the article section retrieval should be biased toward.
	Section string

	// Specialty must match the specialty the index was built for.
	Specialty string

	// BudgetChars is the context character budget. Zero means the default.
	BudgetChars int

	// AllowStale downgrades staleness failures to warnings.
	AllowStale bool
}

// SourceStatus describes one manifest entry's freshness for reporting.
type SourceStatus struct {
	Path    string
	Group   SourceGroup
	Fresh   bool
	Reason  string
	Indexed time.Time
}
