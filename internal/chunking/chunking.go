// Package chunking splits raw document text into bounded,
// overlap-preserving, semantically aligned chunks with deterministic ids.
package chunking

import (
	"fmt"
	"strings"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// Version tags the chunking parameters. Bump it whenever the algorithm
// or defaults change so existing indexes are invalidated.
const Version = "cv1"

// DefaultMaxChars is the default window size in characters.
const DefaultMaxChars = 2200

// DefaultOverlapChars is the default overlap between windows.
const DefaultOverlapChars = 200

// Splitter produces section-aligned, overlapping text windows.
type Splitter struct {
	maxChars     int
	overlapChars int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxChars sets the window size in characters.
func WithMaxChars(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlapChars = n
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxChars:     DefaultMaxChars,
		overlapChars: DefaultOverlapChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitLongSection windows text into slices of at most maxChars,
// overlapping consecutive windows by overlapChars. When a window's right
// edge falls inside the text, the split snaps back to the last paragraph
// break past the window's halfway point, so splits prefer paragraph
// boundaries over raw character counts. Forward progress is guaranteed
// even when overlapChars >= maxChars.
func (s *Splitter) SplitLongSection(text string) []string {
	if text == "" {
		return nil
	}
	n := len(text)
	var out []string

	start := 0
	for {
		end := start + s.maxChars
		if end > n {
			end = n
		}
		if end < n {
			window := text[start:end]
			if brk := strings.LastIndex(window, "\n\n"); brk >= 0 {
				snapped := brk + len("\n\n")
				if snapped > len(window)/2 {
					end = start + snapped
				}
			}
		}
		out = append(out, text[start:end])
		if end >= n {
			return out
		}
		next := end - s.overlapChars
		if next < start+1 {
			next = start + 1
		}
		start = next
	}
}

// ChunkInput describes one document to chunk.
type ChunkInput struct {
	// Text is the full document text.
	Text string

	// Prefix is the document-scoped id prefix, e.g. "note:intro.md".
	Prefix string

	// SourceName is the human-readable label carried on each chunk.
	SourceName string

	// SourcePath is the absolute path carried on each chunk.
	SourcePath string
}

// BuildChunksFromText sections the text, windows each section, and
// assigns ids "{prefix}:{ordinal}" with a single 1-based ordinal running
// across the whole document. All-whitespace windows are skipped without
// consuming an ordinal, so identical input always reproduces identical
// ids and text.
func (s *Splitter) BuildChunksFromText(in ChunkInput) []domain.Chunk {
	var chunks []domain.Chunk
	ordinal := 0
	for _, section := range SplitIntoSections(in.Text) {
		for _, window := range s.SplitLongSection(section) {
			if strings.TrimSpace(window) == "" {
				continue
			}
			ordinal++
			chunks = append(chunks, domain.Chunk{
				ID:         fmt.Sprintf("%s:%d", in.Prefix, ordinal),
				SourceName: in.SourceName,
				SourcePath: in.SourcePath,
				Text:       window,
			})
		}
	}
	return chunks
}

// Page is one page of a paginated source.
type Page struct {
	Number int
	Text   string
}

// BuildChunksFromPages is the paginated variant for slide decks. Ids
// take the form "slide:{fileName}:p{page}:{part}" with the part ordinal
// reset on every page.
func (s *Splitter) BuildChunksFromPages(fileName, sourceName, sourcePath string, pages []Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		part := 0
		for _, section := range SplitIntoSections(page.Text) {
			for _, window := range s.SplitLongSection(section) {
				if strings.TrimSpace(window) == "" {
					continue
				}
				part++
				chunks = append(chunks, domain.Chunk{
					ID:         fmt.Sprintf("slide:%s:p%d:%d", fileName, page.Number, part),
					SourceName: sourceName,
					SourcePath: sourcePath,
					Text:       window,
				})
			}
		}
	}
	return chunks
}
