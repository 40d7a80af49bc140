package driven

import "context"

// PageText is one page of recovered plain text from a binary document.
type PageText struct {
	// Number is the 1-based page number.
	Number int

	// Text is the recovered text, possibly empty for image-only pages.
	Text string
}

// TextExtractor recovers page-indexed plain text from a binary document.
// OCR escalation policy lives in the core, not the adapter: the service
// decides which pages to send back through OCRPage.
type TextExtractor interface {
	// ExtractPages returns the text layer of every page, in page order.
	ExtractPages(ctx context.Context, path string) ([]PageText, error)

	// OCRPage re-extracts a single page through OCR.
	OCRPage(ctx context.Context, path string, page int) (string, error)
}
