// Package domain defines the core business entities for ragindex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: An indexable input discovered on the filesystem
//   - Fingerprint: Content identity used for staleness detection
//   - Manifest: The persisted ledger of last-indexed state per source
//   - Chunk: A bounded, independently embeddable span of document text
//   - Candidate: A chunk decorated with retrieval scores at query time
//   - ContextSelection: The packed, budget-bound retrieval context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
