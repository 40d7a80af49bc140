// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ArtifactStore: fingerprints, manifest and per-document artifact files
//   - EmbeddingService: vector embeddings for chunks, summaries and queries
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TextExtractor: page text extraction for slide decks. Without it,
//     slide sources are skipped.
//   - Reranker: LLM-based candidate narrowing. Without it (or on failure),
//     the hybrid top-N stands.
//   - RetrievalConfigStore: external synonym/hint tables. Without it,
//     compiled-in defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
