package driven

import "context"

// EmbeddingUsage accumulates token accounting reported by the service.
type EmbeddingUsage struct {
	PromptTokens int
	TotalTokens  int
}

// EmbeddingService generates vector embeddings from text.
//
// The adapter is the sole owner of concurrency control for embedding
// calls: it bounds in-flight requests and retries transient failures a
// fixed number of times. Callers never need their own throttling for
// this API class.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order. An empty input returns immediately with no network
	// call. The returned usage covers exactly this call, so callers can
	// attribute tokens correctly even when calls run concurrently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, EmbeddingUsage, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// Usage returns cumulative token usage for this service instance.
	Usage() EmbeddingUsage

	// Close releases resources.
	Close() error
}
