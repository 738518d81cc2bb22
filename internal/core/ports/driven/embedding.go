package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// It is required: both the semantic chunker and the dense index depend on
// embeddings. A failed embedding call is non-fatal per document (the
// document is skipped) and per query (retrieval degrades to lexical only).
//
// Implementations may include:
//   - OpenAI-compatible endpoints (text-embedding-3-small, hosted gateways)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result preserves input order: result[i] embeds texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is fixed per model and must match the dense index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
