// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Turns uploaded bytes into page-level documents
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - PostProcessorPipeline: Splits documents into chunks
//   - DenseIndex: In-memory vector similarity search, one per session
//   - SparseIndex: In-memory lexical (BM25) search, one per session
//   - CorpusStore: In-memory chunk/document storage, one per session
//   - EmbeddingService: Generates vector embeddings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Question refinement and answer generation. Without it,
//     queries run against the raw message and retrieval results are shown
//     without a generated answer.
//   - TranscriptStore: Append-only archive of completed turns.
//   - PromptStore: Custom prompt templates (hardcoded defaults otherwise).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
