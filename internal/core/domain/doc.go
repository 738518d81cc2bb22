// Package domain defines the core business entities for paperchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A page-level unit of ingested text with source metadata
//   - Chunk: A semantically coherent span of one document, the retrieval unit
//   - ChatTurn: One (question, answer) pair of a conversation
//   - SessionInfo: A snapshot of a conversation-scoped index
//   - RawDocument: Opaque uploaded bytes before normalisation
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
