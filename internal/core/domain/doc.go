// Package domain defines the core entities for rag-cli.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: loaded text plus the source it came from
//   - Chunk: a bounded segment of a document, the unit of embedding
//   - SearchResult: a stored chunk returned by a similarity query
//   - IndexSummary / IndexRun: outcome of an indexing pass
//   - Generation / Answer: output of the answer-generation step
//   - Settings: resolved runtime configuration
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
