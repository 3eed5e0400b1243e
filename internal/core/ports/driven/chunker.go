package driven

import "github.com/custodia-labs/rag-cli/internal/core/domain"

// Chunker splits document text into bounded, overlapping segments.
type Chunker interface {
	// Chunk returns the ordered segments of text. Whitespace-only
	// text yields no segments.
	Chunk(text string) []string
}

// ChunkProcessor turns a document into identified chunks.
type ChunkProcessor interface {
	// Process chunks doc.Content and assigns each segment the id derived
	// from the document source and the segment position.
	Process(doc domain.Document) []domain.Chunk
}

// ChunkerFactory builds a ChunkProcessor for the given size and overlap.
// It fails with domain.ErrInvalidConfig for out-of-range values.
type ChunkerFactory func(size, overlap int) (ChunkProcessor, error)
