package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Metadata keys stored alongside every indexed chunk.
const (
	MetadataSource     = "source"
	MetadataChunkIndex = "chunk_index"
)

// Document is the text of one source file as produced by a loader.
// Documents are immutable once loaded.
type Document struct {
	// Content is the extracted text.
	Content string

	// Source uniquely and stably identifies the document (the file path).
	// Chunk identifiers are derived from it.
	Source string

	// Metadata holds loader-specific attributes (format, title, mime type).
	Metadata map[string]any
}

// Chunk is a bounded segment of a document.
type Chunk struct {
	// ID is derived from Source and Index only, never from Text.
	ID string

	// Text is the segment content including any overlap prefix.
	Text string

	// Source is the originating document's source.
	Source string

	// Index is the position within the document's chunk sequence, from 0.
	Index int
}

// Metadata returns the metadata persisted with the chunk's record.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		MetadataSource:     c.Source,
		MetadataChunkIndex: c.Index,
	}
}

// chunkIDLength is the number of hex characters kept from the digest.
const chunkIDLength = 16

// ChunkID derives the identifier of the chunk at index within source.
// It depends only on its arguments so that re-indexing an unchanged
// document reproduces the same ids.
func ChunkID(source string, index int) string {
	sum := sha256.Sum256([]byte(source + "::chunk::" + strconv.Itoa(index)))
	return hex.EncodeToString(sum[:])[:chunkIDLength]
}
