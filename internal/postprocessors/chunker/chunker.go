// Package chunker provides a recursive, boundary-aware text splitter.
//
// Text is split on the highest-priority separator it contains (paragraph,
// line, sentence, word) and pieces are packed greedily into segments. Pieces
// that are still too large are split again with the remaining separators,
// down to single characters, so splitting always terminates.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// separators in priority order. The empty separator splits into
// characters and must stay last.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Ensure Chunker and Processor implement the interfaces.
var (
	_ driven.Chunker        = (*Chunker)(nil)
	_ driven.ChunkProcessor = (*Processor)(nil)
)

// Chunker splits text into segments of at most chunkSize characters,
// each repeating the trailing overlap characters of its predecessor.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. It fails with domain.ErrInvalidConfig when the
// size is not positive, the overlap is negative, or the overlap is not
// smaller than the size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, c.chunkSize)
	}
	if c.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", domain.ErrInvalidConfig, c.overlap)
	}
	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)",
			domain.ErrInvalidConfig, c.overlap, c.chunkSize)
	}
	return c, nil
}

// NewFactory returns a driven.ChunkerFactory that builds a Processor
// around New.
func NewFactory() driven.ChunkerFactory {
	return func(size, overlap int) (driven.ChunkProcessor, error) {
		c, err := New(WithChunkSize(size), WithOverlap(overlap))
		if err != nil {
			return nil, err
		}
		return NewProcessor(c), nil
	}
}

// ChunkID returns the identifier of the chunk at index within source.
func ChunkID(source string, index int) string {
	return domain.ChunkID(source, index)
}

// Processor turns documents into identified chunks.
type Processor struct {
	chunker driven.Chunker
}

// NewProcessor wraps a chunker.
func NewProcessor(c driven.Chunker) *Processor {
	return &Processor{chunker: c}
}

// Process chunks doc.Content. Chunk ids depend only on the document
// source and the chunk position, never on the text.
func (p *Processor) Process(doc domain.Document) []domain.Chunk {
	segments := p.chunker.Chunk(doc.Content)
	if len(segments) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, len(segments))
	for i, text := range segments {
		chunks[i] = domain.Chunk{
			ID:     ChunkID(doc.Source, i),
			Text:   text,
			Source: doc.Source,
			Index:  i,
		}
	}
	return chunks
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into ordered segments.
//
// Whitespace-only text yields nil. Text that already fits is returned as a
// single untouched segment. Otherwise pieces are packed into segments of at
// most chunkSize-overlap characters and each segment after the first is
// prefixed with the last overlap characters of the segment before it, so no
// final segment exceeds chunkSize.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}

	segments := c.split(text, separators, c.chunkSize-c.overlap)
	if c.overlap > 0 && len(segments) > 1 {
		segments = applyOverlap(segments, c.overlap)
	}
	return segments
}

// split packs the pieces of text into segments no longer than limit,
// recursing into oversized pieces with the lower-priority separators.
// A piece is emitted oversized only when no separators remain.
func (c *Chunker) split(text string, seps []string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	sep, remaining := pickSeparator(text, seps)
	pieces := strings.Split(text, sep)

	var segments []string
	current := ""
	for _, piece := range pieces {
		candidate := piece
		if current != "" {
			candidate = current + sep + piece
		}
		if utf8.RuneCountInString(candidate) <= limit {
			current = candidate
			continue
		}

		if current != "" {
			segments = append(segments, current)
		}
		if utf8.RuneCountInString(piece) > limit && len(remaining) > 0 {
			segments = append(segments, c.split(piece, remaining, limit)...)
			current = ""
		} else {
			current = piece
		}
	}
	if current != "" {
		segments = append(segments, current)
	}
	return segments
}

// pickSeparator returns the first separator that is empty or occurs in
// text, plus the separators after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// applyOverlap prefixes every segment after the first with the trailing
// overlap characters of the original segment before it.
func applyOverlap(segments []string, overlap int) []string {
	out := make([]string, len(segments))
	out[0] = segments[0]
	for i := 1; i < len(segments); i++ {
		out[i] = tail(segments[i-1], overlap) + segments[i]
	}
	return out
}

// tail returns the last n characters of s, or s when it is shorter.
// It slices the original bytes so invalid UTF-8 is carried unchanged.
func tail(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
