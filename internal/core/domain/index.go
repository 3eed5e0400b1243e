package domain

import "time"

// IndexOptions configures a single indexing pass.
type IndexOptions struct {
	// ChunkSize is the maximum segment length in characters.
	ChunkSize int

	// ChunkOverlap is the number of trailing characters repeated at the
	// start of the next segment.
	ChunkOverlap int

	// Fresh discards every stored record before indexing.
	Fresh bool

	// Progress, when set, is called after each embedding batch with the
	// number of chunks embedded so far and the number to embed.
	Progress func(done, total int)
}

// IndexSummary reports the outcome of an indexing pass.
type IndexSummary struct {
	// DocumentsProcessed is the number of documents chunked.
	DocumentsProcessed int `json:"documents_processed" yaml:"documents_processed"`

	// ChunksTotal is the number of candidate chunks produced.
	ChunksTotal int `json:"chunks_total" yaml:"chunks_total"`

	// ChunksAdded is the number of chunks embedded and stored in this pass.
	ChunksAdded int `json:"chunks_added" yaml:"chunks_added"`

	// Elapsed is the wall-clock duration of the pass.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// UpToDate reports whether the pass found nothing new to index.
func (s IndexSummary) UpToDate() bool {
	return s.ChunksAdded == 0
}

// IndexRun is a persisted record of an indexing pass.
type IndexRun struct {
	// ID uniquely identifies the run.
	ID string `json:"id" yaml:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Summary is the pass outcome. Zero when the run failed early.
	Summary IndexSummary `json:"summary" yaml:"summary"`

	// Fresh records whether the index was reset first.
	Fresh bool `json:"fresh" yaml:"fresh"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the run completed without error.
func (r IndexRun) Succeeded() bool {
	return r.Error == ""
}

// IndexStatus describes the current state of the vector index.
type IndexStatus struct {
	// Backend is the storage backend name.
	Backend string `json:"backend" yaml:"backend"`

	// Collection is the logical collection name.
	Collection string `json:"collection" yaml:"collection"`

	// Records is the number of stored chunks.
	Records int `json:"records" yaml:"records"`

	// RecentRuns lists the latest runs, newest first.
	RecentRuns []IndexRun `json:"recent_runs,omitempty" yaml:"recent_runs,omitempty"`
}
