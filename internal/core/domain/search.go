package domain

// SearchResult is a stored record returned by a similarity query.
type SearchResult struct {
	// ID is the chunk identifier.
	ID string `json:"id" yaml:"id"`

	// Document is the stored chunk text.
	Document string `json:"document" yaml:"document"`

	// Metadata is the stored metadata, nil when none was stored.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Distance is the backend's dissimilarity score. Lower is more similar.
	Distance float64 `json:"distance" yaml:"distance"`
}

// Source returns the source recorded in the metadata, or "unknown".
func (r SearchResult) Source() string {
	if r.Metadata != nil {
		if s, ok := r.Metadata[MetadataSource].(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}
