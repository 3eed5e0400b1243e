// Package tui provides the interactive chat interface of rag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the chat TUI.
type Ports struct {
	// Ask answers questions from the indexed documents.
	Ask driving.AskService

	// Indexing reports index status for the status bar. Optional.
	Indexing driving.IndexingService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(ask driving.AskService, indexing driving.IndexingService) *Ports {
	return &Ports{
		Ask:      ask,
		Indexing: indexing,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
