package mcp

import (
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retriever answers similarity queries.
	Retriever driving.Retriever

	// Ask generates grounded answers. The ask tool is only registered
	// when it is set.
	Ask driving.AskService

	// Indexing reports index status. The index_status tool and the
	// status resources are only registered when it is set.
	Indexing driving.IndexingService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
