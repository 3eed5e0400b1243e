package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for rag resources.
	uriScheme = "rag://"

	statusURI = uriScheme + "index/status"
	runsURI   = uriScheme + "index/runs"
)

// registerResources registers the index resources with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "index-status",
		Description: "Vector index backend, collection and record count",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         runsURI,
		Name:        "index-runs",
		Description: "Most recent indexing runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

// handleStatusResource returns the index status without run history.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Indexing.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting index status: %w", err)
	}

	summary := *status
	summary.RecentRuns = nil
	return jsonResource(req.Params.URI, summary)
}

// handleRunsResource returns the recent indexing runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Indexing.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting index status: %w", err)
	}

	runs := status.RecentRuns
	if runs == nil {
		return jsonResource(req.Params.URI, []struct{}{})
	}
	return jsonResource(req.Params.URI, runs)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
