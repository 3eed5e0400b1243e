// Package mcp provides an MCP (Model Context Protocol) server adapter for rag.
// It lets AI assistants retrieve passages from the local vector index and
// ask grounded questions about the indexed documents.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")

// ErrEmptyQuery is returned when a tool is called without query text.
var ErrEmptyQuery = errors.New("mcp: query is required")
