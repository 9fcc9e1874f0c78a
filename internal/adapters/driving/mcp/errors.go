// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Askbase. It lets AI assistants ingest text and ask grounded
// questions over a tenant's indexed material.
package mcp

import "errors"

// Errors returned when required ports are not provided.
var (
	// ErrMissingQuerier is returned when the query service is not provided.
	ErrMissingQuerier = errors.New("mcp: querier is required")

	// ErrMissingIngestor is returned when the ingestion service is not provided.
	ErrMissingIngestor = errors.New("mcp: ingestor is required")
)
