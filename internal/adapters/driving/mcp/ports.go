package mcp

import (
	"github.com/custodia-labs/askbase/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Querier answers questions over indexed material.
	Querier driving.Querier

	// Ingestor ingests extracted text and manages sources.
	Ingestor driving.Ingestor
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Querier == nil {
		return ErrMissingQuerier
	}
	if p.Ingestor == nil {
		return ErrMissingIngestor
	}
	return nil
}
