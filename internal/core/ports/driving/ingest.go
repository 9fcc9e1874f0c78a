package driving

import (
	"context"

	"github.com/custodia-labs/askbase/internal/core/domain"
)

// IngestResult summarises one completed ingestion call.
type IngestResult struct {
	// Source is the registered source record.
	Source domain.Source

	// ChunkCount is the number of chunks indexed.
	ChunkCount int
}

// Ingestor turns extracted text into indexed, searchable chunks for one
// tenant. Calls are stateless and safely concurrent, across tenants and
// within a tenant.
type Ingestor interface {
	// Ingest chunks, embeds and indexes the given text under the
	// tenant's partition. The source's entries become visible to
	// queries atomically: all chunks or none.
	Ingest(ctx context.Context, tenantID string, text domain.ExtractedText) (*IngestResult, error)

	// DeleteSource withdraws a source: its index entries and registry
	// record are removed.
	DeleteSource(ctx context.Context, tenantID, sourceID string) error

	// DeleteTenant wipes every source and index entry for the tenant.
	DeleteTenant(ctx context.Context, tenantID string) error

	// ListSources returns the tenant's ingested sources, newest first.
	ListSources(ctx context.Context, tenantID string) ([]domain.Source, error)
}
