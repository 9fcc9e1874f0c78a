package driven

import (
	"context"

	"github.com/custodia-labs/askbase/internal/core/domain"
)

// VectorIndex provides tenant-partitioned vector storage and
// nearest-neighbour search. Two backends implement it - an in-process
// index and a remote index service - and callers never branch on which
// one they hold.
//
// Isolation is structural: each tenant's entries live in their own
// partition (a per-tenant map locally, a per-tenant table remotely), so
// a query scoped to tenant T cannot address another tenant's data even
// when a filter is forgotten. Implementations additionally assert the
// tenant of every row they read and return domain.ErrTenantIsolation on
// mismatch.
type VectorIndex interface {
	// Upsert writes entries into the tenant's partition as one atomic
	// batch: a concurrent Query observes either all of the entries or
	// none of them. Idempotent on ChunkID - re-upserting an existing
	// chunk ID replaces its vector and text, never duplicates.
	Upsert(ctx context.Context, tenantID string, entries []domain.IndexEntry) error

	// Query returns up to topK entries from the tenant's partition,
	// ordered descending by similarity to the query vector. Ties are
	// broken by insertion order (earlier-ingested wins) so results are
	// deterministic. A tenant with no entries yields an empty slice,
	// not an error.
	Query(ctx context.Context, tenantID string, vector []float32, topK int) ([]domain.RetrievedChunk, error)

	// DeleteSource removes every entry belonging to the given source
	// from the tenant's partition. Used when a source is withdrawn.
	DeleteSource(ctx context.Context, tenantID, sourceID string) error

	// DeleteTenant drops the tenant's entire partition.
	DeleteTenant(ctx context.Context, tenantID string) error

	// Count returns the number of entries in the tenant's partition.
	Count(ctx context.Context, tenantID string) (int, error)

	// Close releases resources.
	Close() error
}
