package domain

import "fmt"

// Chunk represents a contiguous span of a source's text, the unit of
// embedding and retrieval. Chunks are immutable: re-ingesting changed
// text produces new chunks, never updates.
type Chunk struct {
	// ID is the unique identifier for the chunk. Chunk IDs are
	// deterministic (sourceID:position) so that re-ingesting identical
	// text replaces entries instead of duplicating them.
	ID string

	// SourceID links back to the Source that produced this chunk.
	SourceID string

	// TenantID scopes the chunk to one tenant.
	TenantID string

	// Text is the chunk's content.
	Text string

	// Position is the ordinal position within the source. Positions are
	// assigned before any index write; adjacent-chunk deduplication at
	// retrieval time depends on them.
	Position int

	// CharStart and CharEnd delimit the chunk within the normalised
	// source text, half-open [CharStart, CharEnd).
	CharStart int
	CharEnd   int
}

// ChunkID builds the deterministic chunk identifier for a source
// position.
func ChunkID(sourceID string, position int) string {
	return fmt.Sprintf("%s:%d", sourceID, position)
}

// IndexEntry is the persisted unit inside a vector index partition:
// a chunk together with its embedding vector. Invariant: an entry's
// TenantID always matches the partition it lives in.
type IndexEntry struct {
	// ChunkID identifies the chunk. Upserts are idempotent on this ID.
	ChunkID string

	// SourceID links the entry to its source for bulk deletion.
	SourceID string

	// TenantID names the partition the entry belongs to.
	TenantID string

	// Vector is the chunk's embedding, fixed dimension per index.
	Vector []float32

	// Text is the chunk text, stored alongside the vector so retrieval
	// does not need a second lookup.
	Text string

	// Position is the chunk's ordinal within its source.
	Position int
}
