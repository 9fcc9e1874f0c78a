// Package memory provides an in-process vector index with per-tenant
// partitions.
//
// Isolation is structural: every tenant owns a separate partition keyed
// by tenant ID, and queries can only ever address the partition they
// were scoped to. There is no shared table a missing filter could leak
// from.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored chunk with its insertion sequence. The sequence
// breaks score ties deterministically: earlier-ingested wins. Replacing
// an entry keeps its original sequence, since it is still the
// earlier-ingested chunk.
type entry struct {
	domain.IndexEntry
	seq uint64
}

// partition holds one tenant's entries.
type partition struct {
	entries map[string]*entry // chunk ID -> entry
}

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	partitions map[string]*partition
	nextSeq    uint64
}

// NewIndex creates an empty in-memory vector index for vectors of the
// given dimension.
func NewIndex(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive, got %d", domain.ErrInvalidConfig, dimensions)
	}
	return &Index{
		dimensions: dimensions,
		partitions: make(map[string]*partition),
	}, nil
}

// Dimensions returns the configured vector size.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Upsert writes entries into the tenant's partition as one atomic batch.
func (ix *Index) Upsert(_ context.Context, tenantID string, entries []domain.IndexEntry) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidConfig)
	}

	// Validate before touching the partition so a bad batch changes
	// nothing.
	for _, e := range entries {
		if e.TenantID != tenantID {
			return fmt.Errorf("%w: entry %s carries tenant %q, batch is scoped to %q",
				domain.ErrTenantIsolation, e.ChunkID, e.TenantID, tenantID)
		}
		if len(e.Vector) != ix.dimensions {
			return fmt.Errorf("%w: entry %s has %d dimensions, index expects %d",
				domain.ErrInvalidConfig, e.ChunkID, len(e.Vector), ix.dimensions)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	part, ok := ix.partitions[tenantID]
	if !ok {
		part = &partition{entries: make(map[string]*entry)}
		ix.partitions[tenantID] = part
	}

	for _, e := range entries {
		if existing, ok := part.entries[e.ChunkID]; ok {
			existing.IndexEntry = e
			continue
		}
		ix.nextSeq++
		part.entries[e.ChunkID] = &entry{IndexEntry: e, seq: ix.nextSeq}
	}

	return nil
}

// Query returns up to topK entries ordered descending by cosine
// similarity, ties broken by insertion order.
func (ix *Index) Query(_ context.Context, tenantID string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(vector) != ix.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrInvalidConfig, len(vector), ix.dimensions)
	}
	if topK <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	part, ok := ix.partitions[tenantID]
	if !ok {
		// No entries for this tenant: a valid empty result.
		return nil, nil
	}

	scored := make([]domain.RetrievedChunk, 0, len(part.entries))
	seqs := make(map[string]uint64, len(part.entries))
	for _, e := range part.entries {
		if e.TenantID != tenantID {
			return nil, fmt.Errorf("%w: partition %q holds entry %s for tenant %q",
				domain.ErrTenantIsolation, tenantID, e.ChunkID, e.TenantID)
		}
		scored = append(scored, domain.RetrievedChunk{
			Entry: e.IndexEntry,
			Score: cosineSimilarity(vector, e.Vector),
		})
		seqs[e.ChunkID] = e.seq
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return seqs[scored[i].Entry.ChunkID] < seqs[scored[j].Entry.ChunkID]
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// DeleteSource removes every entry for the given source.
func (ix *Index) DeleteSource(_ context.Context, tenantID, sourceID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	part, ok := ix.partitions[tenantID]
	if !ok {
		return nil
	}
	for id, e := range part.entries {
		if e.SourceID == sourceID {
			delete(part.entries, id)
		}
	}
	return nil
}

// DeleteTenant drops the tenant's partition.
func (ix *Index) DeleteTenant(_ context.Context, tenantID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.partitions, tenantID)
	return nil
}

// Count returns the number of entries in the tenant's partition.
func (ix *Index) Count(_ context.Context, tenantID string) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	part, ok := ix.partitions[tenantID]
	if !ok {
		return 0, nil
	}
	return len(part.entries), nil
}

// Close releases resources.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.partitions = make(map[string]*partition)
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
