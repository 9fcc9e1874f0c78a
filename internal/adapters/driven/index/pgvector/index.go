// Package pgvector provides a remote vector index backed by Postgres
// with the pgvector extension.
//
// Isolation is structural: every tenant's entries live in their own
// table, named from a digest of the tenant ID. Queries address that
// table directly, so there is no shared relation a forgotten WHERE
// clause could leak from.
package pgvector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// undefinedTable is the Postgres error code for a missing relation.
// A tenant that never ingested anything has no table; that is a valid
// empty result, not a failure.
const undefinedTable = "42P01"

// Index is a Postgres/pgvector implementation of driven.VectorIndex.
type Index struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewIndex creates a pgvector-backed index over an existing connection
// pool. The pgvector extension is created if missing.
func NewIndex(ctx context.Context, pool *pgxpool.Pool, dimensions int) (*Index, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: connection pool is required", domain.ErrInvalidConfig)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive, got %d", domain.ErrInvalidConfig, dimensions)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("%w: create vector extension: %v", domain.ErrIndexUnavailable, err)
	}

	return &Index{pool: pool, dimensions: dimensions}, nil
}

// Dimensions returns the configured vector size.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// tenantTable derives the tenant's table name. Tenant IDs are opaque
// caller-supplied strings, so the name uses a hex digest rather than
// the raw ID.
func tenantTable(tenantID string) string {
	sum := sha256.Sum256([]byte(tenantID))
	return "askbase_entries_" + hex.EncodeToString(sum[:8])
}

// ensureTable creates the tenant's partition table if it does not exist.
func (ix *Index) ensureTable(ctx context.Context, tx pgx.Tx, table string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chunk_id  TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			content   TEXT NOT NULL,
			position  INT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			seq       BIGSERIAL
		)`, table, ix.dimensions))
	if err != nil {
		return fmt.Errorf("create tenant table: %w", err)
	}
	return nil
}

// Upsert writes entries into the tenant's table in a single transaction,
// so a concurrent query sees all of a source's chunks or none.
func (ix *Index) Upsert(ctx context.Context, tenantID string, entries []domain.IndexEntry) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidConfig)
	}
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
	if len(entries) == 0 {
		return nil
	}

	table := tenantTable(tenantID)

	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrIndexUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := ix.ensureTable(ctx, tx, table); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	// Replacing an existing chunk keeps its seq: it is still the
	// earlier-ingested chunk for tie-breaking purposes.
	stmt := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, source_id, tenant_id, content, position, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chunk_id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			position = excluded.position,
			embedding = excluded.embedding`, table)

	for _, e := range entries {
		if _, err := tx.Exec(ctx, stmt,
			e.ChunkID, e.SourceID, e.TenantID, e.Text, e.Position, pgv.NewVector(e.Vector)); err != nil {
			return fmt.Errorf("%w: upsert entry %s: %v", domain.ErrIndexUnavailable, e.ChunkID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Query returns up to topK entries ordered by cosine similarity, ties
// broken by insertion sequence.
func (ix *Index) Query(ctx context.Context, tenantID string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if len(vector) != ix.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrInvalidConfig, len(vector), ix.dimensions)
	}
	if topK <= 0 {
		return nil, nil
	}

	table := tenantTable(tenantID)
	rows, err := ix.pool.Query(ctx, fmt.Sprintf(`
		SELECT chunk_id, source_id, tenant_id, content, position,
		       1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2`, table), pgv.NewVector(vector), topK)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: query: %v", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk
	for rows.Next() {
		var e domain.IndexEntry
		var score float64
		if err := rows.Scan(&e.ChunkID, &e.SourceID, &e.TenantID, &e.Text, &e.Position, &score); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", domain.ErrIndexUnavailable, err)
		}
		if e.TenantID != tenantID {
			return nil, fmt.Errorf("%w: partition %q returned entry %s for tenant %q",
				domain.ErrTenantIsolation, tenantID, e.ChunkID, e.TenantID)
		}
		hits = append(hits, domain.RetrievedChunk{Entry: e, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %v", domain.ErrIndexUnavailable, err)
	}
	return hits, nil
}

// DeleteSource removes every entry for the given source.
func (ix *Index) DeleteSource(ctx context.Context, tenantID, sourceID string) error {
	table := tenantTable(tenantID)
	_, err := ix.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE source_id = $1", table), sourceID)
	if err != nil {
		if isUndefinedTable(err) {
			return nil
		}
		return fmt.Errorf("%w: delete source %s: %v", domain.ErrIndexUnavailable, sourceID, err)
	}
	return nil
}

// DeleteTenant drops the tenant's table.
func (ix *Index) DeleteTenant(ctx context.Context, tenantID string) error {
	table := tenantTable(tenantID)
	if _, err := ix.pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("%w: drop tenant partition: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Count returns the number of entries in the tenant's table.
func (ix *Index) Count(ctx context.Context, tenantID string) (int, error) {
	table := tenantTable(tenantID)
	var count int
	err := ix.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: count: %v", domain.ErrIndexUnavailable, err)
	}
	return count, nil
}

// Close releases the connection pool.
func (ix *Index) Close() error {
	ix.pool.Close()
	return nil
}

// isUndefinedTable reports whether err is Postgres "relation does not
// exist".
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
