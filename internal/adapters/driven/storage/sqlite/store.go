// Package sqlite provides SQLite-backed persistence for the source
// registry and the audit log. The vector index itself lives elsewhere;
// this store only holds metadata.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/askbase/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage providing the metadata store
// interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.askbase/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askbase", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// AuditStore returns an AuditStore interface backed by this store.
func (s *Store) AuditStore() driven.AuditStore {
	return &auditStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores a source record.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, tenant_id, origin, title, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			origin = excluded.origin,
			title = excluded.title,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at
	`, source.ID, source.TenantID, string(source.Origin), source.Title,
		source.ChunkCount, source.IngestedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by ID within the tenant.
func (s *sourceStore) Get(ctx context.Context, tenantID, sourceID string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, origin, title, chunk_count, ingested_at
		FROM sources WHERE tenant_id = ? AND id = ?
	`, tenantID, sourceID)

	source, err := scanSource(row)
	if err != nil {
		return nil, err
	}
	if source.TenantID != tenantID {
		return nil, fmt.Errorf("%w: source %s belongs to tenant %q, expected %q",
			domain.ErrTenantIsolation, source.ID, source.TenantID, tenantID)
	}
	return source, nil
}

// List returns all sources for the tenant, newest first.
func (s *sourceStore) List(ctx context.Context, tenantID string) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, tenant_id, origin, title, chunk_count, ingested_at
		FROM sources WHERE tenant_id = ?
		ORDER BY ingested_at DESC, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		var source domain.Source
		var origin string
		if err := rows.Scan(&source.ID, &source.TenantID, &origin,
			&source.Title, &source.ChunkCount, &source.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		source.Origin = domain.SourceOrigin(origin)
		if source.TenantID != tenantID {
			return nil, fmt.Errorf("%w: source %s belongs to tenant %q, expected %q",
				domain.ErrTenantIsolation, source.ID, source.TenantID, tenantID)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// Delete removes a source record.
func (s *sourceStore) Delete(ctx context.Context, tenantID, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM sources WHERE tenant_id = ? AND id = ?", tenantID, sourceID)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return nil
}

// DeleteTenant removes every source record for the tenant.
func (s *sourceStore) DeleteTenant(ctx context.Context, tenantID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM sources WHERE tenant_id = ?", tenantID)
	if err != nil {
		return fmt.Errorf("deleting tenant sources: %w", err)
	}
	return nil
}

// scanSource scans a single source row.
func scanSource(row *sql.Row) (*domain.Source, error) {
	var source domain.Source
	var origin string

	if err := row.Scan(&source.ID, &source.TenantID, &origin,
		&source.Title, &source.ChunkCount, &source.IngestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}

	source.Origin = domain.SourceOrigin(origin)
	return &source, nil
}

// ==================== Audit Store ====================

// auditStore implements driven.AuditStore.
type auditStore struct {
	store *Store
}

var _ driven.AuditStore = (*auditStore)(nil)

// Record persists one audit event.
func (s *auditStore) Record(ctx context.Context, event domain.AuditEvent) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, type, tenant_id, source_id, outcome, duration_us, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.ID, string(event.Type), event.TenantID, event.SourceID,
		event.Outcome, event.Duration.Microseconds(), event.OccurredAt)

	if err != nil {
		return fmt.Errorf("recording audit event: %w", err)
	}
	return nil
}

// List returns the most recent events for a tenant, newest first.
func (s *auditStore) List(ctx context.Context, tenantID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, type, tenant_id, source_id, outcome, duration_us, occurred_at
		FROM audit_events WHERE tenant_id = ?
		ORDER BY occurred_at DESC, id
		LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent //nolint:prealloc // size unknown from query
	for rows.Next() {
		var event domain.AuditEvent
		var eventType string
		var durationUS int64
		if err := rows.Scan(&event.ID, &eventType, &event.TenantID,
			&event.SourceID, &event.Outcome, &durationUS, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		event.Type = domain.AuditEventType(eventType)
		event.Duration = time.Duration(durationUS) * time.Microsecond
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}

	return events, nil
}
