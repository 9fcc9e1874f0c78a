package driven

import (
	"context"

	"github.com/custodia-labs/askbase/internal/core/domain"
)

// SourceStore persists the per-tenant registry of ingested sources.
// All operations are scoped by tenant; no call can list or touch
// another tenant's sources.
type SourceStore interface {
	// Save stores a source record.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID within the tenant.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, tenantID, sourceID string) (*domain.Source, error)

	// List returns all sources for the tenant, newest first.
	List(ctx context.Context, tenantID string) ([]domain.Source, error)

	// Delete removes a source record.
	Delete(ctx context.Context, tenantID, sourceID string) error

	// DeleteTenant removes every source record for the tenant.
	DeleteTenant(ctx context.Context, tenantID string) error
}

// AuditStore persists orchestrator audit events. Implementations must
// tolerate write failures without affecting pipeline results; callers
// log and continue.
type AuditStore interface {
	// Record persists one audit event.
	Record(ctx context.Context, event domain.AuditEvent) error

	// List returns the most recent events for a tenant, newest first,
	// capped at limit.
	List(ctx context.Context, tenantID string, limit int) ([]domain.AuditEvent, error)
}
