package domain

import "time"

// AuditEventType names an orchestrator lifecycle event.
type AuditEventType string

// Audit event types.
const (
	EventIngestCompleted AuditEventType = "ingest_completed"
	EventQueryCompleted  AuditEventType = "query_completed"
)

// AuditEvent is a structured record of one completed pipeline call.
// Events are handed to the audit collaborator; the pipeline never
// depends on their successful persistence.
type AuditEvent struct {
	// ID is the unique event identifier.
	ID string

	// Type is the event type.
	Type AuditEventType

	// TenantID is the tenant the call was scoped to.
	TenantID string

	// SourceID is set for ingestion events.
	SourceID string

	// Outcome is "ok" or the failing stage name.
	Outcome string

	// Duration is how long the call took.
	Duration time.Duration

	// OccurredAt is when the call completed.
	OccurredAt time.Time
}
