package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/askbase/internal/chunker"
	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
	"github.com/custodia-labs/askbase/internal/core/ports/driving"
	"github.com/custodia-labs/askbase/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService orchestrates the ingestion pipeline: chunk, embed,
// index, register. It is stateless and safe for concurrent use across
// and within tenants.
type IngestService struct {
	chunker     *chunker.Chunker
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	sourceStore driven.SourceStore
	auditStore  driven.AuditStore
}

// NewIngestService creates an ingestion service. The audit store is
// optional; when nil, no events are recorded.
func NewIngestService(
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	sourceStore driven.SourceStore,
) *IngestService {
	return &IngestService{
		chunker:     ch,
		embedder:    embedder,
		index:       index,
		sourceStore: sourceStore,
	}
}

// SetAuditStore enables audit event recording.
func (s *IngestService) SetAuditStore(store driven.AuditStore) {
	s.auditStore = store
}

// Ingest runs the full pipeline for one source. The source's entries
// become visible to queries in a single batch upsert; a failure at any
// stage leaves no partial source behind (re-ingesting the same source ID
// replaces whatever a previous attempt wrote).
func (s *IngestService) Ingest(
	ctx context.Context, tenantID string, text domain.ExtractedText,
) (*driving.IngestResult, error) {
	started := time.Now()
	logger.Section("Ingestion")

	result, err := s.ingest(ctx, tenantID, text)

	outcome := "ok"
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			outcome = string(stageErr.Stage)
		} else {
			outcome = "error"
		}
	}
	sourceID := text.SourceID
	if result != nil {
		sourceID = result.Source.ID
	}
	s.recordEvent(ctx, domain.AuditEvent{
		ID:         uuid.NewString(),
		Type:       domain.EventIngestCompleted,
		TenantID:   tenantID,
		SourceID:   sourceID,
		Outcome:    outcome,
		Duration:   time.Since(started),
		OccurredAt: time.Now().UTC(),
	})

	return result, err
}

// ingest is the pipeline body; Ingest wraps it with audit recording.
func (s *IngestService) ingest(
	ctx context.Context, tenantID string, text domain.ExtractedText,
) (*driving.IngestResult, error) {
	// Received: validate inputs.
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.NewStageError(domain.StageReceived, fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidConfig))
	}
	if !text.Origin.Valid() {
		return nil, domain.NewStageError(domain.StageReceived, fmt.Errorf("%w: unknown origin %q", domain.ErrInvalidConfig, text.Origin))
	}
	if strings.TrimSpace(text.Text) == "" {
		return nil, domain.NewStageError(domain.StageReceived, domain.ErrEmptyInput)
	}

	sourceID := text.SourceID
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	logger.Debug("Ingesting source %s for tenant %s", sourceID, tenantID)

	// Chunked: split into overlapping spans.
	spans, err := s.chunker.Chunk(text.Text)
	if err != nil {
		return nil, domain.NewStageError(domain.StageChunked, err)
	}
	logger.Debug("Produced %d chunks", len(spans))

	// Positions are fixed here, before any embedding or index write.
	chunks := make([]domain.Chunk, len(spans))
	texts := make([]string, len(spans))
	for i, span := range spans {
		chunks[i] = domain.Chunk{
			ID:        domain.ChunkID(sourceID, span.Position),
			SourceID:  sourceID,
			TenantID:  tenantID,
			Text:      span.Text,
			Position:  span.Position,
			CharStart: span.CharStart,
			CharEnd:   span.CharEnd,
		}
		texts[i] = span.Text
	}

	// Embedded: one batch call to the provider.
	vectors, err := s.embedBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewStageError(domain.StageEmbedded, err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewStageError(domain.StageEmbedded,
			fmt.Errorf("%w: provider returned %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks)))
	}

	want := s.embedder.Dimensions()
	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != want {
			return nil, domain.NewStageError(domain.StageEmbedded,
				fmt.Errorf("%w: embedding dimension %d, expected %d", domain.ErrInvalidConfig, len(vectors[i]), want))
		}
		entries[i] = domain.IndexEntry{
			ChunkID:  chunk.ID,
			SourceID: chunk.SourceID,
			TenantID: chunk.TenantID,
			Vector:   vectors[i],
			Text:     chunk.Text,
			Position: chunk.Position,
		}
	}

	// Indexed: re-ingestion first withdraws the previous entries so a
	// shorter text cannot leave stale tail positions behind, then one
	// atomic batch upsert.
	if prior, getErr := s.sourceStore.Get(ctx, tenantID, sourceID); getErr == nil && prior != nil {
		if delErr := s.index.DeleteSource(ctx, tenantID, sourceID); delErr != nil {
			return nil, domain.NewStageError(domain.StageIndexed, delErr)
		}
	}
	if err := s.index.Upsert(ctx, tenantID, entries); err != nil {
		return nil, domain.NewStageError(domain.StageIndexed, err)
	}

	source := domain.Source{
		ID:         sourceID,
		TenantID:   tenantID,
		Origin:     text.Origin,
		Title:      text.Title,
		ChunkCount: len(chunks),
		IngestedAt: time.Now().UTC(),
	}
	if err := s.sourceStore.Save(ctx, source); err != nil {
		return nil, domain.NewStageError(domain.StageIndexed, fmt.Errorf("register source: %w", err))
	}

	logger.Info("Ingested source %s: %d chunks", sourceID, len(chunks))
	return &driving.IngestResult{Source: source, ChunkCount: len(chunks)}, nil
}

// embedBatch calls the provider with one retry on transient failure.
func (s *IngestService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr)
	}

	logger.Warn("Batch embedding failed, retrying once: %v", err)
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	case <-time.After(embedRetryDelay):
	}

	vectors, err = s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	return vectors, nil
}

// DeleteSource withdraws a source: index entries first, then the
// registry record.
func (s *IngestService) DeleteSource(ctx context.Context, tenantID, sourceID string) error {
	if _, err := s.sourceStore.Get(ctx, tenantID, sourceID); err != nil {
		return err
	}
	if err := s.index.DeleteSource(ctx, tenantID, sourceID); err != nil {
		return err
	}
	if err := s.sourceStore.Delete(ctx, tenantID, sourceID); err != nil {
		return err
	}
	logger.Info("Deleted source %s for tenant %s", sourceID, tenantID)
	return nil
}

// DeleteTenant wipes the tenant: index partition and all source records.
func (s *IngestService) DeleteTenant(ctx context.Context, tenantID string) error {
	if err := s.index.DeleteTenant(ctx, tenantID); err != nil {
		return err
	}
	if err := s.sourceStore.DeleteTenant(ctx, tenantID); err != nil {
		return err
	}
	logger.Info("Wiped tenant %s", tenantID)
	return nil
}

// ListSources returns the tenant's ingested sources, newest first.
func (s *IngestService) ListSources(ctx context.Context, tenantID string) ([]domain.Source, error) {
	return s.sourceStore.List(ctx, tenantID)
}

// recordEvent persists an audit event. Failures are logged, never
// returned: audit is observability, not correctness.
func (s *IngestService) recordEvent(ctx context.Context, event domain.AuditEvent) {
	if s.auditStore == nil {
		return
	}
	if err := s.auditStore.Record(ctx, event); err != nil {
		logger.Warn("Failed to record audit event: %v", err)
	}
}
