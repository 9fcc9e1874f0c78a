package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
	"github.com/custodia-labs/askbase/internal/core/ports/driving"
	"github.com/custodia-labs/askbase/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.Querier = (*QueryService)(nil)

// Default retrieval parameters. Tunable via AskOptions; these are the
// fallbacks for zero values.
const (
	// DefaultTopK is how many passages ground an answer by default.
	DefaultTopK = 3

	// DefaultMinScore is the relevance threshold below which passages
	// are dropped.
	DefaultMinScore = 0.2

	// minCandidateK floors the over-fetch so small topK values still
	// leave room for deduplication.
	minCandidateK = 10

	// candidateFactor is the over-fetch multiplier applied to topK.
	candidateFactor = 3

	// embedRetryDelay is the pause before the single retry after an
	// embedding provider failure.
	embedRetryDelay = 500 * time.Millisecond
)

// QueryService orchestrates the query pipeline: embed the question,
// retrieve the tenant's most relevant passages, synthesize a grounded
// answer. Stateless and safe for concurrent use.
type QueryService struct {
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	synthesizer *Synthesizer
	auditStore  driven.AuditStore
}

// NewQueryService creates a query service.
func NewQueryService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	synthesizer *Synthesizer,
) *QueryService {
	return &QueryService{
		embedder:    embedder,
		index:       index,
		synthesizer: synthesizer,
	}
}

// SetAuditStore enables audit event recording.
func (s *QueryService) SetAuditStore(store driven.AuditStore) {
	s.auditStore = store
}

// Ask answers a question from the tenant's indexed material.
func (s *QueryService) Ask(
	ctx context.Context, tenantID, question string, opts driving.AskOptions,
) (*driving.AskResult, error) {
	started := time.Now()
	logger.Section("Query")

	result, err := s.ask(ctx, tenantID, question, opts)

	outcome := "ok"
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			outcome = string(stageErr.Stage)
		} else {
			outcome = "error"
		}
	}
	s.recordEvent(ctx, domain.AuditEvent{
		ID:         uuid.NewString(),
		Type:       domain.EventQueryCompleted,
		TenantID:   tenantID,
		Outcome:    outcome,
		Duration:   time.Since(started),
		OccurredAt: time.Now().UTC(),
	})

	return result, err
}

// ask is the pipeline body; Ask wraps it with audit recording.
func (s *QueryService) ask(
	ctx context.Context, tenantID, question string, opts driving.AskOptions,
) (*driving.AskResult, error) {
	retrieved, err := s.Retrieve(ctx, tenantID, question, domain.RetrievalOptions{
		TopK:     opts.TopK,
		MinScore: opts.MinScore,
	})
	if err != nil {
		return nil, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, question, retrieved, opts.History)
	if err != nil {
		return nil, domain.NewStageError(domain.StageSynthesized, err)
	}

	// Cancellation never yields a partial answer.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, domain.NewStageError(domain.StageSynthesized, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr))
	}

	return &driving.AskResult{Answer: *answer, Retrieved: retrieved}, nil
}

// Retrieve runs retrieval only: embed the question, over-fetch
// candidates from the tenant's partition, collapse adjacent chunks,
// apply the relevance threshold and truncate. An empty result is a
// valid ungrounded outcome, never an error.
func (s *QueryService) Retrieve(
	ctx context.Context, tenantID, question string, opts domain.RetrievalOptions,
) (domain.RetrievalResult, error) {
	if strings.TrimSpace(tenantID) == "" {
		return domain.RetrievalResult{}, domain.NewStageError(domain.StageReceived,
			fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidConfig))
	}
	if strings.TrimSpace(question) == "" {
		return domain.RetrievalResult{}, domain.NewStageError(domain.StageReceived, domain.ErrEmptyInput)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	vector, err := s.embedQuestion(ctx, question)
	if err != nil {
		return domain.RetrievalResult{}, domain.NewStageError(domain.StageEmbedded, err)
	}

	// Over-fetch so adjacency collapse and the threshold still leave
	// topK survivors when the index has them.
	candidateK := topK * candidateFactor
	if candidateK < minCandidateK {
		candidateK = minCandidateK
	}
	logger.Debug("Retrieving %d candidates for top %d", candidateK, topK)

	candidates, err := s.index.Query(ctx, tenantID, vector, candidateK)
	if err != nil {
		return domain.RetrievalResult{}, domain.NewStageError(domain.StageRetrieved, err)
	}

	chunks := collapseAdjacent(candidates)

	filtered := chunks[:0]
	for _, c := range chunks {
		if c.Score >= minScore {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}

	logger.Debug("Retrieved %d passages after dedup and threshold", len(filtered))
	return domain.RetrievalResult{Chunks: filtered}, nil
}

// embedQuestion calls the provider with one retry on transient failure.
func (s *QueryService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	vector, err := s.embedder.Embed(ctx, question)
	if err == nil {
		return vector, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr)
	}

	logger.Warn("Question embedding failed, retrying once: %v", err)
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	case <-time.After(embedRetryDelay):
	}

	vector, err = s.embedder.Embed(ctx, question)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	return vector, nil
}

// collapseAdjacent deduplicates candidates that are neighbouring chunks
// of the same source (positions differing by one), keeping the higher
// scored of each pair. Candidates arrive ordered by score descending,
// so a later candidate adjacent to a kept one is always the loser.
func collapseAdjacent(candidates []domain.RetrievedChunk) []domain.RetrievedChunk {
	kept := make([]domain.RetrievedChunk, 0, len(candidates))
	for _, cand := range candidates {
		adjacent := false
		for _, k := range kept {
			if k.Entry.SourceID != cand.Entry.SourceID {
				continue
			}
			diff := k.Entry.Position - cand.Entry.Position
			if diff == 1 || diff == -1 {
				adjacent = true
				break
			}
		}
		if !adjacent {
			kept = append(kept, cand)
		}
	}
	return kept
}

// recordEvent persists an audit event. Failures are logged, never
// returned.
func (s *QueryService) recordEvent(ctx context.Context, event domain.AuditEvent) {
	if s.auditStore == nil {
		return
	}
	if err := s.auditStore.Record(ctx, event); err != nil {
		logger.Warn("Failed to record audit event: %v", err)
	}
}
