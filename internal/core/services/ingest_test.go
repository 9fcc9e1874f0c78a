package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askbase/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/askbase/internal/chunker"
	"github.com/custodia-labs/askbase/internal/core/domain"
)

const testDims = 4

func newTestIngest(t *testing.T) (*IngestService, *memory.Index, *mockSourceStore) {
	t.Helper()

	ch, err := chunker.New(50, 5)
	require.NoError(t, err)

	index, err := memory.NewIndex(testDims)
	require.NoError(t, err)

	sources := newMockSourceStore()
	return NewIngestService(ch, newMockEmbedder(testDims), index, sources), index, sources
}

func uploadText(sourceID, text string) domain.ExtractedText {
	return domain.ExtractedText{
		SourceID: sourceID,
		Title:    "Test Document",
		Origin:   domain.OriginUpload,
		Text:     text,
	}
}

func TestIngest_Success(t *testing.T) {
	svc, index, sources := newTestIngest(t)
	ctx := context.Background()

	result, err := svc.Ingest(ctx, "t1", uploadText("doc-1", "Rainfall in March increased 20%. Rainfall in April decreased 5%."))

	require.NoError(t, err)
	assert.Equal(t, "doc-1", result.Source.ID)
	assert.Equal(t, "t1", result.Source.TenantID)
	assert.Equal(t, domain.OriginUpload, result.Source.Origin)
	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, result.ChunkCount, result.Source.ChunkCount)

	// Entries landed in the tenant's partition.
	count, err := index.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, count)

	// Source registered.
	saved, err := sources.Get(ctx, "t1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, saved.ChunkCount)
}

func TestIngest_AssignsSourceIDWhenEmpty(t *testing.T) {
	svc, _, _ := newTestIngest(t)

	result, err := svc.Ingest(context.Background(), "t1", uploadText("", "Some document text to index."))

	require.NoError(t, err)
	assert.NotEmpty(t, result.Source.ID)
}

func TestIngest_EmptyText(t *testing.T) {
	svc, _, _ := newTestIngest(t)

	_, err := svc.Ingest(context.Background(), "t1", uploadText("doc-1", "   \n\t  "))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageReceived, stageErr.Stage)
}

func TestIngest_MissingTenant(t *testing.T) {
	svc, _, _ := newTestIngest(t)

	_, err := svc.Ingest(context.Background(), "", uploadText("doc-1", "text"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIngest_InvalidOrigin(t *testing.T) {
	svc, _, _ := newTestIngest(t)

	_, err := svc.Ingest(context.Background(), "t1", domain.ExtractedText{
		SourceID: "doc-1",
		Origin:   "carrier-pigeon",
		Text:     "text",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIngest_EmbeddingFailureTaggedWithStage(t *testing.T) {
	ch, err := chunker.New(50, 5)
	require.NoError(t, err)
	index, err := memory.NewIndex(testDims)
	require.NoError(t, err)

	embedder := newMockEmbedder(testDims)
	embedder.batchErr = errors.New("provider down")
	svc := NewIngestService(ch, embedder, index, newMockSourceStore())

	_, err = svc.Ingest(context.Background(), "t1", uploadText("doc-1", "some text"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageEmbedded, stageErr.Stage)

	// Nothing was indexed.
	count, countErr := index.Count(context.Background(), "t1")
	require.NoError(t, countErr)
	assert.Equal(t, 0, count)
}

func TestIngest_EmbeddingRetriesOnce(t *testing.T) {
	ch, err := chunker.New(50, 5)
	require.NoError(t, err)
	index, err := memory.NewIndex(testDims)
	require.NoError(t, err)

	embedder := newMockEmbedder(testDims)
	embedder.batchErr = errors.New("transient")
	embedder.failOnce = true
	svc := NewIngestService(ch, embedder, index, newMockSourceStore())

	result, err := svc.Ingest(context.Background(), "t1", uploadText("doc-1", "some text"))

	require.NoError(t, err)
	assert.Greater(t, result.ChunkCount, 0)
}

func TestIngest_DimensionMismatchRejected(t *testing.T) {
	ch, err := chunker.New(50, 5)
	require.NoError(t, err)
	index, err := memory.NewIndex(testDims)
	require.NoError(t, err)

	// Embedder claims testDims but produces 8-wide vectors.
	embedder := newMockEmbedder(8)
	wrapped := &dimensionLiar{inner: embedder, claimed: testDims}
	svc := NewIngestService(ch, wrapped, index, newMockSourceStore())

	_, err = svc.Ingest(context.Background(), "t1", uploadText("doc-1", "some text"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

// dimensionLiar reports a different dimension than its vectors have.
type dimensionLiar struct {
	inner   *mockEmbeddingService
	claimed int
}

func (d *dimensionLiar) Embed(ctx context.Context, text string) ([]float32, error) {
	return d.inner.Embed(ctx, text)
}

func (d *dimensionLiar) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return d.inner.EmbedBatch(ctx, texts)
}

func (d *dimensionLiar) Dimensions() int   { return d.claimed }
func (d *dimensionLiar) ModelName() string { return d.inner.ModelName() }
func (d *dimensionLiar) Close() error      { return nil }

func TestIngest_ReingestReplacesEntries(t *testing.T) {
	svc, index, _ := newTestIngest(t)
	ctx := context.Background()

	long := strings.Repeat("First version of the document with plenty of additional words to produce several chunks. ", 20)
	first, err := svc.Ingest(ctx, "t1", uploadText("doc-1", long))
	require.NoError(t, err)
	require.Greater(t, first.ChunkCount, 1)

	// Re-ingest with a much shorter text; stale tail entries must go.
	second, err := svc.Ingest(ctx, "t1", uploadText("doc-1", "Short replacement text."))
	require.NoError(t, err)
	assert.Less(t, second.ChunkCount, first.ChunkCount)

	count, err := index.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, second.ChunkCount, count)
}

func TestIngest_PositionsAreSequential(t *testing.T) {
	svc, index, _ := newTestIngest(t)
	ctx := context.Background()

	long := strings.Repeat("A sentence that together with its copies forces the chunker to emit several chunks. ", 20)
	result, err := svc.Ingest(ctx, "t1", uploadText("doc-1", long))
	require.NoError(t, err)
	require.Greater(t, result.ChunkCount, 1)

	// Chunk IDs are deterministic sourceID:position.
	embedder := newMockEmbedder(testDims)
	vec, err := embedder.Embed(ctx, "probe")
	require.NoError(t, err)

	hits, err := index.Query(ctx, "t1", vec, result.ChunkCount)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, hit := range hits {
		assert.Equal(t, domain.ChunkID("doc-1", hit.Entry.Position), hit.Entry.ChunkID)
		seen[hit.Entry.Position] = true
	}
	for pos := 0; pos < result.ChunkCount; pos++ {
		assert.True(t, seen[pos], "missing position %d", pos)
	}
}

func TestIngest_RecordsAuditEvent(t *testing.T) {
	svc, _, _ := newTestIngest(t)
	audit := &mockAuditStore{}
	svc.SetAuditStore(audit)

	_, err := svc.Ingest(context.Background(), "t1", uploadText("doc-1", "some text"))
	require.NoError(t, err)

	events := audit.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventIngestCompleted, events[0].Type)
	assert.Equal(t, "t1", events[0].TenantID)
	assert.Equal(t, "doc-1", events[0].SourceID)
	assert.Equal(t, "ok", events[0].Outcome)
}

func TestIngest_AuditFailureDoesNotFailPipeline(t *testing.T) {
	svc, _, _ := newTestIngest(t)
	svc.SetAuditStore(&mockAuditStore{recordErr: errors.New("disk full")})

	_, err := svc.Ingest(context.Background(), "t1", uploadText("doc-1", "some text"))
	assert.NoError(t, err)
}

func TestIngest_FailureOutcomeNamesStage(t *testing.T) {
	svc, _, _ := newTestIngest(t)
	audit := &mockAuditStore{}
	svc.SetAuditStore(audit)

	_, err := svc.Ingest(context.Background(), "t1", uploadText("doc-1", ""))
	require.Error(t, err)

	events := audit.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, string(domain.StageReceived), events[0].Outcome)
}

func TestDeleteSource_RemovesEntriesAndRecord(t *testing.T) {
	svc, index, sources := newTestIngest(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "t1", uploadText("doc-1", "some text"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSource(ctx, "t1", "doc-1"))

	count, err := index.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = sources.Get(ctx, "t1", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSource_UnknownSource(t *testing.T) {
	svc, _, _ := newTestIngest(t)

	err := svc.DeleteSource(context.Background(), "t1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTenant_WipesEverything(t *testing.T) {
	svc, index, _ := newTestIngest(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "t1", uploadText("doc-1", "tenant one text"))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "t2", uploadText("doc-2", "tenant two text"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTenant(ctx, "t1"))

	count, err := index.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	list, err := svc.ListSources(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, list)

	// Other tenant untouched.
	count, err = index.Count(ctx, "t2")
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestIngest_ConcurrentTenants(t *testing.T) {
	svc, index, _ := newTestIngest(t)
	ctx := context.Background()

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(id int) {
			tenant := "tenant-" + string(rune('a'+id))
			_, err := svc.Ingest(ctx, tenant, uploadText("doc", "concurrent ingestion text"))
			done <- err
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	for i := 0; i < 4; i++ {
		tenant := "tenant-" + string(rune('a'+i))
		count, err := index.Count(ctx, tenant)
		require.NoError(t, err)
		assert.Greater(t, count, 0)
	}
}
