package services

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are derived from text length so distinct texts embed
// differently but deterministically.
type mockEmbeddingService struct {
	dimensions int
	embedErr   error
	batchErr   error
	failOnce   bool // fail the first call, succeed after

	mu         sync.Mutex
	embedCalls int
	batchCalls int
}

func newMockEmbedder(dims int) *mockEmbeddingService {
	return &mockEmbeddingService{dimensions: dims}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	v := make([]float32, m.dimensions)
	for i := range v {
		v[i] = float32(len(text)%10) + float32(i)
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	calls := m.embedCalls
	m.mu.Unlock()

	if m.embedErr != nil {
		if !m.failOnce || calls == 1 {
			return nil, m.embedErr
		}
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	calls := m.batchCalls
	m.mu.Unlock()

	if m.batchErr != nil {
		if !m.failOnce || calls == 1 {
			return nil, m.batchErr
		}
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = m.vector(t)
	}
	return vectors, nil
}

func (m *mockEmbeddingService) Dimensions() int   { return m.dimensions }
func (m *mockEmbeddingService) ModelName() string { return "mock-embedder" }
func (m *mockEmbeddingService) Close() error      { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response string
	err      error
	failOnce bool

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	calls := m.calls
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.err != nil {
		if !m.failOnce || calls == 1 {
			return "", m.err
		}
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Close() error      { return nil }

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockLLMService) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockVectorIndex implements driven.VectorIndex with scripted results.
type mockVectorIndex struct {
	results   []domain.RetrievedChunk
	queryErr  error
	upsertErr error

	mu       sync.Mutex
	upserted []domain.IndexEntry
}

func (m *mockVectorIndex) Upsert(_ context.Context, _ string, entries []domain.IndexEntry) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	m.upserted = append(m.upserted, entries...)
	m.mu.Unlock()
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, _ string, _ []float32, topK int) ([]domain.RetrievedChunk, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if topK < len(m.results) {
		return m.results[:topK], nil
	}
	return m.results, nil
}

func (m *mockVectorIndex) DeleteSource(_ context.Context, _, _ string) error { return nil }
func (m *mockVectorIndex) DeleteTenant(_ context.Context, _ string) error    { return nil }
func (m *mockVectorIndex) Count(_ context.Context, _ string) (int, error)    { return 0, nil }
func (m *mockVectorIndex) Close() error                                      { return nil }

// mockSourceStore implements driven.SourceStore in memory.
type mockSourceStore struct {
	mu      sync.Mutex
	sources map[string]domain.Source // key: tenantID + "/" + sourceID
	saveErr error
}

func newMockSourceStore() *mockSourceStore {
	return &mockSourceStore{sources: make(map[string]domain.Source)}
}

func (m *mockSourceStore) Save(_ context.Context, source domain.Source) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	m.sources[source.TenantID+"/"+source.ID] = source
	m.mu.Unlock()
	return nil
}

func (m *mockSourceStore) Get(_ context.Context, tenantID, sourceID string) (*domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[tenantID+"/"+sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

func (m *mockSourceStore) List(_ context.Context, tenantID string) ([]domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []domain.Source
	for _, source := range m.sources {
		if source.TenantID == tenantID {
			list = append(list, source)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].IngestedAt.After(list[j].IngestedAt)
	})
	return list, nil
}

func (m *mockSourceStore) Delete(_ context.Context, tenantID, sourceID string) error {
	m.mu.Lock()
	delete(m.sources, tenantID+"/"+sourceID)
	m.mu.Unlock()
	return nil
}

func (m *mockSourceStore) DeleteTenant(_ context.Context, tenantID string) error {
	m.mu.Lock()
	for key, source := range m.sources {
		if source.TenantID == tenantID {
			delete(m.sources, key)
		}
	}
	m.mu.Unlock()
	return nil
}

// mockAuditStore implements driven.AuditStore in memory.
type mockAuditStore struct {
	mu        sync.Mutex
	events    []domain.AuditEvent
	recordErr error
}

func (m *mockAuditStore) Record(_ context.Context, event domain.AuditEvent) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return nil
}

func (m *mockAuditStore) List(_ context.Context, tenantID string, limit int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []domain.AuditEvent
	for i := len(m.events) - 1; i >= 0 && len(list) < limit; i-- {
		if m.events[i].TenantID == tenantID {
			list = append(list, m.events[i])
		}
	}
	return list, nil
}

func (m *mockAuditStore) recorded() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEvent, len(m.events))
	copy(out, m.events)
	return out
}

// mockPromptStore implements driven.PromptStore with fixed prompts.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if prompt, ok := m.prompts[name]; ok {
		return prompt, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}
