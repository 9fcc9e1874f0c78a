package cli

import (
	"context"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driving"
)

// mockIngestor implements driving.Ingestor for command tests.
type mockIngestor struct {
	result  *driving.IngestResult
	sources []domain.Source
	err     error

	lastTenant string
	lastText   domain.ExtractedText
	deleted    []string
	wiped      []string
}

func (m *mockIngestor) Ingest(
	_ context.Context, tenantID string, text domain.ExtractedText,
) (*driving.IngestResult, error) {
	m.lastTenant = tenantID
	m.lastText = text
	return m.result, m.err
}

func (m *mockIngestor) DeleteSource(_ context.Context, tenantID, sourceID string) error {
	m.deleted = append(m.deleted, tenantID+"/"+sourceID)
	return m.err
}

func (m *mockIngestor) DeleteTenant(_ context.Context, tenantID string) error {
	m.wiped = append(m.wiped, tenantID)
	return m.err
}

func (m *mockIngestor) ListSources(_ context.Context, _ string) ([]domain.Source, error) {
	return m.sources, m.err
}

// mockQuerier implements driving.Querier for command tests.
type mockQuerier struct {
	result *driving.AskResult
	err    error

	lastTenant   string
	lastQuestion string
	lastOpts     driving.AskOptions
}

func (m *mockQuerier) Ask(
	_ context.Context, tenantID, question string, opts driving.AskOptions,
) (*driving.AskResult, error) {
	m.lastTenant = tenantID
	m.lastQuestion = question
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockQuerier) Retrieve(
	_ context.Context, _, _ string, _ domain.RetrievalOptions,
) (domain.RetrievalResult, error) {
	if m.result != nil {
		return m.result.Retrieved, m.err
	}
	return domain.RetrievalResult{}, m.err
}

// setupTestServices swaps in mock services and returns a cleanup func.
func setupTestServices(ingestor *mockIngestor, querier *mockQuerier) func() {
	oldIngest := ingestService
	oldQuery := queryService
	ingestService = ingestor
	queryService = querier
	return func() {
		ingestService = oldIngest
		queryService = oldQuery
	}
}
