package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	TenantID string  `json:"tenant_id" jsonschema:"the tenant whose documents to query"`
	Question string  `json:"question" jsonschema:"the natural-language question to answer"`
	TopK     int     `json:"top_k,omitempty" jsonschema:"maximum number of passages to ground the answer on"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"relevance threshold below which passages are dropped"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string          `json:"answer"`
	Grounded bool            `json:"grounded"`
	Passages []PassageOutput `json:"passages,omitempty"`
}

// PassageOutput represents one retrieved passage backing an answer.
type PassageOutput struct {
	ChunkID  string  `json:"chunk_id"`
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Cited    bool    `json:"cited"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	TenantID string `json:"tenant_id" jsonschema:"the tenant to ingest the text under"`
	SourceID string `json:"source_id,omitempty" jsonschema:"caller-assigned source identifier; assigned automatically when omitted"`
	Title    string `json:"title,omitempty" jsonschema:"human-readable title for the source"`
	Origin   string `json:"origin,omitempty" jsonschema:"where the text came from: upload or scrape (default upload)"`
	Text     string `json:"text" jsonschema:"the extracted plain text to index"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	SourceID   string `json:"source_id"`
	ChunkCount int    `json:"chunk_count"`
}

// ListSourcesInput is the input schema for the list_sources tool.
type ListSourcesInput struct {
	TenantID string `json:"tenant_id" jsonschema:"the tenant whose sources to list"`
}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

// SourceOutput represents one ingested source.
type SourceOutput struct {
	SourceID   string `json:"source_id"`
	Title      string `json:"title"`
	Origin     string `json:"origin"`
	ChunkCount int    `json:"chunk_count"`
	IngestedAt string `json:"ingested_at"`
}

// DeleteSourceInput is the input schema for the delete_source tool.
type DeleteSourceInput struct {
	TenantID string `json:"tenant_id" jsonschema:"the tenant owning the source"`
	SourceID string `json:"source_id" jsonschema:"the source to delete"`
}

// DeleteSourceOutput is the output schema for the delete_source tool.
type DeleteSourceOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the tenant's ingested documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Index extracted text so it becomes answerable material for the tenant",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the tenant's ingested sources",
	}, s.handleListSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_source",
		Description: "Remove a source and its indexed chunks",
	}, s.handleDeleteSource)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	opts := driving.AskOptions{
		TopK:     input.TopK,
		MinScore: input.MinScore,
	}

	result, err := s.ports.Querier.Ask(ctx, input.TenantID, input.Question, opts)
	if err != nil {
		return nil, AskOutput{}, err
	}

	cited := make(map[string]bool, len(result.Answer.CitedChunkIDs))
	for _, id := range result.Answer.CitedChunkIDs {
		cited[id] = true
	}

	output := AskOutput{
		Answer:   result.Answer.Text,
		Grounded: result.Answer.Grounded,
		Passages: make([]PassageOutput, len(result.Retrieved.Chunks)),
	}
	for i, chunk := range result.Retrieved.Chunks {
		output.Passages[i] = PassageOutput{
			ChunkID:  chunk.Entry.ChunkID,
			SourceID: chunk.Entry.SourceID,
			Text:     chunk.Entry.Text,
			Score:    chunk.Score,
			Cited:    cited[chunk.Entry.ChunkID],
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	origin := domain.SourceOrigin(input.Origin)
	if input.Origin == "" {
		origin = domain.OriginUpload
	}

	text := domain.ExtractedText{
		SourceID: input.SourceID,
		Title:    input.Title,
		Origin:   origin,
		Text:     input.Text,
	}

	result, err := s.ports.Ingestor.Ingest(ctx, input.TenantID, text)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		SourceID:   result.Source.ID,
		ChunkCount: result.ChunkCount,
	}, nil
}

// handleListSources handles the list_sources tool invocation.
func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	sources, err := s.ports.Ingestor.ListSources(ctx, input.TenantID)
	if err != nil {
		return nil, ListSourcesOutput{}, err
	}

	output := ListSourcesOutput{
		Sources: make([]SourceOutput, len(sources)),
		Count:   len(sources),
	}
	for i, source := range sources {
		output.Sources[i] = SourceOutput{
			SourceID:   source.ID,
			Title:      source.Title,
			Origin:     string(source.Origin),
			ChunkCount: source.ChunkCount,
			IngestedAt: source.IngestedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return nil, output, nil
}

// handleDeleteSource handles the delete_source tool invocation.
func (s *Server) handleDeleteSource(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteSourceInput,
) (*mcp.CallToolResult, DeleteSourceOutput, error) {
	if err := s.ports.Ingestor.DeleteSource(ctx, input.TenantID, input.SourceID); err != nil {
		return nil, DeleteSourceOutput{}, err
	}
	return nil, DeleteSourceOutput{Deleted: true}, nil
}
