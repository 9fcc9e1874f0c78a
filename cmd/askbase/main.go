// Command askbase is the entry point for the askbase CLI. It wires the
// configured adapters to the core services and hands control to cobra.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/askbase/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askbase/internal/adapters/driven/embedding"
	embeddingollama "github.com/custodia-labs/askbase/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/custodia-labs/askbase/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/askbase/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/askbase/internal/adapters/driven/index/pgvector"
	llmanthropic "github.com/custodia-labs/askbase/internal/adapters/driven/llm/anthropic"
	llmollama "github.com/custodia-labs/askbase/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/custodia-labs/askbase/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askbase/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/askbase/internal/adapters/driving/cli"
	"github.com/custodia-labs/askbase/internal/chunker"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
	"github.com/custodia-labs/askbase/internal/core/services"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// defaultDimensions matches text-embedding-3-small and nomic-embed-text
// truncated setups; override with embedding.dimensions in config.
const defaultDimensions = 768

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("creating prompt store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close() //nolint:errcheck

	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	defer llm.Close() //nolint:errcheck

	index, err := buildIndex(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return err
	}
	defer index.Close() //nolint:errcheck

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	ch, err := buildChunker(cfg)
	if err != nil {
		return err
	}

	ingest := services.NewIngestService(ch, embedder, index, store.SourceStore())
	ingest.SetAuditStore(store.AuditStore())

	synthesizer := services.NewSynthesizer(llm)
	synthesizer.SetPromptStore(prompts)

	query := services.NewQueryService(embedder, index, synthesizer)
	query.SetAuditStore(store.AuditStore())

	cli.SetServices(ingest, query)
	cli.SetVersion(version)

	return cli.Execute()
}

// buildChunker reads chunking parameters from config, falling back to
// package defaults.
func buildChunker(cfg driven.ConfigStore) (*chunker.Chunker, error) {
	maxTokens := cfg.GetInt("chunking.max_tokens")
	if maxTokens <= 0 {
		maxTokens = chunker.DefaultMaxTokens
	}
	overlap := cfg.GetInt("chunking.overlap_tokens")
	if overlap <= 0 {
		overlap = chunker.DefaultOverlap(maxTokens)
	}
	return chunker.New(maxTokens, overlap)
}

// buildEmbedder selects the embedding provider from config and wraps it
// with a client-side rate limit.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	dims := cfg.GetInt("embedding.dimensions")
	if dims <= 0 {
		dims = defaultDimensions
	}

	var service driven.EmbeddingService
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "openai":
		apiKey := cfg.GetString("embedding.openai.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		svc, err := embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:     apiKey,
			Model:      cfg.GetString("embedding.openai.model"),
			Dimensions: dims,
		})
		if err != nil {
			return nil, fmt.Errorf("creating openai embedder: %w", err)
		}
		service = svc
	case "", "ollama":
		service = embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    cfg.GetString("embedding.ollama.base_url"),
			Model:      cfg.GetString("embedding.ollama.model"),
			Dimensions: dims,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}

	rps := cfg.GetFloat("embedding.requests_per_second")
	if rps <= 0 {
		rps = embedding.DefaultRequestsPerSecond
	}
	return embedding.WithRateLimit(service, rps), nil
}

// buildLLM selects the generation provider from config.
func buildLLM(cfg driven.ConfigStore) (driven.LLMService, error) {
	switch provider := cfg.GetString("llm.provider"); provider {
	case "openai":
		apiKey := cfg.GetString("llm.openai.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return llmopenai.NewLLMService(llmopenai.Config{
			APIKey: apiKey,
			Model:  cfg.GetString("llm.openai.model"),
		})
	case "anthropic":
		apiKey := cfg.GetString("llm.anthropic.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return llmanthropic.NewLLMService(llmanthropic.Config{
			APIKey: apiKey,
			Model:  cfg.GetString("llm.anthropic.model"),
		})
	case "", "ollama":
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.GetString("llm.ollama.base_url"),
			Model:   cfg.GetString("llm.ollama.model"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// buildIndex selects the vector index backend from config: "local"
// (in-process, non-persistent) or "pgvector" (Postgres).
func buildIndex(ctx context.Context, cfg driven.ConfigStore, dims int) (driven.VectorIndex, error) {
	switch backend := cfg.GetString("index.backend"); backend {
	case "", "local":
		return memory.NewIndex(dims)
	case "pgvector":
		dsn := cfg.GetString("index.pgvector.dsn")
		if dsn == "" {
			dsn = os.Getenv("ASKBASE_PGVECTOR_DSN")
		}
		if dsn == "" {
			return nil, fmt.Errorf("index.pgvector.dsn is required for the pgvector backend")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return pgvector.NewIndex(ctx, pool, dims)
	default:
		return nil, fmt.Errorf("unknown index backend %q", backend)
	}
}
