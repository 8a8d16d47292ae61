package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/config"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core/chunker"
	db "github.com/cyberProjects/llm-embedding-pipeline/internal/core/database"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core/extract"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core/llm"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core/pipeline"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core/registry"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core/tokenizer"
)

// App owns the run's resources: the database connection is acquired
// once here and released by Close on every exit path.
type App struct {
	Store  *db.Store
	Runner *pipeline.Runner
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := db.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	slog.Info("database connected and bootstrapped", "host", cfg.DBHost, "db", cfg.DBName)

	embedder, err := llm.NewOpenAIEmbedder(
		cfg.OpenAIKey, cfg.EmbedModel, cfg.EmbedDim,
		cfg.EmbedMinInterval, cfg.EmbedMaxAttempts, cfg.EmbedRetryBase,
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	tok, err := tokenizer.ForModel(cfg.EmbedModel)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	filters := core.SourceFilters{
		Keywords: cfg.Keywords,
		Since:    cfg.SinceDate,
		Until:    cfg.UntilDate,
		Types:    cfg.DocTypes,
	}

	runner := pipeline.NewRunner(
		registry.NewClient(cfg.RegistryBaseURL, cfg.PageSize),
		extract.NewXMLExtractor(),
		chunker.New(tok, cfg.ChunkTokens, cfg.OverlapTokens),
		embedder,
		store,
		filters,
		cfg.MaxDocuments,
	)

	return &App{Store: store, Runner: runner}, nil
}

func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
