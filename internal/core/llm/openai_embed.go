package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
)

var _ core.Embedder = (*OpenAIEmbedder)(nil)

// waiter gates outbound requests. Production uses a rate.Limiter with
// a 1.2s minimum interval; tests inject a controllable fake.
type waiter interface {
	Wait(ctx context.Context) error
}

// documentEmbedder is the slice of langchaingo's embedder the client
// needs.
type documentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder converts chunk text to vectors through the OpenAI
// embeddings API. It owns the request pacing and retry policy: callers
// just call Embed once per chunk.
type OpenAIEmbedder struct {
	embedder    documentEmbedder
	limiter     waiter
	dim         int
	maxAttempts int
	retryBase   time.Duration
	logger      *slog.Logger
}

// NewOpenAIEmbedder builds the provider client for model and wraps it
// with a minInterval request limiter. dim is the vector width the
// storage schema expects; responses of any other width fail with
// core.ErrSchemaMismatch.
func NewOpenAIEmbedder(apiKey, model string, dim int, minInterval time.Duration, maxAttempts int, retryBase time.Duration) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}

	if minInterval <= 0 {
		minInterval = 1200 * time.Millisecond
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}

	return &OpenAIEmbedder{
		embedder:    embedder,
		limiter:     rate.NewLimiter(rate.Every(minInterval), 1),
		dim:         dim,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		logger:      slog.Default().With("component", "openai-embedder"),
	}, nil
}

// Embed issues one embedding request for text, pacing each attempt
// through the limiter and retrying rate-limit and transient failures
// with exponential backoff. Exhausted retries wrap core.ErrEmbedding;
// a vector of unexpected width wraps core.ErrSchemaMismatch.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	op := func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := e.embedder.EmbedDocuments(ctx, []string{text})
		if err != nil {
			return err
		}
		if len(out) != 1 {
			return fmt.Errorf("expected 1 embedding, got %d", len(out))
		}
		vec = out[0]
		return nil
	}

	if err := retryWithBackoff(ctx, op, isRetryable, e.maxAttempts, e.retryBase); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Error("embedding failed after retries", "attempts", e.maxAttempts, "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrEmbedding, err)
	}

	if len(vec) != e.dim {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, schema expects %d", core.ErrSchemaMismatch, len(vec), e.dim)
	}
	return vec, nil
}
