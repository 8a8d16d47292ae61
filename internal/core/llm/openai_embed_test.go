package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
)

// fakeEmbedder scripts a sequence of per-call errors before succeeding.
type fakeEmbedder struct {
	errs   []error
	vector []float32
	calls  int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return [][]float32{f.vector}, nil
}

// countingWaiter records how often the limiter gated a request.
type countingWaiter struct {
	waits int
}

func (c *countingWaiter) Wait(ctx context.Context) error {
	c.waits++
	return ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestEmbedder(inner documentEmbedder, limiter waiter, dim int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		embedder:    inner,
		limiter:     limiter,
		dim:         dim,
		maxAttempts: 3,
		retryBase:   time.Millisecond,
		logger:      discardLogger(),
	}
}

func TestEmbedSuccess(t *testing.T) {
	inner := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	limiter := &countingWaiter{}
	e := newTestEmbedder(inner, limiter, 3)

	vec, err := e.Embed(context.Background(), "some chunk")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, limiter.waits)
}

func TestEmbedRetriesRateLimitThenSucceeds(t *testing.T) {
	rateLimited := errors.New("API returned unexpected status code: 429 too many requests")
	inner := &fakeEmbedder{
		errs:   []error{rateLimited, rateLimited},
		vector: []float32{1, 2},
	}
	limiter := &countingWaiter{}
	e := newTestEmbedder(inner, limiter, 2)

	vec, err := e.Embed(context.Background(), "some chunk")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, 3, inner.calls, "two rate-limited attempts plus the success")
	assert.Equal(t, 3, limiter.waits, "every attempt is paced by the limiter")
}

func TestEmbedExhaustedRetriesWrapEmbeddingError(t *testing.T) {
	rateLimited := errors.New("rate limit exceeded")
	inner := &fakeEmbedder{errs: []error{rateLimited, rateLimited, rateLimited}}
	e := newTestEmbedder(inner, &countingWaiter{}, 2)

	_, err := e.Embed(context.Background(), "some chunk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmbedding))
	assert.Equal(t, 3, inner.calls)
}

func TestEmbedNonRetryableFailsImmediately(t *testing.T) {
	inner := &fakeEmbedder{errs: []error{errors.New("invalid api key")}}
	e := newTestEmbedder(inner, &countingWaiter{}, 2)

	_, err := e.Embed(context.Background(), "some chunk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmbedding))
	assert.Equal(t, 1, inner.calls, "auth errors are not retried")
}

func TestEmbedDimensionMismatchIsSchemaMismatch(t *testing.T) {
	inner := &fakeEmbedder{vector: []float32{1, 2, 3}}
	e := newTestEmbedder(inner, &countingWaiter{}, 1536)

	_, err := e.Embed(context.Background(), "some chunk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSchemaMismatch))
}

func TestEmbedCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &fakeEmbedder{vector: []float32{1}}
	e := newTestEmbedder(inner, &countingWaiter{}, 1)

	_, err := e.Embed(ctx, "some chunk")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("429 Too Many Requests")))
	assert.True(t, isRetryable(errors.New("rate limit reached for requests")))
	assert.True(t, isRetryable(errors.New("503 service unavailable")))
	assert.True(t, isRetryable(errors.New("net/http: request timeout")))
	assert.False(t, isRetryable(errors.New("invalid api key")))
	assert.False(t, isRetryable(nil))
}
