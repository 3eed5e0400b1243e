package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// testPolicy records waits instead of sleeping.
func testPolicy(attempts int) (*Policy, *[]time.Duration) {
	var waits []time.Duration
	p := NewPolicy(domain.RetrySettings{MaxAttempts: attempts, MinWait: time.Second, MaxWait: 30 * time.Second})
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return p, &waits
}

func transient() error {
	return domain.NewStatusError("openai", http.StatusServiceUnavailable, "overloaded")
}

func TestBackoff(t *testing.T) {
	p := NewPolicy(domain.RetrySettings{MaxAttempts: 10, MinWait: time.Second, MaxWait: 30 * time.Second})

	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 16*time.Second, p.Backoff(5))
	assert.Equal(t, 30*time.Second, p.Backoff(6))
	assert.Equal(t, 30*time.Second, p.Backoff(20))
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	p, waits := testPolicy(3)
	calls := 0

	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return transient()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestDo_ReturnsLastErrorUnchanged(t *testing.T) {
	p, waits := testPolicy(3)
	var last error
	calls := 0

	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		last = transient()
		return last
	})

	assert.Equal(t, 3, calls)
	assert.Same(t, last, err)
	assert.Len(t, *waits, 2)
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	p, waits := testPolicy(3)
	calls := 0
	permanent := domain.NewStatusError("anthropic", http.StatusUnauthorized, "invalid key")

	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return permanent
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, permanent)
	assert.Empty(t, *waits)
}

func TestDo_PlainErrorNotRetried(t *testing.T) {
	p, _ := testPolicy(3)
	calls := 0
	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("bad input")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_HonoursRetryAfter(t *testing.T) {
	p, waits := testPolicy(2)
	pe := domain.NewStatusError("openai", http.StatusTooManyRequests, "slow down")
	pe.RetryAfter = 12 * time.Second

	_ = p.Do(context.Background(), "op", func(context.Context) error { return pe })
	assert.Equal(t, []time.Duration{12 * time.Second}, *waits)

	p, waits = testPolicy(2)
	pe.RetryAfter = 5 * time.Minute
	_ = p.Do(context.Background(), "op", func(context.Context) error { return pe })
	assert.Equal(t, []time.Duration{30 * time.Second}, *waits)
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	p, _ := testPolicy(5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := p.Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return transient()
	})

	assert.Equal(t, 1, calls)
	assert.True(t, domain.IsTransient(err))
}

func TestNewPolicy_RateLimit(t *testing.T) {
	assert.Nil(t, NewPolicy(domain.RetrySettings{MaxAttempts: 1}).limiter)

	p := NewPolicy(domain.RetrySettings{MaxAttempts: 0, RateLimit: 5})
	require.NotNil(t, p.limiter)
	assert.Equal(t, 1, p.MaxAttempts)
	assert.NoError(t, p.Do(context.Background(), "op", func(context.Context) error { return nil }))
}

type flakyEmbedder struct {
	fails int
	calls int
}

func (f *flakyEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, transient()
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}
func (f *flakyEmbedder) Dimensions() int            { return 1 }
func (f *flakyEmbedder) ModelName() string          { return "flaky" }
func (f *flakyEmbedder) Ping(context.Context) error { return nil }
func (f *flakyEmbedder) Close() error               { return nil }

type flakyLLM struct {
	fails int
	calls int
}

func (f *flakyLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (*domain.Generation, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, transient()
	}
	return &domain.Generation{Text: "echo: " + prompt, Model: "flaky"}, nil
}
func (f *flakyLLM) ModelName() string          { return "flaky" }
func (f *flakyLLM) Ping(context.Context) error { return nil }
func (f *flakyLLM) Close() error               { return nil }

func TestWrapEmbedding(t *testing.T) {
	p, _ := testPolicy(3)
	inner := &flakyEmbedder{fails: 2}
	e := WrapEmbedding(inner, p)

	got, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "flaky", e.ModelName())
	assert.Equal(t, 1, e.Dimensions())
}

func TestWrapLLM(t *testing.T) {
	p, _ := testPolicy(3)
	inner := &flakyLLM{fails: 3}
	l := WrapLLM(inner, p)

	_, err := l.Generate(context.Background(), "hi", driven.GenerateOptions{})
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, 3, inner.calls)

	inner.calls, inner.fails = 0, 1
	gen, err := l.Generate(context.Background(), "hi", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", gen.Text)
}
