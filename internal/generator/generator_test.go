package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/julianshen/codesensei/internal/provider"
	"github.com/julianshen/codesensei/internal/store"
)

// scriptedProvider answers each call through a script function keyed by
// call number (1-based).
type scriptedProvider struct {
	calls   int
	prompts []string
	script  func(call int) (string, error)
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.script(s.calls)
}

func always(response string) func(int) (string, error) {
	return func(int) (string, error) { return response, nil }
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestGenerateCachesResponse(t *testing.T) {
	st := openTestStore(t)
	p := &scriptedProvider{script: always("the answer")}
	g := New(p, Options{
		Store:             st,
		Logger:            zaptest.NewLogger(t),
		Model:             "test-model",
		RequestsPerMinute: 6000,
	})

	first, err := g.Generate(context.Background(), "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", first)

	second, err := g.Generate(context.Background(), "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", second)

	assert.Equal(t, 1, p.calls)

	cached, err := st.GetCompletion("what is this?")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "scripted", cached.Provider)
	assert.Equal(t, "test-model", cached.Model)
}

func TestGenerateWithoutStore(t *testing.T) {
	p := &scriptedProvider{script: always("ok")}
	g := New(p, Options{RequestsPerMinute: 6000})

	_, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, 2, p.calls)
}

func TestGenerateRetriesTransient(t *testing.T) {
	p := &scriptedProvider{script: func(call int) (string, error) {
		if call < 3 {
			return "", provider.NewTransient("scripted", errors.New("overloaded"))
		}
		return "recovered", nil
	}}
	g := New(p, Options{RequestsPerMinute: 6000, RetryBase: time.Millisecond})

	got, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 3, p.calls)
}

func TestGenerateFatalStopsImmediately(t *testing.T) {
	p := &scriptedProvider{script: func(int) (string, error) {
		return "", provider.NewFatal("scripted", errors.New("bad request"))
	}}
	g := New(p, Options{RequestsPerMinute: 6000, RetryBase: time.Millisecond})

	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.False(t, provider.IsTransient(err))
	assert.Equal(t, 1, p.calls)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	p := &scriptedProvider{script: func(int) (string, error) {
		return "", provider.NewTransient("scripted", errors.New("still overloaded"))
	}}
	g := New(p, Options{RequestsPerMinute: 6000, MaxRetries: 3, RetryBase: time.Millisecond})

	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, 3, p.calls)
}

func TestGenerateCancelledBeforeCall(t *testing.T) {
	p := &scriptedProvider{script: always("never")}
	g := New(p, Options{RequestsPerMinute: 6000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, p.calls)
}

func TestGenerateCancelledDuringBackoff(t *testing.T) {
	p := &scriptedProvider{script: func(int) (string, error) {
		return "", provider.NewTransient("scripted", errors.New("overloaded"))
	}}
	g := New(p, Options{RequestsPerMinute: 6000, RetryBase: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := g.Generate(ctx, "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, p.calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGenerateGuardsOversizedPrompt(t *testing.T) {
	p := &scriptedProvider{script: always("ok")}
	g := New(p, Options{RequestsPerMinute: 6000})

	prompt := "HEAD" + strings.Repeat("x", maxPromptChars) + "TAIL"
	_, err := g.Generate(context.Background(), prompt)
	require.NoError(t, err)

	require.Len(t, p.prompts, 1)
	sent := p.prompts[0]
	assert.Less(t, len(sent), len(prompt))
	assert.True(t, strings.HasPrefix(sent, "HEAD"))
	assert.True(t, strings.HasSuffix(sent, "TAIL"))
	assert.Contains(t, sent, fmt.Sprintf("original length %d chars", len(prompt)))
}

func TestGeneratePassesSmallPromptThrough(t *testing.T) {
	p := &scriptedProvider{script: always("ok")}
	g := New(p, Options{RequestsPerMinute: 6000})

	_, err := g.Generate(context.Background(), "short prompt")
	require.NoError(t, err)
	require.Len(t, p.prompts, 1)
	assert.Equal(t, "short prompt", p.prompts[0])
}

type failingStore struct{}

func (failingStore) GetCompletion(prompt string) (*store.Cached, error) { return nil, nil }

func (failingStore) PutCompletion(prompt, response, provider, model string) error {
	return errors.New("disk full")
}

func TestGenerateCacheWriteFailureIsNotFatal(t *testing.T) {
	p := &scriptedProvider{script: always("ok")}
	g := New(p, Options{Store: failingStore{}, RequestsPerMinute: 6000})

	got, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestNewCallLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewCallLogger(dir)
	require.NoError(t, err)
	logger.Info("test entry")
	require.NoError(t, logger.Sync())

	matches, err := filepath.Glob(filepath.Join(dir, "llm_calls_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "test entry")
}
