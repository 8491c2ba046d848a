// Package generator implements the generation boundary between the pipeline
// and an LLM provider: whole-prompt truncation guard, response cache, rate
// limiting, bounded retries for transient failures, and call logging.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/julianshen/codesensei/internal/provider"
	"github.com/julianshen/codesensei/internal/store"
)

// Whole-prompt guard. Token counts are estimated at 4 chars per token;
// oversized prompts keep their head and tail thirds.
const (
	maxPromptTokens = 900_000
	charsPerToken   = 4
	maxPromptChars  = maxPromptTokens * charsPerToken
)

const (
	defaultRequestsPerMinute = 30
	defaultMaxRetries        = 5
	defaultRetryBase         = 20 * time.Second
)

// ContentStore is the cache surface the generator consults before calling
// the provider. *store.Store satisfies it.
type ContentStore interface {
	GetCompletion(prompt string) (*store.Cached, error)
	PutCompletion(prompt, response, provider, model string) error
}

// Options configures a Generator. Zero values select the defaults noted on
// each field.
type Options struct {
	// Store caches completions keyed by exact prompt text. nil disables
	// caching entirely.
	Store ContentStore
	// Logger receives one entry per call. nil disables call logging.
	Logger *zap.Logger
	// Model labels cache entries and log lines; empty when the provider's
	// default model is in use.
	Model string
	// RunID tags every log entry with the pipeline run it belongs to.
	RunID string
	// RequestsPerMinute paces provider calls. <= 0 means 30.
	RequestsPerMinute int
	// MaxRetries bounds attempts per call. <= 0 means 5.
	MaxRetries int
	// RetryBase is the wait before the second attempt; it doubles for each
	// attempt after that. <= 0 means 20s.
	RetryBase time.Duration
}

// Generator drives a provider on behalf of the pipeline and implements
// tutorial.TextGenerator.
type Generator struct {
	provider   provider.Provider
	store      ContentStore
	logger     *zap.Logger
	limiter    *rate.Limiter
	model      string
	runID      string
	maxRetries int
	retryBase  time.Duration
}

// New creates a Generator around the given provider.
func New(p provider.Provider, opts Options) *Generator {
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryBase := opts.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		provider:   p,
		store:      opts.Store,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(rpm)/60, 1),
		model:      opts.Model,
		runID:      opts.RunID,
		maxRetries: maxRetries,
		retryBase:  retryBase,
	}
}

// Generate produces the model response for prompt. The guarded prompt is the
// cache key, so a hit returns without touching the provider or the rate
// limiter. Only transient provider errors are retried.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = guardPrompt(prompt)

	if g.store != nil {
		cached, err := g.store.GetCompletion(prompt)
		if err != nil {
			g.logger.Warn("cache lookup failed",
				zap.String("run_id", g.runID),
				zap.Error(err))
		} else if cached != nil {
			g.logger.Info("llm call",
				zap.String("run_id", g.runID),
				zap.String("provider", cached.Provider),
				zap.String("model", cached.Model),
				zap.Bool("cache_hit", true),
				zap.Int("prompt_chars", len(prompt)),
				zap.String("prompt_head", head(prompt, 200)))
			return cached.Response, nil
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	response, attempts, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		g.logger.Error("llm call failed",
			zap.String("run_id", g.runID),
			zap.String("provider", g.provider.Name()),
			zap.String("model", g.model),
			zap.Int("attempts", attempts),
			zap.String("prompt_head", head(prompt, 200)),
			zap.Error(err))
		return "", err
	}

	if g.store != nil {
		if err := g.store.PutCompletion(prompt, response, g.provider.Name(), g.model); err != nil {
			g.logger.Warn("cache write failed",
				zap.String("run_id", g.runID),
				zap.Error(err))
		}
	}

	g.logger.Info("llm call",
		zap.String("run_id", g.runID),
		zap.String("provider", g.provider.Name()),
		zap.String("model", g.model),
		zap.Bool("cache_hit", false),
		zap.Int("attempts", attempts),
		zap.Int("prompt_chars", len(prompt)),
		zap.String("prompt_head", head(prompt, 200)),
		zap.Int("response_chars", len(response)),
		zap.String("response_head", head(response, 200)))
	return response, nil
}

// callWithRetry attempts the provider call up to maxRetries times, backing
// off exponentially between attempts. Fatal provider errors and context
// cancellation return immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := g.retryBase * time.Duration(1<<(attempt-2))
			g.logger.Warn("retrying llm call",
				zap.String("run_id", g.runID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", attempt - 1, ctx.Err()
			case <-time.After(backoff):
			}
		}

		response, err := g.provider.Generate(ctx, prompt)
		if err == nil {
			return response, attempt, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", attempt, err
		}
		if !provider.IsTransient(err) {
			return "", attempt, err
		}
	}
	return "", g.maxRetries, fmt.Errorf("all %d attempts failed: %w", g.maxRetries, lastErr)
}

// guardPrompt bounds a prompt to the token budget by keeping its head and
// tail thirds around an elision marker naming the original length.
func guardPrompt(prompt string) string {
	if len(prompt)/charsPerToken <= maxPromptTokens {
		return prompt
	}
	keep := maxPromptChars / 3
	return prompt[:keep] +
		fmt.Sprintf("\n\n... [Prompt truncated - original length %d chars] ...\n\n", len(prompt)) +
		prompt[len(prompt)-keep:]
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NewCallLogger builds the dated call logger writing JSON lines to
// <dir>/llm_calls_YYYYMMDD.log, creating the directory if needed.
func NewCallLogger(dir string) (*zap.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("llm_calls_%s.log", time.Now().Format("20060102")))

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build call logger: %w", err)
	}
	return logger, nil
}
