// Package openai implements the provider interface over the OpenAI
// chat-completions API. OpenRouter exposes the same wire protocol, so the
// package registers both providers and they differ only in base URL and
// default model.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/julianshen/codesensei/internal/provider"
)

const (
	defaultModel = "gpt-4o"

	openRouterBaseURL      = "https://openrouter.ai/api/v1"
	openRouterDefaultModel = "google/gemini-2.5-flash"
)

func init() {
	provider.Register("openai", func(opts provider.Options) (provider.Provider, error) {
		return New("openai", opts)
	})
	provider.Register("openrouter", func(opts provider.Options) (provider.Provider, error) {
		if opts.BaseURL == "" {
			opts.BaseURL = openRouterBaseURL
		}
		if opts.Model == "" {
			opts.Model = openRouterDefaultModel
		}
		return New("openrouter", opts)
	})
}

// Provider implements provider.Provider for OpenAI-compatible endpoints.
type Provider struct {
	name   string
	model  string
	client *goopenai.Client
}

// New creates a provider talking to an OpenAI-compatible endpoint. An empty
// BaseURL means the official OpenAI API.
func New(name string, opts provider.Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Provider{
		name:   name,
		model:  model,
		client: goopenai.NewClientWithConfig(cfg),
	}, nil
}

// Name returns the registered provider name.
func (p *Provider) Name() string { return p.name }

// Generate sends the prompt as a single user message and returns the first
// choice's content.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classify(p.name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", provider.NewTransient(p.name, fmt.Errorf("response contained no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps API failures onto transient or fatal provider errors. Rate
// limits and server-side errors may clear on retry; auth and request shape
// errors will not.
func classify(name string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if provider.TransientStatus(apiErr.HTTPStatusCode) {
			return provider.NewTransient(name, err)
		}
		return provider.NewFatal(name, err)
	}
	// go-openai reports non-JSON error bodies as RequestError.
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		if provider.TransientStatus(reqErr.HTTPStatusCode) {
			return provider.NewTransient(name, err)
		}
		return provider.NewFatal(name, err)
	}
	// Anything below the API layer (DNS, connection reset) is worth retrying.
	return provider.NewTransient(name, err)
}
