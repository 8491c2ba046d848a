// Package gemini implements the provider interface over the Google Gemini
// API using the official genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/julianshen/codesensei/internal/provider"
)

const defaultModel = "gemini-2.0-flash"

func init() {
	provider.Register("gemini", func(opts provider.Options) (provider.Provider, error) {
		return New(opts)
	})
}

// Provider implements provider.Provider for Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a new Gemini provider.
func New(opts provider.Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{APIKey: opts.APIKey}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Provider{client: client, model: model}, nil
}

// Name returns the registered provider name.
func (p *Provider) Name() string { return "gemini" }

// Generate sends the prompt and returns the model's text response.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classify(err)
	}

	text := resp.Text()
	if text == "" {
		return "", provider.NewTransient("gemini", fmt.Errorf("response contained no text"))
	}
	return text, nil
}

// classify maps genai API failures onto transient or fatal provider errors
// by HTTP status; anything below the API layer is worth retrying.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if provider.TransientStatus(apiErr.Code) {
			return provider.NewTransient("gemini", err)
		}
		return provider.NewFatal("gemini", err)
	}
	return provider.NewTransient("gemini", err)
}
