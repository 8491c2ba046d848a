package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julianshen/codesensei/internal/provider"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 21000
)

func init() {
	provider.Register("anthropic", func(opts Options) (provider.Provider, error) {
		return New(opts)
	})
}

// Options aliases provider.Options for the init registration above.
type Options = provider.Options

// Provider implements provider.Provider for the Anthropic messages API.
type Provider struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// New creates a new Anthropic provider.
func New(opts Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}

	p := &Provider{
		baseURL:   opts.BaseURL,
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		client:    &http.Client{},
	}
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if p.maxTokens == 0 {
		p.maxTokens = defaultMaxTokens
	}
	return p, nil
}

// Name returns the registered provider name.
func (p *Provider) Name() string { return "anthropic" }

// apiRequest is the request body sent to the Anthropic API.
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse is the subset of the messages API response we read.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(apiRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", provider.NewFatal("anthropic", fmt.Errorf("building request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", provider.NewFatal("anthropic", fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", provider.NewTransient("anthropic", fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
		if provider.TransientStatus(resp.StatusCode) {
			return "", provider.NewTransient("anthropic", apiErr)
		}
		return "", provider.NewFatal("anthropic", apiErr)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", provider.NewTransient("anthropic", fmt.Errorf("decoding response: %w", err))
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", provider.NewTransient("anthropic", fmt.Errorf("response contained no text blocks"))
	}
	return sb.String(), nil
}
