// Package ollama implements the provider interface over a local Ollama
// daemon's /api/generate endpoint. No API key is required; the daemon is
// assumed to be reachable at DefaultBaseURL unless configured otherwise.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/julianshen/codesensei/internal/provider"
)

// DefaultBaseURL is the address a locally installed Ollama daemon listens on.
const DefaultBaseURL = "http://localhost:11434"

const defaultModel = "llama3.2"

func init() {
	provider.Register("ollama", func(opts provider.Options) (provider.Provider, error) {
		return New(opts)
	})
}

// Provider implements provider.Provider for Ollama.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

// New creates a new Ollama provider. No credentials are needed.
func New(opts provider.Options) (*Provider, error) {
	p := &Provider{
		baseURL: opts.BaseURL,
		model:   opts.Model,
		client:  &http.Client{},
	}
	if p.baseURL == "" {
		p.baseURL = DefaultBaseURL
	}
	if p.model == "" {
		p.model = defaultModel
	}
	return p, nil
}

// Name returns the registered provider name.
func (p *Provider) Name() string { return "ollama" }

// generateRequest is the body sent to POST /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the subset of the non-streaming response we read.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends the prompt to /api/generate with streaming disabled and
// returns the full response text.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", provider.NewFatal("ollama", fmt.Errorf("building request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", provider.NewFatal("ollama", fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// A local daemon that is down or restarting may come back.
		return "", provider.NewTransient("ollama", fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
		if provider.TransientStatus(resp.StatusCode) {
			return "", provider.NewTransient("ollama", apiErr)
		}
		return "", provider.NewFatal("ollama", apiErr)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", provider.NewTransient("ollama", fmt.Errorf("decoding response: %w", err))
	}
	if parsed.Response == "" {
		return "", provider.NewTransient("ollama", fmt.Errorf("response contained no text"))
	}
	return parsed.Response, nil
}
