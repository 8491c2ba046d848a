package provider

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/codesensei/internal/config"
)

type fakeProvider struct {
	name string
	opts Options
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "fake response", nil
}

func registerFake(t *testing.T, name string) {
	t.Helper()
	Register(name, func(opts Options) (Provider, error) {
		return &fakeProvider{name: name, opts: opts}, nil
	})
	t.Cleanup(func() { delete(registry, name) })
}

func TestRegisterAndNew(t *testing.T) {
	registerFake(t, "fake")

	p, err := New("fake", Options{Model: "test-model", APIKey: "key"})
	require.NoError(t, err)

	fake := p.(*fakeProvider)
	assert.Equal(t, "test-model", fake.opts.Model)
	assert.Equal(t, "key", fake.opts.APIKey)
}

func TestNewUnknown(t *testing.T) {
	_, err := New("nope", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNames(t *testing.T) {
	registerFake(t, "zzz-fake")
	registerFake(t, "aaa-fake")

	names := Names()
	assert.Contains(t, names, "aaa-fake")
	assert.Contains(t, names, "zzz-fake")
	assert.True(t, sort.StringsAreSorted(names))
}

func TestNewFromConfig(t *testing.T) {
	registerFake(t, "openai")

	cfg := config.DefaultConfig()
	cfg.Provider.Name = "openai"
	cfg.Provider.Model = "gpt-4o-mini"
	cfg.Provider.APIKeySource = "config"
	cfg.Provider.APIKey = "sk-test"

	p, err := NewFromConfig(cfg)
	require.NoError(t, err)

	fake := p.(*fakeProvider)
	assert.Equal(t, "gpt-4o-mini", fake.opts.Model)
	assert.Equal(t, "sk-test", fake.opts.APIKey)
}

func TestNewFromConfigEnvKey(t *testing.T) {
	registerFake(t, "gemini")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := config.DefaultConfig()
	cfg.Provider.Name = "gemini"

	p, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "env-key", p.(*fakeProvider).opts.APIKey)
}

func TestNewFromConfigMissingKey(t *testing.T) {
	registerFake(t, "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := config.DefaultConfig()
	cfg.Provider.Name = "gemini"

	_, err := NewFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNewFromConfigKeylessProvider(t *testing.T) {
	registerFake(t, "ollama")

	cfg := config.DefaultConfig()
	cfg.Provider.Name = "ollama"
	cfg.Provider.BaseURL = "http://localhost:11434"

	p, err := NewFromConfig(cfg)
	require.NoError(t, err)

	fake := p.(*fakeProvider)
	assert.Empty(t, fake.opts.APIKey)
	assert.Equal(t, "http://localhost:11434", fake.opts.BaseURL)
}
