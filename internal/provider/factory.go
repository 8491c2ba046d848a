package provider

import (
	"fmt"
	"sort"

	"github.com/julianshen/codesensei/internal/config"
)

// Constructor is a function that creates a new Provider from its options.
type Constructor func(opts Options) (Provider, error)

// registry holds registered provider constructors.
var registry = map[string]Constructor{}

// Register registers a provider constructor by name. Provider packages call
// this from init(); the CLI selects the set via blank imports.
func Register(name string, constructor Constructor) {
	registry[name] = constructor
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Provider by registered name.
func New(name string, opts Options) (Provider, error) {
	constructor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
	return constructor(opts)
}

// NewFromConfig creates the Provider selected by the configuration, resolving
// its API key. Provider selection is an explicit config value; nothing here
// consults ambient process state at call time.
func NewFromConfig(cfg *config.Config) (Provider, error) {
	name := cfg.Provider.Name

	var apiKey string
	if envVar := config.APIKeyEnvVar(name); envVar != "" {
		key, err := config.ResolveAPIKey(cfg.Provider.APIKeySource, cfg.Provider.APIKey, envVar)
		if err != nil {
			return nil, fmt.Errorf("resolving %s API key: %w", name, err)
		}
		apiKey = key
	}

	return New(name, Options{
		Model:   cfg.Provider.Model,
		APIKey:  apiKey,
		BaseURL: cfg.Provider.BaseURL,
	})
}
