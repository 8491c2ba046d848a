package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the top-level application configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Source   SourceConfig   `toml:"source"`
	Output   OutputConfig   `toml:"output"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
}

// ProviderConfig holds settings for text-generation provider selection.
type ProviderConfig struct {
	Name              string `toml:"name"`
	Model             string `toml:"model"`
	BaseURL           string `toml:"base_url"`
	APIKeySource      string `toml:"api_key_source"`
	APIKey            string `toml:"api_key"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	MaxRetries        int    `toml:"max_retries"`
}

// SourceConfig holds settings for fetching the source tree under analysis.
type SourceConfig struct {
	GitHubToken string   `toml:"github_token"`
	GitLabToken string   `toml:"gitlab_token"`
	GitLabURL   string   `toml:"gitlab_url"`
	Include     []string `toml:"include"`
	Exclude     []string `toml:"exclude"`
	MaxFileSize int64    `toml:"max_file_size"`
}

// OutputConfig holds settings for where generated tutorials land.
type OutputConfig struct {
	StagingDir      string `toml:"staging_dir"`
	DocsDir         string `toml:"docs_dir"`
	MaxAbstractions int    `toml:"max_abstractions"`
}

// CacheConfig holds settings for the prompt/response cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig holds settings for the generation call log.
type LogConfig struct {
	Dir string `toml:"dir"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:              "gemini",
			APIKeySource:      "env",
			RequestsPerMinute: 30,
			MaxRetries:        5,
		},
		Source: SourceConfig{
			MaxFileSize: 100000,
		},
		Output: OutputConfig{
			StagingDir:      "output",
			DocsDir:         "docs",
			MaxAbstractions: 10,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "llm_cache.db",
		},
		Log: LogConfig{
			Dir: "logs",
		},
	}
}

// Load reads the config file at path, layering its values over the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Save writes the config to path as TOML, creating parent directories as
// needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// DefaultPath returns the canonical config file location under the user's
// config directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "codesensei", "config.toml"), nil
}
