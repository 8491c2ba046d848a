package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	s := versionString()
	assert.Contains(t, s, "codesensei")
	assert.Contains(t, s, version)
	assert.Contains(t, s, commit)
	assert.Contains(t, s, date)
}

func TestVersionStringDefaults(t *testing.T) {
	s := versionString()
	assert.Contains(t, s, "dev")
	assert.Contains(t, s, "none")
	assert.Contains(t, s, "unknown")
}

// setGlobalFlags points the package-level flag vars at test values and
// restores them on cleanup.
func setGlobalFlags(t *testing.T, cfgPath, provider, model string) {
	t.Helper()
	configPath = cfgPath
	providerFlag = provider
	modelFlag = model
	t.Cleanup(func() {
		configPath = ""
		providerFlag = ""
		modelFlag = ""
	})
}

func TestLoadConfigAppliesFlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[provider]\nname = \"gemini\"\nmodel = \"gemini-2.0-flash\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	setGlobalFlags(t, path, "openai", "gpt-4o")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	setGlobalFlags(t, filepath.Join(t.TempDir(), "nope.toml"), "", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider.Name)
	assert.Equal(t, 10, cfg.Output.MaxAbstractions)
}
