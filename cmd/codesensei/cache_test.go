package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/codesensei/internal/store"
)

// pointConfigAtTempStore writes a config file whose cache path lives in a
// temp dir, points the --config flag var at it, and returns the cache path.
func pointConfigAtTempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[cache]\npath = %q\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	setGlobalFlags(t, cfgPath, "", "")
	return dbPath
}

func TestCacheStats(t *testing.T) {
	dbPath := pointConfigAtTempStore(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.PutCompletion("prompt", "response", "gemini", "gemini-2.0-flash"))
	require.NoError(t, st.Close())

	cmd := cacheStatsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Entries:")
	assert.Contains(t, out.String(), "1")
}

func TestCacheClear(t *testing.T) {
	dbPath := pointConfigAtTempStore(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.PutCompletion("a", "1", "gemini", "m"))
	require.NoError(t, st.PutCompletion("b", "2", "gemini", "m"))
	require.NoError(t, st.Close())

	cmd := cacheClearCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Removed 2 cached completions")

	st, err = store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	stats, err := st.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}
