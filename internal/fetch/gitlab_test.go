package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestParseGitLabURL(t *testing.T) {
	tests := []struct {
		url     string
		base    string
		project string
		wantErr bool
	}{
		{"https://gitlab.com/group/proj", "https://gitlab.com", "group/proj", false},
		{"https://gitlab.com/group/sub/proj.git", "https://gitlab.com", "group/sub/proj", false},
		{"https://git.example.com/team/proj", "https://git.example.com", "team/proj", false},
		{"https://gitlab.com/onlygroup", "", "", true},
		{"https://gitlab.com/", "", "", true},
	}
	for _, tt := range tests {
		base, project, err := parseGitLabURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.base, base)
		assert.Equal(t, tt.project, project)
	}
}

// gitlabFixture serves project metadata, a recursive tree (optionally split
// into two pages), and raw file contents.
func gitlabFixture(t *testing.T, pages []string, files map[string]string) *httptest.Server {
	t.Helper()
	const apiBase = "/api/v4/projects/group/proj"
	// go-gitlab sends the project path escaped ("group%2Fproj") in request
	// URLs; Go 1.22+ ServeMux only routes those when the pattern uses the
	// escaped form. Handlers still see the unescaped r.URL.Path.
	const apiPattern = "/api/v4/projects/group%2Fproj"

	mux := http.NewServeMux()
	mux.HandleFunc(apiPattern, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"path_with_namespace":"group/proj","default_branch":"main"}`)
	})
	mux.HandleFunc(apiPattern+"/repository/tree", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("recursive"))
		assert.Equal(t, "main", r.URL.Query().Get("ref"))

		page := r.URL.Query().Get("page")
		idx := 0
		if page == "2" {
			idx = 1
		}
		if idx == 0 && len(pages) > 1 {
			w.Header().Set("X-Next-Page", "2")
		}
		fmt.Fprint(w, pages[idx])
	})
	mux.HandleFunc(apiPattern+"/repository/files/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		name := strings.TrimPrefix(r.URL.Path, apiBase+"/repository/files/")
		name = strings.TrimSuffix(name, "/raw")
		content, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, content)
	})
	return httptest.NewServer(mux)
}

func newTestGitLab(t *testing.T, serverURL string, opts Options) *GitLab {
	t.Helper()
	g, err := NewGitLab(serverURL+"/group/proj", "", opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return g
}

func TestGitLabListFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree := `[
		{"id":"d1","name":"cmd","type":"tree","path":"cmd","mode":"040000"},
		{"id":"b1","name":"main.go","type":"blob","path":"main.go","mode":"100644"},
		{"id":"b2","name":"README.md","type":"blob","path":"README.md","mode":"100644"},
		{"id":"b3","name":"logo.png","type":"blob","path":"logo.png","mode":"100644"}
	]`
	server := gitlabFixture(t, []string{tree}, map[string]string{
		"main.go":   "package main",
		"README.md": "# readme",
	})
	defer server.Close()

	g := newTestGitLab(t, server.URL, Options{Include: []string{"*.go", "*.md"}})

	entries, err := g.ListFiles(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, "README.md", entries[0].Path)
	assert.Equal(t, "# readme", entries[0].Content)
	assert.Equal(t, 1, entries[1].Index)
	assert.Equal(t, "main.go", entries[1].Path)
	assert.Equal(t, "package main", entries[1].Content)
}

func TestGitLabPaginatesTree(t *testing.T) {
	defer goleak.VerifyNone(t)

	page1 := `[{"id":"b1","name":"a.go","type":"blob","path":"a.go","mode":"100644"}]`
	page2 := `[{"id":"b2","name":"b.go","type":"blob","path":"b.go","mode":"100644"}]`
	server := gitlabFixture(t, []string{page1, page2}, map[string]string{
		"a.go": "package a",
		"b.go": "package b",
	})
	defer server.Close()

	g := newTestGitLab(t, server.URL, Options{})

	entries, err := g.ListFiles(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "a.go", entries[0].Path)
	assert.Equal(t, "b.go", entries[1].Path)
}

func TestGitLabSizeCapAfterDownload(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree := `[
		{"id":"b1","name":"small.go","type":"blob","path":"small.go","mode":"100644"},
		{"id":"b2","name":"big.go","type":"blob","path":"big.go","mode":"100644"}
	]`
	server := gitlabFixture(t, []string{tree}, map[string]string{
		"small.go": "package small",
		"big.go":   strings.Repeat("x", 500),
	})
	defer server.Close()

	g := newTestGitLab(t, server.URL, Options{MaxFileSize: 100})

	entries, err := g.ListFiles(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "small.go", entries[0].Path)
	assert.Equal(t, 0, entries[0].Index)
}
