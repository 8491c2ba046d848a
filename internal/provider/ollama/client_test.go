package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.5.4"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	version, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.5.4", version)
}

func TestClientVersionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Version(context.Background())
	assert.Error(t, err)
}

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[
			{"name":"llama3.2","size":2019393189,"modified_at":"2025-01-15T10:00:00Z","digest":"abc"},
			{"name":"codellama","size":3825819519,"modified_at":"2025-01-10T10:00:00Z","digest":"def"}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama3.2", models[0].Name)
	assert.Equal(t, int64(2019393189), models[0].Size)
}

func TestClientIsRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"0.5.4"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	assert.True(t, c.IsRunning(context.Background()))

	server.Close()
	assert.False(t, c.IsRunning(context.Background()))
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	c := NewClient("")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
