package provider

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := NewFatal("gemini", errors.New("bad credentials"))
	assert.Equal(t, "gemini provider: bad credentials", err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewTransient("ollama", inner)
	assert.True(t, errors.Is(err, inner))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", NewTransient("openai", errors.New("rate limited")), true},
		{"fatal", NewFatal("openai", errors.New("unauthorized")), false},
		{"wrapped transient", fmt.Errorf("generating: %w", NewTransient("openai", errors.New("timeout"))), true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientStatus(t *testing.T) {
	transient := []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
	}
	for _, code := range transient {
		assert.True(t, TransientStatus(code), "status %d", code)
	}

	fatal := []int{
		http.StatusOK,
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
	}
	for _, code := range fatal {
		assert.False(t, TransientStatus(code), "status %d", code)
	}
}

func TestErrorAsTarget(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewTransient("anthropic", errors.New("overloaded")))

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "anthropic", pe.Provider)
	assert.True(t, pe.Transient)
}
