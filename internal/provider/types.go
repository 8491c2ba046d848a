package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider produces a text completion for a prompt.
type Provider interface {
	// Name returns the registered provider name.
	Name() string
	// Generate sends the prompt and returns the model's text response.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options carries the settings a provider constructor needs. Fields a
// provider does not use (e.g. APIKey for local daemons) may be left empty.
type Options struct {
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// Error wraps a provider failure and records whether the condition is
// transient (rate limit, transient network or server error) and therefore
// worth retrying, or permanent (bad credentials, malformed request).
type Error struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTransient wraps err as a retryable provider failure.
func NewTransient(name string, err error) *Error {
	return &Error{Provider: name, Transient: true, Err: err}
}

// NewFatal wraps err as a permanent provider failure.
func NewFatal(name string, err error) *Error {
	return &Error{Provider: name, Transient: false, Err: err}
}

// IsTransient reports whether err is a provider failure marked retryable.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Transient
}

// TransientStatus reports whether an HTTP status code indicates a condition
// that may clear on retry.
func TransientStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}
