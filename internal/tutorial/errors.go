package tutorial

import (
	"errors"
	"fmt"
)

// ErrPipeline is the sentinel every stage failure unwraps to, so callers can
// recognize pipeline-fatal conditions with errors.Is.
var ErrPipeline = errors.New("tutorial pipeline failed")

// FetchError reports that the file provider failed or produced no files.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "fetch: " + e.Err.Error()
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrPipeline, e.Err}
}

// GenerationError reports a text generator failure that survived the
// generator's own retry policy. Stage names the pipeline phase.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return e.Stage + ": generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrPipeline, e.Err}
}

// ValidationError reports structured model output that failed schema or
// referential checks: a missing fenced block, an unparseable or out-of-range
// index, incomplete relationship coverage, or a non-permutation chapter
// order. Validation failures are never retried.
type ValidationError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Stage + ": " + e.Reason
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPipeline, e.Err}
	}
	return []error{ErrPipeline}
}

// validationf builds a ValidationError with a formatted reason.
func validationf(stage string, format string, args ...any) *ValidationError {
	return &ValidationError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError reports a failure writing or relocating the final
// artifact.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPipeline, e.Err}
}
