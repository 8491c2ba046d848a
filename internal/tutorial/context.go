package tutorial

import (
	"fmt"
	"strings"
)

// Per-stage character budgets for file content included in prompts.
const (
	extractBudget  = 4000  // abstraction discovery, per file
	relationBudget = 3000  // relationship analysis, per file
	chapterBudget  = 6000  // chapter writing, per file
	historyBudget  = 48000 // accumulated previous-chapters block
)

// Truncate bounds content to roughly budget characters by keeping the first
// and last budget/2 characters joined with an elision marker that names the
// original length. Content within budget passes through unchanged.
func Truncate(content string, budget int) string {
	if len(content) <= budget {
		return content
	}
	half := budget / 2
	return content[:half] +
		fmt.Sprintf("\n\n... [Content truncated - showing first %d and last %d chars of %d total] ...\n\n", half, half, len(content)) +
		content[len(content)-half:]
}

// BuildFileContext renders every file as an indexed block for the
// abstraction-discovery prompt and returns the accompanying
// "- <index> # <path>" listing used to anchor index references.
func BuildFileContext(files []FileEntry) (contextText, listing string) {
	var ctx strings.Builder
	lines := make([]string, 0, len(files))
	for i, f := range files {
		fmt.Fprintf(&ctx, "--- File Index %d: %s ---\n%s\n\n", i, f.Path, Truncate(f.Content, extractBudget))
		lines = append(lines, fmt.Sprintf("- %d # %s", i, f.Path))
	}
	return ctx.String(), strings.Join(lines, "\n")
}

// IndexedContent is one file's truncated content labelled with its
// "<index> # <path>" reference.
type IndexedContent struct {
	Index   int
	Path    string
	Label   string
	Content string
}

// ContentForIndices selects and truncates file contents for the given
// indices, preserving the order of indices. An index outside
// [0, len(files)) is an error; callers treat it as a validation failure.
func ContentForIndices(files []FileEntry, indices []int, budget int) ([]IndexedContent, error) {
	out := make([]IndexedContent, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(files) {
			return nil, fmt.Errorf("file index %d out of range [0,%d)", i, len(files))
		}
		f := files[i]
		out = append(out, IndexedContent{
			Index:   i,
			Path:    f.Path,
			Label:   fmt.Sprintf("%d # %s", i, f.Path),
			Content: Truncate(f.Content, budget),
		})
	}
	return out, nil
}
