package tutorial

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/julianshen/codesensei/internal/parser"
)

// ---------- prompt template ----------

var extractionTmpl = template.Must(template.New("abstractions").Parse(`
For the project ` + "`{{.Project}}`" + `:

Codebase Context:
{{.Context}}

Analyze the codebase context.
Identify the top 5-{{.MaxCount}} core most important abstractions to help those new to the codebase.

For each abstraction, provide:
1. A concise ` + "`name`" + `.
2. A beginner-friendly ` + "`description`" + ` explaining what it is with a simple analogy, in around 100 words.
3. A list of relevant ` + "`file_indices`" + ` (integers) using the format ` + "`idx # path/comment`" + `.

List of file indices and paths present in the context:
{{.FileListing}}

Format the output as a YAML list of dictionaries:

` + "```yaml" + `
- name: |
    Query Processing
  description: |
    Explains what the abstraction does.
    It's like a central dispatcher routing requests.
  file_indices:
    - 0 # path/to/file1.py
    - 3 # path/to/related.py
` + "```"))

// rawAbstraction mirrors the YAML shape the extraction prompt requests.
type rawAbstraction struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	FileIndices []parser.IndexRef `yaml:"file_indices"`
}

// ExtractAbstractions asks the model for the project's core abstractions and
// validates every file reference against the snapshot. File indices outside
// [0, len(files)) are rejected outright, never clamped or dropped.
func ExtractAbstractions(ctx context.Context, files []FileEntry, projectName string, maxCount int, gen TextGenerator) ([]Abstraction, error) {
	const stage = "abstractions"

	fileContext, listing := BuildFileContext(files)

	var buf bytes.Buffer
	err := extractionTmpl.Execute(&buf, struct {
		Project     string
		Context     string
		MaxCount    int
		FileListing string
	}{
		Project:     projectName,
		Context:     fileContext,
		MaxCount:    maxCount,
		FileListing: listing,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering abstraction prompt: %w", err)
	}

	response, err := gen.Generate(ctx, buf.String())
	if err != nil {
		return nil, &GenerationError{Stage: stage, Err: err}
	}

	var raw []rawAbstraction
	if err := parser.DecodeYAML(response, &raw); err != nil {
		return nil, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
	}
	if len(raw) == 0 {
		return nil, validationf(stage, "model returned an empty abstraction list")
	}

	abstractions := make([]Abstraction, 0, len(raw))
	for i, r := range raw {
		seen := make(map[int]bool, len(r.FileIndices))
		indices := make([]int, 0, len(r.FileIndices))
		for _, ref := range r.FileIndices {
			idx := int(ref)
			if idx < 0 || idx >= len(files) {
				return nil, validationf(stage, "abstraction %d (%q): file index %d out of range [0,%d)", i, strings.TrimSpace(r.Name), idx, len(files))
			}
			if !seen[idx] {
				seen[idx] = true
				indices = append(indices, idx)
			}
		}
		sort.Ints(indices)

		abstractions = append(abstractions, Abstraction{
			Name:        strings.TrimSpace(r.Name),
			Description: strings.TrimSpace(r.Description),
			FileIndices: indices,
		})
	}

	return abstractions, nil
}
