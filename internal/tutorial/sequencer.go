package tutorial

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/julianshen/codesensei/internal/parser"
)

// ---------- prompt template ----------

var orderTmpl = template.Must(template.New("order").Parse(`
Given the following project abstractions and their relationships for the project ` + "`{{.Project}}`" + `:

Abstractions (Index # Name):
{{.AbstractionListing}}

Context about relationships and project summary:
{{.Context}}

If you are going to make a tutorial for ` + "`{{.Project}}`" + `, what is the best order to explain these abstractions, from first to last?

Output the ordered list of abstraction indices, including the name in a comment for clarity. Use the format ` + "`idx # AbstractionName`" + `.

` + "```yaml" + `
- 2 # FoundationalConcept
- 0 # CoreClassA
` + "```"))

// OrderChapters asks the model for the teaching order and enforces that the
// result is a permutation of all abstraction indices: every index exactly
// once, nothing missing, nothing repeated.
func OrderChapters(ctx context.Context, abstractions []Abstraction, graph RelationshipGraph, projectName string, gen TextGenerator) ([]int, error) {
	const stage = "order"

	listingLines := make([]string, 0, len(abstractions))
	for i, a := range abstractions {
		listingLines = append(listingLines, fmt.Sprintf("- %d # %s", i, a.Name))
	}

	var ctxText strings.Builder
	fmt.Fprintf(&ctxText, "Project Summary:\n%s\n\n", graph.Summary)
	ctxText.WriteString("Relationships (Indices refer to abstractions above):\n")
	for _, rel := range graph.Relationships {
		fmt.Fprintf(&ctxText, "- From %d (%s) to %d (%s): %s\n",
			rel.From, abstractions[rel.From].Name, rel.To, abstractions[rel.To].Name, rel.Label)
	}

	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, struct {
		Project            string
		AbstractionListing string
		Context            string
	}{
		Project:            projectName,
		AbstractionListing: strings.Join(listingLines, "\n"),
		Context:            ctxText.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering order prompt: %w", err)
	}

	response, err := gen.Generate(ctx, buf.String())
	if err != nil {
		return nil, &GenerationError{Stage: stage, Err: err}
	}

	var refs []parser.IndexRef
	if err := parser.DecodeYAML(response, &refs); err != nil {
		return nil, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
	}

	order := parser.Ints(refs)
	if err := validatePermutation(order, len(abstractions)); err != nil {
		return nil, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
	}
	return order, nil
}

// validatePermutation checks that order contains every index in [0, n)
// exactly once.
func validatePermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("chapter order has %d entries, want %d", len(order), n)
	}
	seen := make(map[int]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("chapter order index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			return fmt.Errorf("chapter order repeats index %d", idx)
		}
		seen[idx] = true
	}
	return nil
}
