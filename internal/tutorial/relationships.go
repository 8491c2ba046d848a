package tutorial

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/julianshen/codesensei/internal/parser"
)

// ---------- prompt template ----------

var relationshipTmpl = template.Must(template.New("relationships").Parse(`
Based on the following abstractions and relevant code snippets from the project ` + "`{{.Project}}`" + `:

List of Abstraction Indices and Names:
{{.AbstractionListing}}

Context (Abstractions, Descriptions, Code):
{{.Context}}

Please provide:
1. A high-level ` + "`summary`" + ` of the project's main purpose and functionality in a few beginner-friendly sentences. Use markdown formatting with **bold** and *italic* text to highlight important concepts.
2. A list (` + "`relationships`" + `) describing the key interactions between these abstractions. For each relationship, specify:
    - ` + "`from_abstraction`" + `: Index of the source abstraction (e.g., ` + "`0 # AbstractionName1`" + `)
    - ` + "`to_abstraction`" + `: Index of the target abstraction (e.g., ` + "`1 # AbstractionName2`" + `)
    - ` + "`label`" + `: A brief label for the interaction **in just a few words** (e.g., "Manages", "Inherits", "Uses").

IMPORTANT: Make sure EVERY abstraction is involved in at least ONE relationship (either as source or target).

Format the output as YAML:

` + "```yaml" + `
summary: |
  A brief, simple explanation of the project.
relationships:
  - from_abstraction: 0 # AbstractionName1
    to_abstraction: 1 # AbstractionName2
    label: "Manages"
` + "```"))

// rawRelationship mirrors one relationship record in the prompt's YAML shape.
type rawRelationship struct {
	From  parser.IndexRef `yaml:"from_abstraction"`
	To    parser.IndexRef `yaml:"to_abstraction"`
	Label string          `yaml:"label"`
}

type rawGraph struct {
	Summary       string            `yaml:"summary"`
	Relationships []rawRelationship `yaml:"relationships"`
}

// AnalyzeRelationships asks the model for a project summary plus the
// directed interactions between abstractions, and enforces full coverage:
// every abstraction index must appear as source or target of at least one
// relationship.
func AnalyzeRelationships(ctx context.Context, abstractions []Abstraction, files []FileEntry, projectName string, gen TextGenerator) (RelationshipGraph, error) {
	const stage = "relationships"

	listing, contextText, err := buildRelationshipContext(abstractions, files)
	if err != nil {
		return RelationshipGraph{}, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
	}

	var buf bytes.Buffer
	err = relationshipTmpl.Execute(&buf, struct {
		Project            string
		AbstractionListing string
		Context            string
	}{
		Project:            projectName,
		AbstractionListing: listing,
		Context:            contextText,
	})
	if err != nil {
		return RelationshipGraph{}, fmt.Errorf("rendering relationship prompt: %w", err)
	}

	response, err := gen.Generate(ctx, buf.String())
	if err != nil {
		return RelationshipGraph{}, &GenerationError{Stage: stage, Err: err}
	}

	var raw rawGraph
	if err := parser.DecodeYAML(response, &raw); err != nil {
		return RelationshipGraph{}, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
	}
	if len(raw.Relationships) == 0 {
		return RelationshipGraph{}, validationf(stage, "model returned an empty relationship list")
	}

	n := len(abstractions)
	covered := make(map[int]bool, n)
	relationships := make([]Relationship, 0, len(raw.Relationships))
	for i, r := range raw.Relationships {
		from, to := int(r.From), int(r.To)
		if from < 0 || from >= n {
			return RelationshipGraph{}, validationf(stage, "relationship %d: from_abstraction %d out of range [0,%d)", i, from, n)
		}
		if to < 0 || to >= n {
			return RelationshipGraph{}, validationf(stage, "relationship %d: to_abstraction %d out of range [0,%d)", i, to, n)
		}
		covered[from] = true
		covered[to] = true
		relationships = append(relationships, Relationship{
			From:  from,
			To:    to,
			Label: strings.TrimSpace(r.Label),
		})
	}

	var uncovered []string
	for i := 0; i < n; i++ {
		if !covered[i] {
			uncovered = append(uncovered, strconv.Itoa(i))
		}
	}
	if len(uncovered) > 0 {
		return RelationshipGraph{}, validationf(stage, "abstractions not involved in any relationship: %s", strings.Join(uncovered, ", "))
	}

	return RelationshipGraph{
		Summary:       strings.TrimSpace(raw.Summary),
		Relationships: relationships,
	}, nil
}

// buildRelationshipContext renders the abstraction descriptions plus the
// snippets of every file any abstraction references (3000-char truncation).
func buildRelationshipContext(abstractions []Abstraction, files []FileEntry) (listing, contextText string, err error) {
	var ctx strings.Builder
	ctx.WriteString("Identified Abstractions:\n")

	seen := make(map[int]bool)
	var union []int
	listingLines := make([]string, 0, len(abstractions))

	for i, a := range abstractions {
		indexStrs := make([]string, len(a.FileIndices))
		for j, fi := range a.FileIndices {
			indexStrs[j] = strconv.Itoa(fi)
		}
		fmt.Fprintf(&ctx, "- Index %d: %s (Relevant file indices: [%s])\n  Description: %s\n",
			i, a.Name, strings.Join(indexStrs, ", "), a.Description)
		listingLines = append(listingLines, fmt.Sprintf("%d # %s", i, a.Name))

		for _, fi := range a.FileIndices {
			if !seen[fi] {
				seen[fi] = true
				union = append(union, fi)
			}
		}
	}
	sort.Ints(union)

	ctx.WriteString("\nRelevant File Snippets (Referenced by Index and Path):\n")
	snippets, err := ContentForIndices(files, union, relationBudget)
	if err != nil {
		return "", "", err
	}
	blocks := make([]string, 0, len(snippets))
	for _, s := range snippets {
		blocks = append(blocks, fmt.Sprintf("--- File: %s ---\n%s", s.Label, s.Content))
	}
	ctx.WriteString(strings.Join(blocks, "\n\n"))

	return strings.Join(listingLines, "\n"), ctx.String(), nil
}
