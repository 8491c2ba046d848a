package tutorial

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

// ---------- prompt template ----------

var chapterTmpl = template.Must(template.New("chapter").Parse(`
Write a very beginner-friendly tutorial chapter (in Markdown format) for the project ` + "`{{.Project}}`" + ` about the concept: "{{.Name}}". This is Chapter {{.Number}}.

Concept Details:
- Name: {{.Name}}
- Description:
{{.Description}}

Complete Tutorial Structure:
{{.ChapterListing}}

Context from previous chapters:
{{.PreviousChapters}}

Relevant Code Snippets:
{{.FileContext}}

Instructions:
- Start with heading: ` + "`# Chapter {{.Number}}: {{.Name}}`" + `
- Begin with high-level motivation explaining what problem this solves
- Break complex abstractions into key concepts
- Explain with examples, inputs/outputs
- Keep code blocks under 10 lines
- Use mermaid diagrams for complex concepts
- Use analogies and examples
- End with summary and transition to next chapter

Now, provide the Markdown content:
`))

// WriteChapters generates one chapter per order entry, strictly in sequence:
// each chapter's prompt includes the final text of every chapter written
// before it. Chapters are never revised once produced.
func WriteChapters(ctx context.Context, order []int, abstractions []Abstraction, files []FileEntry, projectName string, gen TextGenerator, progress ProgressFunc) ([]Chapter, error) {
	const stage = "chapters"

	if err := validatePermutation(order, len(abstractions)); err != nil {
		return nil, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
	}

	listing := buildChapterListing(order, abstractions)

	chapters := make([]Chapter, 0, len(order))
	var written []string

	for i, abstractionIndex := range order {
		number := i + 1
		a := abstractions[abstractionIndex]

		progress.report(StageChapters, fmt.Sprintf("writing chapter %d/%d: %s", number, len(order), a.Name))

		snippets, err := ContentForIndices(files, a.FileIndices, chapterBudget)
		if err != nil {
			return nil, &ValidationError{Stage: stage, Reason: err.Error(), Err: err}
		}
		blocks := make([]string, 0, len(snippets))
		for _, s := range snippets {
			blocks = append(blocks, fmt.Sprintf("--- File: %s ---\n%s", s.Path, s.Content))
		}
		fileContext := strings.Join(blocks, "\n\n")
		if fileContext == "" {
			fileContext = "No specific code snippets provided."
		}

		previous := strings.Join(written, "\n---\n")
		if previous == "" {
			previous = "This is the first chapter."
		} else if len(previous) > historyBudget {
			previous = Truncate(previous, historyBudget)
		}

		var buf bytes.Buffer
		err = chapterTmpl.Execute(&buf, struct {
			Project          string
			Name             string
			Number           int
			Description      string
			ChapterListing   string
			PreviousChapters string
			FileContext      string
		}{
			Project:          projectName,
			Name:             a.Name,
			Number:           number,
			Description:      a.Description,
			ChapterListing:   listing,
			PreviousChapters: previous,
			FileContext:      fileContext,
		})
		if err != nil {
			return nil, fmt.Errorf("rendering chapter %d prompt: %w", number, err)
		}

		response, err := gen.Generate(ctx, buf.String())
		if err != nil {
			return nil, &GenerationError{Stage: fmt.Sprintf("chapter %d (%s)", number, a.Name), Err: err}
		}

		content := enforceHeading(response, number, a.Name)
		written = append(written, content)
		chapters = append(chapters, Chapter{
			AbstractionIndex: abstractionIndex,
			Number:           number,
			Content:          content,
		})
	}

	return chapters, nil
}

// buildChapterListing renders the complete tutorial structure included in
// every chapter prompt: "<n>. [<name>](<filename>)" per chapter.
func buildChapterListing(order []int, abstractions []Abstraction) string {
	lines := make([]string, 0, len(order))
	for i, abstractionIndex := range order {
		number := i + 1
		name := abstractions[abstractionIndex].Name
		lines = append(lines, fmt.Sprintf("%d. [%s](%s)", number, name, ChapterFilename(number, name)))
	}
	return strings.Join(lines, "\n")
}

// ChapterFilename derives the per-chapter filename: two-digit chapter number
// plus the lowered name with every non-alphanumeric rune replaced by '_'.
func ChapterFilename(number int, name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("%02d_%s.md", number, strings.ToLower(b.String()))
}

// enforceHeading guarantees the chapter starts with "# Chapter <n>: <name>".
// A response that already opens with the right chapter heading passes
// through; one that opens with some other heading has its first line
// replaced; anything else gets the heading prepended.
func enforceHeading(content string, number int, name string) string {
	heading := fmt.Sprintf("# Chapter %d: %s", number, name)
	prefix := fmt.Sprintf("# Chapter %d", number)

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, prefix) {
		return content
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#") {
		lines[0] = heading
		return strings.Join(lines, "\n")
	}
	return heading + "\n\n" + content
}
