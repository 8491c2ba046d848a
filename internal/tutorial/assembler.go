package tutorial

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// attribution is the footer line appended to every assembled tutorial. A
// chapter that already carries it (a model echoing earlier output) has it
// stripped before joining.
const (
	attributionMarker = "Generated by [codesensei]"
	attributionFooter = "Generated by [codesensei](https://github.com/julianshen/codesensei)"
)

// Assemble combines the pipeline outputs into the final Tutorial document.
// repoURL labels the source; when empty the tutorial is marked as built from
// a local directory.
func Assemble(order []int, abstractions []Abstraction, graph RelationshipGraph, chapters []Chapter, projectName, repoURL string) *Tutorial {
	sourceLabel := repoURL
	if sourceLabel == "" {
		sourceLabel = "Local Directory"
	}
	sourceURL := repoURL
	if sourceURL == "" {
		sourceURL = "#"
	}

	toc := make([]string, 0, len(order))
	for i, abstractionIndex := range order {
		number := i + 1
		name := abstractions[abstractionIndex].Name
		toc = append(toc, fmt.Sprintf("%d. [%s](#%s)", number, name, chapterAnchor(number, name)))
	}

	return &Tutorial{
		ProjectName:     projectName,
		Summary:         graph.Summary,
		Diagram:         buildDiagram(abstractions, graph),
		TableOfContents: toc,
		Chapters:        chapters,
		SourceLabel:     sourceLabel,
		SourceURL:       sourceURL,
	}
}

// Markdown renders the complete single-file tutorial document.
func (t *Tutorial) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tutorial: %s\n\n", t.ProjectName)
	b.WriteString(t.Summary)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "**Source Repository:** [%s](%s)\n\n", t.SourceLabel, t.SourceURL)

	b.WriteString("```mermaid\n")
	b.WriteString(t.Diagram)
	b.WriteString("\n```\n\n")

	b.WriteString("## Table of Contents\n\n")
	for _, entry := range t.TableOfContents {
		b.WriteString(entry)
		b.WriteString("\n")
	}
	b.WriteString("\n---\n\n")

	for _, ch := range t.Chapters {
		b.WriteString(stripAttribution(strings.TrimSpace(ch.Content)))
		b.WriteString("\n\n---\n\n")
	}

	b.WriteString(attributionFooter)
	b.WriteString("\n")
	return b.String()
}

// Persist writes the tutorial under <stagingDir>/<project>/ and then
// relocates that directory to <docsDir>/<project>/, replacing any previous
// output. It returns the final tutorial file path.
func Persist(t *Tutorial, stagingDir, docsDir string) (string, error) {
	stagingProject := filepath.Join(stagingDir, t.ProjectName)
	if err := os.MkdirAll(stagingProject, 0o755); err != nil {
		return "", &PersistenceError{Err: fmt.Errorf("creating staging directory %s: %w", stagingProject, err)}
	}

	filename := t.ProjectName + "_tutorial.md"
	stagingFile := filepath.Join(stagingProject, filename)
	if err := os.WriteFile(stagingFile, []byte(t.Markdown()), 0o644); err != nil {
		return "", &PersistenceError{Err: fmt.Errorf("writing %s: %w", stagingFile, err)}
	}

	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return "", &PersistenceError{Err: fmt.Errorf("creating docs directory %s: %w", docsDir, err)}
	}
	docsProject := filepath.Join(docsDir, t.ProjectName)
	if err := os.RemoveAll(docsProject); err != nil {
		return "", &PersistenceError{Err: fmt.Errorf("clearing %s: %w", docsProject, err)}
	}
	if err := os.Rename(stagingProject, docsProject); err != nil {
		return "", &PersistenceError{Err: fmt.Errorf("relocating %s to %s: %w", stagingProject, docsProject, err)}
	}

	return filepath.Join(docsProject, filename), nil
}

// buildDiagram renders the abstraction graph as a mermaid flowchart: one
// node per abstraction, one labelled edge per relationship.
func buildDiagram(abstractions []Abstraction, graph RelationshipGraph) string {
	lines := []string{"flowchart TD"}

	for i, a := range abstractions {
		name := strings.ReplaceAll(a.Name, `"`, "")
		lines = append(lines, fmt.Sprintf(`    A%d["%s"]`, i, name))
	}

	for _, rel := range graph.Relationships {
		label := strings.ReplaceAll(rel.Label, `"`, "")
		label = strings.ReplaceAll(label, "\n", " ")
		if runes := []rune(label); len(runes) > 30 {
			label = string(runes[:27]) + "..."
		}
		lines = append(lines, fmt.Sprintf(`    A%d -- "%s" --> A%d`, rel.From, label, rel.To))
	}

	return strings.Join(lines, "\n")
}

// chapterAnchor derives the in-document anchor for a table-of-contents
// entry: "chapter-<n>-<name>" with the name lowered, spaces turned into
// hyphens, colons and commas dropped, then filtered to alphanumerics and
// hyphens.
func chapterAnchor(number int, name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, ":", "")
	slug = strings.ReplaceAll(slug, ",", "")

	anchor := fmt.Sprintf("chapter-%d-%s", number, slug)
	var b strings.Builder
	for _, r := range anchor {
		if r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAttribution removes a trailing attribution footer block from chapter
// content so the assembled document carries exactly one footer.
func stripAttribution(content string) string {
	if !strings.Contains(content, attributionMarker) {
		return content
	}
	if i := strings.Index(content, "---\n\n"+attributionMarker); i >= 0 {
		return strings.TrimRightFunc(content[:i], unicode.IsSpace)
	}
	return content
}
