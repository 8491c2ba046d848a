// Package tutorial implements the codebase-to-tutorial pipeline: fetch a
// source snapshot, identify its core abstractions, derive how they relate,
// decide a teaching order, write one chapter per abstraction, and assemble
// everything into a single markdown document.
package tutorial

import "context"

// FileEntry is one source file in the ordered snapshot a FileProvider
// returns. Index is the entry's position in that list and is the only
// addressing scheme later stages use.
type FileEntry struct {
	Index   int
	Path    string
	Content string
}

// Abstraction is one core concept identified in the codebase. FileIndices
// references FileEntry indices, deduplicated and sorted ascending.
type Abstraction struct {
	Name        string
	Description string
	FileIndices []int
}

// Relationship is a directed interaction between two abstractions. From and
// To are positions in the abstraction list, not file indices.
type Relationship struct {
	From  int
	To    int
	Label string
}

// RelationshipGraph couples the project summary with the relationships the
// model identified. Every abstraction index appears in at least one
// relationship endpoint.
type RelationshipGraph struct {
	Summary       string
	Relationships []Relationship
}

// Chapter is one generated tutorial chapter. Content always begins with a
// "# Chapter <n>: <name>" heading.
type Chapter struct {
	AbstractionIndex int
	Number           int
	Content          string
}

// Tutorial is the final assembled document, built once after all chapters
// have been written.
type Tutorial struct {
	ProjectName     string
	Summary         string
	Diagram         string
	TableOfContents []string
	Chapters        []Chapter
	SourceLabel     string
	SourceURL       string
}

// FileProvider returns the ordered source snapshot a tutorial is built from.
// Implementations must produce a deterministic order for identical inputs;
// returning zero files fails the pipeline.
type FileProvider interface {
	ListFiles(ctx context.Context) ([]FileEntry, error)
}

// TextGenerator produces model text for a prompt. Implementations own
// caching, rate limiting, and transient-error retries; any error that
// escapes here aborts the pipeline.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Stage identifies a pipeline phase for progress reporting.
type Stage string

const (
	StageFetch         Stage = "fetch"
	StageAbstractions  Stage = "abstractions"
	StageRelationships Stage = "relationships"
	StageOrder         Stage = "order"
	StageChapters      Stage = "chapters"
	StageAssemble      Stage = "assemble"
)

// ProgressFunc receives human-readable updates as the pipeline advances.
// A nil ProgressFunc disables reporting.
type ProgressFunc func(stage Stage, message string)

func (f ProgressFunc) report(stage Stage, message string) {
	if f != nil {
		f(stage, message)
	}
}
