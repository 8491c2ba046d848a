package tutorial

import (
	"context"
	"errors"
	"fmt"
)

// Config holds all pipeline configuration.
type Config struct {
	ProjectName     string
	RepoURL         string // empty when building from a local directory
	MaxAbstractions int
	StagingDir      string // intermediate output root, default "output"
	DocsDir         string // final output root, default "docs"
	Progress        ProgressFunc
}

// DefaultConfig returns pipeline defaults matching the CLI's.
func DefaultConfig() Config {
	return Config{
		MaxAbstractions: 10,
		StagingDir:      "output",
		DocsDir:         "docs",
	}
}

// Run executes the full pipeline: fetch -> abstractions -> relationships ->
// order -> chapters -> assemble. Stages run strictly in sequence; any stage
// failure aborts the whole run with no partial output. It returns the final
// tutorial file path.
func Run(ctx context.Context, cfg Config, files FileProvider, gen TextGenerator) (string, error) {
	if cfg.MaxAbstractions <= 0 {
		cfg.MaxAbstractions = 10
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = "output"
	}
	if cfg.DocsDir == "" {
		cfg.DocsDir = "docs"
	}
	progress := cfg.Progress

	// Stage 1: fetch the source snapshot.
	progress.report(StageFetch, "fetching source files...")
	entries, err := files.ListFiles(ctx)
	if err != nil {
		return "", &FetchError{Err: err}
	}
	if len(entries) == 0 {
		return "", &FetchError{Err: errors.New("no files fetched")}
	}
	for i := range entries {
		entries[i].Index = i
	}
	progress.report(StageFetch, fmt.Sprintf("fetched %d files", len(entries)))

	// Stage 2: identify core abstractions.
	progress.report(StageAbstractions, "identifying abstractions...")
	abstractions, err := ExtractAbstractions(ctx, entries, cfg.ProjectName, cfg.MaxAbstractions, gen)
	if err != nil {
		return "", err
	}
	progress.report(StageAbstractions, fmt.Sprintf("identified %d abstractions", len(abstractions)))

	// Stage 3: analyze how the abstractions relate.
	progress.report(StageRelationships, "analyzing relationships...")
	graph, err := AnalyzeRelationships(ctx, abstractions, entries, cfg.ProjectName, gen)
	if err != nil {
		return "", err
	}
	progress.report(StageRelationships, fmt.Sprintf("mapped %d relationships", len(graph.Relationships)))

	// Stage 4: decide the teaching order.
	progress.report(StageOrder, "determining chapter order...")
	order, err := OrderChapters(ctx, abstractions, graph, cfg.ProjectName, gen)
	if err != nil {
		return "", err
	}

	// Stage 5: write chapters sequentially.
	chapters, err := WriteChapters(ctx, order, abstractions, entries, cfg.ProjectName, gen, progress)
	if err != nil {
		return "", err
	}

	// Stage 6: assemble and persist the single-file tutorial.
	progress.report(StageAssemble, "combining tutorial...")
	tut := Assemble(order, abstractions, graph, chapters, cfg.ProjectName, cfg.RepoURL)
	path, err := Persist(tut, cfg.StagingDir, cfg.DocsDir)
	if err != nil {
		return "", err
	}
	progress.report(StageAssemble, fmt.Sprintf("tutorial complete: %s", path))

	return path, nil
}
