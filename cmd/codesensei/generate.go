package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/julianshen/codesensei/internal/config"
	"github.com/julianshen/codesensei/internal/fetch"
	"github.com/julianshen/codesensei/internal/generator"
	"github.com/julianshen/codesensei/internal/provider"
	"github.com/julianshen/codesensei/internal/store"
	"github.com/julianshen/codesensei/internal/tui"
	"github.com/julianshen/codesensei/internal/tutorial"
)

// errAborted marks a run the user cancelled from the progress display.
var errAborted = errors.New("aborted")

func generateCmd() *cobra.Command {
	var (
		repoFlag            string
		dirFlag             string
		nameFlag            string
		tokenFlag           string
		outputFlag          string
		includeFlag         []string
		excludeFlag         []string
		maxSizeFlag         int64
		maxAbstractionsFlag int
		noCacheFlag         bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a tutorial from a codebase",
		Long: `Fetch source files from a GitHub/GitLab repository or a local directory,
identify the core abstractions with an LLM, and write a markdown tutorial
that explains them chapter by chapter.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (repoFlag == "") == (dirFlag == "") {
				return errors.New("exactly one of --repo or --dir is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if tokenFlag != "" {
				cfg.Source.GitHubToken = tokenFlag
				cfg.Source.GitLabToken = tokenFlag
			}
			if len(includeFlag) > 0 {
				cfg.Source.Include = includeFlag
			}
			if len(excludeFlag) > 0 {
				cfg.Source.Exclude = excludeFlag
			}
			if maxSizeFlag > 0 {
				cfg.Source.MaxFileSize = maxSizeFlag
			}
			if outputFlag != "" {
				cfg.Output.DocsDir = outputFlag
			}
			if maxAbstractionsFlag > 0 {
				cfg.Output.MaxAbstractions = maxAbstractionsFlag
			}
			if noCacheFlag {
				cfg.Cache.Enabled = false
			}

			project, err := deriveProjectName(nameFlag, repoFlag, dirFlag)
			if err != nil {
				return err
			}

			return runGenerate(cmd, cfg, project, repoFlag, dirFlag)
		},
	}

	cmd.Flags().StringVar(&repoFlag, "repo", "", "repository URL to analyze")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "local directory to analyze")
	cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "project name (default: derived from the source)")
	cmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "GitHub/GitLab API token")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output directory for the tutorial")
	cmd.Flags().StringArrayVarP(&includeFlag, "include", "i", nil, "file patterns to include (repeatable)")
	cmd.Flags().StringArrayVarP(&excludeFlag, "exclude", "e", nil, "file patterns to exclude (repeatable)")
	cmd.Flags().Int64VarP(&maxSizeFlag, "max-size", "s", 0, "maximum file size in bytes")
	cmd.Flags().IntVar(&maxAbstractionsFlag, "max-abstractions", 0, "maximum number of abstractions to identify")
	cmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "bypass the completion cache for this run")

	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, project, repoURL, dir string) error {
	runID := uuid.NewString()

	logger, err := generator.NewCallLogger(cfg.Log.Dir)
	if err != nil {
		return fmt.Errorf("opening call log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var st *store.Store
	if cfg.Cache.Path != "" {
		st, err = store.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()
	}

	files, err := newFetcher(cfg, repoURL, dir, logger)
	if err != nil {
		return err
	}

	p, err := provider.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	// The store only feeds the generator when caching is on; run records are
	// kept either way.
	var completions generator.ContentStore
	if st != nil && cfg.Cache.Enabled {
		completions = st
	}

	gen := generator.New(p, generator.Options{
		Store:             completions,
		Logger:            logger,
		Model:             cfg.Provider.Model,
		RunID:             runID,
		RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		MaxRetries:        cfg.Provider.MaxRetries,
	})

	source := repoURL
	if source == "" {
		if abs, absErr := filepath.Abs(dir); absErr == nil {
			source = abs
		} else {
			source = dir
		}
	}
	if st != nil {
		if err := st.StartRun(runID, project, source); err != nil {
			logger.Warn("recording run start", zap.Error(err))
		}
	}

	pcfg := tutorial.Config{
		ProjectName:     project,
		RepoURL:         repoURL,
		MaxAbstractions: cfg.Output.MaxAbstractions,
		StagingDir:      cfg.Output.StagingDir,
		DocsDir:         cfg.Output.DocsDir,
	}

	path, runErr := runPipeline(cmd.Context(), pcfg, files, gen, project)

	if st != nil {
		status := "completed"
		switch {
		case errors.Is(runErr, errAborted):
			status = "aborted"
		case runErr != nil:
			status = "failed"
		}
		if err := st.FinishRun(runID, status); err != nil {
			logger.Warn("recording run finish", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tutorial written to %s\n", path)
	return nil
}

// runPipeline drives the tutorial pipeline with a bubbletea progress display
// when stderr is a terminal, or plain log lines otherwise.
func runPipeline(ctx context.Context, pcfg tutorial.Config, files tutorial.FileProvider, gen tutorial.TextGenerator, project string) (string, error) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return runPipelineTUI(ctx, pcfg, files, gen, project)
	}

	pcfg.Progress = func(stage tutorial.Stage, message string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", stage, message)
	}
	return tutorial.Run(ctx, pcfg, files, gen)
}

func runPipelineTUI(ctx context.Context, pcfg tutorial.Config, files tutorial.FileProvider, gen tutorial.TextGenerator, project string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(tui.NewProgressModel(project), tea.WithOutput(os.Stderr))

	pcfg.Progress = func(stage tutorial.Stage, message string) {
		prog.Send(tui.ProgressMsg{Stage: stage, Message: message})
	}

	type result struct {
		path string
		err  error
	}
	results := make(chan result, 1)
	go func() {
		path, err := tutorial.Run(ctx, pcfg, files, gen)
		results <- result{path: path, err: err}
		// Send is a no-op once the program has quit, so an abort race is fine.
		prog.Send(tui.DoneMsg{Path: path, Err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		cancel()
		<-results
		return "", fmt.Errorf("rendering progress: %w", err)
	}
	if m, ok := final.(tui.ProgressModel); ok && m.Aborted() {
		cancel()
		<-results
		return "", errAborted
	}

	res := <-results
	return res.path, res.err
}

// newFetcher selects the file source: the local directory when --dir is
// given, the GitLab API for gitlab hosts, and the GitHub API otherwise.
func newFetcher(cfg *config.Config, repoURL, dir string, logger *zap.Logger) (tutorial.FileProvider, error) {
	opts := fetchOptions(cfg)
	if dir != "" {
		return fetch.NewLocal(dir, opts, logger)
	}
	if isGitLabRepo(repoURL, cfg.Source.GitLabURL) {
		return fetch.NewGitLab(repoURL, cfg.Source.GitLabToken, opts, logger)
	}
	return fetch.NewGitHub(repoURL, cfg.Source.GitHubToken, opts, logger)
}

// fetchOptions maps source configuration onto fetch options, falling back to
// the default include/exclude pattern sets when neither flags nor the config
// file specify any.
func fetchOptions(cfg *config.Config) fetch.Options {
	opts := fetch.Options{
		Include:     cfg.Source.Include,
		Exclude:     cfg.Source.Exclude,
		MaxFileSize: cfg.Source.MaxFileSize,
	}
	if len(opts.Include) == 0 {
		opts.Include = fetch.DefaultInclude
	}
	if len(opts.Exclude) == 0 {
		opts.Exclude = fetch.DefaultExclude
	}
	return opts
}

// isGitLabRepo reports whether repoURL should go through the GitLab API:
// either its host contains "gitlab" or it matches the configured self-hosted
// GitLab instance.
func isGitLabRepo(repoURL, gitlabURL string) bool {
	u, err := url.Parse(repoURL)
	if err != nil {
		return false
	}
	if strings.Contains(strings.ToLower(u.Host), "gitlab") {
		return true
	}
	if gitlabURL == "" {
		return false
	}
	g, err := url.Parse(gitlabURL)
	if err != nil {
		return false
	}
	return g.Host != "" && strings.EqualFold(u.Host, g.Host)
}

// deriveProjectName returns the explicit name when given, the repository
// URL's last path segment with any ".git" suffix stripped, or the base name
// of the absolute local directory.
func deriveProjectName(name, repoURL, dir string) (string, error) {
	if name != "" {
		return name, nil
	}
	if repoURL != "" {
		derived := repoProjectName(repoURL)
		if derived == "" {
			return "", fmt.Errorf("cannot derive a project name from %q, use --name", repoURL)
		}
		return derived, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return filepath.Base(abs), nil
}

func repoProjectName(repoURL string) string {
	trimmed := strings.TrimRight(repoURL, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSuffix(trimmed, ".git")
}
