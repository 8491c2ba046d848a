package fetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/julianshen/codesensei/internal/tutorial"
)

// maxConcurrentDownloads bounds the blob download pool for remote fetchers.
const maxConcurrentDownloads = 8

// GitHub lists the files of a GitHub repository's default branch.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	filter *Filter
	logger *zap.Logger
}

// NewGitHub creates a provider for a https://github.com/owner/repo URL. The
// token is optional; unauthenticated requests work for public repositories
// within GitHub's rate limits.
func NewGitHub(repoURL, token string, opts Options, logger *zap.Logger) (*GitHub, error) {
	owner, repo, err := parseGitHubURL(repoURL)
	if err != nil {
		return nil, err
	}
	filter, err := NewFilter(opts)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitHub{client: client, owner: owner, repo: repo, filter: filter, logger: logger}, nil
}

// SetBaseURL points the provider at a different API endpoint (GitHub
// Enterprise, tests).
func (g *GitHub) SetBaseURL(base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	g.client.BaseURL = u
	return nil
}

func parseGitHubURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("parse repo URL: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo URL %q: want https://github.com/owner/repo", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// ListFiles resolves the default branch, lists its recursive tree, filters
// the blobs, and downloads the survivors through a bounded pool. Entries
// come back sorted by path.
func (g *GitHub) ListFiles(ctx context.Context) ([]tutorial.FileEntry, error) {
	var repo *github.Repository
	if err := g.withLimitRetry(ctx, func() error {
		var err error
		repo, _, err = g.client.Repositories.Get(ctx, g.owner, g.repo)
		return err
	}); err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", g.owner, g.repo, err)
	}
	branch := repo.GetDefaultBranch()

	var tree *github.Tree
	if err := g.withLimitRetry(ctx, func() error {
		var err error
		tree, _, err = g.client.Git.GetTree(ctx, g.owner, g.repo, branch, true)
		return err
	}); err != nil {
		return nil, fmt.Errorf("list tree of %s/%s@%s: %w", g.owner, g.repo, branch, err)
	}
	if tree.GetTruncated() {
		g.logger.Warn("tree listing truncated, some files will be missing",
			zap.String("repo", g.owner+"/"+g.repo))
	}

	type blobRef struct {
		path string
		sha  string
	}
	var selected []blobRef
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if !g.filter.Allow(entry.GetPath(), int64(entry.GetSize())) {
			continue
		}
		selected = append(selected, blobRef{path: entry.GetPath(), sha: entry.GetSHA()})
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].path < selected[j].path })

	contents := make([]string, len(selected))
	p := pool.New().WithMaxGoroutines(maxConcurrentDownloads).WithContext(ctx)
	for i, ref := range selected {
		p.Go(func(ctx context.Context) error {
			content, err := g.blobContent(ctx, ref.sha)
			if err != nil {
				return fmt.Errorf("download %s: %w", ref.path, err)
			}
			contents[i] = content
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	entries := make([]tutorial.FileEntry, 0, len(selected))
	for i, ref := range selected {
		entries = append(entries, tutorial.FileEntry{Index: i, Path: ref.path, Content: contents[i]})
	}
	return entries, nil
}

func (g *GitHub) blobContent(ctx context.Context, sha string) (string, error) {
	var blob *github.Blob
	if err := g.withLimitRetry(ctx, func() error {
		var err error
		blob, _, err = g.client.Git.GetBlob(ctx, g.owner, g.repo, sha)
		return err
	}); err != nil {
		return "", err
	}

	content := blob.GetContent()
	if blob.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode blob %s: %w", sha, err)
		}
		content = string(decoded)
	}
	return content, nil
}

// withLimitRetry runs call, waiting out rate and abuse limits the API
// reports before retrying. Any other failure returns as-is.
func (g *GitHub) withLimitRetry(ctx context.Context, call func() error) error {
	for {
		err := call()
		if err == nil {
			return nil
		}

		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			reset := rateErr.Rate.Reset.Time
			g.logger.Warn("rate limit reached, waiting",
				zap.String("repo", g.owner+"/"+g.repo),
				zap.Time("reset", reset))
			if err := sleepUntil(ctx, reset); err != nil {
				return err
			}
			continue
		}

		var abuseErr *github.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			wait := abuseErr.GetRetryAfter()
			if wait <= 0 {
				wait = 30 * time.Second
			}
			g.logger.Warn("abuse limit reached, waiting",
				zap.String("repo", g.owner+"/"+g.repo),
				zap.Duration("wait", wait))
			if err := sleepFor(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return err
	}
}

func sleepUntil(ctx context.Context, t time.Time) error {
	return sleepFor(ctx, time.Until(t))
}

func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
