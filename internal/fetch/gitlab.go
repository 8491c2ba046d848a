package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"

	"github.com/julianshen/codesensei/internal/tutorial"
)

// GitLab lists the files of a GitLab project's default branch. Self-hosted
// instances are reached through the repository URL's own host.
type GitLab struct {
	client  *gitlab.Client
	project string
	filter  *Filter
	logger  *zap.Logger
}

// NewGitLab creates a provider for a https://<gitlab-host>/group/project
// URL. The token is optional for public projects; nested groups are part of
// the project path.
func NewGitLab(repoURL, token string, opts Options, logger *zap.Logger) (*GitLab, error) {
	base, project, err := parseGitLabURL(repoURL)
	if err != nil {
		return nil, err
	}
	filter, err := NewFilter(opts)
	if err != nil {
		return nil, err
	}

	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(base))
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitLab{client: client, project: project, filter: filter, logger: logger}, nil
}

func parseGitLabURL(repoURL string) (base, project string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("parse repo URL: %w", err)
	}
	p := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if u.Host == "" || !strings.Contains(p, "/") {
		return "", "", fmt.Errorf("repo URL %q: want https://<gitlab-host>/group/project", repoURL)
	}
	return u.Scheme + "://" + u.Host, p, nil
}

// ListFiles resolves the default branch, pages through the recursive
// repository tree, filters the blobs, and downloads the survivors through a
// bounded pool. The tree API reports no sizes, so the size cap is enforced
// after download. Entries come back sorted by path.
func (g *GitLab) ListFiles(ctx context.Context) ([]tutorial.FileEntry, error) {
	project, _, err := g.client.Projects.GetProject(g.project, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", g.project, err)
	}
	branch := project.DefaultBranch

	var paths []string
	treeOpts := &gitlab.ListTreeOptions{
		Ref:         gitlab.Ptr(branch),
		Recursive:   gitlab.Ptr(true),
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	for {
		nodes, resp, err := g.client.Repositories.ListTree(g.project, treeOpts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list tree of %s@%s: %w", g.project, branch, err)
		}
		for _, node := range nodes {
			if node.Type != "blob" {
				continue
			}
			if !g.filter.Allow(node.Path, 0) {
				continue
			}
			paths = append(paths, node.Path)
		}
		if resp.NextPage == 0 {
			break
		}
		treeOpts.Page = resp.NextPage
	}
	sort.Strings(paths)

	contents := make([]string, len(paths))
	keep := make([]bool, len(paths))
	p := pool.New().WithMaxGoroutines(maxConcurrentDownloads).WithContext(ctx)
	for i, filePath := range paths {
		p.Go(func(ctx context.Context) error {
			raw, _, err := g.client.RepositoryFiles.GetRawFile(g.project, filePath,
				&gitlab.GetRawFileOptions{Ref: gitlab.Ptr(branch)}, gitlab.WithContext(ctx))
			if err != nil {
				return fmt.Errorf("download %s: %w", filePath, err)
			}
			if g.filter.TooLarge(int64(len(raw))) {
				g.logger.Warn("skipping oversized file", zap.String("path", filePath), zap.Int("bytes", len(raw)))
				return nil
			}
			contents[i] = string(raw)
			keep[i] = true
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	var entries []tutorial.FileEntry
	for i, filePath := range paths {
		if !keep[i] {
			continue
		}
		entries = append(entries, tutorial.FileEntry{
			Index:   len(entries),
			Path:    filePath,
			Content: contents[i],
		})
	}
	return entries, nil
}
