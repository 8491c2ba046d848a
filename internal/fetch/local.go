package fetch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/julianshen/codesensei/internal/tutorial"
)

// Local lists files from a directory on disk, in lexical walk order.
type Local struct {
	dir    string
	filter *Filter
	logger *zap.Logger
}

// NewLocal creates a provider over the given directory.
func NewLocal(dir string, opts Options, logger *zap.Logger) (*Local, error) {
	filter, err := NewFilter(opts)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{dir: dir, filter: filter, logger: logger}, nil
}

// ListFiles walks the directory, skipping excluded directories without
// descending. Unreadable and non-UTF-8 files are skipped with a warning;
// a leading UTF-8 BOM is stripped.
func (l *Local) ListFiles(ctx context.Context) ([]tutorial.FileEntry, error) {
	var entries []tutorial.FileEntry

	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("skipping unreadable path", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if l.filter.ExcludesDir(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			l.logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
			return nil
		}
		if !l.filter.Allow(rel, info.Size()) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			l.logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
			return nil
		}
		content := strings.TrimPrefix(string(data), "\ufeff")
		if !utf8.ValidString(content) {
			l.logger.Warn("skipping non-UTF-8 file", zap.String("path", rel))
			return nil
		}

		entries = append(entries, tutorial.FileEntry{
			Index:   len(entries),
			Path:    rel,
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.dir, err)
	}
	return entries, nil
}
