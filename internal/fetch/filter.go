// Package fetch provides the file providers a tutorial is generated from: a
// local directory walker and GitHub/GitLab repository crawlers. All of them
// share one glob filter and satisfy the tutorial.FileProvider contract.
package fetch

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// DefaultMaxFileSize is the size cap applied when none is configured.
const DefaultMaxFileSize int64 = 100_000

// DefaultInclude is the include pattern set used when neither flags nor
// configuration name any.
var DefaultInclude = []string{
	"*.py", "*.js", "*.jsx", "*.ts", "*.tsx", "*.go", "*.java", "*.pyi",
	"*.pyx", "*.c", "*.cc", "*.cpp", "*.h", "*.md", "*.rst", "*Dockerfile",
	"*Makefile", "*.yaml", "*.yml",
}

// DefaultExclude is the exclude pattern set used when neither flags nor
// configuration name any.
var DefaultExclude = []string{
	"assets/*", "data/*", "images/*", "public/*", "static/*", "temp/*",
	"*docs/*", "*venv/*", "*.venv/*", "*test*", "*tests/*", "*examples/*",
	"v1/*", "*dist/*", "*build/*", "*experimental/*", "*deprecated/*",
	"*misc/*", "*legacy/*", ".git/*", ".github/*", ".next/*", ".vscode/*",
	"*obj/*", "*bin/*", "*node_modules/*", "*.log",
}

// Options selects which repository files become tutorial input. An empty
// Include list includes everything; MaxFileSize <= 0 means no size cap.
type Options struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// Filter applies Options to candidate paths. Paths are matched with forward
// slashes regardless of platform.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
	maxSize int64
}

// NewFilter compiles the Options' patterns.
func NewFilter(opts Options) (*Filter, error) {
	include, err := compilePatterns(opts.Include)
	if err != nil {
		return nil, fmt.Errorf("include pattern: %w", err)
	}
	exclude, err := compilePatterns(opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude pattern: %w", err)
	}
	return &Filter{include: include, exclude: exclude, maxSize: opts.MaxFileSize}, nil
}

// Allow reports whether the relative path with the given size passes the
// filter. Include patterns match against the base name or the whole path;
// exclude patterns match against the whole path.
func (f *Filter) Allow(relPath string, size int64) bool {
	if f.TooLarge(size) {
		return false
	}
	if !f.included(relPath) {
		return false
	}
	return !matchAny(f.exclude, relPath)
}

// TooLarge reports whether size exceeds the configured maximum.
func (f *Filter) TooLarge(size int64) bool {
	return f.maxSize > 0 && size > f.maxSize
}

// ExcludesDir reports whether everything under the directory is excluded,
// so walkers can skip it without descending. A directory is skippable when
// an exclude pattern already matches its path with a trailing separator.
func (f *Filter) ExcludesDir(relPath string) bool {
	return matchAny(f.exclude, relPath+"/")
}

func (f *Filter) included(relPath string) bool {
	if len(f.include) == 0 {
		return true
	}
	return matchAny(f.include, path.Base(relPath)) || matchAny(f.include, relPath)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := translate(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// translate converts a glob pattern to an anchored regexp. `*` matches any
// run of characters including path separators, `?` exactly one character,
// and `[...]` a character class (`[!...]` negated). An unterminated class
// matches a literal "[". These are fnmatch semantics, deliberately looser
// than path.Match: "*tests/*" must match "pkg/tests/util.go".
func translate(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				sb.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : j]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + class + "]")
			i = j
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
