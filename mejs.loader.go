package mejs

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// File is a template source discovered by a Loader.
type File struct {
	Path     string // location of the source, also used for error messages
	Base     string // directory the template name is relative to
	Contents []byte
}

// Name returns the virtual path of the file: Path relative to Base with
// forward slashes, the extension dropped and no leading "./" or "/".
func (f File) Name() string {
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil {
		rel = f.Path
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	for strings.HasPrefix(rel, "./") {
		rel = rel[2:]
	}
	return strings.TrimLeft(rel, PathSeparator)
}

// Source returns the contents as text without a leading UTF-8 byte order mark
func (f File) Source() string {
	return strings.TrimPrefix(string(f.Contents), UTF8BOM)
}

// Loader discovers template sources matching a pattern.
type Loader interface {
	Load(ctx context.Context, pattern string) ([]File, error)
}

// GlobLoader reads template files matching a doublestar pattern such as
// "views/**/*.html".
type GlobLoader struct {
	// Base is the directory template names are relative to. When empty it
	// is derived from the pattern and its matches.
	Base string
}

// Load returns the matching files sorted by path. A pattern without matches
// is an error.
func (l *GlobLoader) Load(ctx context.Context, pattern string) ([]File, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, NewLoaderError(ErrMsgLoadFailed, pattern, err)
	}
	if len(matches) == 0 {
		return nil, NewNoMatchError(pattern)
	}
	sort.Strings(matches)

	base := l.Base
	if base == "" {
		base = globBase(pattern, matches)
	}

	files := make([]File, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		contents, err := os.ReadFile(match)
		if err != nil {
			return nil, NewReadError(pattern, match, err)
		}
		files = append(files, File{Path: match, Base: base, Contents: contents})
	}
	return files, nil
}

// globBase returns the deepest directory shared by the pattern and all of
// its matches.
func globBase(pattern string, matches []string) string {
	prefix := filepath.ToSlash(pattern)
	for _, m := range matches {
		prefix = commonPrefix(prefix, filepath.ToSlash(m))
	}
	if strings.HasSuffix(prefix, PathSeparator) {
		prefix = strings.TrimSuffix(prefix, PathSeparator)
	} else {
		prefix = path.Dir(prefix)
	}
	if prefix == "" {
		prefix = "."
	}
	return filepath.FromSlash(prefix)
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// CompileFiles compiles every file into a new registry under File.Name().
// The first file that fails to compile aborts the whole batch.
func CompileFiles(files []File, opts ...Option) (*Registry, error) {
	return compileFiles(files, newConfig(opts))
}

func compileFiles(files []File, c *config) (*Registry, error) {
	reg := newRegistry(c)
	for _, f := range files {
		if err := reg.AddSource(f.Name(), f.Source(), false); err != nil {
			return nil, err
		}
	}
	c.logger.Debug(LogMsgFilesLoaded, zap.Int(LogFieldCount, len(files)))
	return reg, nil
}

// NewFromGlob compiles every file matching pattern into a new registry.
// WithBase overrides the directory template names are relative to.
func NewFromGlob(pattern string, opts ...Option) (*Registry, error) {
	c := newConfig(opts)
	return newFromLoader(context.Background(), &GlobLoader{Base: c.base}, pattern, c)
}

// NewFromLoader compiles every template the loader returns for pattern
// into a new registry.
func NewFromLoader(ctx context.Context, loader Loader, pattern string, opts ...Option) (*Registry, error) {
	return newFromLoader(ctx, loader, pattern, newConfig(opts))
}

func newFromLoader(ctx context.Context, loader Loader, pattern string, c *config) (*Registry, error) {
	files, err := loader.Load(ctx, pattern)
	if err != nil {
		return nil, err
	}
	c.logger.Debug(LogMsgFilesMatched,
		zap.String(LogFieldPattern, pattern),
		zap.Int(LogFieldCount, len(files)))
	return compileFiles(files, c)
}
