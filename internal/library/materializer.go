// Package library manages the local skill library: the cache of cloned
// repositories under the library root and the skills found inside them.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smy-101/skill-linker/internal/fetch"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/types"
)

// Fetcher downloads a repository into dest and brings an existing copy up
// to date.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string, opts fetch.Options) error
	Refresh(ctx context.Context, dest string) error
}

// Materializer ensures a repository exists under <root>/<owner>/<name>.
type Materializer struct {
	root    string
	fetcher Fetcher
	logger  logger.Logger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Materializer) {
		m.logger = l
	}
}

// NewMaterializer 创建仓库物化器
func NewMaterializer(root string, fetcher Fetcher, opts ...Option) *Materializer {
	m := &Materializer{
		root:    root,
		fetcher: fetcher,
		logger:  logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the library root.
func (m *Materializer) Root() string {
	return m.root
}

// Path returns the cache directory for loc.
func (m *Materializer) Path(loc *types.RepositoryLocator) string {
	return filepath.Join(m.root, loc.Owner, loc.Name)
}

// Materialize clones loc into the library unless a directory already exists
// at its cache path. An existing copy is returned as is, even when it was
// cloned at a different ref.
func (m *Materializer) Materialize(ctx context.Context, loc *types.RepositoryLocator) (*types.MaterializedRepository, error) {
	target := m.Path(loc)
	repo := &types.MaterializedRepository{
		RootPath:           target,
		RequestedSkillPath: target,
		Subpath:            loc.Subpath,
	}
	if loc.Subpath != "" {
		repo.RequestedSkillPath = filepath.Join(target, filepath.FromSlash(loc.Subpath))
	}

	if isDir(target) {
		m.logger.Debug("Repository already cached", "path", target)
		repo.AlreadyPresent = true
		return repo, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("failed to create owner directory: %w", err)
	}

	opts := fetch.Options{Shallow: true}
	if loc.ExplicitRef {
		opts.Ref = loc.Ref
	}

	m.logger.Info("Fetching repository", "url", loc.CloneURL, "path", target)
	if err := m.fetcher.Fetch(ctx, loc.CloneURL, target, opts); err != nil {
		return nil, err
	}

	return repo, nil
}

// Refresh updates an already cached repository.
func (m *Materializer) Refresh(ctx context.Context, path string) error {
	m.logger.Info("Refreshing repository", "path", path)
	return m.fetcher.Refresh(ctx, path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
