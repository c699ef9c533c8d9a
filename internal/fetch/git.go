package fetch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/smy-101/skill-linker/internal/logger"
)

// GitFetcher clones and pulls repositories with the git command-line client.
// No timeout is applied; cancellation only happens through ctx.
type GitFetcher struct {
	gitPath string
	logger  logger.Logger
}

// GitOption configures a GitFetcher.
type GitOption func(*GitFetcher)

// WithGitPath overrides the git executable.
func WithGitPath(path string) GitOption {
	return func(g *GitFetcher) {
		g.gitPath = path
	}
}

// WithGitLogger sets the logger.
func WithGitLogger(l logger.Logger) GitOption {
	return func(g *GitFetcher) {
		g.logger = l
	}
}

// NewGitFetcher creates a GitFetcher using "git" from PATH.
func NewGitFetcher(opts ...GitOption) *GitFetcher {
	g := &GitFetcher{
		gitPath: "git",
		logger:  logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch clones url into dest.
func (g *GitFetcher) Fetch(ctx context.Context, url, dest string, opts Options) error {
	args := CloneArgs(url, dest, opts)

	g.logger.Debug("Running git", "args", strings.Join(args, " "))
	output, err := g.run(ctx, args...)
	if err != nil {
		kind := classifyOutput(output)
		if ctx.Err() != nil {
			kind = KindCancelled
		}
		return &FetchError{
			Type:   ErrorTypeFetch,
			Kind:   kind,
			URL:    url,
			Path:   dest,
			Output: strings.TrimSpace(output),
			Hints:  hintsFor(kind, url),
			Err:    err,
		}
	}

	g.logger.Info("Cloned repository", "url", url, "path", dest)
	return nil
}

// Refresh runs "git pull --rebase" inside dest.
func (g *GitFetcher) Refresh(ctx context.Context, dest string) error {
	output, err := g.run(ctx, "-C", dest, "pull", "--rebase")
	if err != nil {
		kind := classifyOutput(output)
		if ctx.Err() != nil {
			kind = KindCancelled
		}
		return &FetchError{
			Type:   ErrorTypeRefresh,
			Kind:   kind,
			Path:   dest,
			Output: strings.TrimSpace(output),
			Hints:  hintsFor(kind, ""),
			Err:    err,
		}
	}

	g.logger.Info("Refreshed repository", "path", dest)
	return nil
}

func (g *GitFetcher) run(ctx context.Context, args ...string) (string, error) {
	if _, err := exec.LookPath(g.gitPath); err != nil {
		return "", errors.New("git executable not found in PATH")
	}

	cmd := exec.CommandContext(ctx, g.gitPath, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	return string(output), err
}

// CloneArgs builds the git arguments for a clone.
func CloneArgs(url, dest string, opts Options) []string {
	args := []string{"clone"}
	if opts.Shallow {
		args = append(args, "--depth", "1")
	}
	if opts.Ref != "" {
		args = append(args, "--branch", opts.Ref)
	}
	return append(args, url, dest)
}
