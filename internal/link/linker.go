// Package link plans and creates the symlinks that expose library skills to
// each agent's skills directory.
package link

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/types"
)

// Policy decides what happens when something already exists at a link path.
type Policy int

const (
	NeverOverwrite Policy = iota
	AlwaysOverwrite
	AskPerEntry
)

func (p Policy) String() string {
	switch p {
	case NeverOverwrite:
		return "never"
	case AlwaysOverwrite:
		return "always"
	case AskPerEntry:
		return "ask"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// OverwriteDecider answers the AskPerEntry question for one path.
type OverwriteDecider interface {
	ConfirmOverwrite(path string) (bool, error)
}

// Linker creates symlinks for plan entries.
type Linker struct {
	decider OverwriteDecider
	logger  logger.Logger
}

// LinkerOption configures a Linker.
type LinkerOption func(*Linker)

// WithDecider sets the decider consulted under AskPerEntry.
func WithDecider(d OverwriteDecider) LinkerOption {
	return func(l *Linker) {
		l.decider = d
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) LinkerOption {
	return func(l *Linker) {
		l.logger = lg
	}
}

// NewLinker creates a new Linker instance with a NoOpLogger.
func NewLinker(opts ...LinkerOption) *Linker {
	l := &Linker{
		logger: logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Execute links a single entry. Failures are reported in the result, never
// returned, so a batch can continue past them.
func (l *Linker) Execute(ctx context.Context, entry types.PlanEntry, policy Policy) types.LinkResult {
	result := types.LinkResult{Entry: entry}

	select {
	case <-ctx.Done():
		return failed(result, &LinkError{
			Type:    ErrorTypeCancelled,
			Path:    entry.LinkPath,
			Message: "operation cancelled",
			Err:     ctx.Err(),
		})
	default:
	}

	if err := os.MkdirAll(entry.Target.BaseDir, 0755); err != nil {
		return failed(result, &LinkError{
			Type:    ErrorTypeFilesystem,
			Path:    entry.Target.BaseDir,
			Message: "failed to create target directory",
			Err:     err,
		})
	}

	info, exists, err := lstat(entry.LinkPath)
	if err != nil {
		return failed(result, &LinkError{
			Type:    ErrorTypeFilesystem,
			Path:    entry.LinkPath,
			Message: "failed to check target path existence",
			Err:     err,
		})
	}

	if exists && isSkillItself(info, entry.Skill.Path) {
		l.logger.Debug("Skill already in place", "path", entry.LinkPath)
		result.Status = types.LinkStatusSkipped
		return result
	}

	if exists {
		overwrite, err := l.shouldOverwrite(entry.LinkPath, policy)
		if err != nil {
			return failed(result, &LinkError{
				Type:    ErrorTypeLinkFailure,
				Path:    entry.LinkPath,
				Message: "failed to confirm overwrite",
				Err:     err,
			})
		}
		if !overwrite {
			l.logger.Debug("Skipping existing path", "path", entry.LinkPath)
			result.Status = types.LinkStatusSkipped
			return result
		}

		if err := remove(entry.LinkPath, info); err != nil {
			return failed(result, &LinkError{
				Type:    ErrorTypeLinkFailure,
				Path:    entry.LinkPath,
				Message: "failed to remove existing path",
				Err:     err,
			})
		}
		result.Status = types.LinkStatusOverwritten
	} else {
		result.Status = types.LinkStatusLinked
	}

	if err := os.Symlink(entry.Skill.Path, entry.LinkPath); err != nil {
		return failed(result, &LinkError{
			Type:    ErrorTypeLinkFailure,
			Path:    entry.LinkPath,
			Message: "failed to create symlink",
			Err:     err,
		})
	}

	l.logger.Info("Linked skill", "skill", entry.Skill.Name(), "path", entry.LinkPath, "status", result.Status.String())
	return result
}

// ExecuteAll rejects plans where two skills share a link path, then executes
// every entry in order. It returns one result per entry. Once ctx is
// cancelled the remaining entries are marked failed without touching disk.
func (l *Linker) ExecuteAll(ctx context.Context, plan []types.PlanEntry, policy Policy) ([]types.LinkResult, error) {
	if collisions := Collisions(plan); len(collisions) > 0 {
		return nil, collisionError(collisions)
	}

	results := make([]types.LinkResult, 0, len(plan))
	for _, entry := range plan {
		results = append(results, l.Execute(ctx, entry, policy))
	}
	return results, nil
}

func (l *Linker) shouldOverwrite(path string, policy Policy) (bool, error) {
	switch policy {
	case AlwaysOverwrite:
		return true, nil
	case AskPerEntry:
		if l.decider == nil {
			return false, nil
		}
		return l.decider.ConfirmOverwrite(path)
	default:
		return false, nil
	}
}

func collisionError(collisions []Collision) error {
	var b strings.Builder
	for _, c := range collisions {
		fmt.Fprintf(&b, "\n  %s <- %s", c.LinkPath, strings.Join(c.Skills, ", "))
	}
	return &LinkError{
		Type:    ErrorTypeCollision,
		Path:    collisions[0].LinkPath,
		Message: fmt.Sprintf("%d link path(s) would be claimed by more than one skill:%s", len(collisions), b.String()),
	}
}

func failed(result types.LinkResult, err error) types.LinkResult {
	result.Status = types.LinkStatusFailed
	result.Err = err
	return result
}

// lstat checks if a path exists using os.Lstat so dangling symlinks count.
func lstat(path string) (os.FileInfo, bool, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

// isSkillItself reports whether the existing non-symlink entry at a link path
// is the skill directory, reached directly or through a symlinked parent.
func isSkillItself(info os.FileInfo, skillPath string) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	skill, err := os.Stat(skillPath)
	if err != nil {
		return false
	}
	return os.SameFile(info, skill)
}

// remove deletes a symlink or file, or a real directory with its contents.
// The target of a symlink is never touched.
func remove(path string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink == 0 && info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}
