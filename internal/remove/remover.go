// Package remove deletes cached repositories from the skill library.
// Symlinks pointing into a removed repository are left dangling; prune
// cleans them up.
package remove

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smy-101/skill-linker/internal/types"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(title string) (bool, error)
}

// RemoveRepository deletes repo from the library rooted at root. When c is
// non-nil the user must confirm first. The owner directory is removed too
// once it is empty.
func RemoveRepository(root string, repo types.RepositoryEntry, c Confirmer) error {
	if err := checkInLibrary(root, repo.Path); err != nil {
		return err
	}

	if c != nil {
		confirmed, err := c.Confirm(fmt.Sprintf("Are you sure you want to remove '%s'?", repo.DisplayName))
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrCancelled
		}
	}

	if err := removeRepositoryDirectory(repo.Path); err != nil {
		return err
	}

	owner := filepath.Dir(repo.Path)
	if entries, err := os.ReadDir(owner); err == nil && len(entries) == 0 {
		_ = os.Remove(owner)
	}
	return nil
}

// removeRepositoryDirectory deletes the repository directory at the given path.
func removeRepositoryDirectory(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return &RemoveError{Type: ErrorTypeFilesystem, Path: path, Message: "failed to remove repository directory", Err: err}
	}
	return nil
}

// checkInLibrary rejects paths that are not exactly two levels below root.
func checkInLibrary(root, path string) error {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || len(strings.Split(filepath.ToSlash(rel), "/")) != 2 {
		return &RemoveError{Type: ErrorTypeOutsideLibrary, Path: path, Message: "refusing to remove path outside the library", Err: err}
	}
	return nil
}
