// Package tidy removes symlinks left dangling after repositories are deleted
// from the skill library.
package tidy

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/types"
)

const (
	// maxWorkers limits the number of concurrent goroutines during cleanup operations.
	maxWorkers = 10
)

// CleanupReport summarizes the results of a tidy operation.
type CleanupReport struct {
	// DirsScanned is the number of existing agent skills directories read.
	DirsScanned int
	// LinksChecked is the number of symlinks pointing into the library.
	LinksChecked int
	// Orphaned lists dangling symlinks, sorted. In a dry run nothing is removed.
	Orphaned []string
	// Removed is the count of symlinks actually deleted.
	Removed int
}

// Tidier finds symlinks inside agent skills directories that point into the
// library root at a path that no longer exists. Links pointing anywhere else
// were not created by this tool and are left alone.
type Tidier struct {
	libraryRoot string
	logger      logger.Logger
	remove      func(string) error
}

// NewTidier creates a new Tidier instance with a no-op logger.
func NewTidier(libraryRoot string) *Tidier {
	return &Tidier{
		libraryRoot: filepath.Clean(libraryRoot),
		logger:      logger.NoOpLogger{},
		remove:      os.Remove,
	}
}

// NewTidierWithLogger creates a new Tidier with a custom logger for observability.
func NewTidierWithLogger(libraryRoot string, l logger.Logger) *Tidier {
	t := NewTidier(libraryRoot)
	t.logger = l
	return t
}

// Dirs returns the project and global skills directories of agents,
// without duplicates, in catalog order.
func Dirs(agents []types.Agent, cwd string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, a := range agents {
		add(filepath.Join(cwd, a.ProjectDir))
		add(a.GlobalDir)
	}
	return dirs
}

// Tidy scans dirs with a bounded worker pool. With dryRun set the orphans are
// reported but kept. Symlinks that could not be removed are collected into
// the returned error, which matches ErrFilesystem, alongside a full report.
func (t *Tidier) Tidy(ctx context.Context, dirs []string, dryRun bool) (*CleanupReport, error) {
	report := &CleanupReport{}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures *multierror.Error

	sem := make(chan struct{}, maxWorkers)

	for _, dir := range dirs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return report, &TidyError{
				Type:    ErrorTypeCancelled,
				Message: "operation cancelled",
				Err:     ctx.Err(),
			}
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(d string) {
			defer func() { <-sem; wg.Done() }()

			scanned, checked, orphans := t.scanDir(d)

			removed := 0
			var errs []error
			if !dryRun {
				for _, p := range orphans {
					if err := t.remove(p); err != nil {
						t.logger.Error("Failed to remove orphaned symlink", err, "path", p)
						errs = append(errs, &TidyError{
							Type:    ErrorTypeFilesystem,
							Message: "failed to remove " + p,
							Err:     err,
						})
						continue
					}
					t.logger.Info("Removed orphaned symlink", "path", p)
					removed++
				}
			}

			mu.Lock()
			if scanned {
				report.DirsScanned++
			}
			report.LinksChecked += checked
			report.Orphaned = append(report.Orphaned, orphans...)
			report.Removed += removed
			failures = multierror.Append(failures, errs...)
			mu.Unlock()
		}(dir)
	}

	wg.Wait()
	sort.Strings(report.Orphaned)
	return report, failures.ErrorOrNil()
}

// scanDir returns whether dir could be read, how many symlinks into the
// library it holds, and which of those are dangling.
func (t *Tidier) scanDir(dir string) (bool, int, []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Warn("Failed to read skills directory", "path", dir, "error", err)
		}
		return false, 0, nil
	}

	checked := 0
	var orphans []string
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		linkPath := filepath.Join(dir, entry.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			t.logger.Warn("Failed to read symlink", "path", linkPath, "error", err)
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		target = filepath.Clean(target)

		if !t.inLibrary(target) {
			continue
		}
		checked++

		if _, err := os.Stat(target); os.IsNotExist(err) {
			t.logger.Debug("Found orphaned symlink", "path", linkPath, "target", target)
			orphans = append(orphans, linkPath)
		}
	}
	return true, checked, orphans
}

func (t *Tidier) inLibrary(path string) bool {
	return path == t.libraryRoot || strings.HasPrefix(path, t.libraryRoot+string(filepath.Separator))
}
