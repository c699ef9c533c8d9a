// Package update refreshes repositories already cached in the skill library.
//
// Each repository is refreshed in place by the configured fetcher (a git
// pull or an archive re-download). Refreshes run concurrently with a small
// limit; one failing repository never stops the others.
package update

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smy-101/skill-linker/internal/library"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/types"
)

const maxConcurrentUpdates = 3 // Limit concurrent pulls to avoid hammering the remote

// Refresher brings one cached repository up to date.
type Refresher interface {
	Refresh(ctx context.Context, path string) error
}

type UpdateStatus int

const (
	UpdateStatusUpdated UpdateStatus = iota
	UpdateStatusFailed
	UpdateStatusSkipped
)

// RepositoryResult is the outcome for one repository.
type RepositoryResult struct {
	Repository types.RepositoryEntry
	Status     UpdateStatus
	Err        error
}

// UpdateStats contains statistics about bulk update operations.
type UpdateStats struct {
	Total    int
	Updated  int
	Skipped  int
	Failed   int
	Duration time.Duration
	Results  []RepositoryResult
}

type Updater struct {
	refresher Refresher
	logger    logger.Logger
}

// NewUpdater creates an Updater with a no-op logger.
func NewUpdater(r Refresher) *Updater {
	return &Updater{
		refresher: r,
		logger:    logger.NoOpLogger{},
	}
}

// SetLogger sets the logger for the updater.
func (u *Updater) SetLogger(l logger.Logger) {
	u.logger = l
}

// Select returns every repository under root, or only the one named
// owner/name when name is set.
func Select(root, name string) ([]types.RepositoryEntry, error) {
	repos, err := library.ListRepositories(root)
	if err != nil {
		return nil, &UpdateError{Type: UpdateErrorTypeRefresh, Message: "failed to read library", Err: err}
	}
	if name == "" {
		return repos, nil
	}
	repo, ok := library.FindRepository(repos, name)
	if !ok {
		return nil, &UpdateError{Type: UpdateErrorTypeNotFound, Message: "repository not found", Repository: name}
	}
	return []types.RepositoryEntry{repo}, nil
}

// UpdateAll refreshes repos and returns per-repository results in the
// order of repos. Repositories not yet started when ctx is cancelled are
// reported as skipped.
func (u *Updater) UpdateAll(ctx context.Context, repos []types.RepositoryEntry) *UpdateStats {
	start := time.Now()
	stats := &UpdateStats{
		Total:   len(repos),
		Results: make([]RepositoryResult, len(repos)),
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentUpdates)

	for i, repo := range repos {
		wg.Add(1)
		go func(i int, r types.RepositoryEntry) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			stats.Results[i] = u.update(ctx, r)
		}(i, repo)
	}
	wg.Wait()

	for _, r := range stats.Results {
		switch r.Status {
		case UpdateStatusUpdated:
			stats.Updated++
		case UpdateStatusFailed:
			stats.Failed++
		case UpdateStatusSkipped:
			stats.Skipped++
		}
	}
	stats.Duration = time.Since(start)
	return stats
}

func (u *Updater) update(ctx context.Context, repo types.RepositoryEntry) RepositoryResult {
	if err := ctx.Err(); err != nil {
		return RepositoryResult{Repository: repo, Status: UpdateStatusSkipped, Err: err}
	}

	u.logger.Debug("Refreshing repository", "repo", repo.DisplayName, "path", repo.Path)
	if err := u.refresher.Refresh(ctx, repo.Path); err != nil {
		u.logger.Error("Failed to refresh repository", err, "repo", repo.DisplayName)
		return RepositoryResult{
			Repository: repo,
			Status:     UpdateStatusFailed,
			Err:        &UpdateError{Type: UpdateErrorTypeRefresh, Message: "failed to update", Repository: repo.DisplayName, Err: err},
		}
	}
	return RepositoryResult{Repository: repo, Status: UpdateStatusUpdated}
}

// FailedNames returns the names of the repositories that failed, sorted.
func (s *UpdateStats) FailedNames() []string {
	var names []string
	for _, r := range s.Results {
		if r.Status == UpdateStatusFailed {
			names = append(names, r.Repository.DisplayName)
		}
	}
	sort.Strings(names)
	return names
}
