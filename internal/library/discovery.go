package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smy-101/skill-linker/internal/constants"
	"github.com/smy-101/skill-linker/internal/types"
)

// ResolveSkillSet decides which directories of repo are skills.
//
// A subpath always wins. Otherwise a repository with a non-empty skills/
// directory is a multi-skill repository and every subdirectory of skills/ is
// a skill, in listing order. Anything else is a single-skill repository.
func ResolveSkillSet(repo *types.MaterializedRepository) ([]types.SkillReference, error) {
	if repo.Subpath != "" {
		return []types.SkillReference{{Path: repo.RequestedSkillPath}}, nil
	}

	skillsDir := filepath.Join(repo.RootPath, constants.SkillsDirName)
	if isRealDir(skillsDir) {
		names, err := readDirectories(skillsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read skills directory: %w", err)
		}
		if len(names) == 0 {
			return []types.SkillReference{{Path: repo.RootPath}}, nil
		}

		skills := make([]types.SkillReference, 0, len(names))
		for _, name := range names {
			skills = append(skills, types.SkillReference{Path: filepath.Join(skillsDir, name)})
		}
		return skills, nil
	}

	return []types.SkillReference{{Path: repo.RequestedSkillPath}}, nil
}

// ListDirectories returns the names of the real directories directly inside
// path. Symlinks and files are excluded. A missing or unreadable path yields
// an empty list.
func ListDirectories(path string) []string {
	names, err := readDirectories(path)
	if err != nil {
		return []string{}
	}
	return names
}

func readDirectories(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, entry := range entries {
		if entry.Type().IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// ListRepositories scans the two-level <owner>/<name> layout of the library.
// A missing root yields an empty list.
func ListRepositories(root string) ([]types.RepositoryEntry, error) {
	repos := []types.RepositoryEntry{}
	if !IsDir(root) {
		return repos, nil
	}

	for _, owner := range ListDirectories(root) {
		ownerPath := filepath.Join(root, owner)
		for _, name := range ListDirectories(ownerPath) {
			repoPath := filepath.Join(ownerPath, name)
			repos = append(repos, types.RepositoryEntry{
				DisplayName:  owner + "/" + name,
				Path:         repoPath,
				Owner:        owner,
				Name:         name,
				HasSkillsDir: IsDir(filepath.Join(repoPath, constants.SkillsDirName)),
			})
		}
	}
	return repos, nil
}

// FindRepository looks up a repository by "owner/name", ignoring case.
func FindRepository(repos []types.RepositoryEntry, fullName string) (types.RepositoryEntry, bool) {
	for _, repo := range repos {
		if strings.EqualFold(repo.DisplayName, fullName) {
			return repo, true
		}
	}
	return types.RepositoryEntry{}, false
}

// IsDir reports whether path exists and is a directory, following symlinks.
func IsDir(path string) bool {
	return isDir(path)
}

func isRealDir(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
