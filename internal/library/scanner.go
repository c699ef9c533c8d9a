package library

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/smy-101/skill-linker/internal/constants"
	"github.com/smy-101/skill-linker/internal/types"
	"gopkg.in/yaml.v3"
)

// SkillMetadata is the optional YAML frontmatter of a SKILL.md file.
type SkillMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ListSkills enumerates the skills of a cached repository. A repository
// without skills/ is reported as one skill named after the repository.
func ListSkills(repo types.RepositoryEntry) []types.SkillInfo {
	if !repo.HasSkillsDir {
		return []types.SkillInfo{describe(repo.Name, repo.Path)}
	}

	skillsDir := filepath.Join(repo.Path, constants.SkillsDirName)
	skills := []types.SkillInfo{}
	for _, name := range ListDirectories(skillsDir) {
		skills = append(skills, describe(name, filepath.Join(skillsDir, name)))
	}
	return skills
}

func describe(name, path string) types.SkillInfo {
	info := types.SkillInfo{Name: name, Path: path}
	if meta, err := ParseSkillMd(filepath.Join(path, constants.SkillFileName)); err == nil {
		info.Description = meta.Description
	}
	return info
}

// ParseSkillMd reads the frontmatter block delimited by "---" lines at the
// top of a SKILL.md file.
func ParseSkillMd(path string) (*SkillMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file: %s", path)
	}
	if strings.TrimSpace(scanner.Text()) != "---" {
		return nil, fmt.Errorf("no frontmatter in %s", path)
	}

	var frontmatter strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			break
		}
		frontmatter.WriteString(line)
		frontmatter.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var meta SkillMetadata
	if err := yaml.Unmarshal([]byte(frontmatter.String()), &meta); err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", path, err)
	}
	return &meta, nil
}

// FilterSkills keeps the skills whose directory name matches any of the
// glob patterns, in their original order. No patterns keeps everything.
func FilterSkills(skills []types.SkillReference, patterns []string) ([]types.SkillReference, error) {
	if len(patterns) == 0 {
		return skills, nil
	}

	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid skill pattern: %q", p)
		}
	}

	filtered := []types.SkillReference{}
	for _, skill := range skills {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, skill.Name()); ok {
				filtered = append(filtered, skill)
				break
			}
		}
	}
	return filtered, nil
}
