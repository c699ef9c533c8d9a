package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RepositoryLocator 远程仓库定位信息
type RepositoryLocator struct {
	Owner    string
	Name     string
	Ref      string
	Subpath  string
	CloneURL string
	// ExplicitRef is set when the ref came from a /tree/<ref> segment.
	ExplicitRef bool
}

// FullName returns "owner/name".
func (l *RepositoryLocator) FullName() string {
	return l.Owner + "/" + l.Name
}

// MaterializedRepository 本地缓存的仓库
type MaterializedRepository struct {
	RootPath           string
	RequestedSkillPath string
	Subpath            string
	AlreadyPresent     bool
}

// RepositoryEntry is one owner/name directory found under the library root.
type RepositoryEntry struct {
	DisplayName  string `json:"name"`
	Path         string `json:"path"`
	Owner        string `json:"owner"`
	Name         string `json:"repo"`
	HasSkillsDir bool   `json:"hasSkillsDir"`
}

// SkillReference identifies a skill by its directory.
type SkillReference struct {
	Path string
}

// Name returns the directory name used for the link.
func (s SkillReference) Name() string {
	return filepath.Base(s.Path)
}

// SkillInfo 技能展示信息
type SkillInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// Agent describes a coding agent and where it looks for skills.
type Agent struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ProjectDir string   `json:"projectDir"`
	GlobalDir  string   `json:"globalDir"`
	Aliases    []string `json:"aliases,omitempty"`
}

// Scope 链接范围
type Scope int

const (
	ScopeProject Scope = iota
	ScopeGlobal
	ScopeBoth
)

func (s Scope) String() string {
	switch s {
	case ScopeProject:
		return "project"
	case ScopeGlobal:
		return "global"
	case ScopeBoth:
		return "both"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ScopeError is returned when a scope value is outside project/global/both.
type ScopeError struct {
	Value string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("invalid scope: %s. Use: project, global, or both", e.Value)
}

// ParseScope parses a scope name case-insensitively.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project":
		return ScopeProject, nil
	case "global":
		return ScopeGlobal, nil
	case "both":
		return ScopeBoth, nil
	default:
		return 0, &ScopeError{Value: s}
	}
}

// LinkTarget is a single directory a skill gets linked into.
type LinkTarget struct {
	Agent   Agent
	Scope   Scope
	BaseDir string
}

// PlanEntry pairs a skill with the target it will be linked into.
type PlanEntry struct {
	Skill    SkillReference
	Target   LinkTarget
	LinkPath string
}

// LinkStatus 链接结果状态
type LinkStatus int

const (
	LinkStatusLinked LinkStatus = iota
	LinkStatusSkipped
	LinkStatusOverwritten
	LinkStatusFailed
)

func (s LinkStatus) String() string {
	switch s {
	case LinkStatusLinked:
		return "linked"
	case LinkStatusSkipped:
		return "skipped"
	case LinkStatusOverwritten:
		return "overwritten"
	case LinkStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LinkResult is the outcome of linking one plan entry.
type LinkResult struct {
	Entry  PlanEntry
	Status LinkStatus
	Err    error
}
