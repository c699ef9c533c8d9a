package link

import (
	"path/filepath"

	"github.com/smy-101/skill-linker/internal/types"
)

// Selection is one agent chosen by the user together with a scope.
type Selection struct {
	Agent types.Agent
	Scope types.Scope
}

// Targets expands s into concrete link targets. ScopeBoth yields the project
// target first, then the global one.
func (s Selection) Targets(cwd string) []types.LinkTarget {
	project := types.LinkTarget{
		Agent:   s.Agent,
		Scope:   types.ScopeProject,
		BaseDir: filepath.Join(cwd, s.Agent.ProjectDir),
	}
	global := types.LinkTarget{
		Agent:   s.Agent,
		Scope:   types.ScopeGlobal,
		BaseDir: s.Agent.GlobalDir,
	}

	switch s.Scope {
	case types.ScopeProject:
		return []types.LinkTarget{project}
	case types.ScopeGlobal:
		return []types.LinkTarget{global}
	default:
		return []types.LinkTarget{project, global}
	}
}

// Plan builds the cross product of skills and targets. Entries are ordered by
// selection, then target, then skill. The plan is pure data: nothing on disk
// is inspected.
func Plan(skills []types.SkillReference, selections []Selection, cwd string) []types.PlanEntry {
	var plan []types.PlanEntry
	for _, sel := range selections {
		for _, target := range sel.Targets(cwd) {
			for _, skill := range skills {
				plan = append(plan, types.PlanEntry{
					Skill:    skill,
					Target:   target,
					LinkPath: filepath.Join(target.BaseDir, skill.Name()),
				})
			}
		}
	}
	return plan
}

// Collision is a link path claimed by more than one distinct skill.
type Collision struct {
	LinkPath string
	Skills   []string
}

// Collisions reports every link path that two different skills would write.
// Repeating the same skill at the same path is not a collision.
func Collisions(plan []types.PlanEntry) []Collision {
	claims := make(map[string][]string)
	var order []string

	for _, entry := range plan {
		owners, seen := claims[entry.LinkPath]
		if !seen {
			order = append(order, entry.LinkPath)
		}
		if !contains(owners, entry.Skill.Path) {
			claims[entry.LinkPath] = append(owners, entry.Skill.Path)
		}
	}

	var collisions []Collision
	for _, path := range order {
		if owners := claims[path]; len(owners) > 1 {
			collisions = append(collisions, Collision{LinkPath: path, Skills: owners})
		}
	}
	return collisions
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
