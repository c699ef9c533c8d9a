// Package install runs the install workflow: resolve the skills to link,
// choose agents and scope, then link every skill into every target.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smy-101/skill-linker/internal/agents"
	"github.com/smy-101/skill-linker/internal/library"
	"github.com/smy-101/skill-linker/internal/link"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/presenter"
	"github.com/smy-101/skill-linker/internal/prompt"
	"github.com/smy-101/skill-linker/internal/source"
	"github.com/smy-101/skill-linker/internal/types"
)

// Request holds the user's choices for one install.
type Request struct {
	// From is a repository locator to fetch skills from.
	From string
	// Skill is a local skill directory, used when From is empty.
	Skill string
	// Agents are names or aliases. Empty means ask or detect.
	Agents []string
	// Scope is project, global or both. Empty means ask or use the default.
	Scope string
	// Yes overwrites existing links and refreshes cached repositories.
	Yes bool
	// Only keeps skills whose directory name matches one of these globs.
	Only []string
	// Refresh overrides the configured refresh policy when set.
	Refresh RefreshPolicy
	// Cwd is the project directory for project-scope links.
	Cwd string
}

// Report is the outcome of a completed install.
type Report struct {
	Repository *types.MaterializedRepository
	Skills     []types.SkillReference
	Agents     []types.Agent
	Scope      types.Scope
	Results    []types.LinkResult
}

// Counts tallies the results by status.
func (r *Report) Counts() (linked, overwritten, skipped, failed int) {
	for _, res := range r.Results {
		switch res.Status {
		case types.LinkStatusLinked:
			linked++
		case types.LinkStatusOverwritten:
			overwritten++
		case types.LinkStatusSkipped:
			skipped++
		case types.LinkStatusFailed:
			failed++
		}
	}
	return
}

// Config wires an Installer to its collaborators.
type Config struct {
	Catalog      *agents.Catalog
	Materializer *library.Materializer
	Presenter    presenter.Presenter
	Decider      prompt.Decider
	Logger       logger.Logger
	// Interactive enables prompts. Without it every choice comes from the
	// request, the configuration or detection.
	Interactive   bool
	DefaultScope  types.Scope
	RefreshPolicy RefreshPolicy
}

// Installer 安装流程编排
type Installer struct {
	cfg Config
}

// NewInstaller creates an Installer. A nil Logger becomes a NoOpLogger and a
// nil Decider a non-interactive scripted one.
func NewInstaller(cfg Config) *Installer {
	if cfg.Logger == nil {
		cfg.Logger = logger.NoOpLogger{}
	}
	if cfg.Decider == nil {
		cfg.Decider = &prompt.Scripted{}
		cfg.Interactive = false
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = RefreshAuto
	}
	return &Installer{cfg: cfg}
}

// Install runs the workflow. Every fatal error is returned before the first
// link is created; per-link failures are reported in the Report.
func (i *Installer) Install(ctx context.Context, req Request) (*Report, error) {
	p := i.cfg.Presenter
	report := &Report{}

	scope, scopeSet, err := i.parseScope(req.Scope)
	if err != nil {
		return nil, err
	}

	skills, repo, err := i.resolveSkills(ctx, req)
	if err != nil {
		return nil, err
	}
	report.Repository = repo

	skills, err = i.selectSkills(skills, req)
	if err != nil {
		return nil, err
	}
	report.Skills = skills

	if len(skills) > 1 {
		p.Info(fmt.Sprintf("Selected %d skills", len(skills)))
	} else {
		p.Info(fmt.Sprintf("Selected Skill: %s (%s)", p.Highlight(skills[0].Name()), skills[0].Path))
	}

	selected, err := i.selectAgents(req.Agents)
	if err != nil {
		return nil, err
	}
	report.Agents = selected
	p.Info(fmt.Sprintf("Installing to %d agent(s): %s", len(selected), agentNames(selected)))

	if !scopeSet {
		if scope, err = i.chooseScope(); err != nil {
			return nil, err
		}
	}
	report.Scope = scope
	p.Info(fmt.Sprintf("Scope: %s", scope))

	policy := link.NeverOverwrite
	switch {
	case req.Yes:
		policy = link.AlwaysOverwrite
	case i.cfg.Interactive:
		policy = link.AskPerEntry
	}

	selections := make([]link.Selection, 0, len(selected))
	for _, a := range selected {
		selections = append(selections, link.Selection{Agent: a, Scope: scope})
	}

	cwd := req.Cwd
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	plan := link.Plan(skills, selections, cwd)

	linker := link.NewLinker(link.WithDecider(i.cfg.Decider), link.WithLogger(i.cfg.Logger))
	results, err := linker.ExecuteAll(ctx, plan, policy)
	if err != nil {
		return nil, err
	}
	report.Results = results

	i.present(results, policy)
	return report, nil
}

func (i *Installer) parseScope(s string) (types.Scope, bool, error) {
	if strings.TrimSpace(s) == "" {
		return i.cfg.DefaultScope, false, nil
	}
	scope, err := types.ParseScope(s)
	if err != nil {
		return 0, false, err
	}
	return scope, true, nil
}

func (i *Installer) resolveSkills(ctx context.Context, req Request) ([]types.SkillReference, *types.MaterializedRepository, error) {
	p := i.cfg.Presenter

	if req.From != "" {
		loc, err := source.Parse(req.From)
		if err != nil {
			return nil, nil, err
		}

		p.Info(fmt.Sprintf("Cloning from %s...", req.From))
		repo, err := i.cfg.Materializer.Materialize(ctx, loc)
		if err != nil {
			return nil, nil, err
		}

		if repo.AlreadyPresent {
			if err := i.maybeRefresh(ctx, repo, req); err != nil {
				return nil, nil, err
			}
		} else {
			p.Success("Clone completed!")
		}
		p.Detail(repo.RootPath)

		skills, err := library.ResolveSkillSet(repo)
		if err != nil {
			return nil, nil, err
		}
		if err := validateDirs(skills); err != nil {
			return nil, nil, err
		}
		return skills, repo, nil
	}

	if req.Skill != "" {
		abs, err := filepath.Abs(req.Skill)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve skill path: %w", err)
		}
		skills := []types.SkillReference{{Path: abs}}
		if err := validateDirs(skills); err != nil {
			return nil, nil, err
		}
		return skills, nil, nil
	}

	return nil, nil, &InstallError{
		Type:    ErrorTypeNoSource,
		Message: "no skill specified. Use --skill <path> or --from <url>",
	}
}

func (i *Installer) maybeRefresh(ctx context.Context, repo *types.MaterializedRepository, req Request) error {
	p := i.cfg.Presenter

	policy := i.cfg.RefreshPolicy
	if req.Refresh != "" {
		policy = req.Refresh
	}
	if policy == RefreshAsk && !i.cfg.Interactive {
		policy = RefreshAuto
	}

	refresh := false
	switch policy {
	case RefreshNever:
		p.Info("Using cached repository")
	case RefreshAsk:
		ok, err := i.cfg.Decider.Confirm("Repository already exists. Pull latest changes?")
		if err != nil {
			return err
		}
		refresh = ok
	default:
		if req.Yes {
			refresh = true
		} else {
			p.Warning("Repository already exists. Use --yes to update.")
		}
	}

	if !refresh {
		return nil
	}
	if err := i.cfg.Materializer.Refresh(ctx, repo.RootPath); err != nil {
		return err
	}
	p.Success("Repository updated!")
	return nil
}

func validateDirs(skills []types.SkillReference) error {
	for _, s := range skills {
		if !library.IsDir(s.Path) {
			return &InstallError{
				Type:    ErrorTypeMissingDirectory,
				Message: fmt.Sprintf("Skill directory not found: %s", s.Path),
			}
		}
	}
	return nil
}

func (i *Installer) selectSkills(skills []types.SkillReference, req Request) ([]types.SkillReference, error) {
	if len(req.Only) > 0 {
		filtered, err := library.FilterSkills(skills, req.Only)
		if err != nil {
			return nil, &InstallError{Type: ErrorTypeInvalidOption, Message: "invalid --only pattern", Err: err}
		}
		if len(filtered) == 0 {
			return nil, &InstallError{
				Type:    ErrorTypeNoSkills,
				Message: fmt.Sprintf("no skills match %s", strings.Join(req.Only, ", ")),
			}
		}
		return filtered, nil
	}

	if !i.cfg.Interactive || len(skills) < 2 {
		return skills, nil
	}

	options := make([]prompt.Option, 0, len(skills))
	all := make([]string, 0, len(skills))
	for _, s := range skills {
		options = append(options, prompt.Option{Label: s.Name(), Value: s.Path})
		all = append(all, s.Path)
	}
	chosen, err := i.cfg.Decider.SelectMany("Select skills to install", options, all)
	if err != nil {
		return nil, err
	}

	// keep discovery order regardless of selection order
	picked := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		picked[c] = true
	}
	var out []types.SkillReference
	for _, s := range skills {
		if picked[s.Path] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, &InstallError{Type: ErrorTypeNoSkills, Message: "no skills selected"}
	}
	return out, nil
}

func (i *Installer) selectAgents(names []string) ([]types.Agent, error) {
	catalog := i.cfg.Catalog

	if len(names) > 0 {
		selected, unknown := catalog.Resolve(names)
		for _, n := range unknown {
			i.cfg.Presenter.Warning(fmt.Sprintf("Unknown agent: %s, skipping...", n))
		}
		if len(selected) == 0 {
			return nil, &InstallError{Type: ErrorTypeNoAgents, Message: "No valid agents specified"}
		}
		return selected, nil
	}

	detected := catalog.DetectInstalled()

	if i.cfg.Interactive {
		options := make([]prompt.Option, 0, catalog.Len())
		for _, a := range catalog.All() {
			options = append(options, prompt.Option{Label: a.Name, Value: a.ID})
		}
		defaults := make([]string, 0, len(detected))
		for _, a := range detected {
			defaults = append(defaults, a.ID)
		}

		chosen, err := i.cfg.Decider.SelectMany("Select agents", options, defaults)
		if err != nil {
			return nil, err
		}
		selected, _ := catalog.Resolve(chosen)
		if len(selected) == 0 {
			return nil, &InstallError{Type: ErrorTypeNoAgents, Message: "No agents selected"}
		}
		return selected, nil
	}

	if len(detected) == 0 {
		return nil, &InstallError{
			Type:    ErrorTypeNoAgents,
			Message: "No installed agents detected. Please specify --agent.",
		}
	}
	return detected, nil
}

func (i *Installer) chooseScope() (types.Scope, error) {
	if !i.cfg.Interactive {
		return i.cfg.DefaultScope, nil
	}

	options := []prompt.Option{
		{Label: "Both (project and global)", Value: types.ScopeBoth.String()},
		{Label: "Project (current directory)", Value: types.ScopeProject.String()},
		{Label: "Global (home directory)", Value: types.ScopeGlobal.String()},
	}
	value, err := i.cfg.Decider.SelectOne("Select scope", options)
	if err != nil {
		return 0, err
	}
	return types.ParseScope(value)
}

func (i *Installer) present(results []types.LinkResult, policy link.Policy) {
	p := i.cfg.Presenter

	var current types.LinkTarget
	for n, res := range results {
		target := res.Entry.Target
		if n == 0 || target.Agent.ID != current.Agent.ID {
			blank(p)
			p.Info(fmt.Sprintf("Configuring for %s...", p.Highlight(target.Agent.Name)))
		}
		current = target

		name := res.Entry.Skill.Name()
		switch res.Status {
		case types.LinkStatusLinked:
			p.Success(fmt.Sprintf("Linked %s -> %s", name, res.Entry.LinkPath))
		case types.LinkStatusOverwritten:
			p.Info(fmt.Sprintf("Overwriting existing: %s", res.Entry.LinkPath))
			p.Success(fmt.Sprintf("Linked %s -> %s", name, res.Entry.LinkPath))
		case types.LinkStatusSkipped:
			if policy == link.NeverOverwrite {
				p.Warning(fmt.Sprintf("Already exists: %s. Use --yes to overwrite.", res.Entry.LinkPath))
			} else {
				p.Warning(fmt.Sprintf("Skipped: %s", res.Entry.LinkPath))
			}
		case types.LinkStatusFailed:
			p.Error(res.Err, fmt.Sprintf("Failed to link %s", name))
		}
	}

	report := Report{Results: results}
	linked, overwritten, skipped, failed := report.Counts()
	blank(p)
	if failed > 0 {
		p.Warning(fmt.Sprintf("Completed with %d failure(s): %d linked, %d overwritten, %d skipped",
			failed, linked, overwritten, skipped))
		return
	}
	p.Success("All operations completed.")
}

func blank(p presenter.Presenter) {
	if !p.IsQuiet() {
		p.Println("")
	}
}

func agentNames(list []types.Agent) string {
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
