package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/smy-101/skill-linker/internal/library"
	"github.com/smy-101/skill-linker/internal/types"
	"github.com/spf13/cobra"
)

const (
	colName        = "Name"
	colSkillsDir   = "skills/"
	colPath        = "Path"
	colDescription = "Description"
	cloneHint      = "Use 'skill-linker install --from <url>' to clone skills first."
)

var (
	listRepo string
	listJSON bool
)

func init() {
	listCmd.Flags().StringVarP(&listRepo, "repo", "r", "", "只列出该仓库 (owner/name) 中的技能")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "以 JSON 输出")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出技能库中的仓库和技能",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeList(listRepo, listJSON)
	},
}

type repoJSON struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	HasSkillsDir bool   `json:"hasSkillsDir"`
}

type repoSkillsJSON struct {
	repoJSON
	Skills []types.SkillInfo `json:"skills"`
}

// executeList prints the repositories in the library, or the skills of one
// repository when repoName is set.
func executeList(repoName string, asJSON bool) error {
	root, err := libraryRoot()
	if err != nil {
		return err
	}

	if !library.IsDir(root) {
		out.Info(cloneHint)
		return fmt.Errorf("skill library not found: %s", root)
	}

	repos, err := library.ListRepositories(root)
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		if asJSON {
			out.Println("[]")
			return nil
		}
		out.Warning(fmt.Sprintf("No repos found in %s", root))
		out.Info(cloneHint)
		return nil
	}

	if repoName != "" {
		repo, ok := library.FindRepository(repos, repoName)
		if !ok {
			names := make([]string, 0, len(repos))
			for _, r := range repos {
				names = append(names, r.DisplayName)
			}
			out.Info("Available repos: " + strings.Join(names, ", "))
			return fmt.Errorf("repository not found: %s", repoName)
		}
		return listSkills(repo, asJSON)
	}

	if asJSON {
		items := make([]repoJSON, 0, len(repos))
		for _, r := range repos {
			items = append(items, repoJSON{Name: r.DisplayName, Path: r.Path, HasSkillsDir: r.HasSkillsDir})
		}
		return printJSON(items)
	}

	out.Info(fmt.Sprintf("Repositories in library (%s):", root))

	table := newTable()
	table.Header(colName, colSkillsDir, colPath)
	for _, r := range repos {
		hasSkills := ""
		if r.HasSkillsDir {
			hasSkills = "yes"
		}
		table.Append(r.DisplayName, hasSkills, r.Path)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	out.Println(fmt.Sprintf("\nTotal: %d repositories", len(repos)))
	out.Info("Use --repo <name> to list skills in a specific repo.")
	return nil
}

func listSkills(repo types.RepositoryEntry, asJSON bool) error {
	skills := []types.SkillInfo{}
	if repo.HasSkillsDir {
		skills = library.ListSkills(repo)
	}

	if asJSON {
		return printJSON(repoSkillsJSON{
			repoJSON: repoJSON{Name: repo.DisplayName, Path: repo.Path, HasSkillsDir: repo.HasSkillsDir},
			Skills:   skills,
		})
	}

	out.Info(fmt.Sprintf("Repository: %s", out.Highlight(repo.DisplayName)))
	out.Detail(fmt.Sprintf("Path: %s", repo.Path))

	if !repo.HasSkillsDir {
		out.Info("This is a single-skill repository (no skills/ subdirectory)")
		out.Detail("The entire repository acts as one skill")
		return nil
	}
	if len(skills) == 0 {
		out.Warning("No skills found in skills/ directory")
		return nil
	}

	out.Info("Skills in this repository:")
	table := newTable()
	table.Header(colName, colDescription, colPath)
	for _, s := range skills {
		table.Append(s.Name, s.Description, s.Path)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func newTable() *tablewriter.Table {
	cnf := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	}
	return tablewriter.NewTable(out.Writer(), tablewriter.WithConfig(cnf))
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	out.Println(string(data))
	return nil
}
