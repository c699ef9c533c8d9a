package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var agentsJSON bool

func init() {
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "以 JSON 输出")
	rootCmd.AddCommand(agentsCmd)
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "列出支持的代理及其安装状态",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeAgents(agentsJSON)
	},
}

type agentJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ProjectDir string   `json:"projectDir"`
	GlobalDir  string   `json:"globalDir"`
	Aliases    []string `json:"aliases"`
	Installed  bool     `json:"installed"`
}

func executeAgents(asJSON bool) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	installed := make(map[string]bool)
	for _, a := range catalog.DetectInstalled() {
		installed[a.ID] = true
	}

	all := catalog.All()
	if asJSON {
		items := make([]agentJSON, 0, len(all))
		for _, a := range all {
			aliases := a.Aliases
			if aliases == nil {
				aliases = []string{}
			}
			items = append(items, agentJSON{
				ID:         a.ID,
				Name:       a.Name,
				ProjectDir: a.ProjectDir,
				GlobalDir:  a.GlobalDir,
				Aliases:    aliases,
				Installed:  installed[a.ID],
			})
		}
		return printJSON(items)
	}

	table := newTable()
	table.Header("ID", colName, "Installed", "Project Dir", "Global Dir", "Aliases")
	for _, a := range all {
		mark := ""
		if installed[a.ID] {
			mark = "yes"
		}
		table.Append(a.ID, a.Name, mark, a.ProjectDir, a.GlobalDir, strings.Join(a.Aliases, ", "))
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	out.Println(fmt.Sprintf("\nDetected: %d of %d agents", len(installed), len(all)))
	return nil
}
