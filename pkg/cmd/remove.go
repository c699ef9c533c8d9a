package cmd

import (
	"fmt"

	"github.com/smy-101/skill-linker/internal/library"
	"github.com/smy-101/skill-linker/internal/prompt"
	"github.com/smy-101/skill-linker/internal/remove"
	"github.com/spf13/cobra"
)

var removeYes bool

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "不询问直接删除")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove <owner/name>",
	Short: "从技能库删除一个仓库",
	Long: `从技能库删除一个已缓存的仓库。

指向该仓库的链接会失效，可以再运行 skill-linker prune 清理。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRemove(args[0], removeYes)
	},
}

func executeRemove(name string, yes bool) error {
	root, err := libraryRoot()
	if err != nil {
		return err
	}

	repos, err := library.ListRepositories(root)
	if err != nil {
		return err
	}
	repo, ok := library.FindRepository(repos, name)
	if !ok {
		return fmt.Errorf("repository not found: %s", name)
	}

	var confirmer remove.Confirmer
	if !yes {
		if !isInteractive() {
			return fmt.Errorf("refusing to remove %s without confirmation; use --yes", repo.DisplayName)
		}
		confirmer = prompt.Huh{}
	}

	if err := remove.RemoveRepository(root, repo, confirmer); err != nil {
		return err
	}

	out.Success(fmt.Sprintf("Removed %s", repo.DisplayName))
	out.Info("Run 'skill-linker prune' to clean up links that pointed into it.")
	return nil
}
