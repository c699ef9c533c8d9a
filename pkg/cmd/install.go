package cmd

import (
	"context"

	"github.com/smy-101/skill-linker/internal/install"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/prompt"
	"github.com/smy-101/skill-linker/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type installOptions struct {
	skill   string
	from    string
	agents  []string
	scope   string
	yes     bool
	only    []string
	refresh string
}

var installOpts installOptions

func init() {
	f := installCmd.Flags()
	f.StringVar(&installOpts.skill, "skill", "", "本地技能目录")
	f.StringVar(&installOpts.from, "from", "", "仓库地址，例如 https://github.com/owner/repo/tree/main/skills/pdf")
	f.StringArrayVarP(&installOpts.agents, "agent", "a", nil, "目标代理名称或别名，可重复")
	f.StringVarP(&installOpts.scope, "scope", "s", "", "链接范围: project, global, both")
	f.BoolVarP(&installOpts.yes, "yes", "y", false, "覆盖已存在的链接并更新已缓存的仓库")
	f.StringArrayVar(&installOpts.only, "only", nil, "只安装名称匹配该 glob 的技能，可重复")
	f.StringVar(&installOpts.refresh, "refresh", "", "仓库已缓存时的更新策略: auto, ask, never")

	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "把技能链接到各个代理的 skills 目录",
	Long: `把技能链接到各个代理的 skills 目录。

技能来源二选一:
  --from <url>    克隆远程仓库到 ~/Documents/AgentSkills/<owner>/<name>
  --skill <path>  使用本地目录

示例:
  skill-linker install --from https://github.com/anthropics/skills -a claude -s global
  skill-linker install --from https://github.com/acme/tools/tree/main/skills/pdf -a cursor -a codex
  skill-linker install --skill ./my-skill -y`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeInstall(cmd.Context(), installOpts)
	},
}

func executeInstall(ctx context.Context, opts installOptions) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	materializer, err := newMaterializer()
	if err != nil {
		return err
	}

	defaultScope := types.ScopeBoth
	if v := viper.GetString("default_scope"); v != "" {
		if defaultScope, err = types.ParseScope(v); err != nil {
			return err
		}
	}

	configured, err := install.ParseRefreshPolicy(viper.GetString("refresh_policy"))
	if err != nil {
		return err
	}

	var override install.RefreshPolicy
	if opts.refresh != "" {
		if override, err = install.ParseRefreshPolicy(opts.refresh); err != nil {
			return err
		}
	}

	interactive := isInteractive()
	var decider prompt.Decider
	if interactive {
		decider = prompt.Huh{}
	}

	installer := install.NewInstaller(install.Config{
		Catalog:       catalog,
		Materializer:  materializer,
		Presenter:     out,
		Decider:       decider,
		Logger:        logger.NewLogrusAdapter(logger.G(ctx)),
		Interactive:   interactive,
		DefaultScope:  defaultScope,
		RefreshPolicy: configured,
	})

	_, err = installer.Install(ctx, install.Request{
		From:    opts.from,
		Skill:   opts.skill,
		Agents:  opts.agents,
		Scope:   opts.scope,
		Yes:     opts.yes,
		Only:    opts.only,
		Refresh: override,
	})
	return err
}
