package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/tidy"
	"github.com/spf13/cobra"
)

var pruneDryRun bool

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "只列出失效链接，不删除")
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "清理指向技能库的失效链接",
	Long: `扫描当前目录和全局的各代理 skills 目录，删除指向技能库中已不存在路径的符号链接。

不指向技能库的链接不会被修改。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePrune(cmd.Context(), pruneDryRun)
	},
}

func executePrune(ctx context.Context, dryRun bool) error {
	root, err := libraryRoot()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	tidier := tidy.NewTidierWithLogger(root, logger.NewLogrusAdapter(logger.G(ctx)))
	report, err := tidier.Tidy(ctx, tidy.Dirs(catalog.All(), cwd), dryRun)
	if err != nil && !errors.Is(err, tidy.ErrFilesystem) {
		return err
	}

	if len(report.Orphaned) == 0 {
		out.Success(fmt.Sprintf("No broken links found (%d links in %d directories checked)",
			report.LinksChecked, report.DirsScanned))
		return nil
	}

	for _, p := range report.Orphaned {
		out.Detail("Broken link: " + p)
	}

	if dryRun {
		out.Info(fmt.Sprintf("%d broken links found. Run without --dry-run to remove them.", len(report.Orphaned)))
		return nil
	}
	if report.Removed < len(report.Orphaned) {
		out.Warning(fmt.Sprintf("Removed %d of %d broken links", report.Removed, len(report.Orphaned)))
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				out.Detail(e.Error())
			}
		}
		return nil
	}
	out.Success(fmt.Sprintf("Removed %d broken links", report.Removed))
	return nil
}
