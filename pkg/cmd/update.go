package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/update"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [owner/name]",
	Short: "更新已缓存的仓库",
	Long: `更新技能库中已缓存的仓库。

不带参数时更新所有仓库，指定 owner/name 时只更新该仓库。`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return executeUpdate(cmd.Context(), name)
	},
}

func executeUpdate(ctx context.Context, name string) error {
	materializer, err := newMaterializer()
	if err != nil {
		return err
	}

	repos, err := update.Select(materializer.Root(), name)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		out.Warning(fmt.Sprintf("No repos found in %s", materializer.Root()))
		out.Info(cloneHint)
		return nil
	}

	out.Info(fmt.Sprintf("Updating %d repositories...", len(repos)))

	updater := update.NewUpdater(materializer)
	updater.SetLogger(logger.NewLogrusAdapter(logger.G(ctx)))
	stats := updater.UpdateAll(ctx, repos)

	for _, r := range stats.Results {
		switch r.Status {
		case update.UpdateStatusUpdated:
			out.Success(fmt.Sprintf("Updated %s", r.Repository.DisplayName))
		case update.UpdateStatusSkipped:
			out.Warning(fmt.Sprintf("Skipped %s", r.Repository.DisplayName))
		case update.UpdateStatusFailed:
			out.Error(r.Err, "")
			reportHints(r.Err)
		}
	}

	out.Println(fmt.Sprintf("\nUpdated: %d, Failed: %d, Skipped: %d (%s)",
		stats.Updated, stats.Failed, stats.Skipped, stats.Duration.Round(time.Millisecond)))

	if stats.Failed > 0 {
		return &update.UpdateError{
			Type:       update.UpdateErrorTypePartial,
			Message:    "some repositories failed to update",
			Repository: strings.Join(stats.FailedNames(), ", "),
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
