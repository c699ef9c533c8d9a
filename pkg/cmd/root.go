package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/smy-101/skill-linker/internal/fetch"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/presenter"
	"github.com/smy-101/skill-linker/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	out      = presenter.New()
	quiet    bool
	logLevel string

	// isInteractive is replaced in tests.
	isInteractive = prompt.IsInteractive
)

var rootCmd = &cobra.Command{
	Use:   "skill-linker",
	Short: "skill-linker CLI",
	Long:  "把技能目录链接到各个 AI 编码代理的 skills 目录",

	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	SilenceErrors:     true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		out.SetQuiet(quiet)

		level := viper.GetString("log_level")
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		if level == "" {
			return nil
		}
		return logger.SetLogLevel(level)
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "只输出错误和 JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")
}

// Execute runs the root command and exits with status 1 on error.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	out.Error(err, "")
	reportHints(err)
}

// reportHints prints the remediation hints carried by fetch errors.
func reportHints(err error) {
	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		for _, hint := range fe.Hints {
			out.Info(hint)
		}
	}
}
