package cmd

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smy-101/skill-linker/internal/install"
	"github.com/smy-101/skill-linker/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"library_root",
	"fetch_method",
	"refresh_policy",
	"default_scope",
	"agents_file",
	"github_token",
	"proxy",
	"log_level",
}

// configValidators check values for keys that only accept a fixed set.
var configValidators = map[string]func(string) error{
	"fetch_method": func(v string) error {
		if v != "git" && v != "archive" {
			return fmt.Errorf("invalid fetch_method: %s. Use: git or archive", v)
		}
		return nil
	},
	"refresh_policy": func(v string) error {
		_, err := install.ParseRefreshPolicy(v)
		return err
	},
	"default_scope": func(v string) error {
		_, err := types.ParseScope(v)
		return err
	},
	"log_level": func(v string) error {
		_, err := logrus.ParseLevel(v)
		return err
	},
}

var configMu sync.Mutex

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "显示当前配置",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeConfigList()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "读取一个配置项",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeConfigGet(args[0])
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "修改一个配置项",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := executeConfigSet(args[0], args[1]); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("%s updated", args[0]))
		return nil
	},
}

func isConfigKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %s. Valid keys: %s", key, strings.Join(configKeys, ", "))
}

func executeConfigList() error {
	configMu.Lock()
	defer configMu.Unlock()

	out.Info("config file: " + viper.ConfigFileUsed())

	table := newTable()
	table.Header("Key", "Value")
	for _, key := range configKeys {
		value := viper.GetString(key)
		if key == "github_token" {
			value = maskToken(value)
		}
		table.Append(key, value)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func executeConfigGet(key string) error {
	if !isConfigKey(key) {
		return unknownKey(key)
	}

	configMu.Lock()
	defer configMu.Unlock()

	out.Println(viper.GetString(key))
	return nil
}

func executeConfigSet(key, value string) error {
	if !isConfigKey(key) {
		return unknownKey(key)
	}
	value = strings.TrimSpace(value)
	if validate, ok := configValidators[key]; ok {
		if err := validate(value); err != nil {
			return err
		}
	}

	configMu.Lock()
	defer configMu.Unlock()

	viper.Set(key, value)
	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
