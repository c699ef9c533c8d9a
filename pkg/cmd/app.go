package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/smy-101/skill-linker/internal/agents"
	"github.com/smy-101/skill-linker/internal/constants"
	"github.com/smy-101/skill-linker/internal/fetch"
	"github.com/smy-101/skill-linker/internal/library"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/spf13/viper"
)

// libraryRoot returns the configured library root or ~/Documents/AgentSkills.
func libraryRoot() (string, error) {
	if root := viper.GetString("library_root"); root != "" {
		return expandPath(root)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, filepath.FromSlash(constants.LibraryDirName)), nil
}

func expandPath(p string) (string, error) {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Abs(p)
}

func loadCatalog() (*agents.Catalog, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	extra := viper.GetString("agents_file")
	if extra != "" {
		if extra, err = expandPath(extra); err != nil {
			return nil, err
		}
	}
	return agents.LoadCatalog(home, extra)
}

func newFetcher() (library.Fetcher, error) {
	log := logger.NewLogrusAdapter(nil)

	switch method := viper.GetString("fetch_method"); method {
	case "", "git":
		return fetch.NewGitFetcher(fetch.WithGitLogger(log)), nil
	case "archive":
		return fetch.NewArchiveFetcher(
			fetch.WithToken(viper.GetString("github_token")),
			fetch.WithProxy(viper.GetString("proxy")),
			fetch.WithArchiveLogger(log),
		), nil
	default:
		return nil, fmt.Errorf("invalid fetch_method: %s. Use: git or archive", method)
	}
}

func newMaterializer() (*library.Materializer, error) {
	root, err := libraryRoot()
	if err != nil {
		return nil, err
	}
	fetcher, err := newFetcher()
	if err != nil {
		return nil, err
	}
	return library.NewMaterializer(root, fetcher, library.WithLogger(logger.NewLogrusAdapter(nil))), nil
}
