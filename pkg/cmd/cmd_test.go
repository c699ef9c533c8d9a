package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smy-101/skill-linker/internal/presenter"
	"github.com/smy-101/skill-linker/internal/update"
	"github.com/spf13/viper"
)

// captureOutput swaps the package presenter for one writing to buffers and
// turns off prompting.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	orig, origInteractive := out, isInteractive
	out = presenter.NewWithOptions(&stdout, &stderr, presenter.ColorNever)
	isInteractive = func() bool { return false }
	t.Cleanup(func() { out, isInteractive = orig, origInteractive })
	return &stdout, &stderr
}

// setupHome points HOME at a temp dir with a library holding repos and
// returns the home and library paths.
func setupHome(t *testing.T, repos ...string) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	viper.Reset()
	t.Cleanup(viper.Reset)

	lib := filepath.Join(home, "Documents", "AgentSkills")
	if err := os.MkdirAll(lib, 0755); err != nil {
		t.Fatalf("failed to create library: %v", err)
	}
	for _, r := range repos {
		if err := os.MkdirAll(filepath.Join(lib, filepath.FromSlash(r)), 0755); err != nil {
			t.Fatalf("failed to create repo %s: %v", r, err)
		}
	}
	return home, lib
}

func writeSkill(t *testing.T, dir, description string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}
	content := "---\nname: " + filepath.Base(dir) + "\ndescription: " + description + "\n---\n"
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write SKILL.md: %v", err)
	}
}

func TestLibraryRoot(t *testing.T) {
	home, lib := setupHome(t)

	got, err := libraryRoot()
	if err != nil || got != lib {
		t.Fatalf("libraryRoot() = %q, %v; want %q", got, err, lib)
	}

	viper.Set("library_root", "~/skills")
	got, err = libraryRoot()
	if err != nil || got != filepath.Join(home, "skills") {
		t.Errorf("libraryRoot() with override = %q, %v", got, err)
	}
}

func TestNewFetcher(t *testing.T) {
	setupHome(t)

	for _, method := range []string{"", "git", "archive"} {
		viper.Set("fetch_method", method)
		if _, err := newFetcher(); err != nil {
			t.Errorf("newFetcher(%q) error = %v", method, err)
		}
	}

	viper.Set("fetch_method", "svn")
	if _, err := newFetcher(); err == nil {
		t.Error("newFetcher(svn) expected error")
	}
}

func TestExecuteList(t *testing.T) {
	t.Run("missing library", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		viper.Reset()
		t.Cleanup(viper.Reset)
		captureOutput(t)

		err := executeList("", false)
		if err == nil || !strings.Contains(err.Error(), "skill library not found") {
			t.Errorf("executeList() error = %v", err)
		}
	})

	t.Run("empty library as JSON", func(t *testing.T) {
		setupHome(t)
		stdout, _ := captureOutput(t)

		if err := executeList("", true); err != nil {
			t.Fatalf("executeList() error = %v", err)
		}
		if got := strings.TrimSpace(stdout.String()); got != "[]" {
			t.Errorf("executeList() = %q, want []", got)
		}
	})

	t.Run("repositories as JSON", func(t *testing.T) {
		_, lib := setupHome(t, "acme/tools", "other/single")
		writeSkill(t, filepath.Join(lib, "acme", "tools", "skills", "pdf"), "PDF tools")
		stdout, _ := captureOutput(t)

		if err := executeList("", true); err != nil {
			t.Fatalf("executeList() error = %v", err)
		}
		var got []repoJSON
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
		}
		if len(got) != 2 || got[0].Name != "acme/tools" || !got[0].HasSkillsDir || got[1].HasSkillsDir {
			t.Errorf("executeList() = %+v", got)
		}
	})

	t.Run("skills of one repository", func(t *testing.T) {
		_, lib := setupHome(t, "acme/tools")
		writeSkill(t, filepath.Join(lib, "acme", "tools", "skills", "pdf"), "PDF tools")
		writeSkill(t, filepath.Join(lib, "acme", "tools", "skills", "xlsx"), "Spreadsheets")
		stdout, _ := captureOutput(t)

		if err := executeList("Acme/Tools", true); err != nil {
			t.Fatalf("executeList() error = %v", err)
		}
		var got repoSkillsJSON
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
		}
		if len(got.Skills) != 2 || got.Skills[0].Name != "pdf" || got.Skills[0].Description != "PDF tools" {
			t.Errorf("executeList() skills = %+v", got.Skills)
		}
	})

	t.Run("table output", func(t *testing.T) {
		setupHome(t, "acme/tools")
		stdout, _ := captureOutput(t)

		if err := executeList("", false); err != nil {
			t.Fatalf("executeList() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "acme/tools") || !strings.Contains(stdout.String(), "Total: 1 repositories") {
			t.Errorf("unexpected output:\n%s", stdout.String())
		}
	})

	t.Run("unknown repository", func(t *testing.T) {
		setupHome(t, "acme/tools")
		stdout, _ := captureOutput(t)

		err := executeList("acme/missing", false)
		if err == nil || !strings.Contains(err.Error(), "repository not found") {
			t.Errorf("executeList() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "Available repos: acme/tools") {
			t.Errorf("missing available repos hint:\n%s", stdout.String())
		}
	})
}

func TestExecuteAgents(t *testing.T) {
	home, _ := setupHome(t)
	if err := os.MkdirAll(filepath.Join(home, ".cursor", "skills"), 0755); err != nil {
		t.Fatal(err)
	}
	stdout, _ := captureOutput(t)

	if err := executeAgents(true); err != nil {
		t.Fatalf("executeAgents() error = %v", err)
	}
	var got []agentJSON
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("executeAgents() returned no agents")
	}
	for _, a := range got {
		if a.Installed != (a.ID == "cursor") {
			t.Errorf("agent %s installed = %v", a.ID, a.Installed)
		}
		if !strings.HasPrefix(a.GlobalDir, home) {
			t.Errorf("agent %s global dir %s not expanded", a.ID, a.GlobalDir)
		}
	}
}

func TestExecuteRemove(t *testing.T) {
	t.Run("requires confirmation when not interactive", func(t *testing.T) {
		_, lib := setupHome(t, "acme/tools")
		captureOutput(t)

		err := executeRemove("acme/tools", false)
		if err == nil || !strings.Contains(err.Error(), "--yes") {
			t.Errorf("executeRemove() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(lib, "acme", "tools")); err != nil {
			t.Error("repository removed without confirmation")
		}
	})

	t.Run("yes removes repository", func(t *testing.T) {
		_, lib := setupHome(t, "acme/tools")
		stdout, _ := captureOutput(t)

		if err := executeRemove("acme/tools", true); err != nil {
			t.Fatalf("executeRemove() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(lib, "acme", "tools")); !os.IsNotExist(err) {
			t.Error("repository still exists")
		}
		if !strings.Contains(stdout.String(), "prune") {
			t.Errorf("missing prune hint:\n%s", stdout.String())
		}
	})

	t.Run("unknown repository", func(t *testing.T) {
		setupHome(t)
		captureOutput(t)

		if err := executeRemove("acme/tools", true); err == nil {
			t.Error("executeRemove() expected error")
		}
	})
}

func TestExecutePrune(t *testing.T) {
	home, lib := setupHome(t, "acme/tools")
	t.Chdir(t.TempDir())

	skills := filepath.Join(home, ".claude", "skills")
	if err := os.MkdirAll(skills, 0755); err != nil {
		t.Fatal(err)
	}
	live := filepath.Join(skills, "tools")
	dead := filepath.Join(skills, "gone")
	foreign := filepath.Join(skills, "foreign")
	for link, target := range map[string]string{
		live:    filepath.Join(lib, "acme", "tools"),
		dead:    filepath.Join(lib, "acme", "gone"),
		foreign: filepath.Join(home, "nowhere"),
	} {
		if err := os.Symlink(target, link); err != nil {
			t.Fatal(err)
		}
	}

	stdout, _ := captureOutput(t)
	if err := executePrune(context.Background(), true); err != nil {
		t.Fatalf("executePrune(dry run) error = %v", err)
	}
	if !strings.Contains(stdout.String(), dead) {
		t.Errorf("dry run did not report %s:\n%s", dead, stdout.String())
	}
	if _, err := os.Lstat(dead); err != nil {
		t.Error("dry run removed the link")
	}

	if err := executePrune(context.Background(), false); err != nil {
		t.Fatalf("executePrune() error = %v", err)
	}
	if _, err := os.Lstat(dead); !os.IsNotExist(err) {
		t.Error("dangling library link not removed")
	}
	for _, keep := range []string{live, foreign} {
		if _, err := os.Lstat(keep); err != nil {
			t.Errorf("%s was removed", keep)
		}
	}
}

func TestExecuteUpdate(t *testing.T) {
	t.Run("unknown repository", func(t *testing.T) {
		setupHome(t, "acme/tools")
		captureOutput(t)

		err := executeUpdate(context.Background(), "acme/missing")
		if !errors.Is(err, update.ErrNotFound) {
			t.Errorf("executeUpdate() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty library", func(t *testing.T) {
		setupHome(t)
		stdout, _ := captureOutput(t)

		if err := executeUpdate(context.Background(), ""); err != nil {
			t.Fatalf("executeUpdate() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "No repos found") {
			t.Errorf("unexpected output:\n%s", stdout.String())
		}
	})

	t.Run("refresh failure is reported", func(t *testing.T) {
		// plain directories are not git checkouts, so the pull fails
		setupHome(t, "acme/tools")
		_, stderr := captureOutput(t)

		err := executeUpdate(context.Background(), "acme/tools")
		if !errors.Is(err, update.ErrPartial) {
			t.Fatalf("executeUpdate() error = %v, want ErrPartial", err)
		}
		if !strings.Contains(stderr.String(), "acme/tools") {
			t.Errorf("failure not reported:\n%s", stderr.String())
		}
	})
}

func TestExecuteInstall_LocalSkill(t *testing.T) {
	home, _ := setupHome(t)
	t.Chdir(t.TempDir())
	skill := filepath.Join(t.TempDir(), "pdf")
	writeSkill(t, skill, "PDF tools")
	stdout, _ := captureOutput(t)

	opts := installOptions{skill: skill, agents: []string{"Claude"}, scope: "global"}
	if err := executeInstall(context.Background(), opts); err != nil {
		t.Fatalf("executeInstall() error = %v", err)
	}

	link := filepath.Join(home, ".claude", "skills", "pdf")
	target, err := os.Readlink(link)
	if err != nil || target != skill {
		t.Fatalf("link %s -> %q, %v; want %s", link, target, err, skill)
	}
	if !strings.Contains(stdout.String(), "All operations completed.") {
		t.Errorf("missing summary:\n%s", stdout.String())
	}

	// second run keeps the existing link
	stdout.Reset()
	if err := executeInstall(context.Background(), opts); err != nil {
		t.Fatalf("second executeInstall() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Use --yes to overwrite") {
		t.Errorf("missing overwrite hint:\n%s", stdout.String())
	}
}

func TestExecuteInstall_InvalidOptions(t *testing.T) {
	setupHome(t)
	captureOutput(t)

	tests := []struct {
		name string
		opts installOptions
	}{
		{name: "no source", opts: installOptions{agents: []string{"claude"}}},
		{name: "bad scope", opts: installOptions{skill: t.TempDir(), scope: "team"}},
		{name: "bad refresh policy", opts: installOptions{from: "https://github.com/acme/tools", refresh: "sometimes"}},
		{name: "shorthand locator", opts: installOptions{from: "acme/tools", agents: []string{"claude"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := executeInstall(context.Background(), tt.opts); err == nil {
				t.Error("executeInstall() expected error")
			}
		})
	}
}
