package fetch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCloneArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "shallow default branch",
			opts: Options{Shallow: true},
			want: []string{"clone", "--depth", "1", "https://github.com/acme/tools", "/lib/acme/tools"},
		},
		{
			name: "explicit ref",
			opts: Options{Shallow: true, Ref: "v1.0"},
			want: []string{"clone", "--depth", "1", "--branch", "v1.0", "https://github.com/acme/tools", "/lib/acme/tools"},
		},
		{
			name: "full clone",
			opts: Options{},
			want: []string{"clone", "https://github.com/acme/tools", "/lib/acme/tools"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CloneArgs("https://github.com/acme/tools", "/lib/acme/tools", tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CloneArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// initRepo creates a repository with one commit on main.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{
			"-c", "user.email=test@example.com", "-c", "user.name=test",
			"-c", "commit.gpgsign=false",
		}, args...)...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q", "-b", "main")
	if err := os.MkdirAll(filepath.Join(dir, "skills", "pdf"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skills", "pdf", "SKILL.md"), []byte("# pdf\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-q", "-m", "init")
	return dir
}

func TestGitFetcher_FetchAndRefresh(t *testing.T) {
	requireGit(t)
	remote := initRepo(t)
	dest := filepath.Join(t.TempDir(), "acme", "tools")
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}

	g := NewGitFetcher()
	if err := g.Fetch(context.Background(), "file://"+remote, dest, Options{Shallow: true}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "skills", "pdf", "SKILL.md")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}

	if err := g.Refresh(context.Background(), dest); err != nil {
		t.Errorf("Refresh() error = %v", err)
	}
}

func TestGitFetcher_FetchFailure(t *testing.T) {
	requireGit(t)
	dest := filepath.Join(t.TempDir(), "missing")

	err := NewGitFetcher().Fetch(context.Background(), "file:///nonexistent/repo", dest, Options{Shallow: true})
	if err == nil {
		t.Fatal("Fetch() expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Fetch() error type = %T, want *FetchError", err)
	}
	if fe.Type != ErrorTypeFetch {
		t.Errorf("FetchError.Type = %v, want ErrorTypeFetch", fe.Type)
	}
	if fe.Output == "" {
		t.Error("FetchError.Output should carry git output")
	}
}

func TestGitFetcher_RefreshNotARepository(t *testing.T) {
	requireGit(t)
	err := NewGitFetcher().Refresh(context.Background(), t.TempDir())
	if !errors.Is(err, ErrRefresh) {
		t.Fatalf("Refresh() error = %v, want ErrRefresh", err)
	}
}

func TestGitFetcher_MissingExecutable(t *testing.T) {
	g := NewGitFetcher(WithGitPath("definitely-not-git-binary"))
	err := g.Fetch(context.Background(), "https://github.com/acme/tools", t.TempDir(), Options{})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}
