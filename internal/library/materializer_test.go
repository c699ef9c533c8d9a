package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smy-101/skill-linker/internal/fetch"
	"github.com/smy-101/skill-linker/internal/types"
)

type fetchCall struct {
	url  string
	dest string
	opts fetch.Options
}

// fakeFetcher creates dest with the given files instead of cloning.
type fakeFetcher struct {
	files     []string
	err       error
	calls     []fetchCall
	refreshes []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, dest string, opts fetch.Options) error {
	f.calls = append(f.calls, fetchCall{url: url, dest: dest, opts: opts})
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	for _, rel := range f.files {
		p := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) Refresh(ctx context.Context, dest string) error {
	f.refreshes = append(f.refreshes, dest)
	return f.err
}

func TestMaterialize_ClonesOnce(t *testing.T) {
	root := t.TempDir()
	fetcher := &fakeFetcher{files: []string{"skills/pdf/SKILL.md"}}
	m := NewMaterializer(root, fetcher)
	loc := &types.RepositoryLocator{
		Owner:    "acme",
		Name:     "tools",
		Ref:      "main",
		CloneURL: "https://github.com/acme/tools",
	}

	first, err := m.Materialize(context.Background(), loc)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	wantRoot := filepath.Join(root, "acme", "tools")
	if first.RootPath != wantRoot {
		t.Errorf("RootPath = %s, want %s", first.RootPath, wantRoot)
	}
	if first.RequestedSkillPath != wantRoot {
		t.Errorf("RequestedSkillPath = %s, want %s", first.RequestedSkillPath, wantRoot)
	}
	if first.AlreadyPresent {
		t.Error("first Materialize() should not report AlreadyPresent")
	}

	second, err := m.Materialize(context.Background(), loc)
	if err != nil {
		t.Fatalf("second Materialize() error = %v", err)
	}
	if !second.AlreadyPresent {
		t.Error("second Materialize() should report AlreadyPresent")
	}
	if second.RootPath != first.RootPath {
		t.Errorf("RootPath changed between calls: %s vs %s", first.RootPath, second.RootPath)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("fetcher called %d times, want 1", len(fetcher.calls))
	}
	if len(fetcher.refreshes) != 0 {
		t.Errorf("Materialize() must not refresh, got %v", fetcher.refreshes)
	}
}

func TestMaterialize_FetchOptions(t *testing.T) {
	tests := []struct {
		name    string
		loc     types.RepositoryLocator
		wantRef string
	}{
		{
			name:    "default ref is not forced",
			loc:     types.RepositoryLocator{Owner: "acme", Name: "tools", Ref: "main", CloneURL: "u"},
			wantRef: "",
		},
		{
			name:    "explicit ref is passed through",
			loc:     types.RepositoryLocator{Owner: "acme", Name: "tools", Ref: "v2", CloneURL: "u", ExplicitRef: true},
			wantRef: "v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			m := NewMaterializer(t.TempDir(), fetcher)
			if _, err := m.Materialize(context.Background(), &tt.loc); err != nil {
				t.Fatalf("Materialize() error = %v", err)
			}
			got := fetcher.calls[0].opts
			if !got.Shallow {
				t.Error("expected shallow fetch")
			}
			if got.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", got.Ref, tt.wantRef)
			}
		})
	}
}

func TestMaterialize_Subpath(t *testing.T) {
	root := t.TempDir()
	m := NewMaterializer(root, &fakeFetcher{})
	loc := &types.RepositoryLocator{Owner: "acme", Name: "tools", Ref: "main", Subpath: "skills/pdf", CloneURL: "u", ExplicitRef: true}

	repo, err := m.Materialize(context.Background(), loc)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	want := filepath.Join(root, "acme", "tools", "skills", "pdf")
	if repo.RequestedSkillPath != want {
		t.Errorf("RequestedSkillPath = %s, want %s", repo.RequestedSkillPath, want)
	}
	if repo.Subpath != "skills/pdf" {
		t.Errorf("Subpath = %s", repo.Subpath)
	}
}

func TestMaterialize_FetchErrorPropagates(t *testing.T) {
	fetchErr := &fetch.FetchError{Type: fetch.ErrorTypeFetch, Kind: fetch.KindRepoNotFound, Output: "remote: Repository not found."}
	m := NewMaterializer(t.TempDir(), &fakeFetcher{err: fetchErr})
	loc := &types.RepositoryLocator{Owner: "acme", Name: "missing", CloneURL: "u"}

	_, err := m.Materialize(context.Background(), loc)
	if !errors.Is(err, fetch.ErrFetch) {
		t.Fatalf("Materialize() error = %v, want fetch error", err)
	}
	if err != fetchErr {
		t.Error("fetch error should be returned verbatim")
	}
}

func TestMaterializer_Refresh(t *testing.T) {
	fetcher := &fakeFetcher{}
	m := NewMaterializer(t.TempDir(), fetcher)
	if err := m.Refresh(context.Background(), "/lib/acme/tools"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(fetcher.refreshes) != 1 || fetcher.refreshes[0] != "/lib/acme/tools" {
		t.Errorf("refreshes = %v", fetcher.refreshes)
	}
}

func TestMaterializer_Path(t *testing.T) {
	m := NewMaterializer("/lib", &fakeFetcher{})
	got := m.Path(&types.RepositoryLocator{Owner: "Acme", Name: "Tools"})
	if got != filepath.Join("/lib", "Acme", "Tools") {
		t.Errorf("Path() = %s", got)
	}
}
