package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	if err := tw.WriteHeader(&tar.Header{Name: "tools-main/", Typeflag: tar.TypeDir, Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		hdr := &tar.Header{
			Name:     "tools-main/" + name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newArchiveServer(t *testing.T, archive []byte) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/acme/private/tar.gz/main" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/x-gzip")
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func TestArchiveFetcher_Fetch(t *testing.T) {
	archive := buildTarGz(t, map[string]string{
		"skills/pdf/SKILL.md": "---\nname: pdf\n---\n",
		"README.md":           "tools",
	})
	srv, paths := newArchiveServer(t, archive)

	dest := filepath.Join(t.TempDir(), "acme", "tools")
	a := NewArchiveFetcher(WithBaseURL(srv.URL))

	err := a.Fetch(context.Background(), "https://github.com/acme/tools", dest, Options{Shallow: true, Ref: "develop"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(*paths) != 1 || (*paths)[0] != "/acme/tools/tar.gz/develop" {
		t.Errorf("requested paths = %v", *paths)
	}
	for _, rel := range []string{"README.md", "skills/pdf/SKILL.md"} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("expected %s to be extracted: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "tools-main")); !os.IsNotExist(err) {
		t.Error("top-level archive directory should be stripped")
	}
}

func TestArchiveFetcher_DefaultRef(t *testing.T) {
	srv, paths := newArchiveServer(t, buildTarGz(t, map[string]string{"a.txt": "a"}))
	a := NewArchiveFetcher(WithBaseURL(srv.URL))

	dest := filepath.Join(t.TempDir(), "tools")
	if err := a.Fetch(context.Background(), "https://github.com/acme/tools", dest, Options{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if (*paths)[0] != "/acme/tools/tar.gz/main" {
		t.Errorf("requested path = %s, want default ref main", (*paths)[0])
	}
}

func TestArchiveFetcher_NotFound(t *testing.T) {
	srv, _ := newArchiveServer(t, nil)
	a := NewArchiveFetcher(WithBaseURL(srv.URL))

	err := a.Fetch(context.Background(), "https://github.com/acme/private", filepath.Join(t.TempDir(), "private"), Options{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Fetch() error = %v, want *FetchError", err)
	}
	if fe.Kind != KindRepoNotFound {
		t.Errorf("FetchError.Kind = %v, want %v", fe.Kind, KindRepoNotFound)
	}
}

func TestArchiveFetcher_NonGitHubHost(t *testing.T) {
	a := NewArchiveFetcher()
	err := a.Fetch(context.Background(), "https://gitlab.com/acme/tools", t.TempDir(), Options{})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestArchiveFetcher_Refresh(t *testing.T) {
	srv, paths := newArchiveServer(t, buildTarGz(t, map[string]string{"new.txt": "new"}))
	a := NewArchiveFetcher(WithBaseURL(srv.URL))

	dest := filepath.Join(t.TempDir(), "acme", "tools")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "old.txt"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := a.Refresh(context.Background(), dest); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if (*paths)[0] != "/acme/tools/tar.gz/main" {
		t.Errorf("requested path = %s", (*paths)[0])
	}
	if _, err := os.Stat(filepath.Join(dest, "new.txt")); err != nil {
		t.Errorf("new.txt missing after refresh: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "old.txt")); !os.IsNotExist(err) {
		t.Error("old.txt should be gone after refresh")
	}

	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("owner dir has %d entries, temporary directory left behind", len(entries))
	}
}

func TestExtractTarGz_RejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := "x"
	tw.WriteHeader(&tar.Header{Name: "top/../../evil.txt", Typeflag: tar.TypeReg, Mode: 0644, Size: 1})
	tw.Write([]byte(content))
	tw.Close()
	gz.Close()

	err := extractTarGz(&buf, t.TempDir())
	if !errors.Is(err, errUnsafeArchive) {
		t.Fatalf("extractTarGz() error = %v, want errUnsafeArchive", err)
	}
}

func TestExtractTarGz_RejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()

	tests := []struct {
		name    string
		entries []tar.Header
	}{
		{
			name: "absolute link then write through it",
			entries: []tar.Header{
				{Name: "top/ln", Typeflag: tar.TypeSymlink, Linkname: outside},
				{Name: "top/ln/evil.txt", Typeflag: tar.TypeReg, Mode: 0644, Size: 1},
			},
		},
		{
			name: "relative link climbing out of root",
			entries: []tar.Header{
				{Name: "top/ln", Typeflag: tar.TypeSymlink, Linkname: "../../outside"},
			},
		},
		{
			name: "in-root link used as a parent directory",
			entries: []tar.Header{
				{Name: "top/real/", Typeflag: tar.TypeDir, Mode: 0755},
				{Name: "top/ln", Typeflag: tar.TypeSymlink, Linkname: "real"},
				{Name: "top/ln/evil.txt", Typeflag: tar.TypeReg, Mode: 0644, Size: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			tw := tar.NewWriter(gz)
			for i := range tt.entries {
				hdr := tt.entries[i]
				if err := tw.WriteHeader(&hdr); err != nil {
					t.Fatal(err)
				}
				if hdr.Size > 0 {
					tw.Write([]byte("x"))
				}
			}
			tw.Close()
			gz.Close()

			err := extractTarGz(&buf, t.TempDir())
			if !errors.Is(err, errUnsafeArchive) {
				t.Fatalf("extractTarGz() error = %v, want errUnsafeArchive", err)
			}
			if _, err := os.Stat(filepath.Join(outside, "evil.txt")); !os.IsNotExist(err) {
				t.Error("entry was written outside the destination")
			}
		})
	}
}

func TestExtractTarGz_KeepsInternalSymlink(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	tw.WriteHeader(&tar.Header{Name: "top/docs/", Typeflag: tar.TypeDir, Mode: 0755})
	tw.WriteHeader(&tar.Header{Name: "top/skills/pdf/README.md", Typeflag: tar.TypeSymlink, Linkname: "../../docs/pdf.md"})
	tw.Close()
	gz.Close()

	dest := t.TempDir()
	if err := extractTarGz(&buf, dest); err != nil {
		t.Fatalf("extractTarGz() error = %v", err)
	}
	got, err := os.Readlink(filepath.Join(dest, "skills", "pdf", "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "../../docs/pdf.md" {
		t.Errorf("link target = %q", got)
	}
}

func TestArchiveFetcher_Fetch_TruncatedArchive(t *testing.T) {
	archive := buildTarGz(t, map[string]string{
		"skills/pdf/SKILL.md": "---\nname: pdf\n---\n",
		"README.md":           "tools",
	})
	srv, _ := newArchiveServer(t, archive[:len(archive)/2])
	a := NewArchiveFetcher(WithBaseURL(srv.URL))

	owner := filepath.Join(t.TempDir(), "acme")
	dest := filepath.Join(owner, "tools")
	err := a.Fetch(context.Background(), "https://github.com/acme/tools", dest, Options{})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination exists after failed fetch: %v", err)
	}
	entries, err := os.ReadDir(owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("owner dir has %d entries, partial download left behind", len(entries))
	}
}
