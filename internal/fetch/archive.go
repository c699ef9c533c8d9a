package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/smy-101/skill-linker/internal/constants"
	"github.com/smy-101/skill-linker/internal/logger"
	"github.com/smy-101/skill-linker/internal/source"
)

const defaultCodeloadURL = "https://codeload.github.com"

// ArchiveFetcher downloads GitHub tarballs instead of cloning. The result has
// no .git directory, so a refresh downloads the archive again.
type ArchiveFetcher struct {
	client  *resty.Client
	baseURL string
	logger  logger.Logger
}

// ArchiveOption configures an ArchiveFetcher.
type ArchiveOption func(*ArchiveFetcher)

// WithBaseURL overrides the codeload endpoint.
func WithBaseURL(url string) ArchiveOption {
	return func(a *ArchiveFetcher) {
		a.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithToken sends a bearer token, needed for private repositories.
func WithToken(token string) ArchiveOption {
	return func(a *ArchiveFetcher) {
		if token != "" {
			a.client.SetAuthToken(token)
		}
	}
}

// WithProxy routes downloads through proxy.
func WithProxy(proxy string) ArchiveOption {
	return func(a *ArchiveFetcher) {
		if proxy != "" {
			a.client.SetProxy(proxy)
		}
	}
}

// WithArchiveLogger sets the logger.
func WithArchiveLogger(l logger.Logger) ArchiveOption {
	return func(a *ArchiveFetcher) {
		a.logger = l
	}
}

// NewArchiveFetcher 创建归档下载器
func NewArchiveFetcher(opts ...ArchiveOption) *ArchiveFetcher {
	client := resty.New()
	client.SetHeader("User-Agent", "skill-linker-cli/1.0")

	a := &ArchiveFetcher{
		client:  client,
		baseURL: defaultCodeloadURL,
		logger:  logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch downloads the tarball for url at opts.Ref and extracts it into a
// temporary sibling of dest, which is renamed to dest only on success.
func (a *ArchiveFetcher) Fetch(ctx context.Context, url, dest string, opts Options) error {
	loc, err := source.Parse(url)
	if err != nil {
		return &FetchError{Type: ErrorTypeFetch, URL: url, Path: dest, Err: err}
	}
	if !strings.Contains(loc.CloneURL, "github.com") {
		return &FetchError{
			Type:   ErrorTypeFetch,
			URL:    url,
			Path:   dest,
			Output: "archive downloads are only available for github.com repositories",
			Hints:  []string{"Set fetch_method to git: `skill-linker config set fetch_method git`"},
		}
	}

	ref := opts.Ref
	if ref == "" {
		ref = constants.DefaultRef
	}

	tmp, err := a.downloadTemp(ctx, loc.Owner, loc.Name, ref, dest)
	if err != nil {
		return a.wrap(ctx, ErrorTypeFetch, url, dest, err)
	}
	defer os.RemoveAll(tmp)

	if err := os.Rename(tmp, dest); err != nil {
		return &FetchError{Type: ErrorTypeFetch, URL: url, Path: dest, Err: err}
	}

	a.logger.Info("Downloaded repository archive", "url", url, "ref", ref, "path", dest)
	return nil
}

// Refresh downloads the default ref again into a temporary sibling directory
// and swaps it in place of dest. Owner and name come from the last two
// segments of dest.
func (a *ArchiveFetcher) Refresh(ctx context.Context, dest string) error {
	name := filepath.Base(dest)
	owner := filepath.Base(filepath.Dir(dest))
	url := fmt.Sprintf("https://github.com/%s/%s", owner, name)

	tmp, err := a.downloadTemp(ctx, owner, name, constants.DefaultRef, dest)
	if err != nil {
		return a.wrap(ctx, ErrorTypeRefresh, url, dest, err)
	}
	defer os.RemoveAll(tmp)

	if err := os.RemoveAll(dest); err != nil {
		return &FetchError{Type: ErrorTypeRefresh, URL: url, Path: dest, Err: err}
	}
	if err := os.Rename(tmp, dest); err != nil {
		return &FetchError{Type: ErrorTypeRefresh, URL: url, Path: dest, Err: err}
	}

	a.logger.Info("Refreshed repository archive", "path", dest)
	return nil
}

// downloadTemp extracts the archive into a new hidden sibling of dest and
// returns its path. Nothing is left behind on failure.
func (a *ArchiveFetcher) downloadTemp(ctx context.Context, owner, name, ref, dest string) (string, error) {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-download-")
	if err != nil {
		return "", err
	}
	if err := os.Chmod(tmp, 0755); err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	if err := a.download(ctx, owner, name, ref, tmp); err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	return tmp, nil
}

func (a *ArchiveFetcher) download(ctx context.Context, owner, name, ref, dest string) error {
	archiveURL := fmt.Sprintf("%s/%s/%s/tar.gz/%s", a.baseURL, owner, name, ref)
	a.logger.Debug("Downloading archive", "url", archiveURL)

	resp, err := a.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(archiveURL)
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return &statusError{code: resp.StatusCode()}
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	return extractTarGz(body, dest)
}

func (a *ArchiveFetcher) wrap(ctx context.Context, typ ErrorType, url, dest string, err error) error {
	kind := KindNetwork
	var se *statusError
	switch {
	case ctx.Err() != nil:
		kind = KindCancelled
	case errors.As(err, &se):
		kind = se.kind()
	case errors.Is(err, errUnsafeArchive):
		kind = KindUnknown
	}
	return &FetchError{
		Type:   typ,
		Kind:   kind,
		URL:    url,
		Path:   dest,
		Output: err.Error(),
		Hints:  hintsFor(kind, url),
		Err:    err,
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("archive download returned %d", e.code)
}

func (e *statusError) kind() ErrorKind {
	switch e.code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindRepoNotFound
	default:
		return KindUnknown
	}
}

var errUnsafeArchive = errors.New("archive entry escapes destination")

// extractTarGz writes the archive into dest, dropping the single top-level
// directory GitHub wraps every tarball in.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer gz.Close()

	root := filepath.Clean(dest)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		_, rel, ok := strings.Cut(hdr.Name, "/")
		if !ok || rel == "" {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(rel))
		if !within(root, target) {
			return fmt.Errorf("%w: %s", errUnsafeArchive, hdr.Name)
		}

		if err := checkNoSymlinks(root, target); err != nil {
			return fmt.Errorf("%w: %s", err, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if !linkInside(root, target, hdr.Linkname) {
				return fmt.Errorf("%w: %s -> %s", errUnsafeArchive, hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// linkInside reports whether a symlink at link pointing to linkname stays
// inside root. Absolute link names are always rejected.
func linkInside(root, link, linkname string) bool {
	if linkname == "" || filepath.IsAbs(linkname) {
		return false
	}
	return within(root, filepath.Join(filepath.Dir(link), filepath.FromSlash(linkname)))
}

// checkNoSymlinks fails when any existing path component between root and
// target, target included, is a symlink, so no entry is written through one.
func checkNoSymlinks(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." {
		return err
	}
	p := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		p = filepath.Join(p, part)
		info, err := os.Lstat(p)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return errUnsafeArchive
		}
	}
	return nil
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
