// Package source turns repository locator strings into structured locators.
// Parsing is a pure string transformation: no network or filesystem access.
package source

import (
	"regexp"
	"strings"

	"github.com/smy-101/skill-linker/internal/constants"
	"github.com/smy-101/skill-linker/internal/types"
)

const treeSegment = "/tree/"

// repoPattern matches a host-qualified clone URL and captures owner and name
// from its final two path segments.
//
// Accepted prefixes:
//   - scheme://[user@]host/   (https, http, ssh, git)
//   - user@host:              (scp-like SSH)
//   - host.tld[:port]/        (scheme-less)
var repoPattern = regexp.MustCompile(
	`^(?:(?:https?|ssh|git)://(?:[^@/\s]+@)?[^/\s]+/|[^@/\s:]+@[^:/\s]+:|([a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+(?::\d+)?/))` +
		`(?:[^/\s]+/)*([^/\s]+)/([^/\s]+?)(?:\.git)?/?$`,
)

// Parse parses a repository locator such as
//
//	https://github.com/owner/name
//	https://github.com/owner/name.git
//	git@github.com:owner/name.git
//	https://github.com/owner/name/tree/<ref>/<subpath>
//
// When a /tree/ segment is present, everything before it is the clone URL,
// the next segment is the ref and the rest is the subpath. Otherwise the ref
// defaults to "main" and the subpath is empty.
func Parse(locator string) (*types.RepositoryLocator, error) {
	input := strings.TrimSpace(locator)
	if input == "" {
		return nil, &LocatorError{
			Type:    ErrorTypeEmpty,
			Message: "locator cannot be empty",
		}
	}

	if loc, ok := parseTree(input); ok {
		return loc, nil
	}

	loc, ok := parseRepo(input)
	if !ok {
		return nil, invalid(locator)
	}
	loc.Ref = constants.DefaultRef
	return loc, nil
}

// parseTree tries every /tree/ occurrence from the left and accepts the
// first one whose prefix is a valid clone URL.
func parseTree(input string) (*types.RepositoryLocator, bool) {
	offset := 0
	for {
		idx := strings.Index(input[offset:], treeSegment)
		if idx < 0 {
			return nil, false
		}
		idx += offset
		offset = idx + 1

		prefix := input[:idx]
		rest := strings.Trim(input[idx+len(treeSegment):], "/")
		if rest == "" {
			continue
		}

		loc, ok := parseRepo(prefix)
		if !ok {
			continue
		}

		ref, subpath, _ := strings.Cut(rest, "/")
		loc.Ref = ref
		loc.Subpath = strings.Trim(subpath, "/")
		loc.ExplicitRef = true
		return loc, true
	}
}

func parseRepo(input string) (*types.RepositoryLocator, bool) {
	m := repoPattern.FindStringSubmatch(input)
	if m == nil {
		return nil, false
	}

	cloneURL := strings.TrimSuffix(input, "/")
	if m[1] != "" {
		cloneURL = "https://" + cloneURL
	}

	return &types.RepositoryLocator{
		Owner:    m[2],
		Name:     m[3],
		CloneURL: cloneURL,
	}, true
}

func invalid(locator string) error {
	return &LocatorError{
		Type:    ErrorTypeInvalidLocator,
		Locator: locator,
		Message: "invalid repository URL format (expected https://<host>/<owner>/<name>[/tree/<ref>/<path>])",
	}
}

// IsRemote reports whether s looks like a repository locator rather than a
// local path.
func IsRemote(s string) bool {
	_, err := Parse(s)
	return err == nil
}
