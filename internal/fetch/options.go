// Package fetch implements the repository transports used by the library
// materializer: a git client wrapper and a tarball downloader.
package fetch

// Options controls a single fetch.
type Options struct {
	// Shallow limits history to the latest commit.
	Shallow bool
	// Ref is the branch or tag to fetch. Empty means the remote default.
	Ref string
}
