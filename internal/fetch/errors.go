package fetch

import (
	"fmt"
	"strings"
)

type ErrorType int

const (
	ErrorTypeFetch ErrorType = iota
	ErrorTypeRefresh
)

// ErrorKind classifies why git or the download failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindRepoNotFound
	KindNetwork
	KindSSHKey
	KindHostKey
	KindConflict
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "Authentication Required"
	case KindRepoNotFound:
		return "Repository Not Found"
	case KindNetwork:
		return "Network Error"
	case KindSSHKey:
		return "SSH Key Error"
	case KindHostKey:
		return "SSH Host Key Error"
	case KindConflict:
		return "Merge Conflict"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown Error"
	}
}

var (
	// ErrFetch matches any clone/download failure via errors.Is.
	ErrFetch = &FetchError{Type: ErrorTypeFetch}
	// ErrRefresh matches any pull/re-download failure via errors.Is.
	ErrRefresh = &FetchError{Type: ErrorTypeRefresh}
)

// FetchError wraps the output of a failed fetch or refresh with a
// classification and hints for the user.
type FetchError struct {
	Type   ErrorType
	Kind   ErrorKind
	URL    string
	Path   string
	Output string
	Hints  []string
	Err    error
}

func (e *FetchError) Error() string {
	op := "clone"
	if e.Type == ErrorTypeRefresh {
		op = "pull"
	}
	return fmt.Sprintf("failed to %s repository (%s): %s", op, e.Kind, e.firstLine())
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	if t, ok := target.(*FetchError); ok {
		return e.Type == t.Type
	}
	return false
}

func (e *FetchError) firstLine() string {
	for _, line := range strings.Split(e.Output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "Cloning into") {
			return line
		}
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "no output"
}

// classifyOutput pattern-matches git stderr to determine the error kind.
func classifyOutput(output string) ErrorKind {
	lower := strings.ToLower(output)

	switch {
	case containsAny(lower, "permission denied (publickey)", "no such identity", "load key", "identity file"):
		return KindSSHKey
	case containsAny(lower, "host key verification failed", "known_hosts"):
		return KindHostKey
	case containsAny(lower, "could not read username", "could not read password", "invalid credentials",
		"authentication failed", "401", "403", "logon failed"):
		return KindAuth
	case containsAny(lower, "repository not found", "does not appear to be a git repository",
		"not found", "project not found"):
		return KindRepoNotFound
	case containsAny(lower, "could not resolve host", "connection refused", "connection timed out",
		"network is unreachable", "no route to host", "name or service not known"):
		return KindNetwork
	case containsAny(lower, "conflict", "could not apply", "cannot pull with rebase", "unstaged changes",
		"would be overwritten"):
		return KindConflict
	}
	return KindUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hintsFor(kind ErrorKind, url string) []string {
	switch kind {
	case KindAuth:
		hints := []string{
			"Configure a git credential helper: `git config --global credential.helper store`",
		}
		if ssh := httpsToSSH(url); ssh != "" {
			hints = append(hints, fmt.Sprintf("Try SSH instead: %s", ssh))
		}
		return hints
	case KindSSHKey:
		return []string{
			"Ensure your SSH key is loaded: `ssh-add -l`",
			"Check `~/.ssh/config` for the correct Host alias if using multiple accounts",
		}
	case KindHostKey:
		return []string{
			"The SSH host key is not trusted. Connect once manually and accept the host key",
		}
	case KindRepoNotFound:
		return []string{
			"Verify the repository URL is correct",
			"Ensure you have access to this repository (it may be private)",
		}
	case KindNetwork:
		return []string{
			"Check your internet connection",
			"If behind a proxy, ensure git is configured to use it",
		}
	case KindConflict:
		return []string{
			"Resolve the conflict in the cached repository or remove it and install again",
		}
	default:
		return nil
	}
}

// httpsToSSH converts https://host/owner/repo to git@host:owner/repo.git.
func httpsToSSH(url string) string {
	rest, ok := strings.CutPrefix(url, "https://")
	if !ok {
		return ""
	}
	host, path, ok := strings.Cut(rest, "/")
	if !ok || path == "" {
		return ""
	}
	if !strings.HasSuffix(path, ".git") {
		path += ".git"
	}
	return "git@" + host + ":" + path
}
