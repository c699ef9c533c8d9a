package install

import (
	"fmt"
	"strings"
)

// RefreshPolicy controls what happens when --from names a repository that is
// already cached.
type RefreshPolicy string

const (
	// RefreshAuto pulls only when --yes is given.
	RefreshAuto RefreshPolicy = "auto"
	// RefreshAsk asks the user; without a terminal it behaves like RefreshAuto.
	RefreshAsk RefreshPolicy = "ask"
	// RefreshNever always uses the cached copy.
	RefreshNever RefreshPolicy = "never"
)

// ParseRefreshPolicy parses auto, ask or never. Empty means auto.
func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	switch p := RefreshPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RefreshAuto, nil
	case RefreshAuto, RefreshAsk, RefreshNever:
		return p, nil
	default:
		return "", &InstallError{
			Type:    ErrorTypeInvalidOption,
			Message: fmt.Sprintf("invalid refresh policy: %s. Use: auto, ask, or never", s),
		}
	}
}
