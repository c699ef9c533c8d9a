// Package agents holds the catalog of supported coding agents and the
// directories they read skills from.
package agents

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/smy-101/skill-linker/internal/types"
	"github.com/tailscale/hujson"
)

//go:embed agents.json
var embeddedAgentsJSON []byte

// Catalog is an ordered, read-only set of agents.
type Catalog struct {
	agents []types.Agent
}

// DefaultAgents parses the embedded agent definitions without expanding "~".
func DefaultAgents() ([]types.Agent, error) {
	var agents []types.Agent
	if err := json.Unmarshal(embeddedAgentsJSON, &agents); err != nil {
		return nil, fmt.Errorf("parsing agent definitions: %w", err)
	}
	return agents, nil
}

// LoadCatalog builds the catalog from the embedded defaults plus the optional
// user file at extraPath. User agents with a known ID replace the default in
// place, others are appended. Global directories starting with "~" are
// expanded against home.
func LoadCatalog(home, extraPath string) (*Catalog, error) {
	agents, err := DefaultAgents()
	if err != nil {
		return nil, err
	}

	if extraPath != "" {
		extra, err := readUserAgents(extraPath)
		if err != nil {
			return nil, err
		}
		agents = merge(agents, extra)
	}

	for i := range agents {
		agents[i].GlobalDir = expandHome(agents[i].GlobalDir, home)
	}
	return NewCatalog(agents)
}

// NewCatalog validates agents and wraps them in a Catalog. All problems are
// reported together.
func NewCatalog(agents []types.Agent) (*Catalog, error) {
	var result *multierror.Error
	seen := make(map[string]bool)

	for i, a := range agents {
		if err := validate(a); err != nil {
			result = multierror.Append(result, fmt.Errorf("agent #%d: %w", i+1, err))
			continue
		}
		id := strings.ToLower(a.ID)
		if seen[id] {
			result = multierror.Append(result, fmt.Errorf("agent #%d: duplicate id %q", i+1, a.ID))
			continue
		}
		seen[id] = true
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, &CatalogError{
			Type:    ErrorTypeInvalidAgent,
			Message: "invalid agent catalog",
			Err:     err,
		}
	}

	c := &Catalog{agents: make([]types.Agent, len(agents))}
	copy(c.agents, agents)
	return c, nil
}

func validate(a types.Agent) error {
	var result *multierror.Error
	if strings.TrimSpace(a.ID) == "" {
		result = multierror.Append(result, fmt.Errorf("id is required"))
	}
	if strings.TrimSpace(a.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("name is required"))
	}
	switch {
	case a.ProjectDir == "":
		result = multierror.Append(result, fmt.Errorf("projectDir is required"))
	case filepath.IsAbs(a.ProjectDir):
		result = multierror.Append(result, fmt.Errorf("projectDir must be relative: %s", a.ProjectDir))
	}
	switch {
	case a.GlobalDir == "":
		result = multierror.Append(result, fmt.Errorf("globalDir is required"))
	case !filepath.IsAbs(a.GlobalDir) && !strings.HasPrefix(a.GlobalDir, "~"):
		result = multierror.Append(result, fmt.Errorf("globalDir must be absolute or start with ~: %s", a.GlobalDir))
	}
	return result.ErrorOrNil()
}

// readUserAgents reads a JSON array of agents. Comments and trailing commas
// are allowed.
func readUserAgents(path string) ([]types.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{
			Type:    ErrorTypeInvalidCatalog,
			Path:    path,
			Message: "failed to read agents file",
			Err:     err,
		}
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, &CatalogError{
			Type:    ErrorTypeInvalidCatalog,
			Path:    path,
			Message: "failed to parse agents file",
			Err:     err,
		}
	}

	var agents []types.Agent
	if err := json.Unmarshal(std, &agents); err != nil {
		return nil, &CatalogError{
			Type:    ErrorTypeInvalidCatalog,
			Path:    path,
			Message: "failed to parse agents file",
			Err:     err,
		}
	}
	return agents, nil
}

func merge(base, extra []types.Agent) []types.Agent {
	merged := make([]types.Agent, len(base))
	copy(merged, base)

	for _, a := range extra {
		replaced := false
		for i := range merged {
			if strings.EqualFold(merged[i].ID, a.ID) {
				merged[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, a)
		}
	}
	return merged
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, filepath.FromSlash(rest))
	}
	return path
}

// All returns every agent in catalog order.
func (c *Catalog) All() []types.Agent {
	out := make([]types.Agent, len(c.agents))
	copy(out, c.agents)
	return out
}

// Len returns the number of agents.
func (c *Catalog) Len() int {
	return len(c.agents)
}

// Find looks an agent up by ID, display name or alias, ignoring case.
func (c *Catalog) Find(nameOrAlias string) (types.Agent, bool) {
	key := strings.TrimSpace(nameOrAlias)
	for _, a := range c.agents {
		if strings.EqualFold(a.ID, key) || strings.EqualFold(a.Name, key) {
			return a, true
		}
		for _, alias := range a.Aliases {
			if strings.EqualFold(alias, key) {
				return a, true
			}
		}
	}
	return types.Agent{}, false
}

// Resolve maps names to agents in first-seen order, dropping duplicates.
// Names that match nothing are returned in unknown.
func (c *Catalog) Resolve(names []string) (agents []types.Agent, unknown []string) {
	seen := make(map[string]bool)
	for _, name := range names {
		a, ok := c.Find(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		agents = append(agents, a)
	}
	return agents, unknown
}

// DetectInstalled returns the agents whose global skills directory exists.
// The filesystem is probed on every call.
func (c *Catalog) DetectInstalled() []types.Agent {
	var detected []types.Agent
	for _, a := range c.agents {
		if info, err := os.Stat(a.GlobalDir); err == nil && info.IsDir() {
			detected = append(detected, a)
		}
	}
	return detected
}
