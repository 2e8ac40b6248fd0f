// Package catalog describes the API surfaces of the platform: what a call
// costs, how many calls a day the quota allows and the per-second rate limit.
//
// The built-in catalog is embedded; API_CATALOG_FILE replaces it entirely.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// API is one catalog entry.
type API struct {
	Name               string  `yaml:"name" json:"name"`
	CostPerCall        float64 `yaml:"cost_per_call" json:"cost_per_call"`
	QuotaDaily         int     `yaml:"quota_daily" json:"quota_daily"`
	RateLimitPerSecond int     `yaml:"rate_limit_per_second" json:"rate_limit_per_second"`
}

type Catalog struct {
	apis   []API
	byName map[string]API
}

type document struct {
	APIs []API `yaml:"apis"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file, or returns the default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(doc.APIs) == 0 {
		return nil, errors.New("catalog: no apis defined")
	}
	c := &Catalog{byName: make(map[string]API, len(doc.APIs))}
	for _, a := range doc.APIs {
		if a.Name == "" {
			return nil, errors.New("catalog: api without a name")
		}
		if _, dup := c.byName[a.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate api %q", a.Name)
		}
		if a.CostPerCall < 0 || a.QuotaDaily < 0 || a.RateLimitPerSecond < 0 {
			return nil, fmt.Errorf("catalog: api %q has a negative limit", a.Name)
		}
		c.byName[a.Name] = a
		c.apis = append(c.apis, a)
	}
	sort.Slice(c.apis, func(i, j int) bool { return c.apis[i].Name < c.apis[j].Name })
	return c, nil
}

// APIs returns all entries sorted by name.
func (c *Catalog) APIs() []API {
	out := make([]API, len(c.apis))
	copy(out, c.apis)
	return out
}

func (c *Catalog) Lookup(name string) (API, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// CostPerCall is zero for APIs missing from the catalog.
func (c *Catalog) CostPerCall(name string) float64 {
	return c.byName[name].CostPerCall
}
