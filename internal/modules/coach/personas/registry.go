// Package personas holds the static persona catalog. Contracts are YAML
// documents embedded at build time; LoadFS accepts an external directory.
package personas

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

//go:embed contracts/*.yaml
var embedded embed.FS

type Registry struct {
	byID     map[string]Contract
	byPillar map[pillars.ID]string
	order    []string
}

// Default returns the registry built from the embedded contracts.
func Default() (*Registry, error) {
	return LoadFS(embedded, "contracts")
}

// MustDefault panics if the embedded contracts are invalid. Used in tests and
// at startup where a broken catalog should stop the process.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read contracts dir: %w", err)
	}
	var contracts []Contract
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var c Contract
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		contracts = append(contracts, c)
	}
	return New(contracts...)
}

// New builds and validates a registry.
func New(contracts ...Contract) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]Contract, len(contracts)),
		byPillar: make(map[pillars.ID]string, len(pillars.All)),
	}
	for _, c := range contracts {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", c.ID)
		}
		if c.IsPillar() {
			if other, dup := r.byPillar[c.Pillar]; dup {
				return nil, fmt.Errorf("pillar %s claimed by both %s and %s", c.Pillar, other, c.ID)
			}
			r.byPillar[c.Pillar] = c.ID
		}
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(r.order, func(i, j int) bool { return r.rank(r.order[i]) < r.rank(r.order[j]) })
	return r, nil
}

// Validate checks catalog-wide invariants: every pillar has exactly one
// persona and the crisis handler exists.
func (r *Registry) Validate() error {
	for _, p := range pillars.All {
		if _, ok := r.byPillar[p]; !ok {
			return fmt.Errorf("pillar %s has no persona", p)
		}
	}
	if _, ok := r.byID[CrisisHandlerID]; !ok {
		return fmt.Errorf("missing %s persona", CrisisHandlerID)
	}
	return nil
}

func (r *Registry) rank(id string) int {
	c := r.byID[id]
	if c.IsPillar() {
		for i, p := range pillars.All {
			if p == c.Pillar {
				return i
			}
		}
	}
	return len(pillars.All)
}

func (r *Registry) Get(id string) (Contract, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) ForPillar(p pillars.ID) (Contract, bool) {
	id, ok := r.byPillar[p]
	if !ok {
		return Contract{}, false
	}
	return r.byID[id], true
}

// All returns pillar personas in pillar order, then cross-cutting ones.
func (r *Registry) All() []Contract {
	out := make([]Contract, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// CrossCutting returns the non-pillar personas except the crisis handler,
// which is only reachable through the crisis gate.
func (r *Registry) CrossCutting() []Contract {
	var out []Contract
	for _, c := range r.All() {
		if !c.IsPillar() && c.ID != CrisisHandlerID {
			out = append(out, c)
		}
	}
	return out
}
