package strategy

import (
	"fmt"
	"sort"
	"sync"

	"LPQuant/internal/domain/service"
)

// Registry resolves strategies by name. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]service.RangeStrategy
	fallback string
}

// NewRegistry registers the given strategies. defaultName is returned by Get("").
func NewRegistry(defaultName string, strategies ...service.RangeStrategy) *Registry {
	r := &Registry{byName: make(map[string]service.RangeStrategy, len(strategies)), fallback: defaultName}
	for _, s := range strategies {
		r.byName[s.Name()] = s
	}
	return r
}

func (r *Registry) Register(s service.RangeStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[s.Name()] = s
}

// Get returns the named strategy, or the default one for an empty name.
func (r *Registry) Get(name string) (service.RangeStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.fallback
	}
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return s, nil
}

func (r *Registry) Default() string { return r.fallback }

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
