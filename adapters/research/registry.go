package research

import (
	"sort"
	"sync"

	"compass/ports"
)

// Registry maps provider names to adapters. Lookups for unknown names return
// the null adapter rather than failing, so the orchestrator never
// special-cases a provider.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*Adapter
}

var _ ports.ProviderSource = (*Registry)(nil)

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]*Adapter)}
}

// Register adapts a provider client and makes it available under name.
func (r *Registry) Register(name string, client any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = NewAdapter(name, client)
}

// AdapterFor implements ports.ProviderSource.AdapterFor.
func (r *Registry) AdapterFor(provider string) ports.ResearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.adapters[provider]; ok {
		return a
	}
	return &nullAdapter{name: provider}
}

// Providers implements ports.ProviderSource.Providers, sorted for stable
// iteration.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
