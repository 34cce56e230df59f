package check

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Registry holds checks by name.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// Register adds a check. Names must be unique.
func (r *Registry) Register(c Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.checks[name]; exists {
		return fmt.Errorf("check %q already registered", name)
	}
	r.checks[name] = c
	return nil
}

// Get returns the check registered under name.
func (r *Registry) Get(name string) (Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checks[name]
	return c, ok
}

// Names returns the registered check names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RunAll runs every registered check in name order.
// A panicking check yields a failed envelope and does not stop the others.
func (r *Registry) RunAll(ctx context.Context, repo Repository) map[string]Envelope {
	results := make(map[string]Envelope)
	for _, name := range r.Names() {
		c, _ := r.Get(name)
		results[name] = runGuarded(name, func() Envelope { return c.Run(ctx, repo) })
	}
	return results
}
