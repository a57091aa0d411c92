// Package registry maps publisher class names, as written in pit files, to factories.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/orchard/pkg/domain"
)

// Factory creates a publisher from the parameters a test gives it.
type Factory func(params map[string]any) (domain.Publisher, error)

// Registry manages the available publisher classes.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a publisher class to the registry.
// If a class with the same name exists, it is overwritten.
func (r *Registry) Register(class string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[class] = fn
}

// New looks up a class by name and creates a publisher.
// Returns an error if the class is not found.
func (r *Registry) New(class string, params map[string]any) (domain.Publisher, error) {
	r.mu.RLock()
	fn, ok := r.factories[class]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("publisher class not found: %s", class)
	}

	p, err := fn(params)
	if err != nil {
		return nil, fmt.Errorf("publisher class %s: %w", class, err)
	}
	return p, nil
}

// Has reports whether class is registered.
func (r *Registry) Has(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[class]
	return ok
}

// Classes returns the registered class names in lexical order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
