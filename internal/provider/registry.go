package provider

import (
	"fmt"
	"slices"
	"sync"
)

// Maps provider names to factories.
//
// A registry is built once per process and passed to whatever opens
// providers. It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex         // Guards factories.
	factories map[string]Factory // Factories by provider name.
}

// Creates a registry holding the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories[Remote] = NewRemote
	r.factories[Local] = NewLocal
	r.factories[Containerd] = NewContainerd
	return r
}

// Adds a provider factory under name.
//
// Registering a name twice is an error wrapping [ErrDuplicateProvider].
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
	}
	r.factories[name] = f
	return nil
}

// Creates the provider registered under name.
//
// An unknown name is an error wrapping [ErrUnknownProvider].
func (r *Registry) Open(name string, cfg Config) (Provider, error) {
	r.mu.Lock()
	f, ok := r.factories[name]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProvider, name, r.Names())
	}
	return f(cfg)
}

// Returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
