package workspace

import (
	"errors"
	"fmt"
	"sync"
)

// ErrRegistryResolved is returned when registering or resolving after the
// registry has been resolved.
var ErrRegistryResolved = errors.New("registry already resolved")

// Plugin contributes to a mode's surface factory. Wrap receives the factory
// built by earlier plugins (nil for the first) and returns its replacement.
type Plugin struct {
	Mode Mode
	Name string
	Wrap func(next Factory) Factory
}

// Base is a plugin that provides a surface outright, ignoring earlier
// factories.
func Base(m Mode, name string, f Factory) Plugin {
	return Plugin{Mode: m, Name: name, Wrap: func(Factory) Factory { return f }}
}

// Registry collects plugins at startup and folds them into one factory per
// mode. Later registrations wrap earlier ones.
type Registry struct {
	mu        sync.RWMutex
	plugins   []Plugin
	factories map[Mode]Factory
	resolved  bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends p to its mode's chain.
func (r *Registry) Register(p Plugin) error {
	if p.Wrap == nil {
		return fmt.Errorf("plugin %q for %s has no Wrap", p.Name, p.Mode)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return fmt.Errorf("register %q: %w", p.Name, ErrRegistryResolved)
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Resolve folds each mode's plugins in registration order. It runs once.
func (r *Registry) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return ErrRegistryResolved
	}
	r.factories = make(map[Mode]Factory)
	for _, p := range r.plugins {
		r.factories[p.Mode] = p.Wrap(r.factories[p.Mode])
	}
	r.resolved = true
	return nil
}

// Resolved reports whether Resolve has run.
func (r *Registry) Resolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Factory returns the resolved factory for m, nil when the mode has no
// plugins or the registry is unresolved.
func (r *Registry) Factory(m Mode) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[m]
}

// Plugins lists the plugin names registered for m, outermost last.
func (r *Registry) Plugins(m Mode) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, p := range r.plugins {
		if p.Mode == m {
			out = append(out, p.Name)
		}
	}
	return out
}
