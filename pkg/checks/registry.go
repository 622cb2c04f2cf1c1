// Package checks provides the registry and implementation of all checks pagecheck runs
// against a fixture. This file defines the registry that allows checks to be registered,
// listed in a stable order, and selected by a profile.
package checks

import (
	"fmt"
	"sync"
)

// Func is the body of a check. It reports problems through t.
type Func func(t *T)

// Check is a named, registered check.
type Check struct {
	ID          string
	Group       string
	Description string
	Run         Func
	// Expands marks checks that report one sub-check per item, so filters
	// can select those sub-checks by ID.
	Expands bool
}

// Registry manages the registration and lookup of checks
type Registry struct {
	mu     sync.RWMutex
	checks map[string]*Check
	order  []string
}

// NewRegistry creates a new empty check registry
func NewRegistry() *Registry {
	return &Registry{
		checks: make(map[string]*Check),
	}
}

// Register adds a new check to the registry
func (r *Registry) Register(c Check) error {
	if c.ID == "" {
		return fmt.Errorf("check missing required ID")
	}
	if c.Run == nil {
		return fmt.Errorf("check '%s' has no body", c.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[c.ID]; exists {
		return fmt.Errorf("check '%s' is already registered", c.ID)
	}

	r.checks[c.ID] = &c
	r.order = append(r.order, c.ID)
	return nil
}

// MustRegister adds a new check to the registry, panicking if it fails
func (r *Registry) MustRegister(c Check) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get retrieves a check by ID
func (r *Registry) Get(id string) (*Check, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.checks[id]
	if !exists {
		return nil, fmt.Errorf("no check registered with ID '%s'", id)
	}
	return c, nil
}

// All returns every registered check in registration order.
func (r *Registry) All() []*Check {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Check, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.checks[id])
	}
	return all
}

// Select returns the checks named by ids in the given order, or every check
// when ids is empty.
func (r *Registry) Select(ids []string) ([]*Check, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}
	selected := make([]*Check, 0, len(ids))
	for _, id := range ids {
		c, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		selected = append(selected, c)
	}
	return selected, nil
}

// Global instance for convenience
var DefaultRegistry = NewRegistry()

// MustRegister registers a check with the default registry, panicking if it fails
func MustRegister(c Check) {
	DefaultRegistry.MustRegister(c)
}

// Get retrieves a check from the default registry
func Get(id string) (*Check, error) {
	return DefaultRegistry.Get(id)
}
