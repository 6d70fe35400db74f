package component

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"unistore/view"
)

// Priority constants for component registration.
// Higher priority values override lower priority registrations with
// the same name.
const (
	// PriorityDefault is the priority for stock components.
	PriorityDefault = 0

	// PriorityOverride is used by replacement implementations to take
	// precedence over a stock component of the same name.
	PriorityOverride = 100
)

// Factory creates a component instance from the provider context.
// Factories bind connected wrappers to ctx.Store before returning
// them.
type Factory func(ctx *Context) (view.Component, error)

// Info contains metadata about a registered component.
type Info struct {
	// Name is the unique identifier for the component and becomes its
	// mount name.
	Name string

	// Description is a human-readable description of the component.
	Description string

	// Priority determines which registration wins when multiple
	// components share a name. Higher priority wins.
	Priority int

	// Factory creates new instances of the component.
	Factory Factory

	// Order specifies the mount order. Lower values mount first.
	// Default is 50.
	Order int
}

// Created pairs an instantiated component with its registry name, in
// mount order.
type Created struct {
	Name      string
	Component view.Component
}

// Registry manages component registration and instantiation. It
// supports priority-based override, allowing replacement
// implementations to displace stock ones at compile time through
// import ordering.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Info
	order      []string
}

// NewRegistry creates a new component registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]Info),
		order:      make([]string, 0),
	}
}

// Register adds a component to the registry. If one with the same name
// already exists, the higher priority wins; equal priorities favor the
// later registration.
func (r *Registry) Register(info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info.Name == "" {
		return fmt.Errorf("component name cannot be empty")
	}
	if info.Factory == nil {
		return fmt.Errorf("component %s: factory cannot be nil", info.Name)
	}

	// Set default order if not specified
	if info.Order == 0 {
		info.Order = 50
	}

	existing, exists := r.components[info.Name]
	if exists {
		if info.Priority < existing.Priority {
			log.Printf("Component %q registration skipped (priority %d < existing %d)",
				info.Name, info.Priority, existing.Priority)
			return nil
		}
		log.Printf("Component %q being overridden (priority %d -> %d)",
			info.Name, existing.Priority, info.Priority)
	}

	r.components[info.Name] = info
	if !exists {
		r.order = append(r.order, info.Name)
	}

	log.Printf("Component %q registered (priority %d, order %d): %s",
		info.Name, info.Priority, info.Order, info.Description)

	return nil
}

// Get returns the component info for a given name, or nil if not
// found.
func (r *Registry) Get(name string) *Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.components[name]
	if !ok {
		return nil
	}
	return &info
}

// List returns all registered components sorted by mount order, then
// name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Info, 0, len(r.components))
	for _, name := range r.order {
		result = append(result, r.components[name])
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// CreateAll instantiates every registered component with the provider
// context, in mount order. A mid-list failure unmounts the anchored
// components already created and returns the error.
func (r *Registry) CreateAll(ctx *Context) ([]Created, error) {
	infos := r.List()
	result := make([]Created, 0, len(infos))

	for _, info := range infos {
		c, err := info.Factory(ctx)
		if err != nil {
			for i := len(result) - 1; i >= 0; i-- {
				if a, ok := result[i].Component.(view.Anchored); ok {
					a.Unmount()
				}
			}
			return nil, fmt.Errorf("failed to create component %s: %w", info.Name, err)
		}
		result = append(result, Created{Name: info.Name, Component: c})
	}

	return result, nil
}

// Names returns the names of all registered components in registration
// order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

// Clear removes all registered components. Useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.components = make(map[string]Info)
	r.order = make([]string, 0)
}

// Global registry instance
var globalRegistry = NewRegistry()

// Register adds a component to the global registry. This is typically
// called from init() functions in component packages.
func Register(info Info) error {
	return globalRegistry.Register(info)
}

// Get returns component info from the global registry.
func Get(name string) *Info {
	return globalRegistry.Get(name)
}

// List returns all components from the global registry.
func List() []Info {
	return globalRegistry.List()
}

// CreateAll creates all components from the global registry.
func CreateAll(ctx *Context) ([]Created, error) {
	return globalRegistry.CreateAll(ctx)
}

// Names returns all component names from the global registry.
func Names() []string {
	return globalRegistry.Names()
}

// ClearGlobal clears the global registry. Useful for testing.
func ClearGlobal() {
	globalRegistry.Clear()
}
