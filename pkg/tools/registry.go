package tools

import (
	"fmt"

	"github.com/parleychat/parley/pkg/provider"
)

// Registry holds the functions available to a conversation, keyed by name.
// A Registry is built once at setup time and read concurrently afterwards;
// Register must not be called after the registry is in use.
type Registry struct {
	byName map[string]*Function
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Function)}
}

// Register adds a function. Registering a duplicate name is an error.
func (r *Registry) Register(fn *Function) error {
	if fn.Name == "" {
		return fmt.Errorf("tools: function name is required")
	}
	if _, exists := r.byName[fn.Name]; exists {
		return fmt.Errorf("tools: function %q already registered", fn.Name)
	}
	r.byName[fn.Name] = fn
	r.order = append(r.order, fn.Name)
	return nil
}

// Lookup returns the function with the given name, or nil if unknown.
func (r *Registry) Lookup(name string) *Function {
	return r.byName[name]
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.order)
}

// Subset returns a new Registry containing only the named functions.
// Names with no registered function are skipped. This narrows the full
// registry down to what a particular assistant has enabled.
func (r *Registry) Subset(names []string) *Registry {
	sub := NewRegistry()
	for _, name := range names {
		if fn := r.byName[name]; fn != nil {
			// Error impossible: source registry already rejected duplicates.
			_ = sub.Register(fn)
		}
	}
	return sub
}

// Definitions returns the provider-facing declarations of all registered
// functions, in registration order.
func (r *Registry) Definitions() []provider.ToolDefinition {
	if len(r.order) == 0 {
		return nil
	}
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		fn := r.byName[name]
		defs = append(defs, provider.ToolDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters,
		})
	}
	return defs
}
