package backend

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/texpen/internal/equation"
)

// Registry holds the backends compiled into the binary, keyed by kind.
type Registry struct {
	all map[equation.BackendKind]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{all: make(map[equation.BackendKind]Backend)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a backend. Registering the same kind twice is a programming
// error and panics.
func (r *Registry) Register(b Backend) {
	kind := b.Kind()
	if _, exists := r.all[kind]; exists {
		panic(fmt.Sprintf("backend with kind '%s' already registered", kind))
	}
	r.all[kind] = b
}

// Resolve returns the backend for kind. An unknown kind is reported as a
// ToolMissing *Error so it can be surfaced to the user like any other
// rendering failure.
func (r *Registry) Resolve(kind equation.BackendKind) (Backend, error) {
	b, ok := r.all[kind]
	if !ok {
		return nil, &Error{Kind: ToolMissing, Tool: string(kind), Detail: "no such backend registered"}
	}
	return b, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []equation.BackendKind {
	kinds := make([]equation.BackendKind, 0, len(r.all))
	for k := range r.all {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Probe reports the availability of every registered backend.
func (r *Registry) Probe() map[equation.BackendKind]bool {
	out := make(map[equation.BackendKind]bool, len(r.all))
	for k, b := range r.all {
		out[k] = b.Available()
	}
	return out
}
