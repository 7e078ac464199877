package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/framegraph/internal/node"
)

// Module is the interface that every builtin function set implements to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the named executables of a single runtime.
type Registry struct {
	fns map[string]node.Executable
}

// New creates a registry populated by the given modules.
func New(modules ...Module) *Registry {
	r := &Registry{fns: make(map[string]node.Executable)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a named executable. Registering a name twice is a programming
// error and panics.
func (r *Registry) Register(name string, exec node.Executable) {
	if _, exists := r.fns[name]; exists {
		panic(fmt.Sprintf("function with name '%s' already registered", name))
	}
	if exec.Fn == nil {
		panic(fmt.Sprintf("function '%s' has no callable", name))
	}
	slog.Debug("Registering function.", "name", name, "arity", exec.Arity)
	r.fns[name] = exec
}

// RegisterFunc adapts a plain Go function with node.Reflect and registers it.
func (r *Registry) RegisterFunc(name string, fn any) {
	exec, err := node.Reflect(fn)
	if err != nil {
		panic(fmt.Sprintf("function '%s': %v", name, err))
	}
	r.Register(name, exec)
}

// Lookup returns the executable registered under name.
func (r *Registry) Lookup(name string) (node.Executable, bool) {
	exec, ok := r.fns[name]
	return exec, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
