package chain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/framegraph/internal/funcs"
	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/registry"
)

// ErrUnknownMethod is returned when a handle's table has no such method.
var ErrUnknownMethod = errors.New("unknown method")

// Method is one chainable operation.
type Method struct {
	// Exec receives the receiver as its first argument.
	Exec node.Executable
	// Next is the table of the handle returned by the call. A nil Next ends
	// the chain.
	Next *Table
}

// Table is a named set of methods.
type Table struct {
	name    string
	methods map[string]Method
}

// NewTable creates an empty table.
func NewTable(name string) *Table {
	return &Table{name: name, methods: make(map[string]Method)}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Add registers a method. Adding the same name twice is an error.
func (t *Table) Add(name string, m Method) error {
	if _, exists := t.methods[name]; exists {
		return fmt.Errorf("table '%s': method '%s' already exists", t.name, name)
	}
	if m.Exec.Fn == nil {
		return fmt.Errorf("table '%s': method '%s': %w", t.name, name, node.ErrMissingCallable)
	}
	t.methods[name] = m
	return nil
}

// Lookup returns the method called name.
func (t *Table) Lookup(name string) (Method, error) {
	if t == nil {
		return Method{}, fmt.Errorf("%w '%s': value does not support chaining", ErrUnknownMethod, name)
	}
	m, ok := t.methods[name]
	if !ok {
		return Method{}, fmt.Errorf("%w '%s' on %s, available: %s", ErrUnknownMethod, name, t.name, strings.Join(t.Names(), ", "))
	}
	return m, nil
}

// Names returns the method names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables are the standard method tables.
type Tables struct {
	// Math is bound to numbers. Every method returns a number.
	Math *Table
	// Object is bound to scene objects. Transforms return objects; render
	// returns a handle and ends the chain.
	Object *Table
}

// Standard builds the math and object tables from the functions in reg.
// Functions missing from reg are left out.
func Standard(reg *registry.Registry) (Tables, error) {
	ts := Tables{Math: NewTable("math"), Object: NewTable("object")}

	for _, name := range funcs.MathNames {
		if err := addFrom(reg, ts.Math, name, ts.Math); err != nil {
			return Tables{}, err
		}
	}
	for _, name := range funcs.ObjectNames {
		next := ts.Object
		if name == "render" {
			next = nil
		}
		if err := addFrom(reg, ts.Object, name, next); err != nil {
			return Tables{}, err
		}
	}
	return ts, nil
}

func addFrom(reg *registry.Registry, t *Table, name string, next *Table) error {
	exec, ok := reg.Lookup(name)
	if !ok {
		return nil
	}
	if exec.Arity == 0 {
		return fmt.Errorf("function '%s' takes no receiver", name)
	}
	return t.Add(name, Method{Exec: exec, Next: next})
}
