package chain

import (
	"fmt"

	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/registry"
)

// Builder adds chained nodes to a graph.
type Builder struct {
	g   *graph.Graph
	reg *registry.Registry
	seq int
}

// NewBuilder creates a builder over g. reg resolves the names passed to
// Func and may be nil if Func is not used.
func NewBuilder(g *graph.Graph, reg *registry.Registry) *Builder {
	return &Builder{g: g, reg: reg}
}

// Graph returns the graph being built.
func (b *Builder) Graph() *graph.Graph {
	return b.g
}

// Value adds a literal node and returns a handle bound to table.
func (b *Builder) Value(v any, table *Table) (Handle, error) {
	id := b.nextID("value")
	if err := b.g.AddNode(node.NewValue(id, v)); err != nil {
		return Handle{}, err
	}
	return Handle{b: b, id: id, table: table}, nil
}

// Node returns a handle for a node already in the graph.
func (b *Builder) Node(id string, table *Table) (Handle, error) {
	if _, ok := b.g.Node(id); !ok {
		return Handle{}, fmt.Errorf("graph '%s': node '%s': %w", b.g.ID, id, graph.ErrNodeNotFound)
	}
	return Handle{b: b, id: id, table: table}, nil
}

// Func adds a call of the registered function name and returns a handle to
// its result bound to next.
func (b *Builder) Func(name string, next *Table, args ...any) (Handle, error) {
	if b.reg == nil {
		return Handle{}, fmt.Errorf("function '%s': builder has no function registry", name)
	}
	exec, ok := b.reg.Lookup(name)
	if !ok {
		return Handle{}, fmt.Errorf("unknown function '%s'", name)
	}
	return b.call(name, exec, next, args)
}

// Output makes h the output node of the graph.
func (b *Builder) Output(h Handle) {
	b.g.Out = h.id
}

func (b *Builder) call(name string, exec node.Executable, next *Table, args []any) (_ Handle, err error) {
	if exec.Arity >= 0 && len(args) != exec.Arity {
		return Handle{}, fmt.Errorf("%s: %w: expected %d, got %d", name, node.ErrArity, exec.Arity, len(args))
	}
	for i, arg := range args {
		if h, ok := arg.(Handle); ok && h.b != b {
			return Handle{}, fmt.Errorf("%s argument %d: handle '%s' belongs to another builder", name, i, h.id)
		}
	}

	// Nodes added by this call are removed again if wiring fails.
	var added []string
	defer func() {
		if err != nil {
			for _, id := range added {
				b.g.RemoveNode(id)
			}
		}
	}()

	id := b.nextID(name)
	if err := b.g.AddNode(node.NewExecutable(id, exec.Fn, exec.Arity, node.WithUUID(node.NewUUID()))); err != nil {
		return Handle{}, err
	}
	added = append(added, id)
	for i, arg := range args {
		from, created, err := b.operand(arg)
		if err != nil {
			return Handle{}, fmt.Errorf("%s argument %d: %w", name, i, err)
		}
		if created {
			added = append(added, from)
		}
		if err := b.g.AddEdge(from, id, graph.ArgSlot(i)); err != nil {
			return Handle{}, fmt.Errorf("%s argument %d: %w", name, i, err)
		}
	}
	return Handle{b: b, id: id, table: next}, nil
}

// operand returns the node id feeding an argument, adding a literal node for
// plain values. created reports whether a node was added.
func (b *Builder) operand(arg any) (id string, created bool, err error) {
	if h, ok := arg.(Handle); ok {
		return h.id, false, nil
	}
	v, err := b.Value(arg, nil)
	if err != nil {
		return "", false, err
	}
	return v.id, true, nil
}

func (b *Builder) nextID(prefix string) string {
	for {
		b.seq++
		id := fmt.Sprintf("%s#%d", prefix, b.seq)
		if _, exists := b.g.Node(id); !exists {
			return id
		}
	}
}

// Handle refers to a node created by a Builder.
type Handle struct {
	b     *Builder
	id    string
	table *Table
}

// ID returns the id of the node.
func (h Handle) ID() string {
	return h.id
}

// Table returns the methods available on the handle.
func (h Handle) Table() *Table {
	return h.table
}

// Call applies a method of the handle's table with h as the receiver.
func (h Handle) Call(method string, args ...any) (Handle, error) {
	if h.b == nil {
		return Handle{}, fmt.Errorf("%w '%s': zero handle", ErrUnknownMethod, method)
	}
	m, err := h.table.Lookup(method)
	if err != nil {
		return Handle{}, err
	}
	return h.b.call(method, m.Exec, m.Next, append([]any{h}, args...))
}
