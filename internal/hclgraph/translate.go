package hclgraph

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/framegraph/internal/ctyconv"
	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/registry"
)

// translator turns decoded blocks into graph nodes and edges.
type translator struct {
	funcs *registry.Registry
	g     *graph.Graph
	// names maps every declared node name to the kind of block declaring it.
	names map[string]string
}

// declare records every block name so that args can refer to blocks in any
// order or file.
func (t *translator) declare(root *fileRoot) error {
	add := func(kind, name string) error {
		if prev, exists := t.names[name]; exists {
			return fmt.Errorf("duplicate name '%s': declared as %s and %s", name, prev, kind)
		}
		t.names[name] = kind
		return nil
	}
	for _, vb := range root.Values {
		if err := add("value", vb.Name); err != nil {
			return err
		}
	}
	for _, rb := range root.Refs {
		if err := add("ref", rb.Name); err != nil {
			return err
		}
	}
	for _, cb := range root.Calls {
		if err := add("call", cb.Name); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) value(vb *valueBlock) error {
	v, err := ctyconv.ToNative(vb.Value)
	if err != nil {
		return fmt.Errorf("value '%s': %w", vb.Name, err)
	}
	return t.g.AddNode(node.NewValue(vb.Name, v, node.WithUUID(vb.UUID)))
}

func (t *translator) ref(rb *refBlock) error {
	if rb.Ref == node.ExecutableRef {
		return fmt.Errorf("ref '%s': use a call block for executable nodes", rb.Name)
	}
	d, err := node.NewRef(rb.Name, rb.Ref, nil, node.WithUUID(rb.UUID))
	if err != nil {
		return err
	}
	return t.g.AddNode(d)
}

func (t *translator) call(cb *callBlock) error {
	exec, ok := t.funcs.Lookup(cb.Fn)
	if !ok {
		return fmt.Errorf("call '%s': unknown function '%s'", cb.Name, cb.Fn)
	}

	args, err := argExprs(cb.Args)
	if err != nil {
		return fmt.Errorf("call '%s': %w", cb.Name, err)
	}
	if exec.Arity >= 0 && len(args) != exec.Arity {
		return fmt.Errorf("call '%s': %w: %s expects %d, got %d", cb.Name, node.ErrArity, cb.Fn, exec.Arity, len(args))
	}

	id := cb.UUID
	if id == "" {
		id = node.NewUUID()
	}
	if err := t.g.AddNode(node.NewExecutable(cb.Name, exec.Fn, exec.Arity, node.WithUUID(id))); err != nil {
		return err
	}

	for i, expr := range args {
		slot := graph.ArgSlot(i)
		from, err := t.operand(cb.Name, slot, expr)
		if err != nil {
			return fmt.Errorf("call '%s' %s: %w", cb.Name, slot, err)
		}
		if err := t.g.AddEdge(from, cb.Name, slot); err != nil {
			return err
		}
	}
	return nil
}

// operand returns the node feeding one argument. A bare name refers to a
// declared block; a literal gets its own value node.
func (t *translator) operand(callName, slot string, expr hcl.Expression) (string, error) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() && len(traversal) == 1 {
		name := traversal.RootName()
		if _, ok := t.names[name]; !ok {
			return "", fmt.Errorf("%s: reference to undeclared node '%s'", expr.Range(), name)
		}
		return name, nil
	}

	if len(expr.Variables()) > 0 {
		return "", fmt.Errorf("%s: argument must be a node name or a literal", expr.Range())
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	native, err := ctyconv.ToNative(v)
	if err != nil {
		return "", err
	}

	id := callName + "." + slot
	if _, exists := t.names[id]; exists {
		return "", fmt.Errorf("literal node '%s' collides with a declared name", id)
	}
	if err := t.g.AddNode(node.NewValue(id, native)); err != nil {
		return "", err
	}
	return id, nil
}

// argExprs splits the args attribute into element expressions. An omitted
// attribute means no arguments.
func argExprs(expr hcl.Expression) ([]hcl.Expression, error) {
	if expr == nil {
		return nil, nil
	}
	// gohcl fills an omitted optional attribute with a zero-width placeholder.
	r := expr.Range()
	if r.End.Byte <= r.Start.Byte {
		return nil, nil
	}
	if len(expr.Variables()) == 0 {
		if v, diags := expr.Value(nil); !diags.HasErrors() && v.IsNull() {
			return nil, nil
		}
	}
	exprs, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	return exprs, nil
}
