package evaluator

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/effects"
	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/nodeid"
	"github.com/vk/framegraph/internal/scope"
	"github.com/vk/framegraph/internal/watch"
)

// DefaultMaxDepth bounds the dependency chain of a single run.
const DefaultMaxDepth = 10000

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDepth sets the longest dependency chain a run may follow.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// Evaluator runs graph nodes against a shared scope.
type Evaluator struct {
	scope    *scope.Scope
	effects  *effects.Registry
	maxDepth int
}

// New creates an evaluator over s. fx may be nil when no graph uses effect
// sources.
func New(s *scope.Scope, fx *effects.Registry, opts ...Option) *Evaluator {
	e := &Evaluator{
		scope:    s,
		effects:  fx,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scope returns the scope the evaluator writes to.
func (e *Evaluator) Scope() *scope.Scope {
	return e.scope
}

// RunGraphNode materializes nodeID of g in the scope and returns its value.
// Running a graph with an id seen before reuses the existing live nodes.
func (e *Evaluator) RunGraphNode(ctx context.Context, g *graph.Graph, nodeID string) (any, error) {
	ln, err := e.scope.GetOrCreate(g, nodeID)
	if err != nil {
		return nil, err
	}
	return e.RunNode(ctx, ln)
}

// RunNode returns the value of an already materialized live node,
// recomputing it if any dependency changed since it was last computed.
func (e *Evaluator) RunNode(ctx context.Context, ln *scope.LiveNode) (any, error) {
	tr, ok := ctx.Value(trailKey{}).(*trail)
	if !ok {
		tr = &trail{index: make(map[string]int)}
		ctx = context.WithValue(ctx, trailKey{}, tr)
	}
	v, _, err := e.run(ctx, ln, tr)
	return v, err
}

// CreateWatch attaches a new watch to ln. It yields the values written to
// ln after this call.
func (e *Evaluator) CreateWatch(ln *scope.LiveNode) *watch.Watch {
	return ln.Hub().Subscribe()
}

// StopWatch stops every watch attached to ln. It is idempotent.
func (e *Evaluator) StopWatch(ln *scope.LiveNode) {
	ln.Hub().StopAll()
}

// Discard removes every live node of graphID from the scope, stopping their
// watches and unbinding them from effect sources. The next run of that graph
// starts from scratch.
func (e *Evaluator) Discard(graphID string) int {
	dropped := e.scope.DropGraph(graphID)
	for _, ln := range dropped {
		ln.Hub().StopAll()
		if e.effects != nil {
			e.effects.Unbind(ln)
		}
	}
	return len(dropped)
}

// trailKey carries the trail of the current run through callables that run
// other nodes re-entrantly.
type trailKey struct{}

// trail is the chain of nodes on the current evaluation path.
type trail struct {
	stack []nodeid.ScopedID
	index map[string]int
}

func (t *trail) push(id nodeid.ScopedID) {
	t.index[id.String()] = len(t.stack)
	t.stack = append(t.stack, id)
}

func (t *trail) pop() {
	last := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	delete(t.index, last.String())
}

func (e *Evaluator) run(ctx context.Context, ln *scope.LiveNode, tr *trail) (any, uint64, error) {
	if pos, ok := tr.index[ln.ID.String()]; ok {
		chain := append(slices.Clone(tr.stack[pos:]), ln.ID)
		return nil, 0, &CycleError{Chain: chain}
	}
	if len(tr.stack) >= e.maxDepth {
		chain := append(slices.Clone(tr.stack), ln.ID)
		return nil, 0, &CycleError{Chain: chain, Limit: e.maxDepth}
	}
	tr.push(ln.ID)
	defer tr.pop()

	switch p := ln.Description.Payload.(type) {
	case node.Literal:
		if v, version, ok := ln.Snapshot(); ok {
			return v, version, nil
		}
		return p.Value, ln.Commit(p.Value, nil), nil

	case node.External:
		if v, version, ok := ln.Snapshot(); ok && ln.External() {
			return v, version, nil
		}
		if err := e.bind(ln, p.Ref); err != nil {
			return nil, 0, err
		}
		ctxlog.FromContext(ctx).Debug("Node bound to effect source.", "node", ln.String(), "effect", p.Ref)
		v, version, _ := ln.Snapshot()
		return v, version, nil

	case node.Executable:
		return e.runExecutable(ctx, ln, p, tr)

	default:
		return nil, 0, fmt.Errorf("node '%s': unsupported payload %T", ln.ID, p)
	}
}

func (e *Evaluator) bind(ln *scope.LiveNode, ref string) error {
	if e.effects == nil {
		return fmt.Errorf("node '%s': %w: '%s'", ln.ID, effects.ErrUnknownEffect, ref)
	}
	h, err := e.effects.Resolve(ref)
	if err != nil {
		return fmt.Errorf("node '%s': %w", ln.ID, err)
	}
	if _, err := h.Bind(ln); err != nil {
		return fmt.Errorf("node '%s': %w", ln.ID, err)
	}
	return nil
}

func (e *Evaluator) runExecutable(ctx context.Context, ln *scope.LiveNode, exec node.Executable, tr *trail) (any, uint64, error) {
	args := make([]any, len(ln.Dependencies))
	versions := make([]uint64, len(ln.Dependencies))
	for i, dep := range ln.Dependencies {
		dln, err := e.scope.GetOrCreate(ln.Graph(), dep.Node)
		if err != nil {
			return nil, 0, err
		}
		v, version, err := e.run(ctx, dln, tr)
		if err != nil {
			return nil, 0, err
		}
		args[i], versions[i] = v, version
	}

	if ln.Fresh(versions) {
		v, version, _ := ln.Snapshot()
		return v, version, nil
	}

	out, err := exec.Call(ctx, args)
	if err != nil {
		ln.Invalidate()
		return nil, 0, fmt.Errorf("node '%s': %w", ln.ID, err)
	}
	version := ln.Commit(out, versions)
	ctxlog.FromContext(ctx).Debug("Node computed.", "node", ln.String(), "version", version)
	return out, version, nil
}
