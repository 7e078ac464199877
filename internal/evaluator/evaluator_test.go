package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/effects"
	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/nodeid"
	"github.com/vk/framegraph/internal/scope"
	"github.com/vk/framegraph/internal/watch"
)

// counter wraps fn and counts its invocations.
type counter struct {
	calls atomic.Int32
	fn    func(args []any) (any, error)
}

func (c *counter) Call(_ context.Context, args []any) (any, error) {
	c.calls.Add(1)
	return c.fn(args)
}

func add(args []any) (any, error) {
	return args[0].(int) + args[1].(int), nil
}

func double(args []any) (any, error) {
	return args[0].(int) * 2, nil
}

func newEvaluator(t *testing.T, opts ...Option) (*Evaluator, *effects.Registry) {
	t.Helper()
	fx, err := effects.NewRegistry(effects.Frame(0))
	require.NoError(t, err)
	return New(scope.New(), fx, opts...), fx
}

func newGraph(t *testing.T, id string) *graph.Graph {
	t.Helper()
	g, err := graph.New(id)
	require.NoError(t, err)
	return g
}

// sumGraph is A(3), B(4), C = A + B.
func sumGraph(t *testing.T, id string, c node.Callable) *graph.Graph {
	t.Helper()
	g := newGraph(t, id)
	require.NoError(t, g.AddNode(node.NewValue("A", 3)))
	require.NoError(t, g.AddNode(node.NewValue("B", 4)))
	require.NoError(t, g.AddNode(node.NewExecutable("C", c, 2)))
	require.NoError(t, g.AddEdge("A", "C", "arg0"))
	require.NoError(t, g.AddEdge("B", "C", "arg1"))
	g.Out = "C"
	return g
}

// frameGraph is F = extern.frame, M = F * 2.
func frameGraph(t *testing.T, id string, c node.Callable) *graph.Graph {
	t.Helper()
	g := newGraph(t, id)
	f, err := node.NewRef("F", effects.FrameRef, nil)
	require.NoError(t, err)
	require.NoError(t, g.AddNode(f))
	m, err := node.NewRef("M", node.ExecutableRef, c)
	require.NoError(t, err)
	require.NoError(t, g.AddNode(m))
	require.NoError(t, g.AddEdge("F", "M", "arg0"))
	g.Out = "M"
	return g
}

func TestRunGraphNode_Sum(t *testing.T) {
	e, _ := newEvaluator(t)
	g := sumGraph(t, "sum", node.Func(func(_ context.Context, args []any) (any, error) { return add(args) }))

	v, err := e.RunGraphNode(context.Background(), g, "C")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 3, e.Scope().Len())
}

func TestRunGraphNode_ReflectedCallable(t *testing.T) {
	e, _ := newEvaluator(t)
	g := newGraph(t, "sum")
	require.NoError(t, g.AddNode(node.NewValue("A", 3)))
	require.NoError(t, g.AddNode(node.NewValue("B", 4)))
	c, err := node.NewRef("C", node.ExecutableRef, func(a, b int) int { return a + b })
	require.NoError(t, err)
	require.NoError(t, g.AddNode(c))
	require.NoError(t, g.AddEdge("A", "C", "arg0"))
	require.NoError(t, g.AddEdge("B", "C", "arg1"))

	v, err := e.RunGraphNode(context.Background(), g, "C")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMemoization(t *testing.T) {
	e, _ := newEvaluator(t)
	c := &counter{fn: add}
	g := sumGraph(t, "memo", c)
	ctx := context.Background()

	first, err := e.RunGraphNode(ctx, g, "C")
	require.NoError(t, err)
	second, err := e.RunGraphNode(ctx, g, "C")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), c.calls.Load())

	ln, ok := e.Scope().Get(nodeid.New("memo", "C"))
	require.True(t, ok)
	_, err = e.RunNode(ctx, ln)
	require.NoError(t, err)
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestDependencyOrder(t *testing.T) {
	e, _ := newEvaluator(t)
	g := newGraph(t, "order")
	var got []any
	collect := node.Func(func(_ context.Context, args []any) (any, error) {
		got = append([]any(nil), args...)
		return len(args), nil
	})
	require.NoError(t, g.AddNode(node.NewExecutable("out", collect, -1)))

	slots := []string{"arg10", "arg2", "arg0", "arg1"}
	for _, slot := range slots {
		require.NoError(t, g.AddNode(node.NewValue("v_"+slot, slot)))
		require.NoError(t, g.AddEdge("v_"+slot, "out", slot))
	}

	v, err := e.RunGraphNode(context.Background(), g, "out")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, []any{"arg0", "arg1", "arg2", "arg10"}, got)
}

func TestScopeIdentity(t *testing.T) {
	e, _ := newEvaluator(t)
	c := &counter{fn: add}
	ctx := context.Background()

	_, err := e.RunGraphNode(ctx, sumGraph(t, "scene", c), "C")
	require.NoError(t, err)
	first, ok := e.Scope().Get(nodeid.New("scene", "C"))
	require.True(t, ok)

	// A new graph value with the same id maps onto the same live nodes.
	_, err = e.RunGraphNode(ctx, sumGraph(t, "scene", c), "C")
	require.NoError(t, err)
	second, ok := e.Scope().Get(nodeid.New("scene", "C"))
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Equal(t, 3, e.Scope().Len())
	assert.Equal(t, int32(1), c.calls.Load())

	// A different graph id does not collide.
	_, err = e.RunGraphNode(ctx, sumGraph(t, "other", c), "C")
	require.NoError(t, err)
	assert.Equal(t, 6, e.Scope().Len())
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestFrameEffect(t *testing.T) {
	e, fx := newEvaluator(t)
	c := &counter{fn: double}
	g := frameGraph(t, "anim", c)
	ctx := context.Background()

	v, err := e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(1), c.calls.Load(), "no tick, no recomputation")

	_, err = fx.Tick(effects.FrameRef)
	require.NoError(t, err)

	v, err = e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, int32(2), c.calls.Load())

	for range 3 {
		_, err = fx.Tick(effects.FrameRef)
		require.NoError(t, err)
	}
	v, err = e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, int32(3), c.calls.Load(), "intermediate ticks are not computed")
}

func TestFrameEffect_SharedAcrossGraphs(t *testing.T) {
	e, fx := newEvaluator(t)
	ctx := context.Background()
	g1 := frameGraph(t, "one", &counter{fn: double})
	g2 := frameGraph(t, "two", &counter{fn: double})

	for _, g := range []*graph.Graph{g1, g2} {
		v, err := e.RunGraphNode(ctx, g, "F")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	}

	for range 2 {
		_, err := fx.Tick(effects.FrameRef)
		require.NoError(t, err)
	}

	for _, g := range []*graph.Graph{g1, g2} {
		v, err := e.RunGraphNode(ctx, g, "F")
		require.NoError(t, err)
		assert.Equal(t, 3, v, g.ID)
		v, err = e.RunGraphNode(ctx, g, "M")
		require.NoError(t, err)
		assert.Equal(t, 6, v, g.ID)
	}
	assert.Len(t, fx.Bound(effects.FrameRef), 2)
}

func TestWatch(t *testing.T) {
	e, fx := newEvaluator(t)
	g := frameGraph(t, "anim", &counter{fn: double})
	ctx := context.Background()

	_, err := e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	m, ok := e.Scope().Get(nodeid.New("anim", "M"))
	require.True(t, ok)
	f, ok := e.Scope().Get(nodeid.New("anim", "F"))
	require.True(t, ok)

	t.Run("a tick reaches the effect node and a rerun reaches its dependents", func(t *testing.T) {
		wf := e.CreateWatch(f)
		wm := e.CreateWatch(m)
		defer wf.Stop()
		defer wm.Stop()

		_, err := fx.Tick(effects.FrameRef)
		require.NoError(t, err)
		v, err := wf.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, v)

		_, err = e.RunNode(ctx, m)
		require.NoError(t, err)
		v, err = wm.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, v)

		// Exactly one value per recomputation.
		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = wm.Next(short)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("stop terminates a pending request", func(t *testing.T) {
		w := e.CreateWatch(m)
		done := make(chan error, 1)
		go func() {
			_, err := w.Next(ctx)
			done <- err
		}()
		require.Eventually(t, func() bool { return w.State() == watch.Awaiting }, time.Second, time.Millisecond)

		e.StopWatch(m)
		e.StopWatch(m)
		select {
		case err := <-done:
			assert.ErrorIs(t, err, watch.ErrStopped)
		case <-time.After(time.Second):
			t.Fatal("pending Next did not return after StopWatch")
		}

		_, err := fx.Tick(effects.FrameRef)
		require.NoError(t, err)
		_, err = e.RunNode(ctx, m)
		require.NoError(t, err)
		_, err = w.Next(ctx)
		assert.ErrorIs(t, err, watch.ErrStopped)
	})
}

func TestCycleGuard(t *testing.T) {
	pass := node.Func(func(_ context.Context, args []any) (any, error) { return args[0], nil })

	t.Run("two node cycle", func(t *testing.T) {
		e, _ := newEvaluator(t)
		g := newGraph(t, "loop")
		require.NoError(t, g.AddNode(node.NewExecutable("A", pass, 1)))
		require.NoError(t, g.AddNode(node.NewExecutable("B", pass, 1)))
		require.NoError(t, g.AddEdge("B", "A", "arg0"))
		require.NoError(t, g.AddEdge("A", "B", "arg0"))

		_, err := e.RunGraphNode(context.Background(), g, "A")
		require.ErrorIs(t, err, ErrCyclicGraph)
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, "cyclic graph: loop/A -> loop/B -> loop/A", err.Error())
	})

	t.Run("self reference", func(t *testing.T) {
		e, _ := newEvaluator(t)
		g := newGraph(t, "self")
		require.NoError(t, g.AddNode(node.NewExecutable("A", pass, 1)))
		require.NoError(t, g.AddEdge("A", "A", "arg0"))

		_, err := e.RunGraphNode(context.Background(), g, "A")
		assert.ErrorIs(t, err, ErrCyclicGraph)
	})

	t.Run("depth limit", func(t *testing.T) {
		e, _ := newEvaluator(t, WithMaxDepth(5))
		g := newGraph(t, "deep")
		require.NoError(t, g.AddNode(node.NewValue("n0", 0)))
		for i := 1; i <= 8; i++ {
			id := fmt.Sprintf("n%d", i)
			require.NoError(t, g.AddNode(node.NewExecutable(id, pass, 1)))
			require.NoError(t, g.AddEdge(fmt.Sprintf("n%d", i-1), id, "arg0"))
		}

		_, err := e.RunGraphNode(context.Background(), g, "n8")
		require.ErrorIs(t, err, ErrCyclicGraph)
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, 5, cycle.Limit)
		assert.Len(t, cycle.Chain, 6)

		v, err := e.RunGraphNode(context.Background(), g, "n4")
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	})
}

func TestComputationErrors(t *testing.T) {
	e, _ := newEvaluator(t)
	boom := errors.New("boom")
	var fail atomic.Bool
	fail.Store(true)
	c := &counter{fn: func(args []any) (any, error) {
		if fail.Load() {
			return nil, boom
		}
		return add(args)
	}}
	g := sumGraph(t, "err", c)
	ctx := context.Background()

	_, err := e.RunGraphNode(ctx, g, "C")
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "err/C")

	ln, ok := e.Scope().Get(nodeid.New("err", "C"))
	require.True(t, ok)
	_, set := ln.Value()
	assert.False(t, set, "a failed node has no cached value")

	_, err = e.RunGraphNode(ctx, g, "C")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), c.calls.Load(), "a failed node is retried")

	fail.Store(false)
	v, err := e.RunGraphNode(ctx, g, "C")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestStructuralErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown effect", func(t *testing.T) {
		e, _ := newEvaluator(t)
		g := newGraph(t, "fx")
		d, err := node.NewRef("X", "extern.nope", nil)
		require.NoError(t, err)
		require.NoError(t, g.AddNode(d))

		_, err = e.RunGraphNode(ctx, g, "X")
		assert.ErrorIs(t, err, effects.ErrUnknownEffect)
		assert.ErrorContains(t, err, "fx/X")
	})

	t.Run("no effect registry", func(t *testing.T) {
		e := New(scope.New(), nil)
		_, err := e.RunGraphNode(ctx, frameGraph(t, "fx", &counter{fn: double}), "M")
		assert.ErrorIs(t, err, effects.ErrUnknownEffect)
	})

	t.Run("missing callable", func(t *testing.T) {
		e, _ := newEvaluator(t)
		g := newGraph(t, "nocall")
		require.NoError(t, g.AddNode(&node.Description{
			ID:      "C",
			Kind:    node.Ref,
			Ref:     node.ExecutableRef,
			Payload: node.Executable{Arity: -1},
		}))
		_, err := e.RunGraphNode(ctx, g, "C")
		assert.ErrorIs(t, err, node.ErrMissingCallable)
	})

	t.Run("unresolved dependency", func(t *testing.T) {
		e, _ := newEvaluator(t)
		g := newGraph(t, "dangling")
		require.NoError(t, g.AddNode(node.NewExecutable("C", &counter{fn: double}, 1)))
		require.NoError(t, g.AddEdge("ghost", "C", "arg0"))

		_, err := e.RunGraphNode(ctx, g, "C")
		assert.ErrorIs(t, err, graph.ErrUnresolvedDependency)
	})

	t.Run("unknown node", func(t *testing.T) {
		e, _ := newEvaluator(t)
		_, err := e.RunGraphNode(ctx, newGraph(t, "empty"), "C")
		assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	})

	t.Run("arity", func(t *testing.T) {
		e, _ := newEvaluator(t)
		g := newGraph(t, "arity")
		require.NoError(t, g.AddNode(node.NewValue("A", 1)))
		require.NoError(t, g.AddNode(node.NewExecutable("C", &counter{fn: add}, 2)))
		require.NoError(t, g.AddEdge("A", "C", "arg0"))
		_, err := e.RunGraphNode(ctx, g, "C")
		assert.ErrorIs(t, err, node.ErrArity)
	})
}

func TestReentrantCallable(t *testing.T) {
	e, _ := newEvaluator(t)
	g := sumGraph(t, "re", &counter{fn: add})
	outer := node.Func(func(ctx context.Context, _ []any) (any, error) {
		v, err := e.RunGraphNode(ctx, g, "C")
		if err != nil {
			return nil, err
		}
		return v.(int) * 10, nil
	})
	require.NoError(t, g.AddNode(node.NewExecutable("outer", outer, 0)))

	v, err := e.RunGraphNode(context.Background(), g, "outer")
	require.NoError(t, err)
	assert.Equal(t, 70, v)

	loop := newGraph(t, "reloop")
	var self node.Func
	self = func(ctx context.Context, _ []any) (any, error) {
		return e.RunGraphNode(ctx, loop, "L")
	}
	require.NoError(t, loop.AddNode(node.NewExecutable("L", self, 0)))
	_, err = e.RunGraphNode(context.Background(), loop, "L")
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestDiscard(t *testing.T) {
	e, fx := newEvaluator(t)
	c := &counter{fn: double}
	g := frameGraph(t, "anim", c)
	ctx := context.Background()

	_, err := e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	m, _ := e.Scope().Get(nodeid.New("anim", "M"))
	w := e.CreateWatch(m)

	assert.Equal(t, 2, e.Discard("anim"))
	assert.Equal(t, 0, e.Scope().Len())
	assert.Empty(t, fx.Bound(effects.FrameRef))
	assert.Equal(t, watch.Cancelled, w.State())

	_, err = fx.Tick(effects.FrameRef)
	require.NoError(t, err)
	v, err := e.RunGraphNode(ctx, g, "M")
	require.NoError(t, err)
	assert.Equal(t, 4, v, "a rebound node reads the current frame")
	assert.Equal(t, int32(2), c.calls.Load())
}
