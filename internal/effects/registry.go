package effects

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/nodeid"
	"github.com/vk/framegraph/internal/scope"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownEffect is returned when a ref names no registered source.
var ErrUnknownEffect = errors.New("unknown effect")

// Source describes a named effect.
type Source struct {
	// Name is the ref that resolves to this source, e.g. "extern.frame".
	Name string
	// Initial produces the value held before the first tick.
	Initial func() any
	// Advance derives the value after a tick from the current one.
	Advance func(current any) any
	// Schedule calls tick whenever the source should advance, until ctx is
	// done. A nil Schedule means the source only advances through
	// Registry.Tick.
	Schedule func(ctx context.Context, tick func()) error
}

type entry struct {
	src   Source
	value any
	bound map[string]*scope.LiveNode
}

// Registry owns the effect sources of one runtime.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates a registry with the given sources.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{entries: make(map[string]*entry)}
	for _, src := range sources {
		if err := r.Register(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a source and computes its initial value.
func (r *Registry) Register(src Source) error {
	if src.Name == "" {
		return fmt.Errorf("effect source name cannot be empty")
	}
	if src.Initial == nil || src.Advance == nil {
		return fmt.Errorf("effect source '%s' needs both Initial and Advance", src.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[src.Name]; exists {
		return fmt.Errorf("effect source '%s' is already registered", src.Name)
	}
	r.entries[src.Name] = &entry{
		src:   src,
		value: src.Initial(),
		bound: make(map[string]*scope.LiveNode),
	}
	return nil
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns a handle for the source named ref.
func (r *Registry) Resolve(ref string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[ref]; !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEffect, ref)
	}
	return &Handle{registry: r, name: ref}, nil
}

// Current returns the current value of a source.
func (r *Registry) Current(name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEffect, name)
	}
	return e.value, nil
}

// Tick advances a source once and pushes the new value into every bound
// live node in scoped-id order. It returns the new value.
func (r *Registry) Tick(name string) (any, error) {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEffect, name)
	}
	e.value = e.src.Advance(e.value)
	v := e.value
	targets := sortedNodes(e.bound)
	r.mu.Unlock()

	for _, ln := range targets {
		ln.Set(v)
	}
	return v, nil
}

// Bound returns the ids of the live nodes bound to a source, sorted.
func (r *Registry) Bound(name string) []nodeid.ScopedID {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	ids := make([]nodeid.ScopedID, 0, len(e.bound))
	for _, ln := range sortedNodes(e.bound) {
		ids = append(ids, ln.ID)
	}
	return ids
}

// Unbind detaches a live node from every source. It is a no-op for nodes
// that were never bound.
func (r *Registry) Unbind(ln *scope.LiveNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ln.ID.String()
	for _, e := range r.entries {
		if cur, ok := e.bound[key]; ok && cur == ln {
			delete(e.bound, key)
		}
	}
}

// Drive runs the schedule of every source until ctx is done. after, if not
// nil, is called after each tick with the source name and its new value;
// ticks of different sources may call it concurrently. Drive returns the
// first schedule error, or nil once ctx is done.
func (r *Registry) Drive(ctx context.Context, after func(name string, v any)) error {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	var sources []Source
	for _, e := range r.entries {
		if e.src.Schedule != nil {
			sources = append(sources, e.src)
		}
	}
	r.mu.Unlock()
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			logger.Debug("Effect source scheduled.", "effect", src.Name)
			err := src.Schedule(gctx, func() {
				if gctx.Err() != nil {
					return
				}
				v, err := r.Tick(src.Name)
				if err != nil {
					logger.Error("Effect tick failed.", "effect", src.Name, "error", err)
					return
				}
				if after != nil {
					after(src.Name, v)
				}
			})
			if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("effect '%s': %w", src.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func sortedNodes(m map[string]*scope.LiveNode) []*scope.LiveNode {
	nodes := make([]*scope.LiveNode, 0, len(m))
	for _, ln := range m {
		nodes = append(nodes, ln)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID.Less(nodes[j].ID) })
	return nodes
}

// Handle is a resolved effect source. It holds no per-node state, so one
// handle may bind any number of live nodes.
type Handle struct {
	registry *Registry
	name     string
}

// Name returns the source name.
func (h *Handle) Name() string {
	return h.name
}

// Bind subscribes ln to the source's ticks, stores the current value in its
// cell and returns it.
func (h *Handle) Bind(ln *scope.LiveNode) (any, error) {
	r := h.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h.name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEffect, h.name)
	}
	e.bound[ln.ID.String()] = ln
	ln.MarkExternal()
	ln.Set(e.value)
	return e.value, nil
}
