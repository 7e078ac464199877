package scope

import (
	"slices"
	"sync"

	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/nodeid"
	"github.com/vk/framegraph/internal/watch"
)

// LiveNode is the runtime counterpart of a node description inside a Scope.
type LiveNode struct {
	// ID is the scoped id of the node.
	ID nodeid.ScopedID
	// Description is the node description it was created from.
	Description *node.Description
	// Dependencies are the scoped ids of the node's inputs in slot order.
	Dependencies []nodeid.ScopedID

	graph *graph.Graph
	hub   *watch.Hub

	mu          sync.Mutex
	value       any
	set         bool
	version     uint64
	depVersions []uint64
	derived     bool
	external    bool
}

func newLiveNode(g *graph.Graph, d *node.Description, deps []nodeid.ScopedID) *LiveNode {
	id := nodeid.New(g.ID, d.ID)
	return &LiveNode{
		ID:           id,
		Description:  d,
		Dependencies: deps,
		graph:        g,
		hub:          watch.NewHub(id.String()),
	}
}

// Graph returns the graph the node was materialized from.
func (ln *LiveNode) Graph() *graph.Graph {
	return ln.graph
}

// Hub returns the watch hub of the node.
func (ln *LiveNode) Hub() *watch.Hub {
	return ln.hub
}

// Snapshot returns the cached value, its version and whether a value is set,
// read together.
func (ln *LiveNode) Snapshot() (any, uint64, bool) {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	return ln.value, ln.version, ln.set
}

// Value returns the cached value and whether one is set.
func (ln *LiveNode) Value() (any, bool) {
	v, _, ok := ln.Snapshot()
	return v, ok
}

// Version returns the number of writes the cell has seen.
func (ln *LiveNode) Version() uint64 {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	return ln.version
}

// Set overwrites the cached value from outside the evaluator, e.g. on an
// effect tick, and notifies watchers. It returns the new version.
func (ln *LiveNode) Set(v any) uint64 {
	return ln.write(v, nil, false)
}

// Commit stores a value computed from dependencies at the given versions and
// notifies watchers. It returns the new version.
func (ln *LiveNode) Commit(v any, depVersions []uint64) uint64 {
	return ln.write(v, slices.Clone(depVersions), true)
}

func (ln *LiveNode) write(v any, depVersions []uint64, derived bool) uint64 {
	ln.mu.Lock()
	ln.value = v
	ln.set = true
	ln.version++
	ln.depVersions = depVersions
	ln.derived = derived
	version := ln.version
	ln.mu.Unlock()

	ln.hub.PublishVersion(v, version)
	return version
}

// Fresh reports whether the cached value was computed from dependencies at
// exactly these versions.
func (ln *LiveNode) Fresh(depVersions []uint64) bool {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	return ln.set && ln.derived && slices.Equal(ln.depVersions, depVersions)
}

// Invalidate drops the cached value so the next run recomputes it. The
// version is kept; watchers are not notified.
func (ln *LiveNode) Invalidate() {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	ln.value = nil
	ln.set = false
	ln.derived = false
	ln.depVersions = nil
}

// MarkExternal flags the node as driven by an effect source.
func (ln *LiveNode) MarkExternal() {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	ln.external = true
}

// External reports whether the node is driven by an effect source.
func (ln *LiveNode) External() bool {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	return ln.external
}

// String returns the scoped id.
func (ln *LiveNode) String() string {
	return ln.ID.String()
}
