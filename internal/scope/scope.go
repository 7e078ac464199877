package scope

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/nodeid"
)

// Scope is the table of live nodes shared by every graph run through one
// runtime.
type Scope struct {
	entries sync.Map // Key: scoped id string, Value: *LiveNode
	uuids   sync.Map // Key: node UUID, Value: *LiveNode
}

// New creates an empty scope.
func New() *Scope {
	return &Scope{}
}

// Get returns the live node for id, if it has been materialized.
func (s *Scope) Get(id nodeid.ScopedID) (*LiveNode, bool) {
	v, ok := s.entries.Load(id.String())
	if !ok {
		return nil, false
	}
	return v.(*LiveNode), true
}

// GetOrCreate returns the live node for nodeID in g, materializing it on
// first use. Its dependencies are taken from the incoming edges in slot
// order; every source must exist in g. Concurrent calls for the same id
// return the same live node.
func (s *Scope) GetOrCreate(g *graph.Graph, nodeID string) (*LiveNode, error) {
	key := nodeid.New(g.ID, nodeID).String()
	if v, ok := s.entries.Load(key); ok {
		return v.(*LiveNode), nil
	}

	d, ok := g.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("graph '%s': node '%s': %w", g.ID, nodeID, graph.ErrNodeNotFound)
	}

	incoming := g.Incoming(nodeID)
	deps := make([]nodeid.ScopedID, 0, len(incoming))
	for _, e := range incoming {
		if _, ok := g.Node(e.From); !ok {
			return nil, fmt.Errorf("graph '%s': node '%s' slot '%s': %w: '%s'", g.ID, nodeID, e.As, graph.ErrUnresolvedDependency, e.From)
		}
		deps = append(deps, nodeid.New(g.ID, e.From))
	}

	v, loaded := s.entries.LoadOrStore(key, newLiveNode(g, d, deps))
	ln := v.(*LiveNode)
	if !loaded && d.UUID != "" {
		s.uuids.Store(d.UUID, ln)
	}
	return ln, nil
}

// ByUUID returns the live node whose description carries the given
// correlation id.
func (s *Scope) ByUUID(uuid string) (*LiveNode, bool) {
	v, ok := s.uuids.Load(uuid)
	if !ok {
		return nil, false
	}
	return v.(*LiveNode), true
}

// Len returns the number of live nodes.
func (s *Scope) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Range calls fn for every live node in scoped-id order until fn returns
// false.
func (s *Scope) Range(fn func(*LiveNode) bool) {
	for _, ln := range s.sorted(func(*LiveNode) bool { return true }) {
		if !fn(ln) {
			return
		}
	}
}

// DropGraph removes every live node of graphID from the scope and returns
// them in scoped-id order. Callers are responsible for stopping watches and
// unbinding effects of the returned nodes.
func (s *Scope) DropGraph(graphID string) []*LiveNode {
	dropped := s.sorted(func(ln *LiveNode) bool { return ln.ID.Graph == graphID })
	for _, ln := range dropped {
		s.entries.Delete(ln.ID.String())
		if uuid := ln.Description.UUID; uuid != "" {
			s.uuids.CompareAndDelete(uuid, ln)
		}
	}
	return dropped
}

func (s *Scope) sorted(keep func(*LiveNode) bool) []*LiveNode {
	var nodes []*LiveNode
	s.entries.Range(func(_, v any) bool {
		if ln := v.(*LiveNode); keep(ln) {
			nodes = append(nodes, ln)
		}
		return true
	})
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID.Less(nodes[j].ID) })
	return nodes
}
