package graph

import (
	"fmt"
	"sort"

	"github.com/vk/framegraph/internal/node"
	"github.com/vk/framegraph/internal/nodeid"
)

// Edge is a directed dependency: the value of From fills slot As when
// computing To.
type Edge struct {
	From string
	To   string
	As   string
}

// Key returns the id under which the edge is stored in Graph.Edges.
func (e Edge) Key() string {
	return e.From + "->" + e.To
}

// Graph is an addressable collection of node descriptions plus their
// dependency edges.
type Graph struct {
	// ID identifies the graph instance. Live nodes are scoped by it.
	ID string
	// Out is the id of the designated output node.
	Out string
	// Nodes maps node ids to their descriptions.
	Nodes map[string]*node.Description
	// Edges maps edge keys to edges.
	Edges map[string]Edge
	// EdgesIn maps a target node id to its incoming edges keyed by source id.
	EdgesIn map[string]map[string]Edge
}

// New creates and returns an initialized, empty Graph.
func New(id string) (*Graph, error) {
	if err := nodeid.ValidateGraphID(id); err != nil {
		return nil, err
	}
	return &Graph{
		ID:      id,
		Nodes:   make(map[string]*node.Description),
		Edges:   make(map[string]Edge),
		EdgesIn: make(map[string]map[string]Edge),
	}, nil
}

// AddNode adds a node description. Adding a second node with the same id is
// an error.
func (g *Graph) AddNode(d *node.Description) error {
	if d == nil {
		return fmt.Errorf("graph '%s': cannot add nil node", g.ID)
	}
	if d.ID == "" {
		return fmt.Errorf("graph '%s': node id cannot be empty", g.ID)
	}
	if _, exists := g.Nodes[d.ID]; exists {
		return fmt.Errorf("graph '%s': node '%s' already exists", g.ID, d.ID)
	}
	g.Nodes[d.ID] = d
	return nil
}

// AddEdge records that `to` depends on `from` through argument slot `as`,
// updating Edges and EdgesIn together. The nodes themselves may be added
// later; a missing source is reported when the target is materialized.
func (g *Graph) AddEdge(from, to, as string) error {
	if from == "" || to == "" {
		return fmt.Errorf("graph '%s': edge endpoints cannot be empty", g.ID)
	}
	if as == "" {
		return fmt.Errorf("graph '%s': edge %s -> %s has no argument slot", g.ID, from, to)
	}

	incoming := g.EdgesIn[to]
	if _, exists := incoming[from]; exists {
		return fmt.Errorf("graph '%s': %w: %s -> %s", g.ID, ErrDuplicateEdge, from, to)
	}
	for _, e := range incoming {
		if e.As == as {
			return fmt.Errorf("graph '%s': %w: '%s' of '%s' is already filled by '%s'", g.ID, ErrDuplicateSlot, as, to, e.From)
		}
	}

	e := Edge{From: from, To: to, As: as}
	if incoming == nil {
		incoming = make(map[string]Edge)
		g.EdgesIn[to] = incoming
	}
	incoming[from] = e
	g.Edges[e.Key()] = e
	return nil
}

// RemoveNode deletes a node and every edge into or out of it. It reports
// whether the node existed.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.Nodes[id]; !ok {
		return false
	}
	delete(g.Nodes, id)
	for key, e := range g.Edges {
		if e.From != id && e.To != id {
			continue
		}
		delete(g.Edges, key)
		if in := g.EdgesIn[e.To]; in != nil {
			delete(in, e.From)
			if len(in) == 0 {
				delete(g.EdgesIn, e.To)
			}
		}
	}
	delete(g.EdgesIn, id)
	return true
}

// Node returns the description of a node.
func (g *Graph) Node(id string) (*node.Description, bool) {
	d, ok := g.Nodes[id]
	return d, ok
}

// Incoming returns the edges into `to`, sorted by argument slot.
func (g *Graph) Incoming(to string) []Edge {
	incoming := g.EdgesIn[to]
	edges := make([]Edge, 0, len(incoming))
	for _, e := range incoming {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		return SlotLess(edges[i].As, edges[j].As)
	})
	return edges
}

// Dependents returns the ids of the nodes that depend on `from`, sorted.
func (g *Graph) Dependents(from string) []string {
	var ids []string
	for _, e := range g.Edges {
		if e.From == from {
			ids = append(ids, e.To)
		}
	}
	sort.Strings(ids)
	return ids
}

// ArgSlot returns the conventional slot name of the i-th call argument.
func ArgSlot(i int) string {
	return fmt.Sprintf("arg%d", i)
}
