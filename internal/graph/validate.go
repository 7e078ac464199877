package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the structural invariants of the graph and reports every
// violation it finds, not only the first one.
func (g *Graph) Validate() error {
	var result *multierror.Error

	if g.Out == "" {
		result = multierror.Append(result, fmt.Errorf("graph '%s': output node is not set", g.ID))
	} else if _, ok := g.Nodes[g.Out]; !ok {
		result = multierror.Append(result, fmt.Errorf("graph '%s': output '%s': %w", g.ID, g.Out, ErrNodeNotFound))
	}

	for _, id := range g.sortedNodeIDs() {
		d := g.Nodes[id]
		if d.ID != id {
			result = multierror.Append(result, fmt.Errorf("graph '%s': node stored as '%s' has id '%s'", g.ID, id, d.ID))
		}
		if err := d.Check(); err != nil {
			result = multierror.Append(result, fmt.Errorf("graph '%s': %w", g.ID, err))
		}
		if d.IsExternal() && len(g.EdgesIn[id]) > 0 {
			result = multierror.Append(result, fmt.Errorf("graph '%s': external node '%s' must not have dependencies", g.ID, id))
		}
	}

	keys := make([]string, 0, len(g.Edges))
	for k := range g.Edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := g.Edges[k]
		if _, ok := g.Nodes[e.From]; !ok {
			result = multierror.Append(result, fmt.Errorf("graph '%s': edge %s -> %s: %w: '%s'", g.ID, e.From, e.To, ErrUnresolvedDependency, e.From))
		}
		if _, ok := g.Nodes[e.To]; !ok {
			result = multierror.Append(result, fmt.Errorf("graph '%s': edge %s -> %s: target: %w", g.ID, e.From, e.To, ErrNodeNotFound))
		}
	}

	if err := g.DetectCycles(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// naming the chain of node ids that closes the first cycle found.
func (g *Graph) DetectCycles() error {
	// permanent: nodes fully visited and known not to be part of a cycle.
	// onStack: nodes in the current traversal path, in order.
	permanent := make(map[string]bool)
	onStack := make(map[string]int)
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if pos, ok := onStack[id]; ok {
			chain := append(append([]string{}, stack[pos:]...), id)
			return fmt.Errorf("graph '%s': %w: %s", g.ID, ErrCycle, strings.Join(chain, " -> "))
		}

		onStack[id] = len(stack)
		stack = append(stack, id)
		for _, e := range g.Incoming(id) {
			if err := visit(e.From); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.sortedNodeIDs() {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) sortedNodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
