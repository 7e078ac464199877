package graph

import "errors"

var (
	// ErrNodeNotFound is returned when a requested node id is not in the graph.
	ErrNodeNotFound = errors.New("node not found")
	// ErrUnresolvedDependency is returned when an edge names a source node
	// that is absent from the graph.
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	// ErrDuplicateEdge is returned when the same source is linked to the same
	// target twice.
	ErrDuplicateEdge = errors.New("duplicate edge")
	// ErrDuplicateSlot is returned when two sources claim the same argument
	// slot of one target.
	ErrDuplicateSlot = errors.New("duplicate argument slot")
	// ErrCycle is returned by DetectCycles.
	ErrCycle = errors.New("cycle detected")
)
