// internal/nodeid/types.go
package nodeid

// Separator joins the graph and node parts of a scoped id.
const Separator = "/"

// ScopedID is the structured representation of a live node identifier.
type ScopedID struct {
	// Graph is the id of the graph instance that owns the node.
	Graph string
	// Node is the id of the node within that graph.
	Node string
}

// New creates a scoped id for the given graph and node.
func New(graphID, nodeID string) ScopedID {
	return ScopedID{Graph: graphID, Node: nodeID}
}
