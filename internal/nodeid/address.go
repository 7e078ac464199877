// internal/nodeid/address.go
package nodeid

// String serializes the ScopedID into its canonical `graph/node` form.
func (id ScopedID) String() string {
	return id.Graph + Separator + id.Node
}

// IsZero reports whether the id has neither a graph nor a node part.
func (id ScopedID) IsZero() bool {
	return id.Graph == "" && id.Node == ""
}

// Less orders scoped ids by graph first, then node. It is used wherever a
// deterministic iteration order over live nodes is required.
func (id ScopedID) Less(other ScopedID) bool {
	if id.Graph != other.Graph {
		return id.Graph < other.Graph
	}
	return id.Node < other.Node
}
