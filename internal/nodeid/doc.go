// internal/nodeid/doc.go

/*
Package nodeid provides the structured identifier used to address live nodes
inside an execution scope.

A scoped id joins the identity of a graph instance with the identity of a
node inside that graph, in the canonical format `graph/node`. The same node
id evaluated under two different graph ids never collides, while evaluating
the same named graph twice resolves to the same scoped id.

This package centralizes all formatting and parsing logic.
*/
package nodeid
