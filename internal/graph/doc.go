// Package graph provides the container that holds a compiled dataflow graph:
// node descriptions, directed dependency edges, the reverse index of incoming
// edges and the designated output node.
//
// # Lifecycle
//
//  1. **Construction:** an external compiler (or the hclgraph loader, or the
//     chain builder) creates a Graph with New and populates it with AddNode
//     and AddEdge.
//  2. **Validation:** Validate reports every structural problem at once.
//  3. **Execution:** the graph is handed to the evaluator, which only reads it
//     while materializing live nodes into the execution scope.
//
// A Graph is logically immutable once handed to the evaluator. EdgesIn is a
// derived index and is only ever written by AddEdge, in the same step as
// Edges, so the two never drift apart.
//
// # Argument slots
//
// Each edge names the slot its source fills on the target (`as`). Executable
// nodes use `arg0`, `arg1`, ... and receive their arguments in ascending slot
// order. Slots compare with natural ordering, so `arg2` sorts before `arg10`.
package graph
