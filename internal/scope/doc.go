// Package scope holds the runtime state of materialized graph nodes.
//
// A Scope maps scoped ids ("graph/node") to LiveNodes. Entries are created
// lazily by GetOrCreate the first time the evaluator reaches a node and are
// kept for the lifetime of the Scope, so evaluating the same graph id again
// reuses the same live nodes, their cached values and their watchers.
//
// # Cache cells
//
// Every LiveNode owns a cell with a value, a set flag and a version counter.
// Each write (Set or Commit) bumps the version and publishes the value to the
// node's watch hub. Commit also records the versions of the dependencies the
// value was computed from; Fresh compares them with the current ones, which
// is how the evaluator decides whether a cached result can be reused.
//
// # Concurrency
//
// The entry table uses sync.Map: the key space only grows while values are
// read far more often than inserted. Each cell is guarded by its own mutex.
package scope
