// Package evaluator computes the values of live nodes.
//
// Evaluation is a memoized depth-first walk. Literal nodes are cached once.
// Ref nodes naming an effect source are resolved through the effects
// registry, bound to it and cached; later ticks overwrite their value.
// Executable nodes first run their dependencies in argument-slot order and
// then reuse their cached result when every dependency is still at the
// version it had when that result was computed. Otherwise the callable is
// invoked and the result committed, which notifies the node's watchers.
//
// Nothing is pushed downstream when an upstream value changes: re-running
// the output node is what walks the graph and recomputes stale nodes.
//
// A run keeps the chain of nodes being visited. Reaching a node already on
// the chain, or exceeding the configured depth, fails with a *CycleError.
package evaluator
