// Package node defines the immutable description of one unit of computation
// or stored value in a dataflow graph.
//
// A Description is pure data. Its Payload is a sealed variant with exactly
// three cases:
//
//   - Literal: a constant value (Kind Value).
//   - External: a value supplied by a named external effect such as
//     `extern.frame` (Kind Ref).
//   - Executable: a callable invoked with the values of the node's
//     dependencies, in argument-slot order (Kind Ref, marker
//     `@graph.executable`).
//
// Live runtime state (cached values, versions, watchers) lives in the scope
// package, never here.
package node
