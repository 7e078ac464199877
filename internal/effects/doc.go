// Package effects is the registry of external effect sources.
//
// An effect source produces values from outside the dependency graph, such
// as the animation frame counter bound to `extern.frame`. Ref nodes naming a
// source are resolved through the Registry; binding a live node records it
// so that every later tick overwrites its cached value and wakes its
// watchers. A source owns its own schedule; Registry.Drive runs all of them.
package effects
