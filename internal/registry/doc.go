// Package registry maps function names used in graph descriptions to the
// executables that implement them.
//
// Builtin function sets are compiled in as Modules. Each runtime builds its
// own Registry from them at startup, so there is no process-wide table.
package registry
