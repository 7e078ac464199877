// Package funcs provides the builtin functions available to graph
// descriptions: cty-backed math and string helpers, scene object
// constructors and transforms, and render.
//
// Objects are plain map[string]any descriptions. Transforms copy the object
// and set a single attribute; no geometry is computed here.
package funcs
