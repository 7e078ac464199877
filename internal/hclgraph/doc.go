// Package hclgraph loads graph descriptions written in HCL.
//
// A description declares one graph block and any number of value, ref and
// call blocks, possibly spread over several files:
//
//	graph "spin" {
//	  out   = "draw"
//	  watch = "cube"
//	}
//
//	value "speed" { value = 0.5 }
//	ref   "frame" { ref = "extern.frame" }
//
//	call "angle" {
//	  fn   = "multiply"
//	  args = [frame, speed]
//	}
//
// A bare name in args refers to another block and becomes an edge into
// slot argN. Any other argument must be a literal; it becomes a value node
// named "<call>.argN".
package hclgraph
