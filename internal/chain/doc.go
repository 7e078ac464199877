// Package chain builds graph nodes through fluent method calls on node
// handles, e.g.
//
//	cube, _ := b.Func("box", tables.Object, 1, 1, 1)
//	cube, _ = cube.Call("translate", 0, angle, 0)
//
// Every handle is bound to a Table that lists the methods valid for the
// value it produces. Calling a method resolves it in that table, adds an
// executable node with the receiver as arg0 and the call arguments as
// arg1.., and returns a handle bound to the method's Next table.
package chain
