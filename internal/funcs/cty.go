package funcs

import (
	"context"
	"fmt"

	"github.com/vk/framegraph/internal/ctyconv"
	"github.com/vk/framegraph/internal/node"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// ctyCallable calls a cty function with native arguments.
type ctyCallable struct {
	fn function.Function
}

// FromCty adapts a cty function to an executable. Arguments are converted
// with ctyconv.ToCty and the result with ctyconv.ToNative.
func FromCty(fn function.Function) node.Executable {
	arity := len(fn.Params())
	if fn.VarParam() != nil {
		arity = -1
	}
	return node.Executable{Fn: ctyCallable{fn: fn}, Arity: arity}
}

// Call implements node.Callable.
func (c ctyCallable) Call(_ context.Context, args []any) (any, error) {
	vals := make([]cty.Value, len(args))
	for i, arg := range args {
		v, err := ctyconv.ToCty(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	out, err := c.fn.Call(vals)
	if err != nil {
		return nil, err
	}
	return ctyconv.ToNative(out)
}
