package funcs

import (
	"math"

	"github.com/vk/framegraph/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// MathNames lists the functions registered by Math, in chain order.
var MathNames = []string{
	"add", "subtract", "multiply", "divide", "modulo", "negate",
	"min", "max", "abs", "floor", "ceil", "sin", "cos",
}

// Math registers the numeric functions.
type Math struct{}

// Register implements registry.Module.
func (Math) Register(r *registry.Registry) {
	r.Register("add", FromCty(stdlib.AddFunc))
	r.Register("subtract", FromCty(stdlib.SubtractFunc))
	r.Register("multiply", FromCty(stdlib.MultiplyFunc))
	r.Register("divide", FromCty(stdlib.DivideFunc))
	r.Register("modulo", FromCty(stdlib.ModuloFunc))
	r.Register("negate", FromCty(stdlib.NegateFunc))
	r.Register("min", FromCty(stdlib.MinFunc))
	r.Register("max", FromCty(stdlib.MaxFunc))
	r.Register("abs", FromCty(stdlib.AbsoluteFunc))
	r.Register("floor", FromCty(stdlib.FloorFunc))
	r.Register("ceil", FromCty(stdlib.CeilFunc))
	r.Register("sin", FromCty(SinFunc))
	r.Register("cos", FromCty(CosFunc))
}

// SinFunc returns the sine of a number of radians.
var SinFunc = unaryFloat(math.Sin)

// CosFunc returns the cosine of a number of radians.
var CosFunc = unaryFloat(math.Cos)

func unaryFloat(fn func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "num", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			var f float64
			if err := gocty.FromCtyValue(args[0], &f); err != nil {
				return cty.UnknownVal(cty.Number), err
			}
			return cty.NumberFloatVal(fn(f)), nil
		},
	})
}
